package gametime

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"corridors-server/internal/shared/database"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing gametime repository")
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Get(ctx context.Context) (*GalaxyInfo, error) {
	logger := r.logger.With("component", "gametime_repository", "operation", "get")

	query := `
		SELECT name, start_date, time_scale, real_start, created_at,
		       is_paused, is_manually_paused, paused_at, current_ingame_time,
		       last_shift_check, current_shift
		FROM galaxy_info
		WHERE id = 1
	`

	var info GalaxyInfo
	err := r.db.QueryRowContext(ctx, query).Scan(
		&info.Name,
		&info.StartDate,
		&info.TimeScale,
		&info.RealStart,
		&info.CreatedAt,
		&info.IsPaused,
		&info.IsManuallyPaused,
		&info.PausedAt,
		&info.CurrentIngameTime,
		&info.LastShiftCheck,
		&info.CurrentShift,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("No galaxy_info row yet")
			return nil, nil
		}
		logger.Error("Database error getting galaxy info", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &info, nil
}

// Replace writes the whole galaxy_info row, creating it when absent.
func (r *Repository) Replace(ctx context.Context, info *GalaxyInfo) error {
	logger := r.logger.With("component", "gametime_repository", "operation", "replace", "name", info.Name)
	logger.Info("Writing galaxy info")

	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM galaxy_info WHERE id = 1"); err != nil {
		logger.Error("Failed to clear galaxy info", "error", err)
		return fmt.Errorf("failed to clear galaxy info: %w", err)
	}

	query := `
		INSERT INTO galaxy_info
			(id, name, start_date, time_scale, real_start, created_at,
			 is_paused, is_manually_paused, paused_at, current_ingame_time,
			 last_shift_check, current_shift)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		info.Name,
		info.StartDate,
		info.TimeScale,
		info.RealStart,
		info.CreatedAt,
		info.IsPaused,
		info.IsManuallyPaused,
		info.PausedAt,
		info.CurrentIngameTime,
		info.LastShiftCheck,
		info.CurrentShift,
	); err != nil {
		logger.Error("Failed to insert galaxy info", "error", err)
		return fmt.Errorf("failed to insert galaxy info: %w", err)
	}

	return tx.Commit()
}

// UpdateClockState persists the pause/scale fields that the time core
// mutates after creation.
func (r *Repository) UpdateClockState(ctx context.Context, info *GalaxyInfo) error {
	logger := r.logger.With("component", "gametime_repository", "operation", "update_clock_state")

	query := `
		UPDATE galaxy_info
		SET time_scale = ?, is_paused = ?, is_manually_paused = ?,
		    paused_at = ?, current_ingame_time = ?
		WHERE id = 1
	`
	result, err := r.db.ExecContext(ctx, query,
		info.TimeScale,
		info.IsPaused,
		info.IsManuallyPaused,
		info.PausedAt,
		info.CurrentIngameTime,
	)
	if err != nil {
		logger.Error("Failed to update clock state", "error", err)
		return fmt.Errorf("failed to update clock state: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("no galaxy exists")
	}
	return nil
}

// UpdateShift persists the current shift of day and the check stamp.
func (r *Repository) UpdateShift(ctx context.Context, shift Shift, checkedAt float64) error {
	logger := r.logger.With("component", "gametime_repository", "operation", "update_shift", "shift", shift)

	query := `UPDATE galaxy_info SET current_shift = ?, last_shift_check = ? WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query, string(shift), checkedAt); err != nil {
		logger.Error("Failed to update shift", "error", err)
		return fmt.Errorf("failed to update shift: %w", err)
	}
	return nil
}
