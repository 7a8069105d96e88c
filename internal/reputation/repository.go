package reputation

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
	logger.Debug("Initializing reputation repository")
	return &Repository{db: db, logger: logger}
}

// Get returns the reputation a user holds at a location, zero when no
// row exists yet.
func (r *Repository) Get(ctx context.Context, userID, locationID int64) (int, error) {
	var rep int
	query := `SELECT reputation FROM character_reputation WHERE user_id = ? AND location_id = ?`
	err := r.db.QueryRowContext(ctx, query, userID, locationID).Scan(&rep)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("database error: %w", err)
	}
	return rep, nil
}

// Adjust adds a delta to the stored reputation, creating the row on
// first contact. Portable upsert: update first, insert when nothing
// matched.
func (r *Repository) Adjust(ctx context.Context, tx *database.Tx, userID, locationID int64, delta int, now float64) error {
	var exec database.Executor = r.db
	if tx != nil {
		exec = tx
	}

	result, err := exec.ExecContext(ctx, `
		UPDATE character_reputation
		SET reputation = reputation + ?, updated_at = ?
		WHERE user_id = ? AND location_id = ?
	`, delta, now, userID, locationID)
	if err != nil {
		return fmt.Errorf("failed to adjust reputation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO character_reputation (user_id, location_id, reputation, updated_at)
		VALUES (?, ?, ?, ?)
	`, userID, locationID, delta, now); err != nil {
		return fmt.Errorf("failed to insert reputation: %w", err)
	}
	return nil
}

// AverageAt returns the mean reputation across all users at a
// location; ok is false when nobody has a record there.
func (r *Repository) AverageAt(ctx context.Context, locationID int64) (float64, bool, error) {
	var avg sql.NullFloat64
	query := `SELECT AVG(reputation) FROM character_reputation WHERE location_id = ?`
	if err := r.db.QueryRowContext(ctx, query, locationID).Scan(&avg); err != nil {
		return 0, false, fmt.Errorf("database error: %w", err)
	}
	return avg.Float64, avg.Valid, nil
}
