package history

import (
	"context"
	"fmt"
	"log/slog"

	"corridors-server/internal/shared/database"
)

// Event is one entry in the galactic historical record.
type Event struct {
	ID          int64   `json:"id"`
	LocationID  *int64  `json:"location_id,omitempty"`
	Title       string  `json:"event_title"`
	Description string  `json:"event_description"`
	Figure      *string `json:"historical_figure,omitempty"`
	EventDate   int64   `json:"event_date"` // in-game unix
	EventType   string  `json:"event_type"`
}

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing history repository")
	return &Repository{db: db, logger: logger}
}

// Clear wipes the historical record in its own transaction.
func (r *Repository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM galactic_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return tx.Commit()
}

// InsertBatch writes a chunk of events in one multi-row statement.
func (r *Repository) InsertBatch(ctx context.Context, events []*Event, tx *database.Tx) error {
	if len(events) == 0 {
		return nil
	}

	var exec database.Executor = r.db
	if tx != nil {
		exec = tx
	}

	columns := []string{
		"location_id", "event_title", "event_description",
		"historical_figure", "event_date", "event_type",
	}
	rows := make([][]interface{}, len(events))
	for i, e := range events {
		rows[i] = []interface{}{
			e.LocationID, e.Title, e.Description, e.Figure, e.EventDate, e.EventType,
		}
	}
	return database.InsertBatch(ctx, exec, "galactic_history", columns, rows)
}

// Count returns the size of the historical record.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM galactic_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// ListForLocation returns a location's history, oldest first.
func (r *Repository) ListForLocation(ctx context.Context, locationID int64) ([]*Event, error) {
	query := `
		SELECT id, location_id, event_title, event_description,
		       historical_figure, event_date, event_type
		FROM galactic_history
		WHERE location_id = ?
		ORDER BY event_date ASC
	`
	rows, err := r.db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.LocationID, &e.Title, &e.Description,
			&e.Figure, &e.EventDate, &e.EventType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
