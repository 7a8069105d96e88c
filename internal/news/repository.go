package news

import (
	"context"
	"fmt"
	"log/slog"

	"corridors-server/internal/shared/database"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing news repository")
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Create(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO news_queue
			(guild_id, news_type, title, description, location_id,
			 scheduled_delivery, delay_hours, event_data, is_delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		entry.GuildID, entry.NewsType, entry.Title, entry.Description,
		entry.LocationID, entry.ScheduledDelivery, entry.DelayHours,
		entry.EventData, false, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to queue news: %w", err)
	}
	return nil
}

// ListDue returns undelivered entries whose delivery time has passed,
// oldest first.
func (r *Repository) ListDue(ctx context.Context, nowReal float64, limit int) ([]*Entry, error) {
	query := `
		SELECT id, guild_id, news_type, title, description, location_id,
		       scheduled_delivery, delay_hours, event_data, is_delivered,
		       created_at, delivered_at
		FROM news_queue
		WHERE is_delivered = ? AND scheduled_delivery <= ?
		ORDER BY scheduled_delivery ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, false, nowReal+1, limit)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.GuildID, &e.NewsType, &e.Title, &e.Description, &e.LocationID,
			&e.ScheduledDelivery, &e.DelayHours, &e.EventData, &e.IsDelivered,
			&e.CreatedAt, &e.DeliveredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan news entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *Repository) MarkDelivered(ctx context.Context, id int64, at float64) error {
	query := `UPDATE news_queue SET is_delivered = ?, delivered_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, true, at, id); err != nil {
		return fmt.Errorf("failed to mark news delivered: %w", err)
	}
	return nil
}

// PendingCount reports how many entries are still waiting.
func (r *Repository) PendingCount(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM news_queue WHERE is_delivered = ?`
	if err := r.db.QueryRowContext(ctx, query, false).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}
