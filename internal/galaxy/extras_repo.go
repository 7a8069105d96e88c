package galaxy

import (
	"context"
	"fmt"

	"corridors-server/internal/shared/database"
)

// CreateSubLocationsBatch inserts sub-locations for freshly generated
// locations.
func (r *Repository) CreateSubLocationsBatch(ctx context.Context, subs []*SubLocation, tx *database.Tx) error {
	if len(subs) == 0 {
		return nil
	}

	columns := []string{"parent_location_id", "name", "sub_type", "description", "is_active"}
	rows := make([][]interface{}, len(subs))
	for i, s := range subs {
		rows[i] = []interface{}{s.ParentLocationID, s.Name, s.SubType, s.Description, s.IsActive}
	}
	return database.InsertBatch(ctx, r.executor(tx), "sub_locations", columns, rows)
}

// CreateRepeatersBatch seeds built-in radio repeaters.
func (r *Repository) CreateRepeatersBatch(ctx context.Context, repeaters []*Repeater, tx *database.Tx) error {
	if len(repeaters) == 0 {
		return nil
	}

	columns := []string{"location_id", "repeater_type", "receive_range", "transmit_range", "is_active"}
	rows := make([][]interface{}, len(repeaters))
	for i, rep := range repeaters {
		rows[i] = []interface{}{rep.LocationID, rep.RepeaterType, rep.ReceiveRange, rep.TransmitRange, rep.IsActive}
	}
	return database.InsertBatch(ctx, r.executor(tx), "repeaters", columns, rows)
}

// ListRepeaters returns all active repeaters with their location
// coordinates for propagation math.
type RepeaterSite struct {
	Repeater
	X          float64
	Y          float64
	SystemName string
}

func (r *Repository) ListActiveRepeaterSites(ctx context.Context) ([]*RepeaterSite, error) {
	query := `
		SELECT rp.id, rp.location_id, rp.repeater_type, rp.receive_range,
		       rp.transmit_range, rp.is_active, l.x_coord, l.y_coord, l.system_name
		FROM repeaters rp
		JOIN locations l ON l.id = rp.location_id
		WHERE rp.is_active = ?
	`
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var sites []*RepeaterSite
	for rows.Next() {
		var s RepeaterSite
		if err := rows.Scan(
			&s.ID, &s.LocationID, &s.RepeaterType, &s.ReceiveRange,
			&s.TransmitRange, &s.IsActive, &s.X, &s.Y, &s.SystemName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan repeater: %w", err)
		}
		sites = append(sites, &s)
	}
	return sites, rows.Err()
}

// CreateBlackMarket inserts a market and its seed items.
func (r *Repository) CreateBlackMarket(ctx context.Context, locationID int64, items [][]interface{}, tx *database.Tx) error {
	logger := r.logger.With("component", "galaxy_repository", "operation", "create_black_market", "location_id", locationID)

	exec := r.executor(tx)
	result, err := exec.ExecContext(ctx,
		`INSERT INTO black_markets (location_id, reputation_required, is_hidden) VALUES (?, ?, ?)`,
		locationID, -20, true)
	if err != nil {
		logger.Error("Failed to create black market", "error", err)
		return fmt.Errorf("failed to create black market: %w", err)
	}

	marketID, err := result.LastInsertId()
	if err != nil {
		if scanErr := exec.QueryRowContext(ctx,
			`SELECT id FROM black_markets WHERE location_id = ? ORDER BY id DESC LIMIT 1`,
			locationID).Scan(&marketID); scanErr != nil {
			return fmt.Errorf("failed to resolve black market id: %w", scanErr)
		}
	}

	columns := []string{"market_id", "item_name", "item_type", "price", "stock"}
	rows := make([][]interface{}, len(items))
	for i, item := range items {
		rows[i] = append([]interface{}{marketID}, item...)
	}
	if err := database.InsertBatch(ctx, exec, "black_market_items", columns, rows); err != nil {
		return err
	}

	if _, err := exec.ExecContext(ctx,
		`UPDATE locations SET has_black_market = ? WHERE id = ?`, true, locationID); err != nil {
		return fmt.Errorf("failed to flag black market location: %w", err)
	}
	return nil
}

// CreateJobsBatch posts job listings.
func (r *Repository) CreateJobsBatch(ctx context.Context, jobs []*Job, tx *database.Tx) error {
	if len(jobs) == 0 {
		return nil
	}

	columns := []string{
		"location_id", "title", "description", "reward", "danger_level",
		"duration_minutes", "expires_at", "destination_location_id",
		"is_taken", "karma_change",
	}
	rows := make([][]interface{}, len(jobs))
	for i, j := range jobs {
		rows[i] = []interface{}{
			j.LocationID, j.Title, j.Description, j.Reward, j.Danger,
			j.DurationMinutes, j.ExpiresAt, j.DestinationLocationID,
			j.IsTaken, j.KarmaChange,
		}
	}
	return database.InsertBatch(ctx, r.executor(tx), "jobs", columns, rows)
}

// CountOpenJobs returns untaken, unexpired jobs at a location.
func (r *Repository) CountOpenJobs(ctx context.Context, locationID int64, now float64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM jobs WHERE location_id = ? AND is_taken = ? AND expires_at > ?`
	if err := r.db.QueryRowContext(ctx, query, locationID, false, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// ListJobLocations returns ids of non-derelict locations with job
// boards.
func (r *Repository) ListJobLocations(ctx context.Context) ([]int64, error) {
	query := `SELECT id FROM locations WHERE has_jobs = ? AND is_derelict = ?`
	rows, err := r.db.QueryContext(ctx, query, true, false)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan location id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CleanupCounts reports rows removed by a maintenance sweep.
type CleanupCounts struct {
	ExpiredJobs      int64 `json:"expired_jobs"`
	StaleSessions    int64 `json:"stale_sessions"`
	EmptyShopItems   int64 `json:"empty_shop_items"`
	DeliveredNews    int64 `json:"delivered_news"`
}

// Cleanup deletes expired jobs, terminal travel sessions older than a
// day, zero-stock shop items and old delivered news.
func (r *Repository) Cleanup(ctx context.Context, now float64) (*CleanupCounts, error) {
	logger := r.logger.With("component", "galaxy_repository", "operation", "cleanup")

	var counts CleanupCounts

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE is_taken = ? AND expires_at < ?`, false, now)
	if err != nil {
		logger.Error("Failed to delete expired jobs", "error", err)
		return nil, fmt.Errorf("failed to delete expired jobs: %w", err)
	}
	counts.ExpiredJobs, _ = result.RowsAffected()

	result, err = r.db.ExecContext(ctx,
		`DELETE FROM travel_sessions WHERE status != ? AND start_time < ?`,
		"traveling", now-86400)
	if err != nil {
		logger.Error("Failed to delete stale travel sessions", "error", err)
		return nil, fmt.Errorf("failed to delete stale travel sessions: %w", err)
	}
	counts.StaleSessions, _ = result.RowsAffected()

	result, err = r.db.ExecContext(ctx, `DELETE FROM shop_items WHERE stock = 0`)
	if err != nil {
		logger.Error("Failed to delete empty shop items", "error", err)
		return nil, fmt.Errorf("failed to delete empty shop items: %w", err)
	}
	counts.EmptyShopItems, _ = result.RowsAffected()

	result, err = r.db.ExecContext(ctx,
		`DELETE FROM news_queue WHERE is_delivered = ? AND delivered_at < ?`,
		true, now-7*86400)
	if err != nil {
		logger.Error("Failed to delete delivered news", "error", err)
		return nil, fmt.Errorf("failed to delete delivered news: %w", err)
	}
	counts.DeliveredNews, _ = result.RowsAffected()

	logger.Info("Cleanup completed",
		"expired_jobs", counts.ExpiredJobs,
		"stale_sessions", counts.StaleSessions,
		"empty_shop_items", counts.EmptyShopItems,
		"delivered_news", counts.DeliveredNews,
	)
	return &counts, nil
}

// AddLocationLog appends an entry to a location's log board.
func (r *Repository) AddLocationLog(ctx context.Context, locationID int64, author, message string, generated bool, now float64) error {
	query := `
		INSERT INTO location_logs (location_id, author_name, message, is_generated, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, locationID, author, message, generated, now); err != nil {
		return fmt.Errorf("failed to add location log: %w", err)
	}
	return nil
}
