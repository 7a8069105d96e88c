package galaxy

import (
	"context"
	"database/sql"
	"fmt"

	"corridors-server/internal/shared/database"
)

const corridorColumns = `
	id, name, origin_location, destination_location, travel_time,
	fuel_cost, danger_level, is_active, has_gate, is_generated,
	last_shift, created_at`

func scanCorridor(row rowScanner) (*Corridor, error) {
	var c Corridor
	err := row.Scan(
		&c.ID, &c.Name, &c.Origin, &c.Destination, &c.TravelTime,
		&c.FuelCost, &c.Danger, &c.IsActive, &c.HasGate, &c.IsGenerated,
		&c.LastShift, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCorridor inserts a single corridor row.
func (r *Repository) CreateCorridor(ctx context.Context, c *Corridor, tx *database.Tx) error {
	logger := r.logger.With("component", "galaxy_repository", "operation", "create_corridor", "name", c.Name)

	exec := r.executor(tx)
	query := `
		INSERT INTO corridors
			(name, origin_location, destination_location, travel_time,
			 fuel_cost, danger_level, is_active, has_gate, is_generated,
			 last_shift, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := exec.ExecContext(ctx, query,
		c.Name, c.Origin, c.Destination, c.TravelTime,
		c.FuelCost, c.Danger, c.IsActive, c.HasGate, c.IsGenerated,
		c.LastShift, c.CreatedAt,
	); err != nil {
		logger.Error("Failed to create corridor", "error", err)
		return fmt.Errorf("failed to create corridor: %w", err)
	}
	return nil
}

// CreateCorridorsBatch inserts many corridor rows with multi-VALUES
// statements.
func (r *Repository) CreateCorridorsBatch(ctx context.Context, corridors []*Corridor, tx *database.Tx) error {
	if len(corridors) == 0 {
		return nil
	}

	logger := r.logger.With("component", "galaxy_repository", "operation", "create_corridors_batch", "count", len(corridors))
	logger.Debug("Creating corridors in batch")

	columns := []string{
		"name", "origin_location", "destination_location", "travel_time",
		"fuel_cost", "danger_level", "is_active", "has_gate", "is_generated",
		"last_shift", "created_at",
	}
	rows := make([][]interface{}, len(corridors))
	for i, c := range corridors {
		rows[i] = []interface{}{
			c.Name, c.Origin, c.Destination, c.TravelTime,
			c.FuelCost, c.Danger, c.IsActive, c.HasGate, c.IsGenerated,
			c.LastShift, c.CreatedAt,
		}
	}

	if err := database.InsertBatch(ctx, r.executor(tx), "corridors", columns, rows); err != nil {
		logger.Error("Failed to batch create corridors", "error", err)
		return err
	}

	logger.Info("Corridors batch created successfully", "count", len(corridors))
	return nil
}

func (r *Repository) listCorridors(ctx context.Context, query string, args ...interface{}) ([]*Corridor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var corridors []*Corridor
	for rows.Next() {
		c, err := scanCorridor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan corridor: %w", err)
		}
		corridors = append(corridors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating corridors: %w", err)
	}
	return corridors, nil
}

func (r *Repository) GetCorridorByID(ctx context.Context, id int64) (*Corridor, error) {
	query := `SELECT` + corridorColumns + ` FROM corridors WHERE id = ?`
	c, err := scanCorridor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return c, nil
}

// FindCorridorByName matches a corridor by exact name, then substring.
func (r *Repository) FindCorridorByName(ctx context.Context, fragment string) (*Corridor, error) {
	query := `SELECT` + corridorColumns + ` FROM corridors WHERE name = ? LIMIT 1`
	c, err := scanCorridor(r.db.QueryRowContext(ctx, query, fragment))
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("database error: %w", err)
	}

	query = `SELECT` + corridorColumns + ` FROM corridors WHERE name LIKE ? ORDER BY name LIMIT 1`
	c, err = scanCorridor(r.db.QueryRowContext(ctx, query, "%"+fragment+"%"))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return c, nil
}

// ListCorridors returns corridors filtered by activity.
func (r *Repository) ListCorridors(ctx context.Context, active bool) ([]*Corridor, error) {
	return r.listCorridors(ctx,
		`SELECT`+corridorColumns+` FROM corridors WHERE is_active = ? ORDER BY id`, active)
}

// ListCorridorsTouching returns corridors with the location as either
// endpoint.
func (r *Repository) ListCorridorsTouching(ctx context.Context, locationID int64, onlyActive bool) ([]*Corridor, error) {
	query := `SELECT` + corridorColumns + ` FROM corridors WHERE (origin_location = ? OR destination_location = ?)`
	args := []interface{}{locationID, locationID}
	if onlyActive {
		query += ` AND is_active = ?`
		args = append(args, true)
	}
	return r.listCorridors(ctx, query+` ORDER BY id`, args...)
}

// ActiveConnectionCount returns how many active corridors leave the
// location.
func (r *Repository) ActiveConnectionCount(ctx context.Context, locationID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM corridors
		WHERE origin_location = ? AND is_active = ?
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, locationID, true).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// SetCorridorsActive flips the active flag for a set of corridor ids.
func (r *Repository) SetCorridorsActive(ctx context.Context, ids []int64, active bool, shiftStamp float64) error {
	if len(ids) == 0 {
		return nil
	}

	logger := r.logger.With("component", "galaxy_repository", "operation", "set_corridors_active",
		"count", len(ids), "active", active)

	clause, args := database.InClause(ids)
	query := `UPDATE corridors SET is_active = ?, last_shift = ? WHERE id IN ` + clause
	allArgs := append([]interface{}{active, shiftStamp}, args...)

	if _, err := r.db.ExecContext(ctx, query, allArgs...); err != nil {
		logger.Error("Failed to update corridor activity", "error", err)
		return fmt.Errorf("failed to update corridor activity: %w", err)
	}
	return nil
}

// TouchCorridorShift bumps last_shift on one corridor.
func (r *Repository) TouchCorridorShift(ctx context.Context, id int64, stamp float64) error {
	query := `UPDATE corridors SET last_shift = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, stamp, id); err != nil {
		return fmt.Errorf("failed to touch corridor shift: %w", err)
	}
	return nil
}

// UpdateCorridorGeometry rewrites travel time and fuel cost, used when
// a gate relocates.
func (r *Repository) UpdateCorridorGeometry(ctx context.Context, id int64, travelTime, fuelCost int) error {
	query := `UPDATE corridors SET travel_time = ?, fuel_cost = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, travelTime, fuelCost, id); err != nil {
		return fmt.Errorf("failed to update corridor geometry: %w", err)
	}
	return nil
}

// CountCorridors returns the number of corridors with the given
// activity state.
func (r *Repository) CountCorridors(ctx context.Context, active bool) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM corridors WHERE is_active = ?`, active).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// CorridorExistsBetween reports whether any corridor row (active or
// dormant) links origin to destination in that direction.
func (r *Repository) CorridorExistsBetween(ctx context.Context, origin, destination int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM corridors
			WHERE origin_location = ? AND destination_location = ?
		)
	`
	if err := r.db.QueryRowContext(ctx, query, origin, destination).Scan(&exists); err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return exists, nil
}

// DormantCorridorBetween finds an inactive corridor connecting the two
// locations in the given direction, if one exists.
func (r *Repository) DormantCorridorBetween(ctx context.Context, origin, destination int64) (*Corridor, error) {
	query := `
		SELECT` + corridorColumns + `
		FROM corridors
		WHERE origin_location = ? AND destination_location = ? AND is_active = ?
		LIMIT 1
	`
	c, err := scanCorridor(r.db.QueryRowContext(ctx, query, origin, destination, false))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return c, nil
}
