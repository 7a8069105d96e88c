package galaxy

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
	logger.Debug("Initializing galaxy repository")
	return &Repository{db: db, logger: logger}
}

// DB exposes the underlying store for transaction control.
func (r *Repository) DB() *database.DB { return r.db }

func (r *Repository) executor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

const locationColumns = `
	id, name, location_type, faction, wealth_level, population,
	x_coord, y_coord, system_name, established_date, description,
	has_jobs, has_shops, has_medical, has_repairs, has_fuel,
	has_upgrades, has_black_market, has_shipyard,
	is_derelict, gate_status, parent_location_id, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLocation(row rowScanner) (*Location, error) {
	var loc Location
	var gateStatus sql.NullString
	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Type, &loc.Faction, &loc.Wealth, &loc.Population,
		&loc.X, &loc.Y, &loc.SystemName, &loc.EstablishedDate, &loc.Description,
		&loc.Services.Jobs, &loc.Services.Shops, &loc.Services.Medical,
		&loc.Services.Repairs, &loc.Services.Fuel, &loc.Services.Upgrades,
		&loc.Services.BlackMarket, &loc.Services.Shipyard,
		&loc.IsDerelict, &gateStatus, &loc.ParentLocationID, &loc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gateStatus.Valid {
		status := GateStatus(gateStatus.String)
		loc.GateStatus = &status
	}
	return &loc, nil
}

// CreateLocation inserts a location and returns it with its id.
func (r *Repository) CreateLocation(ctx context.Context, loc *Location, tx *database.Tx) (*Location, error) {
	logger := r.logger.With("component", "galaxy_repository", "operation", "create_location", "name", loc.Name)

	exec := r.executor(tx)

	var gateStatus interface{}
	if loc.GateStatus != nil {
		gateStatus = string(*loc.GateStatus)
	}

	query := `
		INSERT INTO locations
			(name, location_type, faction, wealth_level, population,
			 x_coord, y_coord, system_name, established_date, description,
			 has_jobs, has_shops, has_medical, has_repairs, has_fuel,
			 has_upgrades, has_black_market, has_shipyard,
			 is_derelict, gate_status, parent_location_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := exec.ExecContext(ctx, query,
		loc.Name, string(loc.Type), string(loc.Faction), loc.Wealth, loc.Population,
		loc.X, loc.Y, loc.SystemName, loc.EstablishedDate, loc.Description,
		loc.Services.Jobs, loc.Services.Shops, loc.Services.Medical,
		loc.Services.Repairs, loc.Services.Fuel, loc.Services.Upgrades,
		loc.Services.BlackMarket, loc.Services.Shipyard,
		loc.IsDerelict, gateStatus, loc.ParentLocationID, loc.CreatedAt,
	)
	if err != nil {
		logger.Error("Failed to create location", "error", err)
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		// postgres does not support LastInsertId; look the row up by its
		// unique name instead.
		return r.GetLocationByName(ctx, loc.Name)
	}

	loc.ID = id
	return loc, nil
}

func (r *Repository) GetLocationByID(ctx context.Context, id int64) (*Location, error) {
	logger := r.logger.With("component", "galaxy_repository", "operation", "get_location", "location_id", id)

	query := `SELECT` + locationColumns + ` FROM locations WHERE id = ?`
	loc, err := scanLocation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("Database error getting location", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}
	return loc, nil
}

func (r *Repository) GetLocationByName(ctx context.Context, name string) (*Location, error) {
	query := `SELECT` + locationColumns + ` FROM locations WHERE name = ?`
	loc, err := scanLocation(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return loc, nil
}

// FindLocationByNameSubstring matches a location whose name contains
// the given fragment, preferring exact matches.
func (r *Repository) FindLocationByNameSubstring(ctx context.Context, fragment string) (*Location, error) {
	if loc, err := r.GetLocationByName(ctx, fragment); err != nil || loc != nil {
		return loc, err
	}

	query := `SELECT` + locationColumns + ` FROM locations WHERE name LIKE ? ORDER BY name LIMIT 1`
	loc, err := scanLocation(r.db.QueryRowContext(ctx, query, "%"+fragment+"%"))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return loc, nil
}

func (r *Repository) listLocations(ctx context.Context, query string, args ...interface{}) ([]*Location, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var locations []*Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}
	return locations, nil
}

// ListLocations returns every location including gates.
func (r *Repository) ListLocations(ctx context.Context) ([]*Location, error) {
	return r.listLocations(ctx, `SELECT`+locationColumns+` FROM locations ORDER BY id`)
}

// ListMajorLocations returns colonies, stations and outposts.
func (r *Repository) ListMajorLocations(ctx context.Context) ([]*Location, error) {
	return r.listLocations(ctx,
		`SELECT`+locationColumns+` FROM locations WHERE location_type != ? ORDER BY id`,
		string(LocationTypeGate))
}

// ListGates returns gate locations, optionally only active ones.
func (r *Repository) ListGates(ctx context.Context, onlyActive bool) ([]*Location, error) {
	query := `SELECT` + locationColumns + ` FROM locations WHERE location_type = ?`
	args := []interface{}{string(LocationTypeGate)}
	if onlyActive {
		query += ` AND gate_status = ?`
		args = append(args, string(GateStatusActive))
	}
	return r.listLocations(ctx, query+` ORDER BY id`, args...)
}

func (r *Repository) CountLocations(ctx context.Context, majorOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM locations`
	var args []interface{}
	if majorOnly {
		query += ` WHERE location_type != ?`
		args = append(args, string(LocationTypeGate))
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// UpdateLocationPosition moves a location and stamps its gate status.
func (r *Repository) UpdateLocationPosition(ctx context.Context, id int64, x, y float64, status GateStatus) error {
	logger := r.logger.With("component", "galaxy_repository", "operation", "update_location_position", "location_id", id)

	query := `UPDATE locations SET x_coord = ?, y_coord = ?, gate_status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, x, y, string(status), id); err != nil {
		logger.Error("Failed to update location position", "error", err)
		return fmt.Errorf("failed to update location position: %w", err)
	}
	return nil
}

// UpdateGateStatus stamps a gate's lifecycle state.
func (r *Repository) UpdateGateStatus(ctx context.Context, id int64, status GateStatus) error {
	logger := r.logger.With("component", "galaxy_repository", "operation", "update_gate_status", "location_id", id, "status", status)

	query := `UPDATE locations SET gate_status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, string(status), id); err != nil {
		logger.Error("Failed to update gate status", "error", err)
		return fmt.Errorf("failed to update gate status: %w", err)
	}
	return nil
}

// ClearWorld removes every world row so generation can start fresh.
// Order respects foreign keys.
func (r *Repository) ClearWorld(ctx context.Context) error {
	logger := r.logger.With("component", "galaxy_repository", "operation", "clear_world")
	logger.Info("Clearing existing galaxy data")

	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	tables := []string{
		"galactic_history",
		"location_logs",
		"character_reputation",
		"news_queue",
		"npc_jobs",
		"jobs",
		"shop_items",
		"black_market_items",
		"black_markets",
		"repeaters",
		"sub_locations",
		"travel_sessions",
		"dynamic_npcs",
		"static_npcs",
		"corridors",
		"locations",
		"galaxy_info",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			logger.Error("Failed to clear table", "table", table, "error", err)
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	logger.Info("Existing galaxy data cleared")
	return nil
}
