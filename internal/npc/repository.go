package npc

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
	logger.Debug("Initializing npc repository")
	return &Repository{db: db, logger: logger}
}

func (r *Repository) executor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// CreateStaticNPCsBatch inserts static NPCs with multi-VALUES batches.
func (r *Repository) CreateStaticNPCsBatch(ctx context.Context, npcs []*StaticNPC, tx *database.Tx) error {
	if len(npcs) == 0 {
		return nil
	}

	logger := r.logger.With("component", "npc_repository", "operation", "create_static_batch", "count", len(npcs))
	logger.Debug("Creating static NPCs in batch")

	columns := []string{
		"location_id", "name", "age", "occupation", "personality",
		"trade_specialty", "alignment", "hp", "max_hp", "combat_rating",
		"credits", "created_at",
	}
	rows := make([][]interface{}, len(npcs))
	for i, n := range npcs {
		rows[i] = []interface{}{
			n.LocationID, n.Name, n.Age, n.Occupation, n.Personality,
			n.TradeSpecialty, string(n.Alignment), n.HP, n.MaxHP, n.CombatRating,
			n.Credits, n.CreatedAt,
		}
	}
	return database.InsertBatch(ctx, r.executor(tx), "static_npcs", columns, rows)
}

// CreateDynamicNPC inserts one roaming NPC.
func (r *Repository) CreateDynamicNPC(ctx context.Context, n *DynamicNPC, tx *database.Tx) error {
	logger := r.logger.With("component", "npc_repository", "operation", "create_dynamic", "callsign", n.Callsign)

	query := `
		INSERT INTO dynamic_npcs
			(name, callsign, age, ship_name, ship_type, current_location,
			 destination_location, travel_start_time, travel_duration,
			 credits, alignment, hp, max_hp, combat_rating, ship_hull,
			 max_ship_hull, is_alive, last_radio_message, last_location_action,
			 created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.executor(tx).ExecContext(ctx, query,
		n.Name, n.Callsign, n.Age, n.ShipName, n.ShipType, n.CurrentLocation,
		n.DestinationLocation, n.TravelStartTime, n.TravelDuration,
		n.Credits, string(n.Alignment), n.HP, n.MaxHP, n.CombatRating, n.ShipHull,
		n.MaxShipHull, n.IsAlive, n.LastRadioMessage, n.LastLocationAction,
		n.CreatedAt,
	); err != nil {
		logger.Error("Failed to create dynamic NPC", "error", err)
		return fmt.Errorf("failed to create dynamic NPC: %w", err)
	}

	logger.Debug("Dynamic NPC created")
	return nil
}

const dynamicColumns = `
	id, name, callsign, age, ship_name, ship_type, current_location,
	destination_location, travel_start_time, travel_duration, credits,
	alignment, hp, max_hp, combat_rating, ship_hull, max_ship_hull,
	is_alive, last_radio_message, last_location_action, created_at`

func scanDynamic(row interface{ Scan(...interface{}) error }) (*DynamicNPC, error) {
	var n DynamicNPC
	err := row.Scan(
		&n.ID, &n.Name, &n.Callsign, &n.Age, &n.ShipName, &n.ShipType,
		&n.CurrentLocation, &n.DestinationLocation, &n.TravelStartTime,
		&n.TravelDuration, &n.Credits, &n.Alignment, &n.HP, &n.MaxHP,
		&n.CombatRating, &n.ShipHull, &n.MaxShipHull, &n.IsAlive,
		&n.LastRadioMessage, &n.LastLocationAction, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repository) listDynamic(ctx context.Context, query string, args ...interface{}) ([]*DynamicNPC, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var npcs []*DynamicNPC
	for rows.Next() {
		n, err := scanDynamic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dynamic NPC: %w", err)
		}
		npcs = append(npcs, n)
	}
	return npcs, rows.Err()
}

// GetDynamicNPC loads one dynamic NPC by id.
func (r *Repository) GetDynamicNPC(ctx context.Context, id int64) (*DynamicNPC, error) {
	query := `SELECT` + dynamicColumns + ` FROM dynamic_npcs WHERE id = ?`
	n, err := scanDynamic(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return n, nil
}

// ListLivingDynamicNPCs returns every living roaming NPC.
func (r *Repository) ListLivingDynamicNPCs(ctx context.Context) ([]*DynamicNPC, error) {
	return r.listDynamic(ctx,
		`SELECT`+dynamicColumns+` FROM dynamic_npcs WHERE is_alive = ? ORDER BY id`, true)
}

// ListIdleDynamicNPCs returns living NPCs that are docked somewhere and
// not traveling.
func (r *Repository) ListIdleDynamicNPCs(ctx context.Context) ([]*DynamicNPC, error) {
	return r.listDynamic(ctx, `
		SELECT`+dynamicColumns+`
		FROM dynamic_npcs
		WHERE is_alive = ? AND current_location IS NOT NULL AND travel_start_time IS NULL
		ORDER BY id`, true)
}

// CountLivingDynamicNPCs returns the live roaming population.
func (r *Repository) CountLivingDynamicNPCs(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dynamic_npcs WHERE is_alive = ?`, true).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// BeginTravel marks an NPC as in transit.
func (r *Repository) BeginTravel(ctx context.Context, id, destination int64, start float64, duration int) error {
	query := `
		UPDATE dynamic_npcs
		SET current_location = NULL, destination_location = ?,
		    travel_start_time = ?, travel_duration = ?
		WHERE id = ? AND is_alive = ?
	`
	if _, err := r.db.ExecContext(ctx, query, destination, start, duration, id, true); err != nil {
		return fmt.Errorf("failed to begin NPC travel: %w", err)
	}
	return nil
}

// CompleteTravel docks an NPC at its destination.
func (r *Repository) CompleteTravel(ctx context.Context, id int64) error {
	query := `
		UPDATE dynamic_npcs
		SET current_location = destination_location, destination_location = NULL,
		    travel_start_time = NULL, travel_duration = NULL
		WHERE id = ? AND is_alive = ?
	`
	if _, err := r.db.ExecContext(ctx, query, id, true); err != nil {
		return fmt.Errorf("failed to complete NPC travel: %w", err)
	}
	return nil
}

// Kill marks an NPC dead.
func (r *Repository) Kill(ctx context.Context, id int64) error {
	logger := r.logger.With("component", "npc_repository", "operation", "kill", "npc_id", id)

	query := `UPDATE dynamic_npcs SET is_alive = ?, hp = 0 WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, false, id); err != nil {
		logger.Error("Failed to kill NPC", "error", err)
		return fmt.Errorf("failed to kill NPC: %w", err)
	}

	logger.Info("Dynamic NPC killed")
	return nil
}

// AdjustCredits applies a credit delta, flooring at zero.
func (r *Repository) AdjustCredits(ctx context.Context, id int64, delta int) error {
	query := `
		UPDATE dynamic_npcs
		SET credits = CASE WHEN credits + ? < 0 THEN 0 ELSE credits + ? END
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, delta, delta, id); err != nil {
		return fmt.Errorf("failed to adjust NPC credits: %w", err)
	}
	return nil
}

// StampRadio records the last radio broadcast time.
func (r *Repository) StampRadio(ctx context.Context, id int64, at float64) error {
	query := `UPDATE dynamic_npcs SET last_radio_message = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to stamp radio time: %w", err)
	}
	return nil
}

// StampLocationAction records the last local action time.
func (r *Repository) StampLocationAction(ctx context.Context, id int64, at float64) error {
	query := `UPDATE dynamic_npcs SET last_location_action = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to stamp location action: %w", err)
	}
	return nil
}

// StaticNPCsForLocations prefetches static NPCs for a chunk of
// locations with one IN query.
func (r *Repository) StaticNPCsForLocations(ctx context.Context, locationIDs []int64) (map[int64][]*StaticNPC, error) {
	if len(locationIDs) == 0 {
		return map[int64][]*StaticNPC{}, nil
	}

	clause, args := database.InClause(locationIDs)
	query := `
		SELECT id, location_id, name, age, occupation, personality,
		       trade_specialty, alignment, hp, max_hp, combat_rating,
		       credits, created_at
		FROM static_npcs
		WHERE location_id IN ` + clause

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	byLocation := make(map[int64][]*StaticNPC)
	for rows.Next() {
		var n StaticNPC
		if err := rows.Scan(
			&n.ID, &n.LocationID, &n.Name, &n.Age, &n.Occupation, &n.Personality,
			&n.TradeSpecialty, &n.Alignment, &n.HP, &n.MaxHP, &n.CombatRating,
			&n.Credits, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan static NPC: %w", err)
		}
		byLocation[n.LocationID] = append(byLocation[n.LocationID], &n)
	}
	return byLocation, rows.Err()
}

// ListStaticNPCIDsAt returns static NPC ids at a location.
func (r *Repository) ListStaticNPCsAt(ctx context.Context, locationID int64) ([]*StaticNPC, error) {
	byLocation, err := r.StaticNPCsForLocations(ctx, []int64{locationID})
	if err != nil {
		return nil, err
	}
	return byLocation[locationID], nil
}

// CreateNPCJobsBatch posts work listings authored by static NPCs.
func (r *Repository) CreateNPCJobsBatch(ctx context.Context, jobs []*NPCJob, tx *database.Tx) error {
	if len(jobs) == 0 {
		return nil
	}

	columns := []string{"npc_id", "location_id", "title", "description", "reward", "expires_at", "is_taken"}
	rows := make([][]interface{}, len(jobs))
	for i, j := range jobs {
		rows[i] = []interface{}{j.NPCID, j.LocationID, j.Title, j.Description, j.Reward, j.ExpiresAt, j.IsTaken}
	}
	return database.InsertBatch(ctx, r.executor(tx), "npc_jobs", columns, rows)
}

// CallsignExists checks players and NPCs for a callsign collision.
func (r *Repository) CallsignExists(ctx context.Context, callsign string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM dynamic_npcs WHERE callsign = ?
			UNION
			SELECT 1 FROM characters WHERE callsign = ?
		)
	`
	if err := r.db.QueryRowContext(ctx, query, callsign, callsign).Scan(&exists); err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return exists, nil
}
