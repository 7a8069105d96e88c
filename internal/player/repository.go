package player

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
	logger.Debug("Initializing player repository")
	return &Repository{db: db, logger: logger}
}

// OnlinePlayerCount returns how many living characters are logged in.
func (r *Repository) OnlinePlayerCount(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM characters WHERE is_logged_in = ? AND is_alive = ?`
	if err := r.db.QueryRowContext(ctx, query, true, true).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// OccupiedLocationIDs returns the set of locations where at least one
// logged-in player is present.
func (r *Repository) OccupiedLocationIDs(ctx context.Context) (map[int64]bool, error) {
	query := `
		SELECT DISTINCT current_location FROM characters
		WHERE is_logged_in = ? AND is_alive = ? AND current_location IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, query, true, true)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	occupied := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan location id: %w", err)
		}
		occupied[id] = true
	}
	return occupied, rows.Err()
}

func (r *Repository) GetCharacterByUserID(ctx context.Context, userID int64) (*Character, error) {
	query := `
		SELECT id, user_id, name, callsign, current_location, hp, max_hp,
		       credits, is_logged_in, is_alive, current_ship_id, created_at
		FROM characters
		WHERE user_id = ?
	`
	var c Character
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Callsign, &c.CurrentLocation,
		&c.HP, &c.MaxHP, &c.Credits, &c.IsLoggedIn, &c.IsAlive,
		&c.CurrentShipID, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &c, nil
}

// ApplyDamage reduces a character's HP, killing them at zero. Returns
// the surviving HP and whether the character died.
func (r *Repository) ApplyDamage(ctx context.Context, userID int64, damage int) (int, bool, error) {
	logger := r.logger.With("component", "player_repository", "operation", "apply_damage",
		"user_id", userID, "damage", damage)

	character, err := r.GetCharacterByUserID(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	if character == nil {
		return 0, false, fmt.Errorf("character for user %d not found", userID)
	}

	hp := character.HP - damage
	died := hp <= 0
	if died {
		hp = 0
	}

	query := `UPDATE characters SET hp = ?, is_alive = ? WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, hp, !died, userID); err != nil {
		logger.Error("Failed to apply damage", "error", err)
		return 0, false, fmt.Errorf("failed to apply damage: %w", err)
	}

	logger.Info("Damage applied", "hp", hp, "died", died)
	return hp, died, nil
}

// ApplyShipDamage reduces the hull of the character's active ship.
func (r *Repository) ApplyShipDamage(ctx context.Context, userID int64, damage int) error {
	query := `
		UPDATE ships SET hull = CASE WHEN hull - ? < 0 THEN 0 ELSE hull - ? END
		WHERE id = (SELECT current_ship_id FROM characters WHERE user_id = ?)
	`
	if _, err := r.db.ExecContext(ctx, query, damage, damage, userID); err != nil {
		return fmt.Errorf("failed to apply ship damage: %w", err)
	}
	return nil
}

// StrandCharacter clears a character's location after a corridor
// collapse left them in open space.
func (r *Repository) StrandCharacter(ctx context.Context, userID int64) error {
	query := `UPDATE characters SET current_location = NULL WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to strand character: %w", err)
	}
	return nil
}

// CreateTravelSession records a character entering a corridor.
func (r *Repository) CreateTravelSession(ctx context.Context, session *TravelSession) error {
	logger := r.logger.With("component", "player_repository", "operation", "create_travel_session",
		"user_id", session.UserID, "corridor_id", session.CorridorID)

	query := `
		INSERT INTO travel_sessions
			(user_id, corridor_id, origin_location, destination_location,
			 start_time, duration, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		session.UserID, session.CorridorID, session.OriginLocation,
		session.DestinationLocation, session.StartTime, session.Duration,
		session.Status, session.CreatedAt,
	); err != nil {
		logger.Error("Failed to create travel session", "error", err)
		return fmt.Errorf("failed to create travel session: %w", err)
	}

	logger.Info("Travel session created")
	return nil
}

// ActiveSessionsOnCorridors returns traveling sessions whose corridor
// is in the given id set.
func (r *Repository) ActiveSessionsOnCorridors(ctx context.Context, corridorIDs []int64) ([]*TravelSession, error) {
	if len(corridorIDs) == 0 {
		return nil, nil
	}

	clause, args := database.InClause(corridorIDs)
	query := `
		SELECT id, user_id, corridor_id, origin_location, destination_location,
		       start_time, duration, status, created_at
		FROM travel_sessions
		WHERE status = 'traveling' AND corridor_id IN ` + clause

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var sessions []*TravelSession
	for rows.Next() {
		var s TravelSession
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.CorridorID, &s.OriginLocation, &s.DestinationLocation,
			&s.StartTime, &s.Duration, &s.Status, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan travel session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// UpdateSessionStatus moves a session to a terminal state.
func (r *Repository) UpdateSessionStatus(ctx context.Context, sessionID int64, status string) error {
	query := `UPDATE travel_sessions SET status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, status, sessionID); err != nil {
		return fmt.Errorf("failed to update travel session: %w", err)
	}
	return nil
}
