package platform

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"corridors-server/internal/shared/config"
	"corridors-server/internal/shared/database"
)

// GuildChannels holds the channel routing for one guild.
type GuildChannels struct {
	GuildID         int64  `json:"guild_id"`
	UpdatesChannel  *int64 `json:"updates_channel_id,omitempty"`
	StatusChannel   *int64 `json:"status_channel_id,omitempty"`
	AnnounceChannel *int64 `json:"announcements_channel_id,omitempty"`
	SetupCompleted  bool   `json:"setup_completed"`
}

// GuildRepository reads and writes per-guild channel routing.
type GuildRepository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewGuildRepository(db *database.DB, logger *slog.Logger) *GuildRepository {
	logger.Debug("Initializing guild repository")
	return &GuildRepository{db: db, logger: logger}
}

func (r *GuildRepository) Get(ctx context.Context, guildID int64) (*GuildChannels, error) {
	query := `
		SELECT guild_id, updates_channel_id, status_channel_id,
		       announcements_channel_id, setup_completed
		FROM server_config
		WHERE guild_id = ?
	`
	var g GuildChannels
	err := r.db.QueryRowContext(ctx, query, guildID).Scan(
		&g.GuildID, &g.UpdatesChannel, &g.StatusChannel,
		&g.AnnounceChannel, &g.SetupCompleted,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &g, nil
}

// ListConfigured returns every guild that finished channel setup.
func (r *GuildRepository) ListConfigured(ctx context.Context) ([]*GuildChannels, error) {
	query := `
		SELECT guild_id, updates_channel_id, status_channel_id,
		       announcements_channel_id, setup_completed
		FROM server_config
		WHERE setup_completed = ?
	`
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var guilds []*GuildChannels
	for rows.Next() {
		var g GuildChannels
		if err := rows.Scan(
			&g.GuildID, &g.UpdatesChannel, &g.StatusChannel,
			&g.AnnounceChannel, &g.SetupCompleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan guild config: %w", err)
		}
		guilds = append(guilds, &g)
	}
	return guilds, rows.Err()
}

// SeedFromConfig writes the env-configured guild routing into
// server_config so a fresh store has guilds to fan out to. Returns how
// many guilds were written.
func (r *GuildRepository) SeedFromConfig(ctx context.Context, cfg config.GuildConfig) (int, error) {
	channel := func(id int64) *int64 {
		if id == 0 {
			return nil
		}
		return &id
	}
	configured := cfg.UpdatesChannelID != 0 || cfg.StatusChannelID != 0 || cfg.AnnouncementsChannelID != 0

	seeded := 0
	for _, guildID := range cfg.GuildIDs {
		g := &GuildChannels{
			GuildID:         guildID,
			UpdatesChannel:  channel(cfg.UpdatesChannelID),
			StatusChannel:   channel(cfg.StatusChannelID),
			AnnounceChannel: channel(cfg.AnnouncementsChannelID),
			SetupCompleted:  configured,
		}
		if err := r.Upsert(ctx, g); err != nil {
			return seeded, fmt.Errorf("failed to seed guild %d: %w", guildID, err)
		}
		seeded++
	}
	return seeded, nil
}

// Upsert saves a guild's channel routing.
func (r *GuildRepository) Upsert(ctx context.Context, g *GuildChannels) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE server_config
		SET updates_channel_id = ?, status_channel_id = ?,
		    announcements_channel_id = ?, setup_completed = ?
		WHERE guild_id = ?
	`, g.UpdatesChannel, g.StatusChannel, g.AnnounceChannel, g.SetupCompleted, g.GuildID)
	if err != nil {
		return fmt.Errorf("failed to update guild config: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO server_config
			(guild_id, updates_channel_id, status_channel_id,
			 announcements_channel_id, setup_completed)
		VALUES (?, ?, ?, ?, ?)
	`, g.GuildID, g.UpdatesChannel, g.StatusChannel, g.AnnounceChannel, g.SetupCompleted); err != nil {
		return fmt.Errorf("failed to insert guild config: %w", err)
	}
	return nil
}
