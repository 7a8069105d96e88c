package platform

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"corridors-server/internal/shared/config"
	"corridors-server/internal/shared/database"
)

func newTestGuilds(t *testing.T) *GuildRepository {
	t.Helper()

	db, err := database.OpenSQLitePath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return NewGuildRepository(db, slog.Default())
}

func TestSeedFromConfigMakesGuildsAddressable(t *testing.T) {
	repo := newTestGuilds(t)
	ctx := context.Background()

	seeded, err := repo.SeedFromConfig(ctx, config.GuildConfig{
		GuildIDs:         []int64{100, 200},
		UpdatesChannelID: 555,
		StatusChannelID:  666,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seeded != 2 {
		t.Fatalf("seeded %d guilds, want 2", seeded)
	}

	configured, err := repo.ListConfigured(ctx)
	if err != nil {
		t.Fatalf("list configured: %v", err)
	}
	if len(configured) != 2 {
		t.Fatalf("%d guilds configured, want 2", len(configured))
	}
	for _, g := range configured {
		if g.UpdatesChannel == nil || *g.UpdatesChannel != 555 {
			t.Fatalf("guild %d updates channel = %v", g.GuildID, g.UpdatesChannel)
		}
		if g.StatusChannel == nil || *g.StatusChannel != 666 {
			t.Fatalf("guild %d status channel = %v", g.GuildID, g.StatusChannel)
		}
		if g.AnnounceChannel != nil {
			t.Fatalf("guild %d announce channel = %v, want unset", g.GuildID, g.AnnounceChannel)
		}
	}
}

func TestSeedFromConfigIsIdempotent(t *testing.T) {
	repo := newTestGuilds(t)
	ctx := context.Background()

	cfg := config.GuildConfig{GuildIDs: []int64{100}, UpdatesChannelID: 555}
	if _, err := repo.SeedFromConfig(ctx, cfg); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	// A re-run with changed routing updates in place instead of piling
	// up rows.
	cfg.UpdatesChannelID = 777
	if _, err := repo.SeedFromConfig(ctx, cfg); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	configured, err := repo.ListConfigured(ctx)
	if err != nil {
		t.Fatalf("list configured: %v", err)
	}
	if len(configured) != 1 {
		t.Fatalf("%d rows after reseeding, want 1", len(configured))
	}
	if *configured[0].UpdatesChannel != 777 {
		t.Fatalf("updates channel = %d, want 777", *configured[0].UpdatesChannel)
	}
}

func TestSeedFromConfigWithoutChannelsStaysUnconfigured(t *testing.T) {
	repo := newTestGuilds(t)
	ctx := context.Background()

	if _, err := repo.SeedFromConfig(ctx, config.GuildConfig{GuildIDs: []int64{100}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	configured, err := repo.ListConfigured(ctx)
	if err != nil {
		t.Fatalf("list configured: %v", err)
	}
	if len(configured) != 0 {
		t.Fatalf("guild with no channels listed as configured")
	}
}
