package radio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/platform"
	"corridors-server/internal/shared/database"
)

type recordingSink struct {
	mu       sync.Mutex
	messages []*platform.Message
}

func (s *recordingSink) Send(ctx context.Context, msg *platform.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func newTestRadio(t *testing.T) (*Service, *galaxy.Repository, *platform.GuildRepository, *recordingSink) {
	t.Helper()

	db, err := database.OpenSQLitePath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	galaxyRepo := galaxy.NewRepository(db, slog.Default())
	guildRepo := platform.NewGuildRepository(db, slog.Default())
	sink := &recordingSink{}
	return NewService(galaxyRepo, guildRepo, sink, slog.Default()), galaxyRepo, guildRepo, sink
}

func placeLocation(t *testing.T, repo *galaxy.Repository, name string, x, y float64) *galaxy.Location {
	t.Helper()
	loc, err := repo.CreateLocation(context.Background(), &galaxy.Location{
		Name:       name,
		Type:       galaxy.LocationTypeStation,
		Faction:    galaxy.FactionNeutral,
		Wealth:     5,
		X:          x,
		Y:          y,
		SystemName: name + " System",
	}, nil)
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	return loc
}

func placeRepeater(t *testing.T, repo *galaxy.Repository, locationID int64, receive, transmit int, active bool) {
	t.Helper()
	err := repo.CreateRepeatersBatch(context.Background(), []*galaxy.Repeater{{
		LocationID:    locationID,
		RepeaterType:  "station_array",
		ReceiveRange:  receive,
		TransmitRange: transmit,
		IsActive:      active,
	}}, nil)
	if err != nil {
		t.Fatalf("create repeater: %v", err)
	}
}

func TestPropagateBaseRangeOnly(t *testing.T) {
	svc, repo, _, _ := newTestRadio(t)

	origin := placeLocation(t, repo, "Meridian", 0, 0)
	near := placeLocation(t, repo, "Kepler Rest", 40, 0)
	far := placeLocation(t, repo, "Forge Station", 200, 0)

	coverage, err := svc.Propagate(context.Background(), origin.ID)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if !coverage.Reached[origin.ID] || !coverage.Reached[near.ID] {
		t.Fatalf("base range missed nearby location: %v", coverage.Reached)
	}
	if coverage.Reached[far.ID] {
		t.Fatal("unassisted signal carried 200 units")
	}
	if coverage.RelayCount != 0 {
		t.Fatalf("relay count = %d with no repeaters", coverage.RelayCount)
	}
}

func TestPropagateChainsThroughRepeaters(t *testing.T) {
	svc, repo, _, _ := newTestRadio(t)
	ctx := context.Background()

	origin := placeLocation(t, repo, "Meridian", 0, 0)
	relayA := placeLocation(t, repo, "Relay Alpha", 80, 0)
	relayB := placeLocation(t, repo, "Relay Beta", 200, 0)
	far := placeLocation(t, repo, "Forge Station", 280, 0)

	// Alpha hears the origin (50 base + 40 receive >= 80), Beta hears
	// Alpha (120 transmit from x=80 reaches x=200), and Beta's
	// transmitter covers the far station.
	placeRepeater(t, repo, relayA.ID, 40, 120, true)
	placeRepeater(t, repo, relayB.ID, 10, 100, true)

	coverage, err := svc.Propagate(ctx, origin.ID)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if coverage.RelayCount != 2 {
		t.Fatalf("relay count = %d, want 2", coverage.RelayCount)
	}
	if !coverage.Reached[far.ID] {
		t.Fatal("chained relays did not reach the far station")
	}
}

func TestPropagateIgnoresInactiveRepeaters(t *testing.T) {
	svc, repo, _, _ := newTestRadio(t)

	origin := placeLocation(t, repo, "Meridian", 0, 0)
	relay := placeLocation(t, repo, "Relay Alpha", 80, 0)
	far := placeLocation(t, repo, "Forge Station", 280, 0)

	placeRepeater(t, repo, relay.ID, 40, 300, false)

	coverage, err := svc.Propagate(context.Background(), origin.ID)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if coverage.RelayCount != 0 || coverage.Reached[far.ID] {
		t.Fatalf("inactive repeater relayed: %+v", coverage)
	}
}

func TestBroadcastRelaysToConfiguredGuilds(t *testing.T) {
	svc, repo, guilds, sink := newTestRadio(t)
	ctx := context.Background()

	origin := placeLocation(t, repo, "Meridian", 0, 0)

	channel := int64(777)
	err := guilds.Upsert(ctx, &platform.GuildChannels{
		GuildID:        42,
		UpdatesChannel: &channel,
		SetupCompleted: true,
	})
	if err != nil {
		t.Fatalf("configure guild: %v", err)
	}

	if _, err := svc.Broadcast(ctx, origin.ID, "Drifter-42", "Anyone on this channel?"); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if len(sink.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sink.messages))
	}
	embed := sink.messages[0].Embed
	if embed == nil || embed.Title != "📡 Drifter-42" {
		t.Fatalf("embed = %+v", embed)
	}
	if embed.Footer != "Transmitting from Meridian (Meridian System system)" {
		t.Fatalf("footer = %q", embed.Footer)
	}
}
