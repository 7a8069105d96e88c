package news

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/platform"
	"corridors-server/internal/shared/database"
)

// recordingSink captures everything sent through it.
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

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func newTestNews(t *testing.T) (*Service, *galaxy.Repository, *platform.GuildRepository, *recordingSink) {
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
	svc := NewService(NewRepository(db, slog.Default()), galaxyRepo, guildRepo, sink, slog.Default())
	return svc, galaxyRepo, guildRepo, sink
}

func configureGuild(t *testing.T, guilds *platform.GuildRepository, guildID, channelID int64) {
	t.Helper()
	channel := channelID
	err := guilds.Upsert(context.Background(), &platform.GuildChannels{
		GuildID:        guildID,
		UpdatesChannel: &channel,
		SetupCompleted: true,
	})
	if err != nil {
		t.Fatalf("configure guild: %v", err)
	}
}

func TestLocalNewsDeliversImmediately(t *testing.T) {
	svc, galaxyRepo, guilds, sink := newTestNews(t)
	ctx := context.Background()

	configureGuild(t, guilds, 100, 555)
	loc, err := galaxyRepo.CreateLocation(ctx, &galaxy.Location{
		Name: "Core Hub", Type: galaxy.LocationTypeStation,
		Faction: galaxy.FactionNeutral, SystemName: "Core System",
		X: 0, Y: 0,
	}, nil)
	if err != nil {
		t.Fatalf("create location: %v", err)
	}

	if err := svc.QueueToAll(ctx, TypeMajorEvent, "Test Event", "Something happened.", &loc.ID, nil); err != nil {
		t.Fatalf("queue: %v", err)
	}

	delivered, err := svc.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if delivered != 1 || sink.count() != 1 {
		t.Fatalf("delivered = %d, sent = %d, want 1 each", delivered, sink.count())
	}

	msg := sink.messages[0]
	if msg.GuildID != 100 || msg.ChannelID != 555 {
		t.Fatalf("message routed to guild %d channel %d", msg.GuildID, msg.ChannelID)
	}
	if msg.Embed == nil || msg.Embed.Footer != "Signal Age: live feed" {
		t.Fatalf("embed footer = %+v", msg.Embed)
	}

	// Delivered entries do not drain twice.
	if again, _ := svc.DrainOnce(ctx); again != 0 {
		t.Fatalf("second drain delivered %d", again)
	}
}

func TestDistantNewsWaitsForTheSignal(t *testing.T) {
	svc, galaxyRepo, guilds, sink := newTestNews(t)
	ctx := context.Background()

	configureGuild(t, guilds, 100, 555)
	loc, err := galaxyRepo.CreateLocation(ctx, &galaxy.Location{
		Name: "Rim Outpost", Type: galaxy.LocationTypeOutpost,
		Faction: galaxy.FactionNeutral, SystemName: "Rim System",
		X: 5000, Y: 5000,
	}, nil)
	if err != nil {
		t.Fatalf("create location: %v", err)
	}

	if err := svc.Queue(ctx, 100, TypePirateActivity, "Raid", "Raiders hit the outpost.", &loc.ID, nil); err != nil {
		t.Fatalf("queue: %v", err)
	}

	if delivered, _ := svc.DrainOnce(ctx); delivered != 0 || sink.count() != 0 {
		t.Fatalf("distant news delivered early: %d", delivered)
	}
	pending, err := svc.repo.PendingCount(ctx)
	if err != nil || pending != 1 {
		t.Fatalf("pending = %d, %v; want 1", pending, err)
	}
}

func TestMissingChannelConsumesEntryWithoutSending(t *testing.T) {
	svc, _, guilds, sink := newTestNews(t)
	ctx := context.Background()

	// A guild with no updates channel can never be addressed; its
	// entries are dropped rather than retried forever.
	err := guilds.Upsert(ctx, &platform.GuildChannels{GuildID: 200, SetupCompleted: true})
	if err != nil {
		t.Fatalf("configure guild: %v", err)
	}

	if err := svc.Queue(ctx, 200, TypeFluffNews, "Chatter", "Nothing much.", nil, nil); err != nil {
		t.Fatalf("queue: %v", err)
	}

	delivered, err := svc.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if delivered != 0 || sink.count() != 0 {
		t.Fatalf("unroutable entry sent somewhere: delivered=%d sent=%d", delivered, sink.count())
	}
	pending, _ := svc.repo.PendingCount(ctx)
	if pending != 0 {
		t.Fatalf("pending = %d, unroutable entry left to clog the queue", pending)
	}
}

func TestStuckGuildDoesNotStarveOthers(t *testing.T) {
	svc, _, guilds, sink := newTestNews(t)
	ctx := context.Background()

	// Guild 200 has no channel, guild 100 does. A backlog for 200 must
	// not block 100's delivery.
	err := guilds.Upsert(ctx, &platform.GuildChannels{GuildID: 200, SetupCompleted: true})
	if err != nil {
		t.Fatalf("configure guild: %v", err)
	}
	configureGuild(t, guilds, 100, 555)

	for i := 0; i < 30; i++ {
		if err := svc.Queue(ctx, 200, TypeFluffNews, "Chatter", "Nothing much.", nil, nil); err != nil {
			t.Fatalf("queue: %v", err)
		}
	}
	if err := svc.Queue(ctx, 100, TypeMajorEvent, "Breaking", "Something happened.", nil, nil); err != nil {
		t.Fatalf("queue: %v", err)
	}

	// First pass consumes a batch of unroutable entries, second pass
	// reaches the deliverable one.
	for i := 0; i < 2 && sink.count() == 0; i++ {
		if _, err := svc.DrainOnce(ctx); err != nil {
			t.Fatalf("drain: %v", err)
		}
	}
	if sink.count() != 1 {
		t.Fatalf("deliverable entry starved by unroutable backlog: sent=%d", sink.count())
	}
	pending, _ := svc.repo.PendingCount(ctx)
	if pending != 0 {
		t.Fatalf("pending = %d after draining, want 0", pending)
	}
}

type failingSink struct{}

func (failingSink) Send(ctx context.Context, msg *platform.Message) error {
	return fmt.Errorf("transport down")
}

func TestTransportFailureLeavesEntryQueued(t *testing.T) {
	svc, _, guilds, _ := newTestNews(t)
	svc.sink = failingSink{}
	ctx := context.Background()

	configureGuild(t, guilds, 100, 555)
	if err := svc.Queue(ctx, 100, TypeMajorEvent, "Breaking", "Something happened.", nil, nil); err != nil {
		t.Fatalf("queue: %v", err)
	}

	delivered, err := svc.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("delivered = %d through a dead transport", delivered)
	}
	pending, _ := svc.repo.PendingCount(ctx)
	if pending != 1 {
		t.Fatalf("pending = %d, want the entry kept for retry", pending)
	}
}

func TestQueueToAllSkipsUnconfiguredGuilds(t *testing.T) {
	svc, _, guilds, _ := newTestNews(t)
	ctx := context.Background()

	configureGuild(t, guilds, 100, 555)
	// A half-set-up guild is not addressed at all.
	err := guilds.Upsert(ctx, &platform.GuildChannels{GuildID: 300, SetupCompleted: false})
	if err != nil {
		t.Fatalf("configure guild: %v", err)
	}

	if err := svc.QueueToAll(ctx, TypeEconomicNews, "Prices", "Fuel is up.", nil, nil); err != nil {
		t.Fatalf("queue to all: %v", err)
	}
	pending, _ := svc.repo.PendingCount(ctx)
	if pending != 1 {
		t.Fatalf("pending = %d, want 1 entry for the configured guild", pending)
	}
}

func TestSignalAge(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0, "Signal Age: live feed"},
		{0.5, "Signal Age: 30 minutes old"},
		{1.2, "Signal Age: ~1 hour old"},
		{2.0, "Signal Age: ~2 hours old"},
		{2.4, "Signal Age: ~2 hours old"},
		{36, "Signal Age: 1.5 days old"},
	}
	for _, tc := range cases {
		if got := signalAge(tc.hours); got != tc.want {
			t.Errorf("signalAge(%v) = %q, want %q", tc.hours, got, tc.want)
		}
	}
}

func TestEntryColorFallsBack(t *testing.T) {
	known := &Entry{NewsType: TypeCorridorCollapse}
	if known.Color() != typeColors[TypeCorridorCollapse] {
		t.Fatalf("known type color = %#x", known.Color())
	}
	unknown := &Entry{NewsType: "weather_report"}
	if unknown.Color() != defaultColor {
		t.Fatalf("unknown type color = %#x", unknown.Color())
	}
}
