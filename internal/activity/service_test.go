package activity

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/news"
	"corridors-server/internal/npc"
	"corridors-server/internal/platform"
	"corridors-server/internal/player"
	"corridors-server/internal/radio"
	"corridors-server/internal/shared/database"
)

func newTestActivity(t *testing.T) *Service {
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
	npcRepo := npc.NewRepository(db, slog.Default())
	playerRepo := player.NewRepository(db, slog.Default())
	guildRepo := platform.NewGuildRepository(db, slog.Default())
	newsSvc := news.NewService(news.NewRepository(db, slog.Default()), galaxyRepo, guildRepo, platform.NopSink{}, slog.Default())
	radioSvc := radio.NewService(galaxyRepo, guildRepo, platform.NopSink{}, slog.Default())

	return NewService(npcRepo, galaxyRepo, playerRepo, newsSvc, radioSvc, slog.Default())
}

func (s *Service) timerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.radioTimers)
}

func TestRetiredRadioTimerLeavesNoEntry(t *testing.T) {
	svc := newTestActivity(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.baseCtx = ctx

	// The NPC does not exist, so the first tick retires the timer; its
	// map entry must go with it.
	svc.startRadioTimer(404, 0)

	deadline := time.After(5 * time.Second)
	for svc.timerCount() != 0 {
		select {
		case <-deadline:
			t.Fatalf("retired timer still tracked: %d entries", svc.timerCount())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	svc.Wait()
}

func TestReplacedRadioTimerKeepsSingleEntry(t *testing.T) {
	svc := newTestActivity(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.baseCtx = ctx

	// Long initial delays keep both goroutines parked in their first
	// sleep; re-arming must cancel the old timer, not stack a second.
	svc.startRadioTimer(7, time.Hour)
	svc.startRadioTimer(7, time.Hour)

	if got := svc.timerCount(); got != 1 {
		t.Fatalf("timer entries = %d, want 1", got)
	}

	cancel()
	svc.Wait()

	if got := svc.timerCount(); got != 0 {
		t.Fatalf("timer entries after shutdown = %d, want 0", got)
	}
}
