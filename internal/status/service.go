// Package status keeps the outside world appraised of the galaxy's
// heartbeat: a shift-of-day monitor that announces transitions, and a
// presence line published to each guild's status channel.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"corridors-server/internal/gametime"
	"corridors-server/internal/news"
	"corridors-server/internal/npc"
	"corridors-server/internal/observability"
	"corridors-server/internal/platform"
	"corridors-server/internal/player"
)

const monitorInterval = 5 * time.Minute

var shiftGreetings = map[gametime.Shift]string{
	gametime.ShiftMorning: "🌅 Morning shift has begun across the galaxy. Stations are waking up.",
	gametime.ShiftDay:     "☀️ Day shift is underway. Peak traffic on all major corridors.",
	gametime.ShiftEvening: "🌆 Evening shift has started. Bars are filling, freight is slowing.",
	gametime.ShiftNight:   "🌙 Night shift settles in. Skeleton crews and quiet channels.",
}

type Service struct {
	clock   *gametime.Service
	players *player.Repository
	npcs    *npc.Repository
	news    *news.Service
	guilds  *platform.GuildRepository
	sink    platform.Sink
	logger  *slog.Logger

	// Status edits count against the chat platform's quota, so they
	// pass through a limiter on top of the unchanged-string check.
	limiter  *rate.Limiter
	lastLine string
}

func NewService(clock *gametime.Service, players *player.Repository, npcs *npc.Repository, newsSvc *news.Service, guilds *platform.GuildRepository, sink platform.Sink, logger *slog.Logger) *Service {
	return &Service{
		clock:   clock,
		players: players,
		npcs:    npcs,
		news:    newsSvc,
		guilds:  guilds,
		sink:    sink,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(2*time.Minute), 3),
	}
}

// Run executes the monitor every five minutes until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	logger := s.logger.With("component", "status_service", "operation", "monitor")
	logger.Info("Status monitor started", "interval", monitorInterval)

	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Status monitor stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				observability.LoopErrors.WithLabelValues("status_monitor").Inc()
				logger.Error("Status tick failed", "error", err)
			}
		}
	}
}

// Tick runs one monitor pass: presence-driven pause management, shift
// transition detection, and the status line.
func (s *Service) Tick(ctx context.Context) error {
	if !s.clock.HasGalaxy() {
		return nil
	}

	if err := s.managePresencePause(ctx); err != nil {
		return err
	}
	if err := s.checkShiftChange(ctx); err != nil {
		return err
	}
	return s.publishStatusLine(ctx)
}

// managePresencePause pauses the clock while nobody is playing and
// resumes it when someone logs back in. Manual pauses are left alone.
func (s *Service) managePresencePause(ctx context.Context) error {
	online, err := s.players.OnlinePlayerCount(ctx)
	if err != nil {
		return err
	}
	if online == 0 {
		return s.clock.AutoPause(ctx)
	}
	return s.clock.AutoResume(ctx)
}

// checkShiftChange compares the live shift against the stored one and
// announces the transition once.
func (s *Service) checkShiftChange(ctx context.Context) error {
	current, err := s.clock.CurrentShift()
	if err != nil {
		return err
	}

	stored, ok := s.clock.StoredShift()
	if ok && stored == current {
		return nil
	}

	// Only announce actual transitions, not the very first
	// observation after generation.
	if ok {
		greeting := shiftGreetings[current]
		if err := s.news.QueueToAll(ctx, news.TypeAdminAnnouncement, "📡 Shift Change", greeting, nil, nil); err != nil {
			s.logger.Warn("Failed to queue shift announcement",
				"component", "status_service", "shift", current, "error", err)
		}
		s.logger.Info("Shift changed",
			"component", "status_service", "from", stored, "to", current)
	}

	return s.clock.RecordShift(ctx, current)
}

// publishStatusLine renders the presence line and pushes it to every
// configured status channel. Unchanged lines are suppressed.
func (s *Service) publishStatusLine(ctx context.Context) error {
	line, err := s.RenderLine(ctx)
	if err != nil {
		return err
	}
	if line == s.lastLine {
		return nil
	}
	if !s.limiter.Allow() {
		s.logger.Debug("Status line edit deferred by rate limit",
			"component", "status_service")
		return nil
	}

	guilds, err := s.guilds.ListConfigured(ctx)
	if err != nil {
		return err
	}
	for _, g := range guilds {
		if g.StatusChannel == nil {
			continue
		}
		msg := &platform.Message{
			GuildID:   g.GuildID,
			ChannelID: *g.StatusChannel,
			Content:   line,
		}
		if err := s.sink.Send(ctx, msg); err != nil {
			s.logger.Warn("Failed to publish status line",
				"component", "status_service", "guild_id", g.GuildID, "error", err)
		}
	}

	s.lastLine = line
	return nil
}

// RenderLine builds "date — rounded time | 🟢 players | 🟠 NPCs".
func (s *Service) RenderLine(ctx context.Context) (string, error) {
	now, err := s.clock.Current()
	if err != nil {
		return "", err
	}
	online, err := s.players.OnlinePlayerCount(ctx)
	if err != nil {
		return "", err
	}
	npcCount, err := s.npcs.CountLivingDynamicNPCs(ctx)
	if err != nil {
		return "", err
	}

	rounded := roundToHalfHour(now)
	return fmt.Sprintf("%s — %s ISST | 🟢 %d | 🟠 %d",
		rounded.Format("02-01-2006"), rounded.Format("15:04"), online, npcCount), nil
}

// roundToHalfHour snaps an instant to the nearest 30 minutes so the
// line only changes when something meaningful did.
func roundToHalfHour(t time.Time) time.Time {
	return t.UTC().Round(30 * time.Minute)
}
