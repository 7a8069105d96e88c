package news

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/observability"
	"corridors-server/internal/platform"
)

const (
	// Delay scaling: news crawls outward at roughly 50 units per hour.
	lightLagDivisor = 50.0
	maxDelayHours   = 48.0

	drainInterval = 30 * time.Second
	drainBatch    = 25
)

type Service struct {
	repo   *Repository
	galaxy *galaxy.Repository
	guilds *platform.GuildRepository
	sink   platform.Sink
	logger *slog.Logger
}

func NewService(repo *Repository, galaxyRepo *galaxy.Repository, guilds *platform.GuildRepository, sink platform.Sink, logger *slog.Logger) *Service {
	return &Service{repo: repo, galaxy: galaxyRepo, guilds: guilds, sink: sink, logger: logger}
}

// delayFor computes the light-lag delivery delay in hours for news
// originating at a location. Location-less news travels instantly.
func (s *Service) delayFor(ctx context.Context, locationID *int64) (float64, error) {
	if locationID == nil {
		return 0, nil
	}
	location, err := s.galaxy.GetLocationByID(ctx, *locationID)
	if err != nil {
		return 0, err
	}
	if location == nil {
		return 0, nil
	}

	distance := math.Hypot(location.X, location.Y)
	jitter := 0.8 + rand.Float64()*0.4
	delay := distance / lightLagDivisor * jitter
	if delay > maxDelayHours {
		delay = maxDelayHours
	}
	return delay, nil
}

// Queue schedules a news item for one guild.
func (s *Service) Queue(ctx context.Context, guildID int64, newsType, title, description string, locationID *int64, eventData *string) error {
	delay, err := s.delayFor(ctx, locationID)
	if err != nil {
		return err
	}

	now := float64(time.Now().UnixNano()) / float64(time.Second)
	entry := &Entry{
		GuildID:           guildID,
		NewsType:          newsType,
		Title:             title,
		Description:       description,
		LocationID:        locationID,
		ScheduledDelivery: now + delay*3600,
		DelayHours:        delay,
		EventData:         eventData,
		CreatedAt:         now,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return err
	}

	observability.NewsQueued.Inc()
	s.logger.Debug("News queued", "component", "news_service", "news_type", newsType,
		"guild_id", guildID, "delay_hours", delay)
	return nil
}

// QueueToAll schedules a news item for every configured guild.
func (s *Service) QueueToAll(ctx context.Context, newsType, title, description string, locationID *int64, eventData *string) error {
	guilds, err := s.guilds.ListConfigured(ctx)
	if err != nil {
		return err
	}
	for _, guild := range guilds {
		if err := s.Queue(ctx, guild.GuildID, newsType, title, description, locationID, eventData); err != nil {
			return err
		}
	}
	return nil
}

// signalAge renders a human footer for how stale the signal is on
// arrival.
func signalAge(delayHours float64) string {
	switch {
	case delayHours < 1.0/60:
		return "Signal Age: live feed"
	case delayHours < 1:
		return fmt.Sprintf("Signal Age: %d minutes old", int(delayHours*60))
	case delayHours < 24:
		hours := int(math.Round(delayHours))
		if hours <= 1 {
			return "Signal Age: ~1 hour old"
		}
		return fmt.Sprintf("Signal Age: ~%d hours old", hours)
	default:
		return fmt.Sprintf("Signal Age: %.1f days old", delayHours/24)
	}
}

// deliver posts one entry to its guild's updates channel. A guild with
// no routable channel consumes the entry without sending anything;
// only transport failures leave it queued for retry. Reports whether a
// message actually went out.
func (s *Service) deliver(ctx context.Context, entry *Entry) (bool, error) {
	now := float64(time.Now().UnixNano()) / float64(time.Second)

	guild, err := s.guilds.Get(ctx, entry.GuildID)
	if err != nil {
		return false, err
	}
	if guild == nil || guild.UpdatesChannel == nil {
		s.logger.Debug("No updates channel for guild, dropping news",
			"component", "news_service", "guild_id", entry.GuildID, "news_id", entry.ID)
		return false, s.repo.MarkDelivered(ctx, entry.ID, now)
	}

	msg := &platform.Message{
		GuildID:   entry.GuildID,
		ChannelID: *guild.UpdatesChannel,
		Embed: &platform.Embed{
			Title:       entry.Title,
			Description: entry.Description,
			Color:       entry.Color(),
			Footer:      signalAge(entry.DelayHours),
		},
	}
	if err := s.sink.Send(ctx, msg); err != nil {
		return false, err
	}

	if err := s.repo.MarkDelivered(ctx, entry.ID, now); err != nil {
		return true, err
	}
	observability.NewsDelivered.Inc()
	return true, nil
}

// DrainOnce delivers everything currently due. Failed deliveries stay
// queued for the next pass.
func (s *Service) DrainOnce(ctx context.Context) (int, error) {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	due, err := s.repo.ListDue(ctx, now, drainBatch)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, entry := range due {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		sent, err := s.deliver(ctx, entry)
		if err != nil {
			s.logger.Warn("News delivery failed, will retry",
				"component", "news_service", "news_id", entry.ID, "error", err)
			continue
		}
		if sent {
			delivered++
		}
	}
	return delivered, nil
}

// Run drains the queue on a fixed tick until the context ends.
func (s *Service) Run(ctx context.Context) {
	logger := s.logger.With("component", "news_service", "operation", "drain_loop")
	logger.Info("News drain loop started", "interval", drainInterval.String())

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("News drain loop stopped")
			return
		case <-ticker.C:
			delivered, err := s.DrainOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				observability.LoopErrors.WithLabelValues("news_drain").Inc()
				logger.Error("News drain pass failed", "error", err)
				continue
			}
			if delivered > 0 {
				logger.Debug("News delivered", "count", delivered)
			}
		}
	}
}
