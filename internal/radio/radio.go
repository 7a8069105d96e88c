// Package radio models signal propagation across the galaxy. A
// broadcast carries a base range from its origin; active repeaters
// that can hear it relay with their own transmit range, chaining
// coverage across the map.
package radio

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/platform"
)

// baseTransmitRange is how far an unassisted ship transmitter carries.
const baseTransmitRange = 50.0

type Service struct {
	galaxy *galaxy.Repository
	guilds *platform.GuildRepository
	sink   platform.Sink
	logger *slog.Logger
}

func NewService(galaxyRepo *galaxy.Repository, guilds *platform.GuildRepository, sink platform.Sink, logger *slog.Logger) *Service {
	return &Service{galaxy: galaxyRepo, guilds: guilds, sink: sink, logger: logger}
}

// Coverage is the set of location ids a broadcast reaches, including
// the origin.
type Coverage struct {
	Origin     int64
	Reached    map[int64]bool
	RelayCount int
}

// Propagate computes which locations hear a broadcast from the origin.
// Repeaters within listening distance of any energized transmitter
// join the relay chain until no new repeater lights up.
func (s *Service) Propagate(ctx context.Context, originID int64) (*Coverage, error) {
	origin, err := s.galaxy.GetLocationByID(ctx, originID)
	if err != nil {
		return nil, err
	}
	if origin == nil {
		return nil, fmt.Errorf("broadcast origin %d not found", originID)
	}

	sites, err := s.galaxy.ListActiveRepeaterSites(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := s.galaxy.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	// Transmitters start with the origin itself and grow as repeaters
	// pick up the signal.
	type transmitter struct {
		x, y    float64
		txRange float64
	}
	transmitters := []transmitter{{origin.X, origin.Y, baseTransmitRange}}
	energized := make(map[int64]bool)

	for {
		grew := false
		for _, site := range sites {
			if energized[site.ID] {
				continue
			}
			for _, t := range transmitters {
				if math.Hypot(site.X-t.x, site.Y-t.y) <= t.txRange+float64(site.ReceiveRange) {
					energized[site.ID] = true
					transmitters = append(transmitters, transmitter{site.X, site.Y, float64(site.TransmitRange)})
					grew = true
					break
				}
			}
		}
		if !grew {
			break
		}
	}

	reached := map[int64]bool{originID: true}
	for _, loc := range locations {
		if reached[loc.ID] {
			continue
		}
		for _, t := range transmitters {
			if math.Hypot(loc.X-t.x, loc.Y-t.y) <= t.txRange {
				reached[loc.ID] = true
				break
			}
		}
	}

	return &Coverage{Origin: originID, Reached: reached, RelayCount: len(energized)}, nil
}

// Broadcast computes coverage and relays the transmission to every
// configured guild. The embed names the origin so readers know where
// the signal came from.
func (s *Service) Broadcast(ctx context.Context, originID int64, callsign, content string) (*Coverage, error) {
	coverage, err := s.Propagate(ctx, originID)
	if err != nil {
		return nil, err
	}

	origin, err := s.galaxy.GetLocationByID(ctx, originID)
	if err != nil {
		return nil, err
	}

	guilds, err := s.guilds.ListConfigured(ctx)
	if err != nil {
		return nil, err
	}

	for _, guild := range guilds {
		if guild.UpdatesChannel == nil {
			continue
		}
		msg := &platform.Message{
			GuildID:   guild.GuildID,
			ChannelID: *guild.UpdatesChannel,
			Embed: &platform.Embed{
				Title:       fmt.Sprintf("📡 %s", callsign),
				Description: content,
				Color:       0x1ABC9C,
				Footer:      fmt.Sprintf("Transmitting from %s (%s system)", origin.Name, origin.SystemName),
			},
		}
		if err := s.sink.Send(ctx, msg); err != nil {
			s.logger.Warn("Radio relay failed",
				"component", "radio_service", "guild_id", guild.GuildID, "error", err)
		}
	}

	s.logger.Debug("Radio broadcast propagated",
		"component", "radio_service", "origin_id", originID,
		"locations_reached", len(coverage.Reached), "relays", coverage.RelayCount)
	return coverage, nil
}
