package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"corridors-server/internal/galaxy"
	apperrors "corridors-server/internal/shared/errors"
)

// Tier labels for a reputation score.
const (
	TierHeroic  = "Heroic"
	TierGood    = "Good"
	TierNeutral = "Neutral"
	TierBad     = "Bad"
	TierEvil    = "Evil"
)

// TierOf buckets a score into its standing label.
func TierOf(score int) string {
	switch {
	case score >= 70:
		return TierHeroic
	case score >= 35:
		return TierGood
	case score <= -70:
		return TierEvil
	case score <= -35:
		return TierBad
	default:
		return TierNeutral
	}
}

// propagationFloor stops the spread once the decayed delta is this
// small in magnitude.
const propagationFloor = 2

type Service struct {
	repo   *Repository
	galaxy *galaxy.Repository
	logger *slog.Logger
}

func NewService(repo *Repository, galaxyRepo *galaxy.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, galaxy: galaxyRepo, logger: logger}
}

// decayTowardZero shrinks a delta by the per-hop amount without
// crossing zero.
func decayTowardZero(delta int) int {
	if delta > 0 {
		delta -= propagationFloor
		if delta < 0 {
			delta = 0
		}
		return delta
	}
	delta += propagationFloor
	if delta > 0 {
		delta = 0
	}
	return delta
}

// ApplyKarma applies a reputation change at the source location and
// spreads a decayed echo of it along active corridors. The spread
// stops when the remaining magnitude drops to the floor.
func (s *Service) ApplyKarma(ctx context.Context, userID, sourceLocationID int64, karma int) error {
	if karma == 0 {
		return nil
	}

	logger := s.logger.With("component", "reputation_service", "operation", "apply_karma",
		"user_id", userID, "location_id", sourceLocationID, "karma", karma)

	graph, err := s.galaxy.LoadActiveGraph(ctx)
	if err != nil {
		return fmt.Errorf("failed to load corridor graph: %w", err)
	}

	now := float64(time.Now().UnixNano()) / float64(time.Second)

	type pending struct {
		location int64
		delta    int
	}
	queue := []pending{{sourceLocationID, karma}}
	visited := map[int64]bool{sourceLocationID: true}
	touched := 0

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		current := queue[0]
		queue = queue[1:]

		if err := s.repo.Adjust(ctx, nil, userID, current.location, current.delta, now); err != nil {
			return err
		}
		touched++

		// Neighbors only hear about it while the echo is loud enough.
		if current.delta > -propagationFloor && current.delta < propagationFloor {
			continue
		}
		next := decayTowardZero(current.delta)
		if next == 0 {
			continue
		}
		for _, neighbor := range graph.Neighbors[current.location] {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			queue = append(queue, pending{neighbor, next})
		}
	}

	logger.Info("Reputation propagated", "locations_touched", touched)
	return nil
}

// SetReputation pins a user's reputation at the named location to an
// exact value. The difference against the stored value is fed through
// the normal propagation path so surrounding locations stay coherent.
func (s *Service) SetReputation(ctx context.Context, userID int64, locationName string, value int) (*galaxy.Location, int, error) {
	location, err := s.galaxy.FindLocationByNameSubstring(ctx, locationName)
	if err != nil {
		return nil, 0, err
	}
	if location == nil {
		return nil, 0, apperrors.NotFoundf("no location matches %q", locationName)
	}

	existing, err := s.repo.Get(ctx, userID, location.ID)
	if err != nil {
		return nil, 0, err
	}

	delta := value - existing
	if delta == 0 {
		return location, 0, nil
	}
	if err := s.ApplyKarma(ctx, userID, location.ID, delta); err != nil {
		return nil, 0, err
	}
	return location, delta, nil
}

// Standing reports the score and tier a user holds at a location.
func (s *Service) Standing(ctx context.Context, userID, locationID int64) (int, string, error) {
	score, err := s.repo.Get(ctx, userID, locationID)
	if err != nil {
		return 0, "", err
	}
	return score, TierOf(score), nil
}
