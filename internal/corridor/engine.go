// Package corridor drives the lifecycle of the travel network: shifts
// that wake dormant routes and collapse active ones, gate relocation,
// traveler resolution and the connectivity repair that keeps the
// galaxy in one piece.
package corridor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/news"
	"corridors-server/internal/npc"
	"corridors-server/internal/observability"
	"corridors-server/internal/player"
	apperrors "corridors-server/internal/shared/errors"
)

// ShiftResult counts what one shift pass did to the network. Corridor
// counts are logical routes, not direction rows.
type ShiftResult struct {
	Intensity      int `json:"intensity"`
	Activated      int `json:"activated"`
	Deactivated    int `json:"deactivated"`
	NewDormant     int `json:"new_dormant"`
	GatesMoved     int `json:"gates_moved"`
	GatesAbandoned int `json:"gates_abandoned"`
}

func (r *ShiftResult) totalChanges() int {
	return r.Activated + r.Deactivated + r.GatesMoved + r.GatesAbandoned
}

type Engine struct {
	repo    *galaxy.Repository
	players *player.Repository
	npcs    *npc.Repository
	news    *news.Service
	logger  *slog.Logger

	// mu serializes shift passes; manual triggers and both loops share
	// the same critical section.
	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(repo *galaxy.Repository, players *player.Repository, npcs *npc.Repository, newsSvc *news.Service, logger *slog.Logger) *Engine {
	return &Engine{
		repo:    repo,
		players: players,
		npcs:    npcs,
		news:    newsSvc,
		logger:  logger,
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xC0FFEE)),
	}
}

// rollIntensity samples shift intensity, weighted toward mild.
func (e *Engine) rollIntensity() int {
	e.mu.Lock()
	roll := e.rng.Float64()
	e.mu.Unlock()
	switch {
	case roll < 0.40:
		return 1
	case roll < 0.70:
		return 2
	case roll < 0.90:
		return 3
	case roll < 0.98:
		return 4
	default:
		return 5
	}
}

// TriggerShift runs an on-demand shift pass. Intensity 0 means roll
// one the way the scheduled loops do.
func (e *Engine) TriggerShift(ctx context.Context, intensity int) (*ShiftResult, error) {
	if intensity == 0 {
		intensity = e.rollIntensity()
	}
	return e.ExecuteShift(ctx, intensity)
}

// ExecuteShift runs one full shift pass at the given intensity.
// Deactivations resolve before activations, gate movement after both,
// connectivity repair last.
func (e *Engine) ExecuteShift(ctx context.Context, intensity int) (*ShiftResult, error) {
	if intensity < 1 || intensity > 5 {
		return nil, apperrors.Validationf("shift intensity must be between 1 and 5, got %d", intensity)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	logger := e.logger.With("component", "corridor_engine", "operation", "shift", "intensity", intensity)
	logger.Info("Corridor shift starting")
	observability.ShiftTicks.Inc()

	nowReal := float64(time.Now().UnixNano()) / float64(time.Second)
	result := &ShiftResult{Intensity: intensity}

	active, err := e.repo.ListCorridors(ctx, true)
	if err != nil {
		return nil, err
	}
	dormant, err := e.repo.ListCorridors(ctx, false)
	if err != nil {
		return nil, err
	}
	locations, err := e.locationIndex(ctx)
	if err != nil {
		return nil, err
	}

	collapseCandidates, shiftCandidates := e.classify(active, nowReal)

	// Deactivations first. Track them so later isolation checks see the
	// network as it will be, not as it was.
	deactivated := map[int64]bool{}
	touchedLocations := map[int64]bool{}
	budget := len(active) / (6 - intensity)
	for _, c := range collapseCandidates {
		if result.Deactivated >= budget {
			break
		}
		ok, err := e.collapseCorridor(ctx, c, active, deactivated, nowReal)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Deactivated++
			touchedLocations[c.Origin] = true
			touchedLocations[c.Destination] = true
		}
	}

	// Then activations from the dormant pool.
	actBudget := len(dormant) / (6 - intensity)
	var toActivate []int64
	e.rng.Shuffle(len(shiftCandidates), func(i, j int) {
		shiftCandidates[i], shiftCandidates[j] = shiftCandidates[j], shiftCandidates[i]
	})
	e.rng.Shuffle(len(dormant), func(i, j int) { dormant[i], dormant[j] = dormant[j], dormant[i] })
	for _, c := range dormant {
		if len(toActivate) >= actBudget*2 { // paired rows
			break
		}
		partner := e.findPartner(dormant, c)
		if partner == nil {
			continue
		}
		toActivate = append(toActivate, c.ID, partner.ID)
		touchedLocations[c.Origin] = true
		touchedLocations[c.Destination] = true
	}
	toActivate = dedupe(toActivate)
	if len(toActivate) > 0 {
		if err := e.repo.SetCorridorsActive(ctx, toActivate, true, nowReal); err != nil {
			return nil, err
		}
		result.Activated = len(toActivate) / 2
		observability.CorridorsActivated.Add(float64(len(toActivate)))
	}

	// Shift candidates that did not collapse just get re-stamped; their
	// character drifts without a topology change.
	for _, c := range shiftCandidates {
		if deactivated[c.ID] {
			continue
		}
		if err := e.repo.TouchCorridorShift(ctx, c.ID, nowReal); err != nil {
			return nil, err
		}
	}

	if intensity >= 3 {
		moved, abandoned, err := e.moveGates(ctx, locations, touchedLocations, nowReal)
		if err != nil {
			return nil, err
		}
		result.GatesMoved = moved
		result.GatesAbandoned = abandoned
	}

	newDormant, err := e.replenishDormant(ctx, locations, intensity, nowReal)
	if err != nil {
		return nil, err
	}
	result.NewDormant = newDormant

	if err := e.repairConnectivity(ctx, locations, nowReal); err != nil {
		return nil, err
	}

	if result.totalChanges() >= 3 {
		description := fmt.Sprintf(
			"Long-range sensors report major corridor instability: %d routes collapsed, %d new routes opened, %d gates affected. Check your charts before departure.",
			result.Deactivated, result.Activated, result.GatesMoved+result.GatesAbandoned)
		if err := e.news.QueueToAll(ctx, news.TypeCorridorShift, "⚠️ Major Corridor Shift", description, nil, nil); err != nil {
			logger.Warn("Failed to queue shift alert", "error", err)
		}
	}

	logger.Info("Corridor shift finished",
		"activated", result.Activated, "deactivated", result.Deactivated,
		"new_dormant", result.NewDormant, "gates_moved", result.GatesMoved,
		"gates_abandoned", result.GatesAbandoned)
	return result, nil
}

// classify rolls every active corridor into collapse or shift buckets.
func (e *Engine) classify(active []*galaxy.Corridor, nowReal float64) (collapse, shift []*galaxy.Corridor) {
	for _, c := range active {
		var shiftChance, collapseChance float64
		if c.HasGate {
			shiftChance = 3 + e.rng.Float64()*5       // 3-8%
			collapseChance = 0.2 + e.rng.Float64()*0.8 // 0.2-1%
		} else {
			shiftChance = 12 + e.rng.Float64()*8     // 12-20%
			collapseChance = 2 + e.rng.Float64()*3   // 2-5%
		}

		// Routes that have not shifted in a long time are overdue.
		lastShift := c.CreatedAt
		if c.LastShift != nil {
			lastShift = *c.LastShift
		}
		hoursSince := (nowReal - lastShift) / 3600
		multiplier := math.Min(hoursSince/24, 2.5+e.rng.Float64()*1.5)
		if multiplier > 1 {
			shiftChance *= multiplier
			collapseChance *= multiplier
		}

		if e.rng.Float64() < 0.02 {
			shiftChance *= 2 + e.rng.Float64()*2
			collapseChance *= 1.5 + e.rng.Float64()*1.5
		}

		roll := e.rng.Float64() * 100
		switch {
		case roll < collapseChance:
			collapse = append(collapse, c)
		case roll < collapseChance+shiftChance:
			shift = append(shift, c)
		}
	}
	return collapse, shift
}

// collapseCorridor deactivates one corridor pair unless doing so would
// strand an endpoint, then resolves everyone caught inside.
func (e *Engine) collapseCorridor(ctx context.Context, c *galaxy.Corridor, active []*galaxy.Corridor, alreadyGone map[int64]bool, nowReal float64) (bool, error) {
	if alreadyGone[c.ID] {
		return false, nil
	}

	partner := e.findPartner(active, c)
	pairIDs := []int64{c.ID}
	if partner != nil {
		pairIDs = append(pairIDs, partner.ID)
	}

	// No-isolation rule: both endpoints must keep at least one active
	// connection after this pair goes dark.
	for _, endpoint := range []int64{c.Origin, c.Destination} {
		remaining := 0
		for _, other := range active {
			if alreadyGone[other.ID] || other.ID == c.ID || (partner != nil && other.ID == partner.ID) {
				continue
			}
			if other.Origin == endpoint {
				remaining++
			}
		}
		if remaining == 0 {
			return false, nil
		}
	}

	if err := e.resolveTravelers(ctx, c, pairIDs); err != nil {
		return false, err
	}
	if err := e.repo.SetCorridorsActive(ctx, pairIDs, false, nowReal); err != nil {
		return false, err
	}
	for _, id := range pairIDs {
		alreadyGone[id] = true
	}
	observability.CorridorsDeactivated.Add(float64(len(pairIDs)))

	locID := c.Origin
	description := fmt.Sprintf("The %s has destabilized and collapsed. All transits through it are suspended until further notice.", c.Name)
	if err := e.news.QueueToAll(ctx, news.TypeCorridorCollapse, "🌀 Corridor Collapse", description, &locID, nil); err != nil {
		e.logger.Warn("Failed to queue collapse news",
			"component", "corridor_engine", "corridor_id", c.ID, "error", err)
	}
	return true, nil
}

// resolveTravelers rolls survival for every session caught in a
// collapsing corridor: most limp out hurt, some never do.
func (e *Engine) resolveTravelers(ctx context.Context, c *galaxy.Corridor, corridorIDs []int64) error {
	sessions, err := e.players.ActiveSessionsOnCorridors(ctx, corridorIDs)
	if err != nil {
		return err
	}

	for _, session := range sessions {
		if err := e.players.UpdateSessionStatus(ctx, session.ID, player.SessionCorridorCollapse); err != nil {
			return err
		}

		if e.rng.Float64() < 0.60 {
			damage := 10*c.Danger + e.rng.IntN(25)
			hp, died, err := e.players.ApplyDamage(ctx, session.UserID, damage)
			if err != nil {
				return err
			}
			if !died {
				if err := e.players.ApplyShipDamage(ctx, session.UserID, damage/2); err != nil {
					return err
				}
				if err := e.players.StrandCharacter(ctx, session.UserID); err != nil {
					return err
				}
				e.logger.Info("Traveler survived corridor collapse",
					"component", "corridor_engine", "user_id", session.UserID, "hp", hp)
				continue
			}
		} else {
			if _, _, err := e.players.ApplyDamage(ctx, session.UserID, 10000); err != nil {
				return err
			}
		}

		locID := session.OriginLocation
		description := fmt.Sprintf("A vessel was lost when the %s collapsed mid-transit. Recovery crews found no survivors.", c.Name)
		if err := e.news.QueueToAll(ctx, news.TypeObituary, "💀 Lost in Transit", description, &locID, nil); err != nil {
			e.logger.Warn("Failed to queue collapse obituary",
				"component", "corridor_engine", "user_id", session.UserID, "error", err)
		}
	}
	return nil
}

// findPartner locates the opposite-direction row of a corridor pair.
func (e *Engine) findPartner(pool []*galaxy.Corridor, c *galaxy.Corridor) *galaxy.Corridor {
	for _, other := range pool {
		if other.ID != c.ID && other.Origin == c.Destination && other.Destination == c.Origin && other.Name == c.Name {
			return other
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) locationIndex(ctx context.Context) (map[int64]*galaxy.Location, error) {
	locations, err := e.repo.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]*galaxy.Location, len(locations))
	for _, loc := range locations {
		index[loc.ID] = loc
	}
	return index, nil
}
