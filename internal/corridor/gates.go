package corridor

import (
	"context"
	"fmt"
	"math"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/news"
	"corridors-server/internal/observability"
	apperrors "corridors-server/internal/shared/errors"
)

// moveGates processes gates whose corridors were touched this tick:
// some drift to new coordinates, some fall out of use entirely.
func (e *Engine) moveGates(ctx context.Context, locations map[int64]*galaxy.Location, touched map[int64]bool, nowReal float64) (moved, abandoned int, err error) {
	for id := range touched {
		gate, ok := locations[id]
		if !ok || gate.Type != galaxy.LocationTypeGate {
			continue
		}
		if gate.GateStatus == nil || *gate.GateStatus != galaxy.GateStatusActive {
			continue
		}

		switch roll := e.rng.Float64(); {
		case roll < 0.40:
			if err := e.relocateGate(ctx, gate, locations, nowReal); err != nil {
				return moved, abandoned, err
			}
			moved++
		case roll < 0.70:
			if err := e.abandonGate(ctx, gate, nowReal); err != nil {
				return moved, abandoned, err
			}
			abandoned++
		}
		// Remaining 30%: the gate rides out the shift unchanged.
	}
	return moved, abandoned, nil
}

// relocateGate drifts a gate up to 20 units and rescales the physics
// of every corridor touching it.
func (e *Engine) relocateGate(ctx context.Context, gate *galaxy.Location, locations map[int64]*galaxy.Location, nowReal float64) error {
	newX := gate.X + (e.rng.Float64()*2-1)*20
	newY := gate.Y + (e.rng.Float64()*2-1)*20

	connected, err := e.repo.ListCorridorsTouching(ctx, gate.ID, false)
	if err != nil {
		return err
	}
	for _, c := range connected {
		otherID := c.Origin
		if otherID == gate.ID {
			otherID = c.Destination
		}
		other, ok := locations[otherID]
		if !ok {
			continue
		}

		oldDist := math.Hypot(gate.X-other.X, gate.Y-other.Y)
		newDist := math.Hypot(newX-other.X, newY-other.Y)
		if oldDist < 1 {
			oldDist = 1
		}
		ratio := newDist / oldDist

		travelTime := int(float64(c.TravelTime) * ratio)
		if travelTime < 60 {
			travelTime = 60
		}
		fuelCost := int(float64(c.FuelCost) * ratio)
		if fuelCost < 1 {
			fuelCost = 1
		}
		if err := e.repo.UpdateCorridorGeometry(ctx, c.ID, travelTime, fuelCost); err != nil {
			return err
		}
	}

	if err := e.repo.UpdateLocationPosition(ctx, gate.ID, newX, newY, galaxy.GateStatusMoved); err != nil {
		return err
	}
	gate.X, gate.Y = newX, newY

	locID := gate.ID
	description := fmt.Sprintf("%s has drifted to new coordinates. Approach corridors have been re-surveyed; expect revised transit times.", gate.Name)
	if err := e.news.QueueToAll(ctx, news.TypeCorridorShift, "🛰️ Gate Relocation", description, &locID, nil); err != nil {
		e.logger.Warn("Failed to queue gate relocation news",
			"component", "corridor_engine", "gate_id", gate.ID, "error", err)
	}
	return nil
}

// abandonGate marks a gate unused and powers down its corridors.
func (e *Engine) abandonGate(ctx context.Context, gate *galaxy.Location, nowReal float64) error {
	if err := e.repo.UpdateGateStatus(ctx, gate.ID, galaxy.GateStatusUnused); err != nil {
		return err
	}

	connected, err := e.repo.ListCorridorsTouching(ctx, gate.ID, true)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(connected))
	for _, c := range connected {
		ids = append(ids, c.ID)
	}
	if len(ids) > 0 {
		if err := e.repo.SetCorridorsActive(ctx, ids, false, nowReal); err != nil {
			return err
		}
		observability.CorridorsDeactivated.Add(float64(len(ids)))
	}

	locID := gate.ID
	description := fmt.Sprintf("%s has gone dark. Traffic control reports the gate is no longer maintaining its corridor locks.", gate.Name)
	if err := e.news.QueueToAll(ctx, news.TypeCorridorShift, "🛰️ Gate Decommissioned", description, &locID, nil); err != nil {
		e.logger.Warn("Failed to queue gate abandonment news",
			"component", "corridor_engine", "gate_id", gate.ID, "error", err)
	}
	return nil
}

// replenishDormant tops up the dormant pool proportionally to shift
// intensity so future shifts keep having routes to wake.
func (e *Engine) replenishDormant(ctx context.Context, locations map[int64]*galaxy.Location, intensity int, nowReal float64) (int, error) {
	want := intensity * 2
	ids := make([]int64, 0, len(locations))
	for id := range locations {
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return 0, nil
	}

	created := 0
	for attempt := 0; attempt < want*8 && created < want; attempt++ {
		a := locations[ids[e.rng.IntN(len(ids))]]
		b := locations[ids[e.rng.IntN(len(ids))]]
		if a.ID == b.ID {
			continue
		}
		d := galaxy.Distance(a, b)
		if d > 100 {
			continue
		}
		exists, err := e.repo.CorridorExistsBetween(ctx, a.ID, b.ID)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		travelTime := max(360, int(d*12))
		fuelCost := int(0.8*d) + 5
		danger := min(5, 2+e.rng.IntN(3))
		name := fmt.Sprintf("%s - %s Dormant Corridor", a.Name, b.Name)
		for _, dir := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}} {
			corridor := &galaxy.Corridor{
				Name:        name,
				Origin:      dir[0],
				Destination: dir[1],
				TravelTime:  travelTime,
				FuelCost:    fuelCost,
				Danger:      danger,
				IsActive:    false,
				CreatedAt:   nowReal,
			}
			if err := e.repo.CreateCorridor(ctx, corridor, nil); err != nil {
				return created, err
			}
		}
		created += 2
	}
	return created, nil
}

// repairConnectivity audits the active graph after a shift and stitches
// fragments back together, preferring dormant routes over new ones.
func (e *Engine) repairConnectivity(ctx context.Context, locations map[int64]*galaxy.Location, nowReal float64) error {
	logger := e.logger.With("component", "corridor_engine", "operation", "repair_connectivity")

	for pass := 0; pass < len(locations); pass++ {
		graph, err := e.repo.LoadActiveGraph(ctx)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(locations))
		for id := range locations {
			ids = append(ids, id)
		}
		components := graph.Components(ids)
		if len(components) <= 1 {
			return nil
		}

		logger.Warn("Galaxy fragmented after shift", "components", len(components))

		// Reconnect the first fragment to the rest; the loop re-audits
		// until one component remains.
		if err := e.bridgeFragment(ctx, components[0], components[1:], locations, nowReal); err != nil {
			return err
		}
	}
	return nil
}

// bridgeFragment links one component to the nearest other component.
func (e *Engine) bridgeFragment(ctx context.Context, fragment []int64, others [][]int64, locations map[int64]*galaxy.Location, nowReal float64) error {
	bestA, bestB := int64(0), int64(0)
	bestDist := math.MaxFloat64
	for _, a := range fragment {
		la, ok := locations[a]
		if !ok {
			continue
		}
		for _, component := range others {
			for _, b := range component {
				lb, ok := locations[b]
				if !ok {
					continue
				}
				if d := galaxy.Distance(la, lb); d < bestDist {
					bestDist = d
					bestA, bestB = a, b
				}
			}
		}
	}
	if bestDist == math.MaxFloat64 {
		return fmt.Errorf("no candidate pair found to repair connectivity")
	}

	// A dormant route between the fragments is the cheap fix.
	for _, a := range fragment {
		for _, component := range others {
			for _, b := range component {
				dormant, err := e.repo.DormantCorridorBetween(ctx, a, b)
				if err != nil {
					return err
				}
				if dormant == nil {
					continue
				}
				ids := []int64{dormant.ID}
				if partner, err := e.repo.DormantCorridorBetween(ctx, b, a); err != nil {
					return err
				} else if partner != nil {
					ids = append(ids, partner.ID)
				}
				if err := e.repo.SetCorridorsActive(ctx, ids, true, nowReal); err != nil {
					return err
				}
				observability.CorridorsActivated.Add(float64(len(ids)))
				e.logger.Info("Reactivated dormant corridor to repair connectivity",
					"component", "corridor_engine", "corridor_id", dormant.ID)
				return nil
			}
		}
	}

	// No dormant route exists: cut an emergency corridor, dangerous and
	// bounded in length.
	if bestDist > 150 {
		e.logger.Error("Nearest repair pair exceeds emergency corridor range",
			"component", "corridor_engine", "distance", bestDist)
		return nil
	}

	la, lb := locations[bestA], locations[bestB]
	name := fmt.Sprintf("%s - %s Emergency Corridor", la.Name, lb.Name)
	travelTime := max(360, int(bestDist*15))
	fuelCost := int(0.8*bestDist) + 10
	for _, dir := range [][2]int64{{bestA, bestB}, {bestB, bestA}} {
		corridor := &galaxy.Corridor{
			Name:        name,
			Origin:      dir[0],
			Destination: dir[1],
			TravelTime:  travelTime,
			FuelCost:    fuelCost,
			Danger:      4,
			IsActive:    true,
			IsGenerated: true,
			CreatedAt:   nowReal,
		}
		if err := e.repo.CreateCorridor(ctx, corridor, nil); err != nil {
			return err
		}
	}
	e.logger.Info("Created emergency corridor",
		"component", "corridor_engine", "name", name, "distance", bestDist)

	locID := bestA
	description := fmt.Sprintf("Emergency services have charted the %s to reconnect isolated territory. Expect hazardous transit conditions.", name)
	if err := e.news.QueueToAll(ctx, news.TypeCorridorShift, "🚨 Emergency Corridor Opened", description, &locID, nil); err != nil {
		e.logger.Warn("Failed to queue emergency corridor news",
			"component", "corridor_engine", "error", err)
	}
	return nil
}

// ForceCollapse deactivates a corridor by name, resolving travelers
// the same way a natural collapse would. The no-isolation rule still
// applies.
func (e *Engine) ForceCollapse(ctx context.Context, nameFragment string) (*galaxy.Corridor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	target, err := e.repo.FindCorridorByName(ctx, nameFragment)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperrors.NotFoundf("no corridor matches %q", nameFragment)
	}
	if !target.IsActive {
		return nil, apperrors.Validationf("corridor %q is already inactive", target.Name)
	}

	active, err := e.repo.ListCorridors(ctx, true)
	if err != nil {
		return nil, err
	}

	nowReal := float64(time.Now().UnixNano()) / float64(time.Second)
	ok, err := e.collapseCorridor(ctx, target, active, map[int64]bool{}, nowReal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Conflictf("collapsing %q would isolate a location", target.Name)
	}
	return target, nil
}
