package gen

import (
	"math/rand/v2"
	"testing"

	"corridors-server/internal/galaxy"
)

func testMajors(n int) []*galaxy.Location {
	rng := rand.New(rand.NewPCG(42, 7))
	majors := make([]*galaxy.Location, n)
	for i := range majors {
		locType := galaxy.LocationTypeColony
		switch {
		case i%3 == 1:
			locType = galaxy.LocationTypeStation
		case i%7 == 6:
			locType = galaxy.LocationTypeOutpost
		}
		majors[i] = &galaxy.Location{
			ID:     int64(i + 1),
			Type:   locType,
			Wealth: 1 + rng.IntN(10),
			X:      rng.Float64()*180 - 90,
			Y:      rng.Float64()*180 - 90,
		}
	}
	return majors
}

func TestSpanningTreeConnectsEveryMajor(t *testing.T) {
	plan := newRoutePlan(testMajors(40))
	plan.buildSpanningTree()

	if got := len(plan.routes); got != 39 {
		t.Fatalf("spanning tree has %d routes, want n-1 = 39", got)
	}
	if comps := plan.components(); len(comps) != 1 {
		t.Fatalf("spanning tree left %d components", len(comps))
	}
}

func TestFullPlanStaysConnected(t *testing.T) {
	rng := rand.New(rand.NewPCG(99, 1))
	tuning := DefaultTuning()

	plan := newRoutePlan(testMajors(60))
	plan.buildSpanningTree()
	plan.addHubConnections(rng, tuning)
	plan.addRegionalBridges(rng, tuning)
	plan.addRedundancy(tuning)
	plan.bridgeComponents()

	if comps := plan.components(); len(comps) != 1 {
		t.Fatalf("plan fragmented into %d components", len(comps))
	}

	// Redundancy pass guarantees nobody is left with a single link.
	for i, degree := range plan.degree {
		if degree < 2 {
			t.Fatalf("major %d has degree %d after redundancy pass", i, degree)
		}
	}
}

func TestAddRouteRejectsDuplicatesAndSelfLoops(t *testing.T) {
	plan := newRoutePlan(testMajors(5))

	if !plan.addRoute(0, 1, importanceTrunk) {
		t.Fatal("first route rejected")
	}
	if plan.addRoute(1, 0, importanceHub) {
		t.Fatal("reverse duplicate accepted")
	}
	if plan.addRoute(2, 2, importanceTrunk) {
		t.Fatal("self loop accepted")
	}
	if len(plan.routes) != 1 {
		t.Fatalf("routes = %d, want 1", len(plan.routes))
	}
}

func TestGateChanceCapped(t *testing.T) {
	tuning := DefaultTuning()
	majors := []*galaxy.Location{
		{ID: 1, Type: galaxy.LocationTypeColony, Wealth: 10, X: 0, Y: 0},
		{ID: 2, Type: galaxy.LocationTypeColony, Wealth: 10, X: 100, Y: 0},
	}
	plan := newRoutePlan(majors)
	plan.addRoute(0, 1, importanceTrunk)

	chance := plan.gateChance(plan.routes[0], tuning)
	if chance > tuning.GateMaxChance {
		t.Fatalf("gate chance %v exceeds cap %v", chance, tuning.GateMaxChance)
	}
	// Rich endpoints on a long haul should sit at the cap.
	if chance < tuning.GateMaxChance-1e-9 {
		t.Fatalf("gate chance = %v, want capped at %v", chance, tuning.GateMaxChance)
	}
}

func TestGateChanceScalesWithDistance(t *testing.T) {
	tuning := DefaultTuning()
	majors := []*galaxy.Location{
		{ID: 1, Type: galaxy.LocationTypeColony, Wealth: 1, X: 0, Y: 0},
		{ID: 2, Type: galaxy.LocationTypeColony, Wealth: 1, X: 10, Y: 0},
		{ID: 3, Type: galaxy.LocationTypeColony, Wealth: 1, X: 80, Y: 0},
	}
	plan := newRoutePlan(majors)
	plan.addRoute(0, 1, importanceRedundant)
	plan.addRoute(0, 2, importanceRedundant)

	short := plan.gateChance(plan.routes[0], tuning)
	long := plan.gateChance(plan.routes[1], tuning)
	if long <= short {
		t.Fatalf("long haul chance %v not above short haul %v", long, short)
	}
}
