package galaxy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"corridors-server/internal/shared/database"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.OpenSQLitePath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	return NewRepository(db, slog.Default())
}

func mustCreateLocation(t *testing.T, repo *Repository, name string, x, y float64) *Location {
	t.Helper()
	loc, err := repo.CreateLocation(context.Background(), &Location{
		Name:       name,
		Type:       LocationTypeColony,
		Faction:    FactionNeutral,
		Wealth:     5,
		Population: 1000,
		X:          x,
		Y:          y,
		SystemName: name + " System",
	}, nil)
	if err != nil {
		t.Fatalf("create location %s: %v", name, err)
	}
	return loc
}

// link creates both directional rows of one logical route.
func link(t *testing.T, repo *Repository, a, b *Location, active bool) {
	t.Helper()
	name := fmt.Sprintf("%s - %s Corridor", a.Name, b.Name)
	for _, pair := range [][2]*Location{{a, b}, {b, a}} {
		err := repo.CreateCorridor(context.Background(), &Corridor{
			Name:        name,
			Origin:      pair[0].ID,
			Destination: pair[1].ID,
			TravelTime:  600,
			FuelCost:    20,
			Danger:      2,
			IsActive:    active,
		}, nil)
		if err != nil {
			t.Fatalf("create corridor %s: %v", name, err)
		}
	}
}

func TestHasRouteWithinJumpLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := mustCreateLocation(t, repo, "Alpha", 0, 0)
	b := mustCreateLocation(t, repo, "Beta", 10, 0)
	c := mustCreateLocation(t, repo, "Gamma", 20, 0)
	d := mustCreateLocation(t, repo, "Delta", 30, 0)

	link(t, repo, a, b, true)
	link(t, repo, b, c, true)
	link(t, repo, c, d, true)

	graph, err := repo.LoadActiveGraph(ctx)
	if err != nil {
		t.Fatalf("load graph: %v", err)
	}

	ok, err := graph.HasRoute(ctx, a.ID, d.ID, 3)
	if err != nil || !ok {
		t.Fatalf("expected route within 3 jumps, got %v, %v", ok, err)
	}
	ok, err = graph.HasRoute(ctx, a.ID, d.ID, 2)
	if err != nil || ok {
		t.Fatalf("route beyond the jump limit reported reachable")
	}
}

func TestInactiveCorridorsDoNotCarryRoutes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := mustCreateLocation(t, repo, "Alpha", 0, 0)
	b := mustCreateLocation(t, repo, "Beta", 10, 0)
	link(t, repo, a, b, false)

	graph, err := repo.LoadActiveGraph(ctx)
	if err != nil {
		t.Fatalf("load graph: %v", err)
	}
	if ok, _ := graph.HasRoute(ctx, a.ID, b.ID, 5); ok {
		t.Fatal("dormant corridor produced an active route")
	}
}

func TestComponentsSplitsDisconnectedGraphs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := mustCreateLocation(t, repo, "Alpha", 0, 0)
	b := mustCreateLocation(t, repo, "Beta", 10, 0)
	c := mustCreateLocation(t, repo, "Gamma", 50, 50)
	d := mustCreateLocation(t, repo, "Delta", 60, 50)
	isolated := mustCreateLocation(t, repo, "Epsilon", -80, -80)

	link(t, repo, a, b, true)
	link(t, repo, c, d, true)

	graph, err := repo.LoadActiveGraph(ctx)
	if err != nil {
		t.Fatalf("load graph: %v", err)
	}

	components := graph.Components([]int64{a.ID, b.ID, c.ID, d.ID, isolated.ID})
	if len(components) != 3 {
		t.Fatalf("components = %d, want 3", len(components))
	}

	sizes := map[int]int{}
	for _, comp := range components {
		sizes[len(comp)]++
	}
	if sizes[2] != 2 || sizes[1] != 1 {
		t.Fatalf("unexpected component sizes: %v", sizes)
	}
}

func TestHopDistances(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := mustCreateLocation(t, repo, "Alpha", 0, 0)
	b := mustCreateLocation(t, repo, "Beta", 10, 0)
	c := mustCreateLocation(t, repo, "Gamma", 20, 0)

	link(t, repo, a, b, true)
	link(t, repo, b, c, true)

	graph, err := repo.LoadActiveGraph(ctx)
	if err != nil {
		t.Fatalf("load graph: %v", err)
	}

	hops := graph.HopDistances(a.ID)
	if hops[a.ID] != 0 || hops[b.ID] != 1 || hops[c.ID] != 2 {
		t.Fatalf("hop distances wrong: %v", hops)
	}
}

func TestAnalyzeConnectivityFlagsIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := mustCreateLocation(t, repo, "Alpha", 0, 0)
	b := mustCreateLocation(t, repo, "Beta", 10, 0)
	lone := mustCreateLocation(t, repo, "Gamma", 50, 50)
	link(t, repo, a, b, true)

	svc := NewService(repo, 3, slog.Default())
	report, err := svc.AnalyzeConnectivity(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if report.TotalLocations != 3 {
		t.Fatalf("total locations = %d, want 3", report.TotalLocations)
	}
	if report.ActiveCorridors != 2 {
		t.Fatalf("active corridors = %d, want 2 directional rows", report.ActiveCorridors)
	}
	found := false
	for _, id := range report.IsolatedLocations {
		if id == lone.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("isolated location %d not reported: %v", lone.ID, report.IsolatedLocations)
	}
}

func TestDistance(t *testing.T) {
	a := &Location{X: 0, Y: 0}
	b := &Location{X: 3, Y: 4}
	if d := Distance(a, b); d != 5 {
		t.Fatalf("Distance = %v, want 5", d)
	}
}
