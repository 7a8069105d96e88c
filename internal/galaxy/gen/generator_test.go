package gen

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/gametime"
	"corridors-server/internal/npc"
	"corridors-server/internal/shared/database"
)

func newTestGenerator(t *testing.T) (*Generator, *galaxy.Repository, *gametime.Service) {
	t.Helper()

	db, err := database.OpenSQLitePath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "..", "migrations")); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	galaxyRepo := galaxy.NewRepository(db, slog.Default())
	npcRepo := npc.NewRepository(db, slog.Default())
	timeRepo := gametime.NewRepository(db, slog.Default())
	clock := gametime.NewService(timeRepo, nil, slog.Default())

	return NewGenerator(galaxyRepo, npcRepo, timeRepo, clock, DefaultTuning(), slog.Default()), galaxyRepo, clock
}

func TestGenerateBuildsTraversableGalaxy(t *testing.T) {
	gen, repo, clock := newTestGenerator(t)
	ctx := context.Background()

	result, err := gen.Generate(ctx, Params{
		NumLocations: 15,
		Name:         "Test Space",
		StartDate:    "01-01-2751",
		TimeScale:    4.0,
		Seed:         12345,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if result.MajorLocations != 15 {
		t.Fatalf("major locations = %d, want 15", result.MajorLocations)
	}
	if result.Corridors == 0 {
		t.Fatal("no corridors materialized")
	}
	if result.StaticNPCs == 0 || result.DynamicNPCs == 0 {
		t.Fatalf("population missing: static=%d dynamic=%d", result.StaticNPCs, result.DynamicNPCs)
	}
	if !clock.HasGalaxy() {
		t.Fatal("clock not loaded after generation")
	}

	// Every active corridor must have its reverse-direction twin.
	active, err := repo.ListCorridors(ctx, true)
	if err != nil {
		t.Fatalf("list corridors: %v", err)
	}
	type link struct{ origin, destination int64 }
	index := make(map[link]bool, len(active))
	for _, c := range active {
		index[link{c.Origin, c.Destination}] = true
	}
	for _, c := range active {
		if !index[link{c.Destination, c.Origin}] {
			t.Fatalf("corridor %q %d->%d has no reverse row", c.Name, c.Origin, c.Destination)
		}
	}

	// The whole network starts out as one component.
	locations, err := repo.ListLocations(ctx)
	if err != nil {
		t.Fatalf("list locations: %v", err)
	}
	graph, err := repo.LoadActiveGraph(ctx)
	if err != nil {
		t.Fatalf("load graph: %v", err)
	}
	ids := make([]int64, 0, len(locations))
	for _, loc := range locations {
		ids = append(ids, loc.ID)
	}
	if comps := graph.Components(ids); len(comps) != 1 {
		t.Fatalf("fresh galaxy has %d components", len(comps))
	}
}

func TestGenerateRefusesOverwriteWithoutClear(t *testing.T) {
	gen, _, _ := newTestGenerator(t)
	ctx := context.Background()

	params := Params{
		NumLocations: 12,
		Name:         "Test Space",
		StartDate:    "01-01-2751",
		TimeScale:    4.0,
		Seed:         7,
	}
	if _, err := gen.Generate(ctx, params); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if _, err := gen.Generate(ctx, params); err == nil {
		t.Fatal("second generate without clear succeeded")
	}

	params.Clear = true
	if _, err := gen.Generate(ctx, params); err != nil {
		t.Fatalf("regenerate with clear: %v", err)
	}
}

func TestGenerateValidatesParams(t *testing.T) {
	gen, _, _ := newTestGenerator(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		params Params
	}{
		{"too few locations", Params{NumLocations: 5, Name: "X", StartDate: "01-01-2751", TimeScale: 4}},
		{"too many locations", Params{NumLocations: 600, Name: "X", StartDate: "01-01-2751", TimeScale: 4}},
		{"start date out of era", Params{NumLocations: 20, Name: "X", StartDate: "01-01-2024", TimeScale: 4}},
		{"zero time scale", Params{NumLocations: 20, Name: "X", StartDate: "01-01-2751", TimeScale: 0}},
	}
	for _, tc := range cases {
		if _, err := gen.Generate(ctx, tc.params); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}
