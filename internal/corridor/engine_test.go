package corridor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/news"
	"corridors-server/internal/npc"
	"corridors-server/internal/platform"
	"corridors-server/internal/player"
	"corridors-server/internal/shared/database"
)

func newTestEngine(t *testing.T) (*Engine, *galaxy.Repository) {
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
	playerRepo := player.NewRepository(db, slog.Default())
	npcRepo := npc.NewRepository(db, slog.Default())
	guildRepo := platform.NewGuildRepository(db, slog.Default())
	newsSvc := news.NewService(news.NewRepository(db, slog.Default()), galaxyRepo, guildRepo, platform.NopSink{}, slog.Default())

	return NewEngine(galaxyRepo, playerRepo, npcRepo, newsSvc, slog.Default()), galaxyRepo
}

func addLocation(t *testing.T, repo *galaxy.Repository, name string, x, y float64) *galaxy.Location {
	t.Helper()
	loc, err := repo.CreateLocation(context.Background(), &galaxy.Location{
		Name:       name,
		Type:       galaxy.LocationTypeColony,
		Faction:    galaxy.FactionNeutral,
		Wealth:     5,
		Population: 500,
		X:          x,
		Y:          y,
		SystemName: name + " System",
	}, nil)
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	return loc
}

func addRoute(t *testing.T, repo *galaxy.Repository, a, b *galaxy.Location, active bool) {
	t.Helper()
	name := fmt.Sprintf("%s - %s Corridor", a.Name, b.Name)
	for _, pair := range [][2]*galaxy.Location{{a, b}, {b, a}} {
		err := repo.CreateCorridor(context.Background(), &galaxy.Corridor{
			Name:        name,
			Origin:      pair[0].ID,
			Destination: pair[1].ID,
			TravelTime:  600,
			FuelCost:    20,
			Danger:      2,
			IsActive:    active,
		}, nil)
		if err != nil {
			t.Fatalf("create corridor: %v", err)
		}
	}
}

func TestExecuteShiftRejectsBadIntensity(t *testing.T) {
	engine, _ := newTestEngine(t)
	for _, intensity := range []int{-1, 0, 6} {
		if _, err := engine.ExecuteShift(context.Background(), intensity); err == nil {
			t.Errorf("intensity %d accepted", intensity)
		}
	}
}

func TestForceCollapseHonorsIsolationRule(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	a := addLocation(t, repo, "Meridian", 0, 0)
	b := addLocation(t, repo, "Kepler Rest", 10, 0)
	addRoute(t, repo, a, b, true)

	// The only route between two locations cannot be collapsed.
	if _, err := engine.ForceCollapse(ctx, "Meridian - Kepler"); err == nil {
		t.Fatal("collapse that isolates an endpoint succeeded")
	}

	active, err := repo.ListCorridors(ctx, true)
	if err != nil {
		t.Fatalf("list corridors: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("corridor rows changed by refused collapse: %d active", len(active))
	}
}

func TestForceCollapseDeactivatesBothDirections(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	a := addLocation(t, repo, "Meridian", 0, 0)
	b := addLocation(t, repo, "Kepler Rest", 10, 0)
	c := addLocation(t, repo, "Forge Station", 5, 10)
	addRoute(t, repo, a, b, true)
	addRoute(t, repo, b, c, true)
	addRoute(t, repo, a, c, true)

	collapsed, err := engine.ForceCollapse(ctx, "Meridian - Kepler")
	if err != nil {
		t.Fatalf("force collapse: %v", err)
	}
	if collapsed.Name != "Meridian - Kepler Rest Corridor" {
		t.Fatalf("collapsed %q", collapsed.Name)
	}

	active, err := repo.ListCorridors(ctx, true)
	if err != nil {
		t.Fatalf("list corridors: %v", err)
	}
	if len(active) != 4 {
		t.Fatalf("active rows = %d, want 4 after one pair collapsed", len(active))
	}
	for _, corridor := range active {
		if corridor.Name == collapsed.Name {
			t.Fatalf("direction row of %q still active", collapsed.Name)
		}
	}

	if _, err := engine.ForceCollapse(ctx, "Meridian - Kepler"); err == nil {
		t.Fatal("collapsing an inactive corridor succeeded")
	}
}

func TestExecuteShiftCountsRoutePairsOnce(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	a := addLocation(t, repo, "Meridian", 0, 0)
	b := addLocation(t, repo, "Kepler Rest", 10, 0)
	c := addLocation(t, repo, "Forge Station", 50, 50)
	d := addLocation(t, repo, "Relay Alpha", 60, 50)
	addRoute(t, repo, a, b, true)
	addRoute(t, repo, c, d, false)

	result, err := engine.ExecuteShift(ctx, 5)
	if err != nil {
		t.Fatalf("execute shift: %v", err)
	}

	// The dormant pair wakes as one logical route, and the only active
	// route cannot collapse without stranding its endpoints.
	if result.Activated != 1 {
		t.Fatalf("activated = %d routes, want 1 for one awakened pair", result.Activated)
	}
	if result.Deactivated != 0 {
		t.Fatalf("deactivated = %d, isolation rule should refuse every collapse", result.Deactivated)
	}

	active, err := repo.ListCorridors(ctx, true)
	if err != nil {
		t.Fatalf("list corridors: %v", err)
	}
	awakened := 0
	for _, corridor := range active {
		if corridor.Name == "Forge Station - Relay Alpha Corridor" {
			awakened++
		}
	}
	if awakened != 2 {
		t.Fatalf("awakened direction rows = %d, want 2", awakened)
	}
}

func TestFindPartnerMatchesReverseDirectionOnly(t *testing.T) {
	engine := &Engine{rng: rand.New(rand.NewPCG(1, 2))}

	forward := &galaxy.Corridor{ID: 1, Name: "A - B Corridor", Origin: 10, Destination: 20}
	reverse := &galaxy.Corridor{ID: 2, Name: "A - B Corridor", Origin: 20, Destination: 10}
	unrelated := &galaxy.Corridor{ID: 3, Name: "A - C Corridor", Origin: 10, Destination: 30}
	sameEndsOtherName := &galaxy.Corridor{ID: 4, Name: "A - B Express", Origin: 20, Destination: 10}

	pool := []*galaxy.Corridor{forward, unrelated, sameEndsOtherName, reverse}
	if got := engine.findPartner(pool, forward); got != reverse {
		t.Fatalf("findPartner = %+v, want the reverse row", got)
	}
	if got := engine.findPartner([]*galaxy.Corridor{forward, unrelated}, forward); got != nil {
		t.Fatalf("findPartner invented a partner: %+v", got)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]int64{5, 3, 5, 1, 3, 5})
	want := []int64{5, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupe = %v, want %v", got, want)
		}
	}
}

func TestClassifyOverdueCorridorsShiftMoreOften(t *testing.T) {
	engine := &Engine{rng: rand.New(rand.NewPCG(7, 7))}
	now := float64(time.Now().UnixNano()) / float64(time.Second)

	fresh := make([]*galaxy.Corridor, 200)
	stale := make([]*galaxy.Corridor, 200)
	recent := now - 3600
	ancient := now - 14*24*3600
	for i := range fresh {
		fresh[i] = &galaxy.Corridor{ID: int64(i), HasGate: true, CreatedAt: recent, LastShift: &recent}
		stale[i] = &galaxy.Corridor{ID: int64(i + 1000), HasGate: true, CreatedAt: ancient, LastShift: &ancient}
	}

	_, freshShift := engine.classify(fresh, now)
	_, staleShift := engine.classify(stale, now)

	if len(staleShift) <= len(freshShift) {
		t.Fatalf("stale corridors shifted %d times, fresh %d; overdue multiplier missing",
			len(staleShift), len(freshShift))
	}
}

func TestRollIntensityStaysInRange(t *testing.T) {
	engine := &Engine{rng: rand.New(rand.NewPCG(3, 9))}
	counts := map[int]int{}
	for i := 0; i < 10000; i++ {
		intensity := engine.rollIntensity()
		if intensity < 1 || intensity > 5 {
			t.Fatalf("intensity %d out of range", intensity)
		}
		counts[intensity]++
	}
	// Mild shifts dominate by construction.
	if counts[1] < counts[5] {
		t.Fatalf("intensity distribution inverted: %v", counts)
	}
}
