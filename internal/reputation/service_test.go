package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/shared/database"
)

func newTestService(t *testing.T) (*Service, *galaxy.Repository) {
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
	repo := NewRepository(db, slog.Default())
	return NewService(repo, galaxyRepo, slog.Default()), galaxyRepo
}

// chain builds locations connected in a line and returns them in order.
func chain(t *testing.T, repo *galaxy.Repository, names ...string) []*galaxy.Location {
	t.Helper()
	ctx := context.Background()

	locations := make([]*galaxy.Location, len(names))
	for i, name := range names {
		loc, err := repo.CreateLocation(ctx, &galaxy.Location{
			Name:       name,
			Type:       galaxy.LocationTypeColony,
			Faction:    galaxy.FactionNeutral,
			Wealth:     5,
			X:          float64(i * 10),
			SystemName: name + " System",
		}, nil)
		if err != nil {
			t.Fatalf("create location: %v", err)
		}
		locations[i] = loc
	}

	for i := 0; i+1 < len(locations); i++ {
		name := fmt.Sprintf("%s - %s Corridor", names[i], names[i+1])
		for _, pair := range [][2]*galaxy.Location{
			{locations[i], locations[i+1]},
			{locations[i+1], locations[i]},
		} {
			err := repo.CreateCorridor(ctx, &galaxy.Corridor{
				Name:        name,
				Origin:      pair[0].ID,
				Destination: pair[1].ID,
				TravelTime:  600,
				FuelCost:    20,
				Danger:      2,
				IsActive:    true,
			}, nil)
			if err != nil {
				t.Fatalf("create corridor: %v", err)
			}
		}
	}
	return locations
}

func TestApplyKarmaDecaysAlongChain(t *testing.T) {
	svc, galaxyRepo := newTestService(t)
	ctx := context.Background()

	locs := chain(t, galaxyRepo, "Hub", "Near", "Far", "Edge", "Beyond")
	const userID = 42

	if err := svc.ApplyKarma(ctx, userID, locs[0].ID, 10); err != nil {
		t.Fatalf("apply karma: %v", err)
	}

	// Delta decays by 2 per hop: 10, 8, 6, 4, 2.
	want := []int{10, 8, 6, 4, 2}
	for i, loc := range locs {
		score, _, err := svc.Standing(ctx, userID, loc.ID)
		if err != nil {
			t.Fatalf("standing at %s: %v", loc.Name, err)
		}
		if score != want[i] {
			t.Errorf("score at hop %d = %d, want %d", i, score, want[i])
		}
	}
}

func TestApplyKarmaStopsAtTheFloor(t *testing.T) {
	svc, galaxyRepo := newTestService(t)
	ctx := context.Background()

	locs := chain(t, galaxyRepo, "Hub", "Near", "Far", "Edge")
	const userID = 7

	// Magnitude 4 reaches one hop (delta 2), then stops.
	if err := svc.ApplyKarma(ctx, userID, locs[0].ID, -4); err != nil {
		t.Fatalf("apply karma: %v", err)
	}

	scores := make([]int, len(locs))
	for i, loc := range locs {
		scores[i], _, _ = svc.Standing(ctx, userID, loc.ID)
	}
	if scores[0] != -4 || scores[1] != -2 {
		t.Fatalf("near scores = %v, want -4, -2 prefix", scores)
	}
	if scores[2] != 0 || scores[3] != 0 {
		t.Fatalf("echo crossed the floor: %v", scores)
	}
}

func TestApplyKarmaZeroIsNoop(t *testing.T) {
	svc, galaxyRepo := newTestService(t)
	ctx := context.Background()

	locs := chain(t, galaxyRepo, "Hub", "Near")
	if err := svc.ApplyKarma(ctx, 1, locs[0].ID, 0); err != nil {
		t.Fatalf("apply karma: %v", err)
	}
	score, _, _ := svc.Standing(ctx, 1, locs[0].ID)
	if score != 0 {
		t.Fatalf("zero karma wrote a score of %d", score)
	}
}

func TestSetReputationPropagatesTheDifference(t *testing.T) {
	svc, galaxyRepo := newTestService(t)
	ctx := context.Background()

	locs := chain(t, galaxyRepo, "Meridian Hub", "Kepler Rest")
	const userID = 9

	location, delta, err := svc.SetReputation(ctx, userID, "Meridian", 50)
	if err != nil {
		t.Fatalf("set reputation: %v", err)
	}
	if location.ID != locs[0].ID || delta != 50 {
		t.Fatalf("set reputation hit %d with delta %d", location.ID, delta)
	}

	score, tier, _ := svc.Standing(ctx, userID, locs[0].ID)
	if score != 50 || tier != TierGood {
		t.Fatalf("standing = %d %s, want 50 Good", score, tier)
	}
	neighbor, _, _ := svc.Standing(ctx, userID, locs[1].ID)
	if neighbor != 48 {
		t.Fatalf("neighbor echo = %d, want 48", neighbor)
	}

	// Setting to the current value is a no-op.
	if _, delta, err := svc.SetReputation(ctx, userID, "Meridian", 50); err != nil || delta != 0 {
		t.Fatalf("idempotent set returned delta %d, err %v", delta, err)
	}
}

func TestSetReputationUnknownLocation(t *testing.T) {
	svc, galaxyRepo := newTestService(t)
	chain(t, galaxyRepo, "Meridian Hub")

	if _, _, err := svc.SetReputation(context.Background(), 1, "Atlantis", 10); err == nil {
		t.Fatal("unknown location accepted")
	}
}

func TestTierOf(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, TierHeroic},
		{70, TierHeroic},
		{69, TierGood},
		{35, TierGood},
		{34, TierNeutral},
		{0, TierNeutral},
		{-34, TierNeutral},
		{-35, TierBad},
		{-69, TierBad},
		{-70, TierEvil},
		{-100, TierEvil},
	}
	for _, tc := range cases {
		if got := TierOf(tc.score); got != tc.want {
			t.Errorf("TierOf(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestDecayTowardZero(t *testing.T) {
	cases := []struct{ in, want int }{
		{10, 8},
		{2, 0},
		{1, 0},
		{0, 0},
		{-1, 0},
		{-2, 0},
		{-10, -8},
	}
	for _, tc := range cases {
		if got := decayTowardZero(tc.in); got != tc.want {
			t.Errorf("decayTowardZero(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
