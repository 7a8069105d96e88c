package history

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/npc"
	"corridors-server/internal/shared/database"
)

func newTestGenerator(t *testing.T) (*Generator, *Repository, *galaxy.Repository) {
	t.Helper()

	db, err := database.OpenSQLitePath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	repo := NewRepository(db, slog.Default())
	galaxyRepo := galaxy.NewRepository(db, slog.Default())
	npcRepo := npc.NewRepository(db, slog.Default())
	return NewGenerator(repo, galaxyRepo, npcRepo, slog.Default()), repo, galaxyRepo
}

func seedLocations(t *testing.T, repo *galaxy.Repository, names ...string) []*galaxy.Location {
	t.Helper()
	locations := make([]*galaxy.Location, len(names))
	for i, name := range names {
		loc, err := repo.CreateLocation(context.Background(), &galaxy.Location{
			Name:       name,
			Type:       galaxy.LocationTypeColony,
			Faction:    galaxy.FactionNeutral,
			Wealth:     5,
			Population: 800,
			SystemName: name + " System",
		}, nil)
		if err != nil {
			t.Fatalf("create location: %v", err)
		}
		locations[i] = loc
	}
	return locations
}

func TestGenerateWritesBackstoryForEveryLocation(t *testing.T) {
	gen, repo, galaxyRepo := newTestGenerator(t)
	ctx := context.Background()

	locs := seedLocations(t, galaxyRepo, "Meridian", "Kepler Rest", "Forge Station")
	startDate := time.Date(2751, 1, 1, 0, 0, 0, 0, time.UTC)

	total, err := gen.Generate(ctx, startDate)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// 2-3 events per location plus 10-25 galactic milestones.
	if total < 2*len(locs)+10 || total > 3*len(locs)+25 {
		t.Fatalf("event count %d outside expected range", total)
	}
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != total {
		t.Fatalf("stored %d events, Generate reported %d", count, total)
	}

	for _, loc := range locs {
		events, err := repo.ListForLocation(ctx, loc.ID)
		if err != nil {
			t.Fatalf("list for %s: %v", loc.Name, err)
		}
		if len(events) < 2 || len(events) > 3 {
			t.Fatalf("%s has %d events, want 2-3", loc.Name, len(events))
		}
		for _, event := range events {
			if event.EventDate > startDate.Unix() {
				t.Fatalf("event %q dated after the start date", event.Title)
			}
			if event.Figure == nil || *event.Figure == "" {
				t.Fatalf("event %q has no historical figure", event.Title)
			}
		}
	}
}

func TestGenerateReplacesPriorRecord(t *testing.T) {
	gen, repo, galaxyRepo := newTestGenerator(t)
	ctx := context.Background()

	seedLocations(t, galaxyRepo, "Meridian")
	startDate := time.Date(2751, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := gen.Generate(ctx, startDate); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := gen.Generate(ctx, startDate)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}

	count, _ := repo.Count(ctx)
	if count != second {
		t.Fatalf("record accumulated across runs: stored %d, last run wrote %d", count, second)
	}
}

func TestTitleFor(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"Meridian was established when settlers arrived.", "Foundation Event"},
		{"A probe returned survey data.", "Discovery"},
		{"Raiders attacked the colony.", "Conflict"},
		{"A crop blight nearly ended the settlement.", "Crisis"},
		{"The trade compact set tariff law.", "Political Milestone"},
		{"The outpost went silent for two years.", "Unexplained Event"},
		{"Something else entirely happened.", "Historical Event"},
	}
	for _, tc := range cases {
		if got := titleFor(tc.description); got != tc.want {
			t.Errorf("titleFor(%q) = %q, want %q", tc.description, got, tc.want)
		}
	}
}
