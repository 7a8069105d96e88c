// Package history writes the galaxy's backstory: a few events per
// location plus a spread of galaxy-wide milestones, all dated before
// the galaxy's start. Writes are chunked with lock-retry so a running
// server is never starved.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/npc"
	"corridors-server/internal/observability"
	"corridors-server/internal/shared/database"
)

const chunkSize = 15

type Generator struct {
	repo    *Repository
	locRepo *galaxy.Repository
	npcs    *npc.Repository
	logger  *slog.Logger
}

func NewGenerator(repo *Repository, locRepo *galaxy.Repository, npcs *npc.Repository, logger *slog.Logger) *Generator {
	return &Generator{repo: repo, locRepo: locRepo, npcs: npcs, logger: logger}
}

var eventTemplatesByType = map[string][]struct {
	text      string
	eventType string
}{
	"colony": {
		{"%[1]s was established when %[2]s led the first settlement convoy to its surface.", "founding"},
		{"A crop blight nearly ended %[1]s; the recovery effort was organized by %[2]s.", "crisis"},
		{"%[2]s discovered rich mineral seams beneath %[1]s, tripling its population within a decade.", "discovery"},
		{"Raiders attacked %[1]s during the lean years. The defense mounted by %[2]s is still taught locally.", "conflict"},
	},
	"space_station": {
		{"%[1]s was established as a refueling waypoint under the direction of %[2]s.", "founding"},
		{"A reactor accident aboard %[1]s forced a full evacuation; %[2]s coordinated the return.", "crisis"},
		{"The trade compact signed aboard %[1]s by %[2]s set tariff law for the whole sector.", "politics"},
		{"%[1]s survived a pirate blockade thanks to a relief convoy arranged by %[2]s.", "conflict"},
	},
	"outpost": {
		{"%[1]s was established by %[2]s as a survey camp that simply never closed.", "founding"},
		{"A long-range expedition led by %[2]s used %[1]s as its final staging point.", "exploration"},
		{"%[1]s went silent for two years; what %[2]s found on reopening it was never published.", "mystery"},
	},
	"gate": {
		{"%[1]s was established after decades of corridor surveys championed by %[2]s.", "founding"},
		{"A decontamination failure at %[1]s was contained by the crew of %[2]s.", "crisis"},
	},
}

var galacticTemplates = []struct {
	text      string
	eventType string
}{
	{"The Colonial Accord was ratified, establishing common docking law across human space.", "politics"},
	{"A corridor storm season scattered shipping lanes for months before charts stabilized.", "phenomenon"},
	{"The Great Census attempted the first full count of humanity beyond the home system.", "politics"},
	{"An automated deep-survey probe returned data that rewrote the corridor formation models.", "discovery"},
	{"A sector-wide fuel shortage pushed freight costs to record highs before new refineries opened.", "economy"},
	{"The Drifter Flotilla, a convoy of generation ships, passed through charted space and vanished rimward.", "mystery"},
	{"A virulent shipboard fever spread along the trade lanes until quarantine protocols caught up.", "crisis"},
	{"The first gate decommissioning proved corridors could outlive their infrastructure.", "phenomenon"},
}

// titleFor derives a concise headline from event keywords.
func titleFor(description string) string {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "established"):
		return "Foundation Event"
	case strings.Contains(lower, "discover") || strings.Contains(lower, "survey"):
		return "Discovery"
	case strings.Contains(lower, "raider") || strings.Contains(lower, "pirate") || strings.Contains(lower, "blockade") || strings.Contains(lower, "defense"):
		return "Conflict"
	case strings.Contains(lower, "blight") || strings.Contains(lower, "fever") || strings.Contains(lower, "accident") || strings.Contains(lower, "failure") || strings.Contains(lower, "shortage"):
		return "Crisis"
	case strings.Contains(lower, "accord") || strings.Contains(lower, "compact") || strings.Contains(lower, "census"):
		return "Political Milestone"
	case strings.Contains(lower, "silent") || strings.Contains(lower, "vanish"):
		return "Unexplained Event"
	default:
		return "Historical Event"
	}
}

// Generate rebuilds the historical record from scratch. Returns the
// number of events written.
func (g *Generator) Generate(ctx context.Context, startDate time.Time) (int, error) {
	logger := g.logger.With("component", "history_generator", "operation", "generate")
	started := time.Now()

	if err := g.repo.Clear(ctx); err != nil {
		return 0, err
	}

	locations, err := g.locRepo.ListLocations(ctx)
	if err != nil {
		return 0, err
	}

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(len(locations))))
	total := 0

	for start := 0; start < len(locations); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := min(start+chunkSize, len(locations))
		chunk := locations[start:end]

		ids := make([]int64, len(chunk))
		for i, loc := range chunk {
			ids[i] = loc.ID
		}
		residents, err := g.npcs.StaticNPCsForLocations(ctx, ids)
		if err != nil {
			return total, err
		}

		var events []*Event
		for _, loc := range chunk {
			events = append(events, g.eventsForLocation(rng, loc, residents[loc.ID], startDate)...)
		}

		err = database.RunLocked(ctx, g.logger, func() error {
			tx, err := g.locRepo.DB().BeginTxContext(ctx)
			if err != nil {
				return err
			}
			defer tx.Rollback()
			if err := g.repo.InsertBatch(ctx, events, tx); err != nil {
				return err
			}
			return tx.Commit()
		})
		if err != nil {
			return total, err
		}
		total += len(events)
	}

	galactic := g.galacticEvents(rng, startDate)
	err = database.RunLocked(ctx, g.logger, func() error {
		return g.repo.InsertBatch(ctx, galactic, nil)
	})
	if err != nil {
		return total, err
	}
	total += len(galactic)

	observability.HistoryEvents.Add(float64(total))
	logger.Info("History generated",
		"events", total, "locations", len(locations), "elapsed", time.Since(started).String())
	return total, nil
}

// eventsForLocation writes 2-3 entries for one location, naming local
// figures where residents exist.
func (g *Generator) eventsForLocation(rng *rand.Rand, loc *galaxy.Location, residents []*npc.StaticNPC, startDate time.Time) []*Event {
	templates, ok := eventTemplatesByType[string(loc.Type)]
	if !ok {
		templates = eventTemplatesByType["outpost"]
	}

	figure := func() string {
		if len(residents) > 0 && rng.Float64() < 0.6 {
			return residents[rng.IntN(len(residents))].Name
		}
		return npc.RandomName(rng)
	}

	established := startDate.AddDate(-100, 0, 0)
	if loc.EstablishedDate != nil {
		established = time.Unix(*loc.EstablishedDate, 0).UTC()
	}
	window := startDate.Unix() - established.Unix()
	if window < 86400 {
		window = 86400
	}

	count := 2 + rng.IntN(2)
	used := map[int]bool{}
	locID := loc.ID
	var events []*Event
	for i := 0; i < count && len(used) < len(templates); i++ {
		idx := rng.IntN(len(templates))
		if used[idx] {
			i--
			continue
		}
		used[idx] = true
		t := templates[idx]

		name := figure()
		description := fmt.Sprintf(t.text, loc.Name, name)
		date := established.Unix() + rng.Int64N(window)
		// Founding stories belong at the founding.
		if t.eventType == "founding" {
			date = established.Unix()
		}
		events = append(events, &Event{
			LocationID:  &locID,
			Title:       titleFor(description),
			Description: description,
			Figure:      &name,
			EventDate:   date,
			EventType:   t.eventType,
		})
	}
	return events
}

// galacticEvents spreads 10-25 galaxy-wide milestones across the two
// centuries before the start date.
func (g *Generator) galacticEvents(rng *rand.Rand, startDate time.Time) []*Event {
	count := 10 + rng.IntN(16)
	windowStart := startDate.AddDate(-200, 0, 0).Unix()
	window := startDate.Unix() - windowStart

	var events []*Event
	for i := 0; i < count; i++ {
		t := galacticTemplates[rng.IntN(len(galacticTemplates))]
		events = append(events, &Event{
			Title:       titleFor(t.text),
			Description: t.text,
			EventDate:   windowStart + rng.Int64N(window),
			EventType:   t.eventType,
		})
	}
	return events
}
