package gen

import (
	"context"
	"fmt"
	"math/rand/v2"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/npc"
	"corridors-server/internal/shared/database"
)

func rollServices(rng *rand.Rand, locType galaxy.LocationType, wealth int) galaxy.ServiceFlags {
	switch locType {
	case galaxy.LocationTypeColony:
		return galaxy.ServiceFlags{
			Jobs:    true,
			Shops:   wealth >= 3,
			Medical: wealth >= 4,
			Repairs: wealth >= 3,
			Fuel:    true,
		}
	case galaxy.LocationTypeStation:
		return galaxy.ServiceFlags{
			Jobs:     true,
			Shops:    true,
			Medical:  wealth >= 3,
			Repairs:  true,
			Fuel:     true,
			Upgrades: wealth >= 6,
			Shipyard: wealth >= 7,
		}
	default:
		return galaxy.ServiceFlags{
			Jobs:    wealth >= 2,
			Fuel:    true,
			Repairs: wealth >= 4 && rng.Float64() < 0.5,
		}
	}
}

func rollFaction(rng *rand.Rand, wealth int) galaxy.Faction {
	switch roll := rng.Float64(); {
	case wealth >= 8 && roll < 0.6:
		return galaxy.FactionLoyalist
	case wealth <= 2 && roll < 0.3:
		return galaxy.FactionOutlaw
	case roll < 0.15:
		return galaxy.FactionIndependent
	default:
		return galaxy.FactionNeutral
	}
}

var colonyDescriptions = []string{
	"Prefab domes cluster around a landing field scarred by decades of traffic.",
	"Terraced farms climb the crater walls above the original landing site.",
	"A company town that outlived its company and kept going anyway.",
}

var stationDescriptions = []string{
	"Rings of habitation turn slowly around a docking spine crowded with lights.",
	"A trade platform welded together from three generations of hull plating.",
	"Gantries and cargo arms sketch a silhouette visible from half the system.",
}

var outpostDescriptions = []string{
	"A handful of pressurized modules and one stubborn radio mast.",
	"The kind of place people end up, not the kind they aim for.",
	"Little more than a fuel dump with a mess hall bolted on.",
}

func describeLocation(rng *rand.Rand, locType galaxy.LocationType, wealth int, derelict bool) string {
	if derelict {
		return "Dark windows and cold airlocks. Whatever happened here is over."
	}
	var pool []string
	switch locType {
	case galaxy.LocationTypeColony:
		pool = colonyDescriptions
	case galaxy.LocationTypeStation:
		pool = stationDescriptions
	default:
		pool = outpostDescriptions
	}
	desc := pool[rng.IntN(len(pool))]
	if wealth >= 8 {
		desc += " Money is visible everywhere you look."
	} else if wealth <= 2 {
		desc += " Everything here has been repaired at least twice."
	}
	return desc
}

// seedBlackMarkets gives a cut of the poorer locations an underground
// economy with a few listings each.
func (g *Generator) seedBlackMarkets(ctx context.Context, rng *rand.Rand, majors []*galaxy.Location) (int, error) {
	created := 0
	for _, loc := range majors {
		if loc.IsDerelict || loc.Wealth > g.tuning.BlackMarketMaxWealth {
			continue
		}
		if rng.Float64() >= g.tuning.BlackMarketChance {
			continue
		}

		itemCount := 2 + rng.IntN(3)
		items := make([][]interface{}, 0, itemCount)
		picked := map[int]bool{}
		for len(items) < itemCount {
			idx := rng.IntN(len(blackMarketItems))
			if picked[idx] {
				continue
			}
			picked[idx] = true
			item := blackMarketItems[idx]
			price := 150 + rng.IntN(850)
			stock := 1 + rng.IntN(3)
			items = append(items, []interface{}{item[0], item[1], price, stock})
		}

		err := database.RunLocked(ctx, g.logger, func() error {
			return g.repo.CreateBlackMarket(ctx, loc.ID, items, nil)
		})
		if err != nil {
			return 0, err
		}
		created++
	}
	return created, nil
}

// seedSubLocations instantiates persistent interior areas for every
// non-derelict location.
func (g *Generator) seedSubLocations(ctx context.Context, rng *rand.Rand, locations []*galaxy.Location) (int, error) {
	var subs []*galaxy.SubLocation
	for _, loc := range locations {
		if loc.IsDerelict {
			continue
		}
		templates := subLocationsByType[string(loc.Type)]
		for _, t := range templates {
			// Poor places skip some amenities.
			if loc.Wealth <= 3 && rng.Float64() < 0.3 {
				continue
			}
			subs = append(subs, &galaxy.SubLocation{
				ParentLocationID: loc.ID,
				Name:             t.name,
				SubType:          t.subType,
				Description:      "",
				IsActive:         true,
			})
		}
	}

	chunk := g.tuning.ChunkSize * 4
	for start := 0; start < len(subs); start += chunk {
		end := min(start+chunk, len(subs))
		slice := subs[start:end]
		err := database.RunLocked(ctx, g.logger, func() error {
			return g.repo.CreateSubLocationsBatch(ctx, slice, nil)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(subs), nil
}

// seedRepeaters places radio infrastructure sparsely, with ranges
// reduced on large maps so coverage stays partial.
func (g *Generator) seedRepeaters(ctx context.Context, rng *rand.Rand, locations []*galaxy.Location) (int, error) {
	rangeScale := 1.0
	if len(locations) > 100 {
		rangeScale = 0.7
	}

	var repeaters []*galaxy.Repeater
	for _, loc := range locations {
		if loc.IsDerelict {
			continue
		}

		place := false
		switch loc.Type {
		case galaxy.LocationTypeStation:
			place = loc.Wealth >= 6
		case galaxy.LocationTypeColony:
			place = loc.Wealth >= 8 && rng.Float64() < 0.5
		case galaxy.LocationTypeGate:
			place = rng.Float64() < 0.25
		}
		if !place {
			continue
		}

		repeaters = append(repeaters, &galaxy.Repeater{
			LocationID:    loc.ID,
			RepeaterType:  "built_in",
			ReceiveRange:  int(40 * rangeScale),
			TransmitRange: int(60 * rangeScale),
			IsActive:      true,
		})
	}

	if len(repeaters) > 0 {
		err := database.RunLocked(ctx, g.logger, func() error {
			return g.repo.CreateRepeatersBatch(ctx, repeaters, nil)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(repeaters), nil
}

// staticNPCCount sizes a location's resident cast by type and wealth.
func staticNPCCount(rng *rand.Rand, loc *galaxy.Location) int {
	if loc.IsDerelict {
		return 0
	}
	var base int
	switch loc.Type {
	case galaxy.LocationTypeColony:
		base = 3
	case galaxy.LocationTypeStation:
		base = 4
	case galaxy.LocationTypeOutpost:
		base = 2
	default:
		base = 1 // gate maintenance crew
	}
	return base + npc.WealthTier(loc.Wealth) + rng.IntN(2)
}

// populateStaticNPCs fills every location with residents, chunked per
// the usual discipline.
func (g *Generator) populateStaticNPCs(ctx context.Context, rng *rand.Rand, locations []*galaxy.Location, nowReal float64) (int, error) {
	total := 0
	for start := 0; start < len(locations); start += g.tuning.ChunkSize {
		end := min(start+g.tuning.ChunkSize, len(locations))

		var batch []*npc.StaticNPC
		for _, loc := range locations[start:end] {
			count := staticNPCCount(rng, loc)
			for i := 0; i < count; i++ {
				alignment := npc.AlignmentFor(rng, loc.Services.BlackMarket, loc.Wealth, 0, false)
				combat := 1 + rng.IntN(5)
				if alignment == npc.AlignmentBandit {
					combat += 2
				}
				batch = append(batch, &npc.StaticNPC{
					LocationID:     loc.ID,
					Name:           npc.RandomName(rng),
					Age:            22 + rng.IntN(48),
					Occupation:     npc.RandomOccupation(rng, string(loc.Type), loc.Wealth),
					Personality:    npc.RandomPersonality(rng),
					TradeSpecialty: npc.RandomTradeSpecialty(rng),
					Alignment:      alignment,
					HP:             100,
					MaxHP:          100,
					CombatRating:   combat,
					Credits:        50 + rng.IntN(loc.Wealth*100+100),
					CreatedAt:      nowReal,
				})
			}
		}
		if len(batch) == 0 {
			continue
		}

		err := database.RunLocked(ctx, g.logger, func() error {
			return g.npcs.CreateStaticNPCsBatch(ctx, batch, nil)
		})
		if err != nil {
			return 0, err
		}
		total += len(batch)
	}
	return total, nil
}

// populateDynamicNPCs spawns the roaming pool at major locations.
func (g *Generator) populateDynamicNPCs(ctx context.Context, rng *rand.Rand, majors []*galaxy.Location, nowReal float64) (int, error) {
	target := max(5, len(majors)/3)
	jitter := 1 + (rng.Float64()*2-1)*0.3
	target = max(3, int(float64(target)*jitter))

	created := 0
	for i := 0; i < target; i++ {
		spawn := majors[rng.IntN(len(majors))]
		n, err := g.rollDynamicNPC(ctx, rng, spawn, nowReal)
		if err != nil {
			return created, err
		}
		if err := g.npcs.CreateDynamicNPC(ctx, n, nil); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// rollDynamicNPC builds one roamer with a callsign that is unique
// across players and NPCs.
func (g *Generator) rollDynamicNPC(ctx context.Context, rng *rand.Rand, spawn *galaxy.Location, nowReal float64) (*npc.DynamicNPC, error) {
	var callsign string
	for attempt := 0; ; attempt++ {
		candidate := npc.RandomCallsign(rng)
		taken, err := g.npcs.CallsignExists(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !taken {
			callsign = candidate
			break
		}
		if attempt >= 20 {
			callsign = fmt.Sprintf("%s-%d", candidate, rng.IntN(1000))
			break
		}
	}

	alignment := npc.AlignmentFor(rng, spawn.Services.BlackMarket, spawn.Wealth, 0, false)
	locID := spawn.ID
	return &npc.DynamicNPC{
		Name:            npc.RandomName(rng),
		Callsign:        callsign,
		Age:             24 + rng.IntN(40),
		ShipName:        npc.RandomShipName(rng),
		ShipType:        npc.RandomShipType(rng),
		CurrentLocation: &locID,
		Credits:         100 + rng.IntN(900),
		Alignment:       alignment,
		HP:              100,
		MaxHP:           100,
		CombatRating:    1 + rng.IntN(5),
		ShipHull:        100,
		MaxShipHull:     100,
		IsAlive:         true,
		CreatedAt:       nowReal,
	}, nil
}

// seedInitialJobs posts opening work at every major location offering
// jobs. Desperation work only appears at the poorest places.
func (g *Generator) seedInitialJobs(ctx context.Context, rng *rand.Rand, majors []*galaxy.Location, nowReal float64) (int, error) {
	var jobs []*galaxy.Job
	for _, loc := range majors {
		if !loc.Services.Jobs || loc.IsDerelict {
			continue
		}
		count := 2 + rng.IntN(4)
		for i := 0; i < count; i++ {
			t := jobTemplates[rng.IntN(len(jobTemplates))]
			if t.karma < 0 && loc.Wealth > 3 {
				// Desperation work only exists where people are desperate.
				t = jobTemplates[rng.IntN(5)]
			}
			reward := (30 + rng.IntN(80)) * (t.danger + loc.Wealth/2)
			jobs = append(jobs, &galaxy.Job{
				LocationID:      loc.ID,
				Title:           t.title,
				Description:     t.description,
				Reward:          reward,
				Danger:          t.danger,
				DurationMinutes: 15 + rng.IntN(90),
				ExpiresAt:       nowReal + float64((2+rng.IntN(7))*3600),
				KarmaChange:     t.karma,
			})
		}
	}

	chunk := g.tuning.ChunkSize * 4
	for start := 0; start < len(jobs); start += chunk {
		end := min(start+chunk, len(jobs))
		slice := jobs[start:end]
		err := database.RunLocked(ctx, g.logger, func() error {
			return g.repo.CreateJobsBatch(ctx, slice, nil)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(jobs), nil
}
