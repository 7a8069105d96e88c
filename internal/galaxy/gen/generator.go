// Package gen builds a galaxy from nothing: spiral placement, a routed
// corridor graph with gate infrastructure, economy seeding and the
// opening NPC population. Long phases commit in location chunks with
// lock-retry so generation coexists with a live server.
package gen

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/gametime"
	"corridors-server/internal/npc"
	"corridors-server/internal/shared/database"
	apperrors "corridors-server/internal/shared/errors"
)

const (
	minLocations = 10
	maxLocations = 500
)

type Generator struct {
	repo     *galaxy.Repository
	npcs     *npc.Repository
	timeRepo *gametime.Repository
	clock    *gametime.Service
	tuning   *Tuning
	logger   *slog.Logger
}

func NewGenerator(repo *galaxy.Repository, npcs *npc.Repository, timeRepo *gametime.Repository, clock *gametime.Service, tuning *Tuning, logger *slog.Logger) *Generator {
	return &Generator{
		repo:     repo,
		npcs:     npcs,
		timeRepo: timeRepo,
		clock:    clock,
		tuning:   tuning,
		logger:   logger,
	}
}

type Params struct {
	NumLocations int
	Clear        bool
	Name         string
	StartDate    string // DD-MM-YYYY, year 2700-2799
	TimeScale    float64
	Seed         uint64 // 0 picks a random seed
}

type Result struct {
	MajorLocations   int           `json:"major_locations"`
	Gates            int           `json:"gates"`
	Corridors        int           `json:"corridors"`
	DormantCorridors int           `json:"dormant_corridors"`
	BlackMarkets     int           `json:"black_markets"`
	SubLocations     int           `json:"sub_locations"`
	Repeaters        int           `json:"repeaters"`
	StaticNPCs       int           `json:"static_npcs"`
	DynamicNPCs      int           `json:"dynamic_npcs"`
	Jobs             int           `json:"jobs"`
	Elapsed          time.Duration `json:"-"`
	ElapsedSeconds   float64       `json:"elapsed_seconds"`
}

// Generate builds a complete galaxy. With Clear it replaces whatever
// exists; without it, generation over a populated store is refused.
func (g *Generator) Generate(ctx context.Context, params Params) (*Result, error) {
	started := time.Now()
	logger := g.logger.With("component", "galaxy_generator", "operation", "generate")

	if params.NumLocations < minLocations || params.NumLocations > maxLocations {
		return nil, apperrors.Validationf("location count must be between %d and %d", minLocations, maxLocations)
	}
	startDate, err := gametime.ParseStartDate(params.StartDate)
	if err != nil {
		return nil, err
	}
	if params.TimeScale <= 0 {
		return nil, apperrors.Validation("time scale must be positive")
	}

	existing, err := g.repo.CountLocations(ctx, false)
	if err != nil {
		return nil, err
	}
	if existing > 0 && !params.Clear {
		return nil, apperrors.Conflictf("a galaxy with %d locations already exists; pass clear to replace it", existing)
	}
	if params.Clear {
		if err := g.repo.ClearWorld(ctx); err != nil {
			return nil, err
		}
	}

	seed := params.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))

	nowReal := float64(time.Now().UnixNano()) / float64(time.Second)
	info := &gametime.GalaxyInfo{
		Name:      params.Name,
		StartDate: startDate.Unix(),
		TimeScale: params.TimeScale,
		RealStart: nowReal,
		CreatedAt: nowReal,
	}
	if err := g.timeRepo.Replace(ctx, info); err != nil {
		return nil, err
	}

	logger.Info("Galaxy generation started",
		"name", params.Name, "locations", params.NumLocations, "start_date", params.StartDate)

	result := &Result{}

	majors, err := g.createMajorLocations(ctx, rng, params.NumLocations, startDate, nowReal)
	if err != nil {
		return nil, fmt.Errorf("major location phase failed: %w", err)
	}
	result.MajorLocations = len(majors)

	plan := newRoutePlan(majors)
	plan.buildSpanningTree()
	plan.addHubConnections(rng, g.tuning)
	plan.addRegionalBridges(rng, g.tuning)
	plan.addRedundancy(g.tuning)
	plan.bridgeComponents()
	logger.Info("Route plan complete", "routes", len(plan.routes))

	gates, err := g.assignGates(ctx, rng, plan, startDate, nowReal)
	if err != nil {
		return nil, fmt.Errorf("gate phase failed: %w", err)
	}
	result.Gates = len(gates)

	corridorCount, err := g.materializeCorridors(ctx, rng, plan, gates, nowReal)
	if err != nil {
		return nil, fmt.Errorf("corridor phase failed: %w", err)
	}
	result.Corridors = corridorCount

	result.BlackMarkets, err = g.seedBlackMarkets(ctx, rng, majors)
	if err != nil {
		return nil, fmt.Errorf("black market phase failed: %w", err)
	}

	// Reload so downstream phases see gate rows and market flags.
	allLocations, err := g.repo.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	result.SubLocations, err = g.seedSubLocations(ctx, rng, allLocations)
	if err != nil {
		return nil, fmt.Errorf("sub-location phase failed: %w", err)
	}
	result.Repeaters, err = g.seedRepeaters(ctx, rng, allLocations)
	if err != nil {
		return nil, fmt.Errorf("repeater phase failed: %w", err)
	}
	result.StaticNPCs, err = g.populateStaticNPCs(ctx, rng, allLocations, nowReal)
	if err != nil {
		return nil, fmt.Errorf("static NPC phase failed: %w", err)
	}
	result.DynamicNPCs, err = g.populateDynamicNPCs(ctx, rng, majors, nowReal)
	if err != nil {
		return nil, fmt.Errorf("dynamic NPC phase failed: %w", err)
	}
	result.Jobs, err = g.seedInitialJobs(ctx, rng, majors, nowReal)
	if err != nil {
		return nil, fmt.Errorf("job phase failed: %w", err)
	}
	result.DormantCorridors, err = g.seedDormantPool(ctx, rng, allLocations, nowReal)
	if err != nil {
		return nil, fmt.Errorf("dormant pool phase failed: %w", err)
	}

	if err := g.clock.Load(ctx); err != nil {
		return nil, err
	}

	result.Elapsed = time.Since(started)
	result.ElapsedSeconds = result.Elapsed.Seconds()
	logger.Info("Galaxy generation finished",
		"majors", result.MajorLocations, "gates", result.Gates,
		"corridors", result.Corridors, "dormant", result.DormantCorridors,
		"static_npcs", result.StaticNPCs, "dynamic_npcs", result.DynamicNPCs,
		"elapsed", result.Elapsed.String())
	return result, nil
}

// createMajorLocations runs phase one: typed, named, spiral-placed
// majors committed in chunks.
func (g *Generator) createMajorLocations(ctx context.Context, rng *rand.Rand, count int, startDate time.Time, nowReal float64) ([]*galaxy.Location, error) {
	colonies := int(math.Round(float64(count) * g.tuning.ColonyFraction))
	stations := int(math.Round(float64(count) * g.tuning.StationFraction))
	outposts := count - colonies - stations

	colonyPool := newNamePool(rng, colonyNames, "Colony")
	stationPool := newNamePool(rng, stationNames, "Station")
	outpostPool := newNamePool(rng, outpostNames, "Outpost")
	systemPool := newNamePool(rng, systemNames, "System")

	var planned []*galaxy.Location
	build := func(locType galaxy.LocationType, pool *namePool, n int) {
		for i := 0; i < n; i++ {
			loc := g.rollLocation(rng, locType, pool.next(), systemPool.next(), startDate, nowReal)
			planned = append(planned, loc)
		}
	}
	build(galaxy.LocationTypeColony, colonyPool, colonies)
	build(galaxy.LocationTypeStation, stationPool, stations)
	build(galaxy.LocationTypeOutpost, outpostPool, outposts)
	rng.Shuffle(len(planned), func(i, j int) { planned[i], planned[j] = planned[j], planned[i] })

	created := make([]*galaxy.Location, 0, len(planned))
	for start := 0; start < len(planned); start += g.tuning.ChunkSize {
		end := min(start+g.tuning.ChunkSize, len(planned))
		chunk := planned[start:end]

		err := database.RunLocked(ctx, g.logger, func() error {
			tx, err := g.repo.DB().BeginTxContext(ctx)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			inserted := make([]*galaxy.Location, 0, len(chunk))
			for _, loc := range chunk {
				saved, err := g.repo.CreateLocation(ctx, loc, tx)
				if err != nil {
					return err
				}
				inserted = append(inserted, saved)
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			created = append(created, inserted...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return created, nil
}

// rollLocation fills in one major location's attributes.
func (g *Generator) rollLocation(rng *rand.Rand, locType galaxy.LocationType, name, system string, startDate time.Time, nowReal float64) *galaxy.Location {
	// Spiral placement: radius in [min,max], angle advanced with radius
	// so the disc reads as arms rather than noise.
	r := g.tuning.MinRadius + rng.Float64()*(g.tuning.MaxRadius-g.tuning.MinRadius)
	theta := rng.Float64()*2*math.Pi + 0.5*math.Pi*(r/g.tuning.MaxRadius)
	x := r * math.Cos(theta)
	y := r * math.Sin(theta)

	var wealth int
	switch locType {
	case galaxy.LocationTypeStation:
		wealth = 4 + rng.IntN(7) // 4-10
	case galaxy.LocationTypeColony:
		wealth = 1 + rng.IntN(5) + rng.IntN(5) // 1-9, mid-weighted
	default:
		wealth = 1 + rng.IntN(6) // 1-6
	}

	var population int
	switch locType {
	case galaxy.LocationTypeColony:
		population = wealth * (4000 + rng.IntN(8000))
	case galaxy.LocationTypeStation:
		population = wealth * (400 + rng.IntN(1200))
	default:
		population = wealth * (20 + rng.IntN(120))
	}

	derelict := rng.Float64() < g.tuning.DerelictChance
	services := rollServices(rng, locType, wealth)
	if derelict {
		population = rng.IntN(12)
		services = galaxy.ServiceFlags{}
	}

	// Establishment predates the galaxy start by 5-200 years.
	ageYears := 5 + rng.IntN(196)
	established := startDate.AddDate(-ageYears, -rng.IntN(12), -rng.IntN(28)).Unix()

	loc := &galaxy.Location{
		Name:            name,
		Type:            locType,
		Faction:         rollFaction(rng, wealth),
		Wealth:          wealth,
		Population:      population,
		X:               x,
		Y:               y,
		SystemName:      system,
		EstablishedDate: &established,
		Description:     describeLocation(rng, locType, wealth, derelict),
		Services:        services,
		IsDerelict:      derelict,
		CreatedAt:       nowReal,
	}
	return loc
}

// assignGates rolls gate probability per route and creates the gate
// locations near their parents. Returns gates keyed by route index as
// [origin-side, destination-side] pairs.
func (g *Generator) assignGates(ctx context.Context, rng *rand.Rand, plan *routePlan, startDate time.Time, nowReal float64) (map[int][2]*galaxy.Location, error) {
	gates := make(map[int][2]*galaxy.Location)
	gateNameCount := make(map[string]int)

	makeGate := func(parent *galaxy.Location) *galaxy.Location {
		gateNameCount[parent.Name]++
		suffix := gateSuffixes[min(gateNameCount[parent.Name]-1, len(gateSuffixes)-1)]
		name := fmt.Sprintf("%s %s", parent.Name, suffix)

		offset := g.tuning.GateMinOffset + rng.Float64()*(g.tuning.GateMaxOffset-g.tuning.GateMinOffset)
		bearing := rng.Float64() * 2 * math.Pi

		status := galaxy.GateStatusActive
		established := startDate.AddDate(-(2 + rng.IntN(40)), 0, 0).Unix()
		return &galaxy.Location{
			Name:             name,
			Type:             galaxy.LocationTypeGate,
			Faction:          galaxy.FactionNeutral,
			Wealth:           min(parent.Wealth, 6),
			Population:       15 + rng.IntN(26), // maintenance crew
			X:                parent.X + offset*math.Cos(bearing),
			Y:                parent.Y + offset*math.Sin(bearing),
			SystemName:       parent.SystemName,
			EstablishedDate:  &established,
			Description:      "A transit gate humming with decontamination cyclers and docking clamps.",
			Services:         galaxy.ServiceFlags{Fuel: true, Repairs: true},
			GateStatus:       &status,
			ParentLocationID: &parent.ID,
			CreatedAt:        nowReal,
		}
	}

	type pendingGate struct {
		routeIndex int
		side       int
		gate       *galaxy.Location
	}
	var pending []pendingGate
	for i, r := range plan.routes {
		if rng.Float64() >= plan.gateChance(r, g.tuning) {
			continue
		}
		pending = append(pending,
			pendingGate{i, 0, makeGate(plan.majors[r.a])},
			pendingGate{i, 1, makeGate(plan.majors[r.b])},
		)
	}

	for start := 0; start < len(pending); start += g.tuning.ChunkSize {
		end := min(start+g.tuning.ChunkSize, len(pending))
		chunk := pending[start:end]

		err := database.RunLocked(ctx, g.logger, func() error {
			tx, err := g.repo.DB().BeginTxContext(ctx)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			for _, pg := range chunk {
				saved, err := g.repo.CreateLocation(ctx, pg.gate, tx)
				if err != nil {
					return err
				}
				pair := gates[pg.routeIndex]
				pair[pg.side] = saved
				gates[pg.routeIndex] = pair
			}
			return tx.Commit()
		})
		if err != nil {
			return nil, err
		}
	}
	return gates, nil
}

// materializeCorridors turns planned routes into corridor rows: six
// segments per gated route, two per ungated, always paired per
// direction with identical physics.
func (g *Generator) materializeCorridors(ctx context.Context, rng *rand.Rand, plan *routePlan, gates map[int][2]*galaxy.Location, nowReal float64) (int, error) {
	var corridors []*galaxy.Corridor

	addPair := func(name string, a, b int64, travelTime, fuelCost, danger int, hasGate bool) {
		for _, dir := range [][2]int64{{a, b}, {b, a}} {
			corridors = append(corridors, &galaxy.Corridor{
				Name:        name,
				Origin:      dir[0],
				Destination: dir[1],
				TravelTime:  travelTime,
				FuelCost:    fuelCost,
				Danger:      danger,
				IsActive:    true,
				HasGate:     hasGate,
				CreatedAt:   nowReal,
			})
		}
	}

	vary := func(base float64, spread float64) int {
		v := base * (1 + (rng.Float64()*2-1)*spread)
		if v < 60 {
			v = 60
		}
		return int(v)
	}

	for i, r := range plan.routes {
		origin := plan.majors[r.a]
		destination := plan.majors[r.b]
		distance := plan.distance(r.a, r.b)
		fuelTotal := int(0.8*distance) + 5

		if pair, gated := gates[i]; gated {
			totalSeconds := float64((7 + rng.IntN(14)) * 60) // 7-20 min
			mainSeconds := totalSeconds * 0.7
			approachSeconds := totalSeconds * 0.3 / 2

			baseDanger := 1 + rng.IntN(5)
			mainDanger := max(1, baseDanger-1) // decontamination bonus

			addPair(fmt.Sprintf("%s Approach", pair[0].Name),
				origin.ID, pair[0].ID,
				vary(approachSeconds, 0.25), max(1, fuelTotal/5), 1, true)
			addPair(fmt.Sprintf("%s - %s Corridor", origin.Name, destination.Name),
				pair[0].ID, pair[1].ID,
				vary(mainSeconds, 0.25), max(1, fuelTotal*3/5), mainDanger, true)
			addPair(fmt.Sprintf("%s Approach", pair[1].Name),
				pair[1].ID, destination.ID,
				vary(approachSeconds, 0.25), max(1, fuelTotal/5), 1, true)
		} else {
			totalSeconds := float64((6 + rng.IntN(13)) * 60) // 6-18 min
			danger := min(5, 1+rng.IntN(4)+2)
			addPair(fmt.Sprintf("%s - %s Ungated Corridor", origin.Name, destination.Name),
				origin.ID, destination.ID,
				vary(totalSeconds, 0.30), fuelTotal, danger, false)
		}
	}

	chunk := g.tuning.ChunkSize * 6
	for start := 0; start < len(corridors); start += chunk {
		end := min(start+chunk, len(corridors))
		slice := corridors[start:end]
		err := database.RunLocked(ctx, g.logger, func() error {
			return g.repo.CreateCorridorsBatch(ctx, slice, nil)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(corridors), nil
}

// seedDormantPool samples inactive edges between nearby locations so
// shifts have routes to wake up. Chance and radius shrink as the
// galaxy grows to avoid quadratic blowup.
func (g *Generator) seedDormantPool(ctx context.Context, rng *rand.Rand, locations []*galaxy.Location, nowReal float64) (int, error) {
	scale := 1.0
	if n := len(locations); n > 75 {
		scale = 75.0 / float64(n)
	}
	chance := g.tuning.DormantChance * scale
	radius := g.tuning.DormantRadius * scale

	existing := make(map[[2]int64]bool)
	all, err := g.repo.ListCorridors(ctx, false)
	if err != nil {
		return 0, err
	}
	active, err := g.repo.ListCorridors(ctx, true)
	if err != nil {
		return 0, err
	}
	for _, c := range append(all, active...) {
		existing[[2]int64{c.Origin, c.Destination}] = true
	}

	var dormant []*galaxy.Corridor
	perLocation := make(map[int64]int)
	for i, a := range locations {
		for j := i + 1; j < len(locations); j++ {
			b := locations[j]
			if perLocation[a.ID] >= g.tuning.DormantPerLocation || perLocation[b.ID] >= g.tuning.DormantPerLocation {
				continue
			}
			if existing[[2]int64{a.ID, b.ID}] || existing[[2]int64{b.ID, a.ID}] {
				continue
			}
			d := galaxy.Distance(a, b)
			if d > radius || rng.Float64() >= chance {
				continue
			}

			travelTime := max(360, int(d*12*(0.85+rng.Float64()*0.3)))
			fuelCost := int(0.8*d) + 5
			danger := min(5, 2+rng.IntN(3))
			name := fmt.Sprintf("%s - %s Dormant Corridor", a.Name, b.Name)
			for _, dir := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}} {
				dormant = append(dormant, &galaxy.Corridor{
					Name:        name,
					Origin:      dir[0],
					Destination: dir[1],
					TravelTime:  travelTime,
					FuelCost:    fuelCost,
					Danger:      danger,
					IsActive:    false,
					CreatedAt:   nowReal,
				})
			}
			existing[[2]int64{a.ID, b.ID}] = true
			existing[[2]int64{b.ID, a.ID}] = true
			perLocation[a.ID]++
			perLocation[b.ID]++
		}
	}

	chunk := g.tuning.ChunkSize * 6
	for start := 0; start < len(dormant); start += chunk {
		end := min(start+chunk, len(dormant))
		slice := dormant[start:end]
		err := database.RunLocked(ctx, g.logger, func() error {
			return g.repo.CreateCorridorsBatch(ctx, slice, nil)
		})
		if err != nil {
			return 0, err
		}
	}
	return len(dormant), nil
}
