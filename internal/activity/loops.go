package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/news"
	"corridors-server/internal/npc"
	"corridors-server/internal/observability"
	apperrors "corridors-server/internal/shared/errors"
)

// runActionLoop makes docked NPCs do something visible every 45-120
// minutes, but only where players are around to see it.
func (s *Service) runActionLoop(ctx context.Context) {
	logger := s.logger.With("component", "activity_service", "operation", "action_loop")
	logger.Info("Action loop started")

	for {
		if !sleepCtx(ctx, s.randDuration(45*time.Minute, 120*time.Minute)) {
			logger.Info("Action loop stopped")
			return
		}
		if err := s.actionPass(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.LoopErrors.WithLabelValues("npc_actions").Inc()
			logger.Error("Action pass failed", "error", err)
			if !sleepCtx(ctx, errorCooldown) {
				return
			}
		}
	}
}

func (s *Service) actionPass(ctx context.Context) error {
	docked, err := s.npcs.ListIdleDynamicNPCs(ctx)
	if err != nil {
		return err
	}
	occupied, err := s.players.OccupiedLocationIDs(ctx)
	if err != nil {
		return err
	}

	now := float64(time.Now().UnixNano()) / float64(time.Second)
	for _, n := range docked {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.randFloat() >= 0.3 {
			continue
		}
		// Only perform for an audience.
		if !occupied[*n.CurrentLocation] {
			continue
		}

		message := fmt.Sprintf(actionTemplates[s.randIntN(len(actionTemplates))], n.FirstName())
		if err := s.galaxy.AddLocationLog(ctx, *n.CurrentLocation, n.Name, message, true, now); err != nil {
			return err
		}
		if err := s.npcs.StampLocationAction(ctx, n.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// runDeathLoop occasionally removes an NPC at a quiet location every
// 1-4 hours.
func (s *Service) runDeathLoop(ctx context.Context) {
	logger := s.logger.With("component", "activity_service", "operation", "death_loop")
	logger.Info("Death loop started")

	for {
		if !sleepCtx(ctx, s.randDuration(1*time.Hour, 4*time.Hour)) {
			logger.Info("Death loop stopped")
			return
		}
		if s.randFloat() >= 0.25 {
			continue
		}
		if err := s.deathPass(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.LoopErrors.WithLabelValues("npc_deaths").Inc()
			logger.Error("Death pass failed", "error", err)
			if !sleepCtx(ctx, errorCooldown) {
				return
			}
		}
	}
}

func (s *Service) deathPass(ctx context.Context) error {
	docked, err := s.npcs.ListIdleDynamicNPCs(ctx)
	if err != nil {
		return err
	}
	occupied, err := s.players.OccupiedLocationIDs(ctx)
	if err != nil {
		return err
	}

	// Deaths happen off-screen: only at locations with no players.
	var candidates []*npc.DynamicNPC
	for _, n := range docked {
		if !occupied[*n.CurrentLocation] {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	victim := candidates[s.randIntN(len(candidates))]
	if s.randFloat() >= 0.10 {
		return nil
	}

	cause := deathCauses[s.randIntN(len(deathCauses))]
	return s.killNPC(ctx, victim, cause, *victim.CurrentLocation)
}

// killNPC handles the full death path: persistence, timers, obituary
// and a scheduled replacement.
func (s *Service) killNPC(ctx context.Context, victim *npc.DynamicNPC, cause string, locationID int64) error {
	if err := s.npcs.Kill(ctx, victim.ID); err != nil {
		return err
	}
	s.stopRadioTimer(victim.ID)
	s.mu.Lock()
	if cancel, ok := s.arrivals[victim.ID]; ok {
		cancel()
		delete(s.arrivals, victim.ID)
	}
	s.mu.Unlock()

	observability.NPCDeaths.Inc()
	observability.LiveNPCs.Dec()

	locID := locationID
	description := fmt.Sprintf("%s, known on the lanes as %s, pilot of the %s, has died following %s. Services will be held where their tab was longest.",
		victim.Name, victim.Callsign, victim.ShipName, cause)
	if err := s.news.QueueToAll(ctx, news.TypeObituary, "🕯️ Obituary", description, &locID, nil); err != nil {
		s.logger.Warn("Failed to queue obituary",
			"component", "activity_service", "npc_id", victim.ID, "error", err)
	}

	s.scheduleReplacement()
	return nil
}

// scheduleReplacement spawns a fresh NPC 1-6 hours after a death so
// the population recovers.
func (s *Service) scheduleReplacement() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if !sleepCtx(s.baseCtx, s.randDuration(1*time.Hour, 6*time.Hour)) {
			return
		}
		if err := s.spawnNPC(s.baseCtx); err != nil && s.baseCtx.Err() == nil {
			s.logger.Error("Failed to spawn replacement NPC",
				"component", "activity_service", "error", err)
		}
	}()
}

// spawnNPC creates one new roamer at a random major location and arms
// its radio timer.
func (s *Service) spawnNPC(ctx context.Context) error {
	majors, err := s.galaxy.ListMajorLocations(ctx)
	if err != nil {
		return err
	}
	if len(majors) == 0 {
		return fmt.Errorf("no locations to spawn at")
	}
	spawn := majors[s.randIntN(len(majors))]

	var callsign string
	for attempt := 0; ; attempt++ {
		s.mu.Lock()
		candidate := npc.RandomCallsign(s.rng)
		s.mu.Unlock()
		taken, err := s.npcs.CallsignExists(ctx, candidate)
		if err != nil {
			return err
		}
		if !taken {
			callsign = candidate
			break
		}
		if attempt >= 20 {
			callsign = fmt.Sprintf("%s-%d", candidate, s.randIntN(1000))
			break
		}
	}

	s.mu.Lock()
	name := npc.RandomName(s.rng)
	shipName := npc.RandomShipName(s.rng)
	shipType := npc.RandomShipType(s.rng)
	alignment := npc.AlignmentFor(s.rng, spawn.Services.BlackMarket, spawn.Wealth, 0, false)
	s.mu.Unlock()

	now := float64(time.Now().UnixNano()) / float64(time.Second)
	locID := spawn.ID
	fresh := &npc.DynamicNPC{
		Name:            name,
		Callsign:        callsign,
		Age:             24 + s.randIntN(40),
		ShipName:        shipName,
		ShipType:        shipType,
		CurrentLocation: &locID,
		Credits:         100 + s.randIntN(900),
		Alignment:       alignment,
		HP:              100,
		MaxHP:           100,
		CombatRating:    1 + s.randIntN(5),
		ShipHull:        100,
		MaxShipHull:     100,
		IsAlive:         true,
		CreatedAt:       now,
	}
	if err := s.npcs.CreateDynamicNPC(ctx, fresh, nil); err != nil {
		return err
	}
	observability.LiveNPCs.Inc()

	// New arrivals find the radio quickly.
	created, err := s.npcs.ListLivingDynamicNPCs(ctx)
	if err == nil {
		for _, n := range created {
			if n.Callsign == callsign {
				s.startRadioTimer(n.ID, s.randDuration(30*time.Minute, 2*time.Hour))
				break
			}
		}
	}
	s.logger.Info("Replacement NPC spawned",
		"component", "activity_service", "callsign", callsign, "location", spawn.Name)
	return nil
}

// runJobLoop simulates the working economy every 45-90 minutes.
func (s *Service) runJobLoop(ctx context.Context) {
	logger := s.logger.With("component", "activity_service", "operation", "job_loop")
	logger.Info("Job loop started")

	for {
		if !sleepCtx(ctx, s.randDuration(45*time.Minute, 90*time.Minute)) {
			logger.Info("Job loop stopped")
			return
		}
		if err := s.jobPass(ctx, logger); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.LoopErrors.WithLabelValues("npc_jobs").Inc()
			logger.Error("Job pass failed", "error", err)
			if !sleepCtx(ctx, errorCooldown) {
				return
			}
		}
	}
}

func (s *Service) jobPass(ctx context.Context, logger *slog.Logger) error {
	if err := s.staticJobListings(ctx); err != nil {
		return err
	}
	return s.dynamicJobOutcomes(ctx, logger)
}

// staticJobListings has resident NPCs post small work orders.
func (s *Service) staticJobListings(ctx context.Context) error {
	jobLocations, err := s.galaxy.ListJobLocations(ctx)
	if err != nil {
		return err
	}

	now := float64(time.Now().UnixNano()) / float64(time.Second)
	var listings []*npc.NPCJob
	for _, locationID := range jobLocations {
		if err := ctx.Err(); err != nil {
			return err
		}
		residents, err := s.npcs.ListStaticNPCsAt(ctx, locationID)
		if err != nil {
			return err
		}
		for _, resident := range residents {
			if s.randFloat() >= 0.3 {
				continue
			}
			listings = append(listings, &npc.NPCJob{
				NPCID:       resident.ID,
				LocationID:  locationID,
				Title:       fmt.Sprintf("Work for %s", resident.Name),
				Description: fmt.Sprintf("%s, %s, needs a spare pair of hands for the day.", resident.Name, resident.Occupation),
				Reward:      40 + s.randIntN(160),
				ExpiresAt:   now + float64((4+s.randIntN(9))*3600),
			})
		}
	}
	return s.npcs.CreateNPCJobsBatch(ctx, listings, nil)
}

// dynamicJobOutcomes simulates roamers finishing contracts: mostly
// paydays, sometimes complications, occasionally worse.
func (s *Service) dynamicJobOutcomes(ctx context.Context, logger *slog.Logger) error {
	docked, err := s.npcs.ListIdleDynamicNPCs(ctx)
	if err != nil {
		return err
	}

	for _, n := range docked {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.randFloat() >= 0.15 {
			continue
		}

		location, err := s.galaxy.GetLocationByID(ctx, *n.CurrentLocation)
		if err != nil || location == nil {
			continue
		}

		switch roll := s.randFloat(); {
		case roll < 0.70:
			payout := 80 + s.randIntN(320)
			if err := s.npcs.AdjustCredits(ctx, n.ID, payout); err != nil {
				return err
			}
			message := fmt.Sprintf("%s here, contract closed out at %s. Drinks on the %s tonight.", n.Callsign, location.Name, n.ShipName)
			if _, err := s.radio.Broadcast(ctx, location.ID, n.Callsign, message); err != nil {
				logger.Warn("Job success broadcast failed", "npc_id", n.ID, "error", err)
			}
		case roll < 0.85:
			message := fmt.Sprintf("%s reporting a complication on the last run. Client is unhappy, cargo is... mostly intact.", n.Callsign)
			if _, err := s.radio.Broadcast(ctx, location.ID, n.Callsign, message); err != nil {
				logger.Warn("Job complication broadcast failed", "npc_id", n.ID, "error", err)
			}
		default:
			if s.randFloat() < 0.30 {
				if err := s.killNPC(ctx, n, "a contract that went wrong", location.ID); err != nil {
					return err
				}
				continue
			}
			loss := 50 + s.randIntN(200)
			if err := s.npcs.AdjustCredits(ctx, n.ID, -loss); err != nil {
				return err
			}
			message := fmt.Sprintf("Mayday from %s, job went sideways at %s. Out the fee and then some. Requesting a tow quote.", n.Callsign, location.Name)
			if _, err := s.radio.Broadcast(ctx, location.ID, n.Callsign, message); err != nil {
				logger.Warn("Job failure broadcast failed", "npc_id", n.ID, "error", err)
			}
		}
	}
	return nil
}

// runEventLoop injects hazards every 60-120 minutes.
func (s *Service) runEventLoop(ctx context.Context) {
	logger := s.logger.With("component", "activity_service", "operation", "event_loop")
	logger.Info("Event loop started")

	for {
		if !sleepCtx(ctx, s.randDuration(60*time.Minute, 120*time.Minute)) {
			logger.Info("Event loop stopped")
			return
		}
		if err := s.eventPass(ctx, logger); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.LoopErrors.WithLabelValues("npc_events").Inc()
			logger.Error("Event pass failed", "error", err)
			if !sleepCtx(ctx, errorCooldown) {
				return
			}
		}
	}
}

func (s *Service) eventPass(ctx context.Context, logger *slog.Logger) error {
	living, err := s.npcs.ListLivingDynamicNPCs(ctx)
	if err != nil {
		return err
	}

	for _, n := range living {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.randFloat() >= 0.08 {
			continue
		}

		event := backgroundEvents[s.randIntN(len(backgroundEvents))]
		message := fmt.Sprintf(event.template, n.Callsign, n.ShipName)

		broadcastFrom := int64(0)
		if n.CurrentLocation != nil {
			broadcastFrom = *n.CurrentLocation
		} else if n.DestinationLocation != nil {
			broadcastFrom = *n.DestinationLocation
		}
		if broadcastFrom != 0 {
			if _, err := s.radio.Broadcast(ctx, broadcastFrom, n.Callsign, message); err != nil {
				logger.Warn("Event broadcast failed", "npc_id", n.ID, "error", err)
			}
		}

		if s.randFloat() < event.deathChance {
			if err := s.killNPC(ctx, n, event.name, broadcastFrom); err != nil {
				return err
			}
		}
	}
	return nil
}

// runMicroEventLoop adds small texture every 45 minutes: an emergency
// job posting or a corridor acting up.
func (s *Service) runMicroEventLoop(ctx context.Context) {
	logger := s.logger.With("component", "activity_service", "operation", "micro_event_loop")
	logger.Info("Micro-event loop started")

	ticker := time.NewTicker(45 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Micro-event loop stopped")
			return
		case <-ticker.C:
			if s.randFloat() >= 0.15 {
				continue
			}
			if err := s.microEvent(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				observability.LoopErrors.WithLabelValues("micro_events").Inc()
				logger.Error("Micro-event failed", "error", err)
			}
		}
	}
}

func (s *Service) microEvent(ctx context.Context) error {
	if s.randFloat() < 0.5 {
		return s.postEmergencyJob(ctx)
	}

	// Otherwise a corridor grumbles: freshen its shift stamp so the
	// lifecycle engine sees it as recently active.
	active, err := s.galaxy.ListCorridors(ctx, true)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return nil
	}
	victim := active[s.randIntN(len(active))]
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	return s.galaxy.TouchCorridorShift(ctx, victim.ID, now)
}

// postEmergencyJob drops an urgent courier run at a random jobs-enabled
// location.
func (s *Service) postEmergencyJob(ctx context.Context) error {
	jobLocations, err := s.galaxy.ListJobLocations(ctx)
	if err != nil {
		return err
	}
	if len(jobLocations) == 0 {
		return nil
	}
	locationID := jobLocations[s.randIntN(len(jobLocations))]

	now := float64(time.Now().UnixNano()) / float64(time.Second)
	job := &galaxy.Job{
		LocationID:      locationID,
		Title:           "URGENT: Emergency Transport",
		Description:     "Time-critical delivery, premium rates, no questions about the cargo.",
		Reward:          300 + s.randIntN(500),
		Danger:          3 + s.randIntN(2),
		DurationMinutes: 20 + s.randIntN(40),
		ExpiresAt:       now + float64((1+s.randIntN(2))*3600),
		KarmaChange:     1,
	}
	return s.galaxy.CreateJobsBatch(ctx, []*galaxy.Job{job}, nil)
}

// GenerateJobs runs one on-demand round of static NPC job listings.
func (s *Service) GenerateJobs(ctx context.Context) error {
	return s.staticJobListings(ctx)
}

// EmergencyJobs posts n urgent listings across jobs-enabled locations.
func (s *Service) EmergencyJobs(ctx context.Context, n int) (int, error) {
	if n < 1 || n > 20 {
		return 0, apperrors.Validationf("emergency job count must be between 1 and 20, got %d", n)
	}
	posted := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return posted, err
		}
		if err := s.postEmergencyJob(ctx); err != nil {
			return posted, err
		}
		posted++
	}
	return posted, nil
}

// runCleanupLoop sweeps expired artifacts hourly.
func (s *Service) runCleanupLoop(ctx context.Context) {
	logger := s.logger.With("component", "activity_service", "operation", "cleanup_loop")
	logger.Info("Cleanup loop started")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup loop stopped")
			return
		case <-ticker.C:
			now := float64(time.Now().UnixNano()) / float64(time.Second)
			counts, err := s.galaxy.Cleanup(ctx, now)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				observability.LoopErrors.WithLabelValues("cleanup").Inc()
				logger.Error("Cleanup failed", "error", err)
				continue
			}
			logger.Debug("Cleanup pass done",
				"expired_jobs", counts.ExpiredJobs,
				"stale_sessions", counts.StaleSessions,
				"empty_shop_items", counts.EmptyShopItems,
				"delivered_news", counts.DeliveredNews)
		}
	}
}
