// Package activity runs the autonomous life of the galaxy: NPC radio
// chatter, movement, local color, job simulation, random misfortune
// and housekeeping. Every loop observes cancellation and survives its
// own errors with a cooldown.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"corridors-server/internal/galaxy"
	"corridors-server/internal/news"
	"corridors-server/internal/npc"
	"corridors-server/internal/observability"
	"corridors-server/internal/player"
	"corridors-server/internal/radio"
)

const errorCooldown = 60 * time.Second

type Service struct {
	npcs    *npc.Repository
	galaxy  *galaxy.Repository
	players *player.Repository
	news    *news.Service
	radio   *radio.Service
	logger  *slog.Logger

	mu          sync.Mutex
	rng         *rand.Rand
	radioTimers map[int64]radioTimer
	arrivals    map[int64]context.CancelFunc

	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewService(npcs *npc.Repository, galaxyRepo *galaxy.Repository, players *player.Repository, newsSvc *news.Service, radioSvc *radio.Service, logger *slog.Logger) *Service {
	return &Service{
		npcs:        npcs,
		galaxy:      galaxyRepo,
		players:     players,
		news:        newsSvc,
		radio:       radioSvc,
		logger:      logger,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0xBADC0DE)),
		radioTimers: make(map[int64]radioTimer),
		arrivals:    make(map[int64]context.CancelFunc),
	}
}

func (s *Service) randFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Service) randIntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Service) randDuration(lo, hi time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + time.Duration(s.rng.Int64N(int64(hi-lo)))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Start launches every activity loop and arms radio timers for the
// current living population. Blocks until all loops exit after ctx is
// cancelled; call from its own goroutine and Wait on shutdown.
func (s *Service) Start(ctx context.Context) error {
	s.baseCtx = ctx

	living, err := s.npcs.ListLivingDynamicNPCs(ctx)
	if err != nil {
		return err
	}
	armed := 0
	for _, n := range living {
		if n.CurrentLocation != nil {
			s.startRadioTimer(n.ID, s.randDuration(2*time.Hour, 12*time.Hour))
			armed++
		}
	}
	observability.LiveNPCs.Set(float64(len(living)))
	s.logger.Info("Activity loops starting",
		"component", "activity_service", "living_npcs", len(living), "radio_timers", armed)

	loops := []func(context.Context){
		s.runMovementLoop,
		s.runActionLoop,
		s.runDeathLoop,
		s.runJobLoop,
		s.runEventLoop,
		s.runMicroEventLoop,
		s.runCleanupLoop,
	}
	for _, loop := range loops {
		s.wg.Add(1)
		go func(fn func(context.Context)) {
			defer s.wg.Done()
			fn(ctx)
		}(loop)
	}
	return nil
}

// Wait blocks until every loop has stopped.
func (s *Service) Wait() {
	s.wg.Wait()
}

// radioTimer is one armed chatter timer; the context identifies the
// owning goroutine so a retiring timer never removes its replacement.
type radioTimer struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// startRadioTimer arms an individual chatter timer for one NPC. Any
// existing timer for that NPC is replaced.
func (s *Service) startRadioTimer(npcID int64, initialDelay time.Duration) {
	s.mu.Lock()
	if t, ok := s.radioTimers[npcID]; ok {
		t.cancel()
	}
	timerCtx, cancel := context.WithCancel(s.baseCtx)
	s.radioTimers[npcID] = radioTimer{ctx: timerCtx, cancel: cancel}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.retireRadioTimer(npcID, timerCtx)
		if !sleepCtx(timerCtx, initialDelay) {
			return
		}
		for {
			if err := s.radioTick(timerCtx, npcID); err != nil {
				if timerCtx.Err() != nil {
					return
				}
				s.logger.Debug("Radio tick ended timer",
					"component", "activity_service", "npc_id", npcID, "error", err)
				return
			}
			if !sleepCtx(timerCtx, s.randDuration(3*time.Hour, 12*time.Hour)) {
				return
			}
		}
	}()
}

// retireRadioTimer drops a finished timer's map entry, but only if it
// still owns the slot.
func (s *Service) retireRadioTimer(npcID int64, timerCtx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.radioTimers[npcID]; ok && t.ctx == timerCtx {
		t.cancel()
		delete(s.radioTimers, npcID)
	}
}

// stopRadioTimer tears down a dead or departed NPC's timer.
func (s *Service) stopRadioTimer(npcID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.radioTimers[npcID]; ok {
		t.cancel()
		delete(s.radioTimers, npcID)
	}
}

// radioTick verifies the NPC still exists, is alive and is docked,
// then broadcasts one line of chatter. A non-nil error retires the
// timer.
func (s *Service) radioTick(ctx context.Context, npcID int64) error {
	n, err := s.npcs.GetDynamicNPC(ctx, npcID)
	if err != nil {
		return err
	}
	if n == nil || !n.IsAlive || n.CurrentLocation == nil {
		return fmt.Errorf("npc %d no longer broadcasting", npcID)
	}

	location, err := s.galaxy.GetLocationByID(ctx, *n.CurrentLocation)
	if err != nil {
		return err
	}
	if location == nil {
		return fmt.Errorf("npc %d location vanished", npcID)
	}

	template := radioTemplates[s.randIntN(len(radioTemplates))]
	message := fmt.Sprintf(template, n.FirstName(), n.Callsign, n.ShipName, location.Name, location.SystemName)
	if _, err := s.radio.Broadcast(ctx, location.ID, n.Callsign, message); err != nil {
		// Broadcast failures are transient; keep the timer alive.
		s.logger.Warn("Radio broadcast failed",
			"component", "activity_service", "npc_id", npcID, "error", err)
		return nil
	}

	now := float64(time.Now().UnixNano()) / float64(time.Second)
	return s.npcs.StampRadio(ctx, npcID, now)
}

// runMovementLoop sends idle NPCs down random corridors every 30-90
// minutes.
func (s *Service) runMovementLoop(ctx context.Context) {
	logger := s.logger.With("component", "activity_service", "operation", "movement_loop")
	logger.Info("Movement loop started")

	for {
		if !sleepCtx(ctx, s.randDuration(30*time.Minute, 90*time.Minute)) {
			logger.Info("Movement loop stopped")
			return
		}
		if err := s.movementPass(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.LoopErrors.WithLabelValues("npc_movement").Inc()
			logger.Error("Movement pass failed", "error", err)
			if !sleepCtx(ctx, errorCooldown) {
				return
			}
		}
	}
}

func (s *Service) movementPass(ctx context.Context) error {
	idle, err := s.npcs.ListIdleDynamicNPCs(ctx)
	if err != nil {
		return err
	}
	if len(idle) == 0 {
		return nil
	}

	graph, err := s.galaxy.LoadActiveGraph(ctx)
	if err != nil {
		return err
	}

	for _, n := range idle {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.randFloat() >= 0.2 {
			continue
		}
		corridors := graph.ByOrigin[*n.CurrentLocation]
		if len(corridors) == 0 {
			continue
		}
		c := corridors[s.randIntN(len(corridors))]

		now := float64(time.Now().UnixNano()) / float64(time.Second)
		if err := s.npcs.BeginTravel(ctx, n.ID, c.Destination, now, c.TravelTime); err != nil {
			return err
		}
		s.stopRadioTimer(n.ID)
		s.scheduleArrival(n.ID, c.Destination, time.Duration(c.TravelTime)*time.Second)
	}
	return nil
}

// scheduleArrival tracks a cancellable task that docks the NPC when
// its transit completes.
func (s *Service) scheduleArrival(npcID, destinationID int64, after time.Duration) {
	s.mu.Lock()
	if cancel, ok := s.arrivals[npcID]; ok {
		cancel()
	}
	arrivalCtx, cancel := context.WithCancel(s.baseCtx)
	s.arrivals[npcID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.arrivals, npcID)
			s.mu.Unlock()
		}()

		if !sleepCtx(arrivalCtx, after) {
			return
		}
		if err := s.completeArrival(arrivalCtx, npcID, destinationID); err != nil && arrivalCtx.Err() == nil {
			s.logger.Warn("NPC arrival failed",
				"component", "activity_service", "npc_id", npcID, "error", err)
		}
	}()
}

func (s *Service) completeArrival(ctx context.Context, npcID, destinationID int64) error {
	n, err := s.npcs.GetDynamicNPC(ctx, npcID)
	if err != nil {
		return err
	}
	if n == nil || !n.IsAlive {
		return nil
	}

	if err := s.npcs.CompleteTravel(ctx, npcID); err != nil {
		return err
	}

	occupied, err := s.players.OccupiedLocationIDs(ctx)
	if err != nil {
		return err
	}
	if occupied[destinationID] {
		if location, err := s.galaxy.GetLocationByID(ctx, destinationID); err == nil && location != nil {
			now := float64(time.Now().UnixNano()) / float64(time.Second)
			message := fmt.Sprintf("The %s docks; %s (%s) disembarks.", n.ShipName, n.Name, n.Callsign)
			if err := s.galaxy.AddLocationLog(ctx, destinationID, "Docking Control", message, true, now); err != nil {
				s.logger.Warn("Failed to log NPC arrival",
					"component", "activity_service", "npc_id", npcID, "error", err)
			}
		}
	}

	s.startRadioTimer(npcID, s.randDuration(0, 60*time.Minute))
	return nil
}
