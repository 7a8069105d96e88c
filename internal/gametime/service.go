package gametime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "corridors-server/internal/shared/errors"
)

var (
	errYearOutOfRange = apperrors.Validation("galaxy start year must be between 2700 and 2799")

	// ErrNoGalaxy is returned when the time core is asked for "now"
	// before a galaxy exists.
	ErrNoGalaxy = apperrors.NotFoundf("no galaxy has been generated yet")
)

// PresenceChecker reports how many players are currently logged in.
// The auto pause path consults it before stopping the clock.
type PresenceChecker interface {
	OnlinePlayerCount(ctx context.Context) (int, error)
}

// Service is the single source of truth for in-game "now". All state
// lives in the galaxy_info row; a cached copy serves reads so the hot
// Current() path never hits the store.
type Service struct {
	repo     *Repository
	presence PresenceChecker
	logger   *slog.Logger

	mu   sync.RWMutex
	info *GalaxyInfo

	// nowFunc is swappable in tests.
	nowFunc func() time.Time
}

func NewService(repo *Repository, presence PresenceChecker, logger *slog.Logger) *Service {
	logger.Debug("Initializing gametime service")
	return &Service{
		repo:     repo,
		presence: presence,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// Load refreshes the cached galaxy_info row. Call at startup and after
// galaxy regeneration.
func (s *Service) Load(ctx context.Context) error {
	info, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.info = info
	s.mu.Unlock()

	if info == nil {
		s.logger.Info("No galaxy present, time core idle")
	} else {
		s.logger.Info("Time core loaded",
			"galaxy", info.Name,
			"time_scale", info.TimeScale,
			"is_paused", info.IsPaused,
		)
	}
	return nil
}

// HasGalaxy reports whether a galaxy_info row is loaded.
func (s *Service) HasGalaxy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info != nil
}

// Info returns a copy of the cached galaxy info.
func (s *Service) Info() (GalaxyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return GalaxyInfo{}, ErrNoGalaxy
	}
	return *s.info, nil
}

// Current returns the in-game timestamp.
//
// Not paused, never rebased: start + (now - real_start) * scale.
// Not paused, rebased:       stored + (now - paused_at) * scale.
// Paused:                    the stored in-game time.
func (s *Service) Current() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked()
}

func (s *Service) currentLocked() (time.Time, error) {
	info := s.info
	if info == nil {
		return time.Time{}, ErrNoGalaxy
	}

	if info.IsPaused {
		if info.CurrentIngameTime != nil {
			return time.Unix(*info.CurrentIngameTime, 0).UTC(), nil
		}
		return time.Unix(info.StartDate, 0).UTC(), nil
	}

	nowReal := float64(s.nowFunc().UnixNano()) / float64(time.Second)

	if info.PausedAt != nil && info.CurrentIngameTime != nil {
		elapsed := (nowReal - *info.PausedAt) * info.TimeScale
		return time.Unix(*info.CurrentIngameTime+int64(elapsed), 0).UTC(), nil
	}

	elapsed := (nowReal - info.RealStart) * info.TimeScale
	return time.Unix(info.StartDate+int64(elapsed), 0).UTC(), nil
}

// Pause freezes the clock. Manual pauses can only be lifted by Resume.
func (s *Service) Pause(ctx context.Context, manual bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return ErrNoGalaxy
	}

	current, err := s.currentLocked()
	if err != nil {
		return err
	}

	nowReal := s.realNow()
	ingame := current.Unix()

	s.info.IsPaused = true
	if manual {
		s.info.IsManuallyPaused = true
	}
	s.info.PausedAt = &nowReal
	s.info.CurrentIngameTime = &ingame

	if err := s.repo.UpdateClockState(ctx, s.info); err != nil {
		return err
	}

	s.logger.Info("Game time paused", "manual", manual, "ingame", FormatISST(current))
	return nil
}

// Resume lifts any pause, manual or automatic.
func (s *Service) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return ErrNoGalaxy
	}
	if !s.info.IsPaused {
		return nil
	}

	nowReal := s.realNow()
	s.info.IsPaused = false
	s.info.IsManuallyPaused = false
	s.info.PausedAt = &nowReal

	if err := s.repo.UpdateClockState(ctx, s.info); err != nil {
		return err
	}

	s.logger.Info("Game time resumed")
	return nil
}

// AutoPause pauses the clock when no players are online. It never
// touches the manual flag and refuses when already paused.
func (s *Service) AutoPause(ctx context.Context) error {
	s.mu.RLock()
	paused := s.info != nil && s.info.IsPaused
	s.mu.RUnlock()
	if paused {
		return nil
	}

	if s.presence != nil {
		online, err := s.presence.OnlinePlayerCount(ctx)
		if err != nil {
			return fmt.Errorf("failed to check player presence: %w", err)
		}
		if online > 0 {
			return nil
		}
	}

	return s.Pause(ctx, false)
}

// AutoResume lifts an automatic pause; a manual pause stays.
func (s *Service) AutoResume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return ErrNoGalaxy
	}
	if !s.info.IsPaused {
		return nil
	}
	if s.info.IsManuallyPaused {
		s.logger.Debug("Auto resume refused, clock is manually paused")
		return nil
	}

	nowReal := s.realNow()
	s.info.IsPaused = false
	s.info.PausedAt = &nowReal

	if err := s.repo.UpdateClockState(ctx, s.info); err != nil {
		return err
	}

	s.logger.Info("Game time auto-resumed")
	return nil
}

// SetCurrent rebases the clock to the given in-game instant. Instants
// before the galaxy start date are rejected.
func (s *Service) SetCurrent(ctx context.Context, dt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return ErrNoGalaxy
	}
	if dt.Unix() < s.info.StartDate {
		return apperrors.Validationf("time %s precedes the galaxy start date", FormatISST(dt))
	}

	nowReal := s.realNow()
	ingame := dt.Unix()

	s.info.CurrentIngameTime = &ingame
	s.info.PausedAt = &nowReal
	s.info.IsPaused = false
	s.info.IsManuallyPaused = false

	if err := s.repo.UpdateClockState(ctx, s.info); err != nil {
		return err
	}

	s.logger.Info("Game time set", "ingame", FormatISST(dt))
	return nil
}

// SetScale changes the time scale without a jump: the current in-game
// instant is captured first and becomes the new rebase anchor.
func (s *Service) SetScale(ctx context.Context, scale float64) error {
	if scale <= 0 {
		return apperrors.Validation("time scale must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return ErrNoGalaxy
	}

	current, err := s.currentLocked()
	if err != nil {
		return err
	}

	nowReal := s.realNow()
	ingame := current.Unix()

	s.info.TimeScale = scale
	s.info.CurrentIngameTime = &ingame
	s.info.PausedAt = &nowReal
	s.info.IsPaused = false
	s.info.IsManuallyPaused = false

	if err := s.repo.UpdateClockState(ctx, s.info); err != nil {
		return err
	}

	s.logger.Info("Time scale changed", "scale", scale, "anchored_at", FormatISST(current))
	return nil
}

// CurrentShift computes the shift of day for the current in-game time.
func (s *Service) CurrentShift() (Shift, error) {
	current, err := s.Current()
	if err != nil {
		return "", err
	}
	return ShiftOf(current), nil
}

// StoredShift returns the last persisted shift of day, if any.
func (s *Service) StoredShift() (Shift, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil || s.info.CurrentShift == nil {
		return "", false
	}
	return Shift(*s.info.CurrentShift), true
}

// RecordShift persists a newly observed shift of day.
func (s *Service) RecordShift(ctx context.Context, shift Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info == nil {
		return ErrNoGalaxy
	}

	nowReal := s.realNow()
	str := string(shift)
	s.info.CurrentShift = &str
	s.info.LastShiftCheck = &nowReal

	return s.repo.UpdateShift(ctx, shift, nowReal)
}

// Scale returns the active time scale.
func (s *Service) Scale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return 0
	}
	return s.info.TimeScale
}

func (s *Service) realNow() float64 {
	return float64(s.nowFunc().UnixNano()) / float64(time.Second)
}
