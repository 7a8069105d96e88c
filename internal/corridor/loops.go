package corridor

import (
	"context"
	"time"

	"corridors-server/internal/observability"
)

const errorCooldown = 60 * time.Second

// randomDuration samples a duration uniformly in [lo, hi]. The rng is
// shared with shift passes, so take the engine lock.
func (e *Engine) randomDuration(lo, hi time.Duration) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo + time.Duration(e.rng.Int64N(int64(hi-lo)))
}

// sleepCtx waits out a duration unless the context ends first.
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

// RunPrimaryLoop drives routine shifts on a 3-9 hour cadence.
func (e *Engine) RunPrimaryLoop(ctx context.Context) {
	logger := e.logger.With("component", "corridor_engine", "operation", "primary_loop")
	logger.Info("Primary shift loop started")

	for {
		if !sleepCtx(ctx, e.randomDuration(3*time.Hour, 9*time.Hour)) {
			logger.Info("Primary shift loop stopped")
			return
		}
		if _, err := e.ExecuteShift(ctx, e.rollIntensity()); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.LoopErrors.WithLabelValues("corridor_primary").Inc()
			logger.Error("Shift pass failed", "error", err)
			if !sleepCtx(ctx, errorCooldown) {
				return
			}
		}
	}
}

// RunSecondaryLoop layers slower, rarer shifts on a 6-24 hour cadence
// after an initial 2-6 hour settling delay.
func (e *Engine) RunSecondaryLoop(ctx context.Context) {
	logger := e.logger.With("component", "corridor_engine", "operation", "secondary_loop")
	logger.Info("Secondary shift loop started")

	if !sleepCtx(ctx, e.randomDuration(2*time.Hour, 6*time.Hour)) {
		logger.Info("Secondary shift loop stopped")
		return
	}

	for {
		if _, err := e.ExecuteShift(ctx, e.rollIntensity()); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.LoopErrors.WithLabelValues("corridor_secondary").Inc()
			logger.Error("Shift pass failed", "error", err)
			if !sleepCtx(ctx, errorCooldown) {
				return
			}
			continue
		}
		if !sleepCtx(ctx, e.randomDuration(6*time.Hour, 24*time.Hour)) {
			logger.Info("Secondary shift loop stopped")
			return
		}
	}
}
