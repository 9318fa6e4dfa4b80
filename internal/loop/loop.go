package loop

import (
	"context"
	"time"
)

// #region config

// Config controls the fixed-timestep scheduler.
type Config struct {
	TickInterval time.Duration // simulation timestep, nominally 1/60s
	MaxCatchUp   int           // max ticks fired per advance; excess time is dropped
}

// DefaultConfig returns the production 60 Hz timing.
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Second / 60,
		MaxCatchUp:   5,
	}
}

// #endregion config

// #region accumulator

// Accumulator converts variable wall-clock progress into a whole number of
// fixed ticks. A tick fires only when accumulated elapsed time exceeds the
// tick interval, and the remainder carries over, so ticks are neither
// skipped nor double-applied under frame-rate variance.
type Accumulator struct {
	cfg Config
	acc time.Duration
}

// NewAccumulator creates an accumulator with the given timing config.
func NewAccumulator(cfg Config) *Accumulator {
	return &Accumulator{cfg: cfg}
}

// Advance adds elapsed wall-clock time and returns how many ticks are due.
// When a stall banks more than MaxCatchUp ticks, the surplus is discarded:
// a frozen tab must not replay a burst of simulation it never displayed.
func (a *Accumulator) Advance(elapsed time.Duration) int {
	if elapsed < 0 {
		return 0
	}
	a.acc += elapsed

	ticks := 0
	for a.acc >= a.cfg.TickInterval {
		a.acc -= a.cfg.TickInterval
		ticks++
		if ticks >= a.cfg.MaxCatchUp {
			a.acc = 0
			break
		}
	}
	return ticks
}

// Pending returns the banked time that has not yet produced a tick.
func (a *Accumulator) Pending() time.Duration {
	return a.acc
}

// #endregion accumulator

// #region run

// Run drives fn at the fixed tick rate until ctx is cancelled. Each wakeup
// measures real elapsed time and fires however many ticks are due, so the
// simulation stays wall-clock true even when the timer drifts.
func (a *Accumulator) Run(ctx context.Context, fn func()) error {
	timer := time.NewTicker(a.cfg.TickInterval)
	defer timer.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-timer.C:
			n := a.Advance(now.Sub(last))
			last = now
			for i := 0; i < n; i++ {
				fn()
			}
		}
	}
}

// #endregion run
