package sim

import (
	"context"
	"time"

	"github.com/qiki-dtmp/core/internal/qlog"
)

// Publisher is the bus-facing side of the tick loop; implementations
// publish telemetry/radar/guard output and report whether the publish
// succeeded, so Run can track consecutive failures for SAFE mode.
type Publisher interface {
	Publish(TickOutput) error
}

// Runner drives an Engine on a fixed period. A tick that panics or
// returns an error is dropped and logged at WARN through qlog (no audit
// event is published) and the loop continues. A failed publish is not
// retried; the tick's output is dropped and the failure counted. After
// MaxPublishFails consecutive failures the runner reports SAFE mode,
// which does not change what is published, and the first successful
// publish leaves it again.
type Runner struct {
	Engine          *Engine
	Publisher       Publisher
	Period          time.Duration
	MaxPublishFails int

	safeMode       bool
	consecutiveFails int
}

// NewRunner constructs a Runner with spec.md defaults: 100ms period,
// SAFE mode after 5 consecutive publish failures.
func NewRunner(engine *Engine, pub Publisher, period time.Duration) *Runner {
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	return &Runner{Engine: engine, Publisher: pub, Period: period, MaxPublishFails: 5}
}

// Run blocks, ticking until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Period)
	defer ticker.Stop()

	var monotonicNs int64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			monotonicNs += r.Period.Nanoseconds()
			r.tick(float64(now.UnixNano())/1e9, monotonicNs)
		}
	}
}

func (r *Runner) tick(tsEpoch float64, monotonicNs int64) {
	defer func() {
		if rec := recover(); rec != nil {
			qlog.Get().Warn().Interface("panic", rec).Msg("sim: tick panicked, dropping tick")
		}
	}()

	out, err := r.Engine.Step(tsEpoch, monotonicNs)
	if err != nil {
		qlog.Get().Warn().Err(err).Msg("sim: tick failed, dropping tick")
		return
	}

	if r.safeMode {
		// In SAFE mode we still publish telemetry but suppress command
		// side-effects; TickOutput carries no command acks so this is a
		// pass-through, matching "continues publishing telemetry".
	}

	if err := r.Publisher.Publish(out); err != nil {
		r.consecutiveFails++
		qlog.Get().Warn().Err(err).Int("consecutive_fails", r.consecutiveFails).Msg("sim: publish failed")
		if r.consecutiveFails >= r.MaxPublishFails && !r.safeMode {
			r.safeMode = true
			qlog.Get().Error().Msg("sim: entering SAFE mode after repeated publish failures")
		}
		return
	}
	r.consecutiveFails = 0
	if r.safeMode {
		r.safeMode = false
		qlog.Get().Info().Msg("sim: leaving SAFE mode, publishes recovered")
	}
}

// SafeMode reports whether the runner is currently in SAFE mode.
func (r *Runner) SafeMode() bool { return r.safeMode }
