package agent

import (
	"context"
	"time"

	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/fsmstore"
	"github.com/qiki-dtmp/core/internal/guardrails"
	"github.com/qiki-dtmp/core/internal/qlog"
)

// Decider emits the selected proposals on the intents/responses subject
// (spec.md §4.3 step 5: "make_decision"). It never receives anything
// that could be mistaken for an actuator command.
type Decider interface {
	Decide(proposals []contracts.Proposal) error
}

// Orchestrator runs the fixed-period agent tick loop. It is constructed
// with a claim on the FSM store's single-writer guard so that a second
// Orchestrator in the same process fails fast at startup rather than
// racing writes (spec.md §4.4: "exactly one writer in the process...
// a static check or test must enforce this").
type Orchestrator struct {
	Store    *fsmstore.Store
	Provider DataProvider
	Engines  []Engine
	Decider  Decider

	EvaluatorConfig EvaluatorConfig
	Interval        time.Duration
	RecoveryDelay   time.Duration

	safeModeUntil time.Time
}

// NewOrchestrator claims ownership of the FSM store via writerGuard and
// returns an Orchestrator using spec.md's defaults: 5s tick interval,
// 2s SAFE_MODE recovery delay.
func NewOrchestrator(writerGuard *guardrails.FsmWriterGuard, store *fsmstore.Store, provider DataProvider, engines []Engine, decider Decider) (*Orchestrator, error) {
	if err := writerGuard.Claim("agent-orchestrator"); err != nil {
		return nil, err
	}
	return &Orchestrator{
		Store:           store,
		Provider:        provider,
		Engines:         engines,
		Decider:         decider,
		EvaluatorConfig: DefaultEvaluatorConfig(),
		Interval:        5 * time.Second,
		RecoveryDelay:   2 * time.Second,
	}, nil
}

// Run blocks, ticking until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Before(o.safeModeUntil) {
				continue
			}
			o.tick(float64(now.UnixNano()) / 1e9)
		}
	}
}

// tick runs the five phases of spec.md §4.3 and implements the
// "if a tick phase throws, the orchestrator enters SAFE_MODE for
// recovery_delay, emits a WARN event, and resumes" failure semantics via
// recover().
func (o *Orchestrator) tick(tsEpoch float64) {
	defer func() {
		if r := recover(); r != nil {
			qlog.Get().Warn().Interface("panic", r).Msg("agent: tick panicked, entering SAFE_MODE")
			o.safeModeUntil = time.Now().Add(o.RecoveryDelay)
		}
	}()

	ctx := UpdateContext(tsEpoch, o.Provider)
	ctx = HandleBios(ctx)

	current := o.Store.Get().Snapshot
	proposals := EvaluateProposals(ctx, o.Engines, o.EvaluatorConfig)

	next := HandleFsm(ctx, current, len(proposals) > 0, false)
	if fsmChanged(current, next) {
		o.Store.Set(next)
		qlog.Get().Info().
			Int64("version", o.Store.Get().Version).
			Str("boot_id", o.Store.Get().BootID).
			Str("state", string(next.State)).
			Msg("FSM transition")
	}

	// ERROR_STATE yields no proposals (spec.md §8 S2: "proposals list is
	// empty").
	if next.State == contracts.StateError {
		return
	}

	if len(proposals) == 0 {
		return
	}
	if err := o.Decider.Decide(proposals); err != nil {
		qlog.Get().Warn().Err(err).Msg("agent: make_decision failed")
	}
}

func fsmChanged(a, b contracts.FsmSnapshot) bool {
	return a.State != b.State || a.Reason != b.Reason
}
