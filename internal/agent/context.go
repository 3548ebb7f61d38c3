// Package agent implements the agent tick orchestrator of spec.md §4.3:
// a fixed-period loop (update_context -> handle_bios -> handle_fsm ->
// evaluate_proposals -> make_decision) that is the sole writer of the
// SSOT FSM store. Modeled on the teacher's monitor/webserver.go request
// lifecycle style (small per-phase functions operating on one shared,
// explicit struct) rather than an implicit "god object" the REDESIGN
// FLAGS call out.
package agent

import (
	"github.com/qiki-dtmp/core/internal/contracts"
)

// AgentContext is the small, explicit struct whose fields are exactly
// the inputs of each tick phase (spec.md § REDESIGN FLAGS: replace the
// "dynamic god object agent context" with this).
type AgentContext struct {
	TsEpoch  float64
	FsmState contracts.FsmState

	Bios       contracts.BiosStatus
	BiosValid  bool
	AllSystemsGo bool
	MissingDevices []string

	Telemetry contracts.TelemetrySnapshot
	HasTelemetry bool

	GuardAlerts []contracts.GuardAlert
}

// DataProvider supplies the raw inputs update_context pulls together.
// Implementations must never invent a state: FsmState is read from the
// FSM store (never defaulted to BOOTING), and BiosStatus/Telemetry are
// zero-value + a present flag when genuinely unavailable, per spec.md
// §4.4's "providers must instead return an empty sentinel" rule.
type DataProvider interface {
	FsmState() contracts.FsmState
	Bios() (contracts.BiosStatus, bool)
	Telemetry() (contracts.TelemetrySnapshot, bool)
	GuardAlerts() []contracts.GuardAlert
}

// UpdateContext is tick phase 1.
func UpdateContext(tsEpoch float64, provider DataProvider) AgentContext {
	ctx := AgentContext{TsEpoch: tsEpoch, FsmState: provider.FsmState()}
	if bios, ok := provider.Bios(); ok {
		ctx.Bios = bios
		ctx.BiosValid = true
	}
	if telem, ok := provider.Telemetry(); ok {
		ctx.Telemetry = telem
		ctx.HasTelemetry = true
	}
	ctx.GuardAlerts = provider.GuardAlerts()
	return ctx
}

// HandleBios is tick phase 2: validate the BIOS profile, mark missing
// components, and compute all_systems_go.
func HandleBios(ctx AgentContext) AgentContext {
	if !ctx.BiosValid {
		ctx.AllSystemsGo = false
		return ctx
	}
	missing := ctx.MissingDevices[:0]
	ok := true
	for _, pr := range ctx.Bios.PostResults {
		if pr.Status != contracts.PostOK {
			ok = false
			missing = append(missing, pr.DeviceID)
		}
	}
	ctx.MissingDevices = missing
	ctx.AllSystemsGo = ok && ctx.Bios.AllSystemsGo
	return ctx
}
