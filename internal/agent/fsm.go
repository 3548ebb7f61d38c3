package agent

import (
	"github.com/qiki-dtmp/core/internal/contracts"
)

// HandleFsm is tick phase 3: compute the next FSM snapshot from the
// transition table of spec.md §4.3. It is pure — writing the result to
// the SSOT store (exactly once, only if changed) is the orchestrator's
// job, not this function's, keeping the single-writer invariant
// enforceable at one call site.
func HandleFsm(ctx AgentContext, current contracts.FsmSnapshot, hasValidProposals bool, fatal bool) contracts.FsmSnapshot {
	next := current
	next.ContextData = nil

	switch {
	case fatal:
		next.State = contracts.StateError
		next.Reason = "FATAL_EXCEPTION"
	case current.State == contracts.StateBooting && ctx.AllSystemsGo:
		next.State = contracts.StateIdle
		next.Reason = "BOOT_COMPLETE"
	case current.State == contracts.StateBooting && !ctx.AllSystemsGo:
		next.State = contracts.StateError
		next.Reason = "BIOS_ERROR"
	case current.State == contracts.StateIdle && hasValidProposals:
		next.State = contracts.StateActive
		next.Reason = "PROPOSALS_PENDING"
	case current.State == contracts.StateActive && !hasValidProposals:
		next.State = contracts.StateIdle
		next.Reason = "PROPOSALS_CLEARED"
	case current.State == contracts.StateShutdown:
		// Terminal: no transition leaves SHUTDOWN.
	}

	if next.State != current.State {
		next.History = append(append([]contracts.HistoryEntry(nil), current.History...), contracts.HistoryEntry{
			State: next.State, Reason: next.Reason, TsEpoch: ctx.TsEpoch,
		})
	}
	return next
}

// Shutdown forces the terminal SHUTDOWN state; spec.md §4.3: "SHUTDOWN
// is entered only on explicit shutdown signal; terminal."
func Shutdown(current contracts.FsmSnapshot, tsEpoch float64) contracts.FsmSnapshot {
	next := current
	next.State = contracts.StateShutdown
	next.Reason = "SHUTDOWN_SIGNAL"
	next.History = append(append([]contracts.HistoryEntry(nil), current.History...), contracts.HistoryEntry{
		State: next.State, Reason: next.Reason, TsEpoch: tsEpoch,
	})
	return next
}
