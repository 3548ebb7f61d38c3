package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/fsmstore"
	"github.com/qiki-dtmp/core/internal/guardrails"
)

type fakeProvider struct {
	fsm     contracts.FsmState
	bios    contracts.BiosStatus
	hasBios bool
}

func (p fakeProvider) FsmState() contracts.FsmState { return p.fsm }
func (p fakeProvider) Bios() (contracts.BiosStatus, bool) { return p.bios, p.hasBios }
func (p fakeProvider) Telemetry() (contracts.TelemetrySnapshot, bool) { return contracts.TelemetrySnapshot{}, false }
func (p fakeProvider) GuardAlerts() []contracts.GuardAlert { return nil }

type recordingDecider struct {
	calls [][]contracts.Proposal
}

func (d *recordingDecider) Decide(proposals []contracts.Proposal) error {
	d.calls = append(d.calls, proposals)
	return nil
}

// TestColdBootTransitionsToIdle grounds scenario S1: BIOS reports
// all_systems_go=true, so the first tick from BOOTING moves to IDLE with
// reason BOOT_COMPLETE and the store's version increments to 1.
func TestColdBootTransitionsToIdle(t *testing.T) {
	store := fsmstore.New("deadbeefcafef00d")
	require.Equal(t, int64(0), store.Get().Version)

	guard := &guardrails.FsmWriterGuard{}
	provider := fakeProvider{
		fsm:  contracts.StateBooting,
		bios: contracts.BiosStatus{AllSystemsGo: true, PostResults: []contracts.PostResult{{DeviceID: "radar", Status: contracts.PostOK}}},
		hasBios: true,
	}
	decider := &recordingDecider{}
	orch, err := NewOrchestrator(guard, store, provider, nil, decider)
	require.NoError(t, err)

	orch.tick(0)

	view := store.Get()
	assert.Equal(t, int64(1), view.Version)
	assert.Equal(t, contracts.StateIdle, view.Snapshot.State)
	assert.Equal(t, "BOOT_COMPLETE", view.Snapshot.Reason)
}

// TestBiosFailureTransitionsToErrorState grounds scenario S2: one device
// at status=3 must flip all_systems_go false, drive the FSM to
// ERROR_STATE, and produce no proposals.
func TestBiosFailureTransitionsToErrorState(t *testing.T) {
	store := fsmstore.New("deadbeefcafef00d")
	guard := &guardrails.FsmWriterGuard{}
	provider := fakeProvider{
		fsm: contracts.StateBooting,
		bios: contracts.BiosStatus{
			AllSystemsGo: false,
			PostResults:  []contracts.PostResult{{DeviceID: "radar", Status: contracts.PostFail}},
		},
		hasBios: true,
	}
	decider := &recordingDecider{}
	orch, err := NewOrchestrator(guard, store, provider, []Engine{
		EngineFunc(func(ctx AgentContext) []contracts.Proposal {
			return []contracts.Proposal{{ID: "p1", Type: contracts.ProposalSafety, Confidence: 0.9}}
		}),
	}, decider)
	require.NoError(t, err)

	orch.tick(0)

	view := store.Get()
	assert.Equal(t, contracts.StateError, view.Snapshot.State)
	assert.Equal(t, "BIOS_ERROR", view.Snapshot.Reason)
	assert.Empty(t, decider.calls, "ERROR_STATE must not emit proposals")
}

func TestSecondOrchestratorCannotClaimSameStore(t *testing.T) {
	store := fsmstore.New("deadbeefcafef00d")
	guard := &guardrails.FsmWriterGuard{}
	provider := fakeProvider{fsm: contracts.StateBooting}
	_, err := NewOrchestrator(guard, store, provider, nil, &recordingDecider{})
	require.NoError(t, err)

	_, err = NewOrchestrator(guard, store, provider, nil, &recordingDecider{})
	assert.Error(t, err, "a second writer claiming the same guard must fail")
}

func TestEvaluateProposalsFiltersSortsAndCapsTopK(t *testing.T) {
	ctx := AgentContext{}
	engines := []Engine{EngineFunc(func(ctx AgentContext) []contracts.Proposal {
		return []contracts.Proposal{
			{ID: "low-conf", Type: contracts.ProposalSafety, Confidence: 0.3, Priority: 1},
			{ID: "planning", Type: contracts.ProposalPlanning, Confidence: 0.9, Priority: 0.5},
			{ID: "safety", Type: contracts.ProposalSafety, Confidence: 0.7, Priority: 0.5},
		}
	})}
	selected := EvaluateProposals(ctx, engines, DefaultEvaluatorConfig())
	require.Len(t, selected, 1)
	assert.Equal(t, "safety", selected[0].ID, "SAFETY must outrank PLANNING regardless of confidence")
}
