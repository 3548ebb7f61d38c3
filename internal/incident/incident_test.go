package incident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/contracts"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { store.db.Close() })
	return store
}

// TestFirstAlertOpensIncident grounds the second half of scenario S3:
// the first guard_alert for a (rule_id, target) key produces exactly
// one incident_open.
func TestFirstAlertOpensIncident(t *testing.T) {
	store := newTestStore(t)
	alert := contracts.GuardAlert{RuleID: "UNKNOWN_CONTACT_CLOSE", TargetTrackID: "t1", Severity: "WARN", TsEpoch: 100}

	ev, err := store.Ingest(alert)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, Opened, ev.Transition)
	assert.Equal(t, 1, ev.Incident.Count)
	assert.Equal(t, contracts.IncidentOpen, ev.Incident.State)
}

// TestRepeatAlertWithinCoalesceWindowDoesNotReopen grounds S3's "a
// second alert for the same target within the debounce window does not
// produce a second incident_open".
func TestRepeatAlertWithinCoalesceWindowDoesNotReopen(t *testing.T) {
	store := newTestStore(t)
	alert := contracts.GuardAlert{RuleID: "UNKNOWN_CONTACT_CLOSE", TargetTrackID: "t1", TsEpoch: 100}

	_, err := store.Ingest(alert)
	require.NoError(t, err)

	alert.TsEpoch = 105
	ev, err := store.Ingest(alert)
	require.NoError(t, err)
	assert.Nil(t, ev, "a repeat within the coalesce window must not re-publish")

	store.mu.Lock()
	got := store.open[key{ruleID: "UNKNOWN_CONTACT_CLOSE", target: "t1"}]
	store.mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, 105.0, got.LastSeenTs)
}

func TestAcknowledgeThenClearLifecycle(t *testing.T) {
	store := newTestStore(t)
	alert := contracts.GuardAlert{RuleID: "SPOOFING_DETECTED", TargetTrackID: "t2", TsEpoch: 0}
	_, err := store.Ingest(alert)
	require.NoError(t, err)

	ackEv, err := store.Acknowledge("SPOOFING_DETECTED", "t2", 1)
	require.NoError(t, err)
	assert.Equal(t, Acked, ackEv.Transition)
	assert.Equal(t, contracts.IncidentAcked, ackEv.Incident.State)

	clearEv, err := store.Clear("SPOOFING_DETECTED", "t2", 2)
	require.NoError(t, err)
	assert.Equal(t, Cleared, clearEv.Transition)
	assert.Equal(t, contracts.IncidentCleared, clearEv.Incident.State)

	// Cleared incidents leave the open map.
	_, err = store.Acknowledge("SPOOFING_DETECTED", "t2", 3)
	assert.Error(t, err)
}

// TestSweepAutoClearFiresAfterAbsenceWindow grounds spec.md §4.6's
// default 5-minute (here, 1-minute test window) auto-clear.
func TestSweepAutoClearFiresAfterAbsenceWindow(t *testing.T) {
	store := newTestStore(t)
	alert := contracts.GuardAlert{RuleID: "FOE_TRANSPONDER_OFF_APPROACH", TargetTrackID: "t3", TsEpoch: 0}
	_, err := store.Ingest(alert)
	require.NoError(t, err)

	none, err := store.SweepAutoClear(30)
	require.NoError(t, err)
	assert.Empty(t, none, "must not auto-clear before the absence window elapses")

	cleared, err := store.SweepAutoClear(61)
	require.NoError(t, err)
	require.Len(t, cleared, 1)
	assert.Equal(t, AutoCleared, cleared[0].Transition)
	assert.Equal(t, contracts.IncidentCleared, cleared[0].Incident.State)
}
