package fsmstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/contracts"
)

func TestInitialSnapshotIsColdStart(t *testing.T) {
	s := New("deadbeef")
	view := s.Get()

	assert.Equal(t, int64(0), view.Version)
	assert.Equal(t, contracts.StateBooting, view.Snapshot.State)
	assert.Equal(t, ReasonColdStart, view.Snapshot.Reason)
	assert.Equal(t, "deadbeef", view.BootID)
}

func TestSetIncrementsOnlyOnChange(t *testing.T) {
	s := New("boot1")

	v1, err := s.Set(contracts.FsmSnapshot{State: contracts.StateIdle, Reason: "BOOT_COMPLETE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1, "first real change after cold start is version 1 (S1)")

	v2, err := s.Set(contracts.FsmSnapshot{State: contracts.StateIdle, Reason: "BOOT_COMPLETE"})
	require.NoError(t, err)
	assert.Equal(t, v1, v2, "setting the same snapshot again is a no-op")

	v3, err := s.Set(contracts.FsmSnapshot{State: contracts.StateActive, Reason: "HAS_PROPOSALS"})
	require.NoError(t, err)
	assert.Equal(t, v1+1, v3)
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	s := New("boot1")
	_, err := s.Set(contracts.FsmSnapshot{
		State:   contracts.StateIdle,
		History: []contracts.HistoryEntry{{State: contracts.StateBooting}},
	})
	require.NoError(t, err)

	view := s.Get()
	view.Snapshot.History[0].Reason = "mutated by caller"

	view2 := s.Get()
	assert.NotEqual(t, "mutated by caller", view2.Snapshot.History[0].Reason, "store must not be mutated through a returned view")
}

func TestSubscribeReceivesCurrentThenChanges(t *testing.T) {
	s := New("boot1")
	ch, unsub := s.Subscribe()
	defer unsub()

	first := <-ch
	assert.Equal(t, contracts.StateBooting, first.State)

	_, err := s.Set(contracts.FsmSnapshot{State: contracts.StateIdle, Reason: "BOOT_COMPLETE"})
	require.NoError(t, err)

	second := <-ch
	assert.Equal(t, contracts.StateIdle, second.State)
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	s := New("boot1")
	ch, unsub := s.Subscribe()
	defer unsub()
	<-ch // drain the initial snapshot

	for i := 0; i < subscriberQueueDepth+5; i++ {
		reason := "r"
		if i%2 == 0 {
			reason = "r2"
		}
		_, err := s.Set(contracts.FsmSnapshot{State: contracts.StateIdle, Reason: reason, AttemptCount: i})
		require.NoError(t, err)
	}

	assert.Greater(t, s.Drops(), int64(0), "a slow subscriber must drop rather than block the writer")
}

func TestLogViewIsCachedPerVersion(t *testing.T) {
	s := New("boot1")
	a, err := s.LogView()
	require.NoError(t, err)
	b, err := s.LogView()
	require.NoError(t, err)
	assert.Equal(t, a, b, "unchanged version must return the cached bytes")

	_, err = s.Set(contracts.FsmSnapshot{State: contracts.StateIdle, Reason: "BOOT_COMPLETE"})
	require.NoError(t, err)
	c, err := s.LogView()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
