package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// TestUnknownContactCloseFiresOnceWithinDebounceWindow grounds scenario
// S3: an SR track with no identity inside the configured range fires
// UNKNOWN_CONTACT_CLOSE exactly once; a second evaluation of the same
// target within the debounce window must not fire again.
func TestUnknownContactCloseFiresOnceWithinDebounceWindow(t *testing.T) {
	rs := DefaultRuleSet()
	eng := NewEngine(rs, 20*time.Second)

	track := contracts.RadarTrack{
		ID:        "track-1",
		RangeBand: contracts.BandSR,
		IDPresent: false,
		Pose:      contracts.Pose{Position: contracts.Vec3{X: 60, Y: 0}},
	}

	now := time.Unix(1000, 0)
	alerts := eng.Evaluate(now, []contracts.RadarTrack{track}, 1000)
	require.Len(t, alerts, 1)
	assert.Equal(t, RuleUnknownContactClose, alerts[0].RuleID)
	assert.Equal(t, "track-1", alerts[0].TargetTrackID)

	second := eng.Evaluate(now.Add(5*time.Second), []contracts.RadarTrack{track}, 1005)
	assert.Empty(t, second, "a repeat within the debounce window must not re-fire")

	third := eng.Evaluate(now.Add(25*time.Second), []contracts.RadarTrack{track}, 1025)
	require.Len(t, third, 1, "after the debounce window elapses, the rule fires again")
}

func TestUnknownContactCloseIgnoresIdentifiedOrFarTracks(t *testing.T) {
	eng := NewEngine(DefaultRuleSet(), time.Second)
	identified := contracts.RadarTrack{ID: "a", RangeBand: contracts.BandSR, IDPresent: true, Pose: contracts.Pose{Position: contracts.Vec3{X: 10}}}
	far := contracts.RadarTrack{ID: "b", RangeBand: contracts.BandSR, IDPresent: false, Pose: contracts.Pose{Position: contracts.Vec3{X: 500}}}
	lr := contracts.RadarTrack{ID: "c", RangeBand: contracts.BandLR, IDPresent: false, Pose: contracts.Pose{Position: contracts.Vec3{X: 10}}}

	alerts := eng.Evaluate(time.Unix(0, 0), []contracts.RadarTrack{identified, far, lr}, 0)
	assert.Empty(t, alerts)
}

func TestSpoofingDetectedOnIdentityCollision(t *testing.T) {
	eng := NewEngine(DefaultRuleSet(), time.Second)
	a := contracts.RadarTrack{ID: "a", RangeBand: contracts.BandSR, IDPresent: true, TransponderID: "IFF-9"}
	b := contracts.RadarTrack{ID: "b", RangeBand: contracts.BandSR, IDPresent: true, TransponderID: "IFF-9"}

	alerts := eng.Evaluate(time.Unix(0, 0), []contracts.RadarTrack{a, b}, 0)
	require.Len(t, alerts, 2)
	for _, al := range alerts {
		assert.Equal(t, RuleSpoofingDetected, al.RuleID)
	}
}

func TestDebounceForgetsKeyOnceConditionClears(t *testing.T) {
	eng := NewEngine(DefaultRuleSet(), 20*time.Second)
	track := contracts.RadarTrack{ID: "t1", RangeBand: contracts.BandSR, IDPresent: false, Pose: contracts.Pose{Position: contracts.Vec3{X: 60}}}

	first := eng.Evaluate(time.Unix(0, 0), []contracts.RadarTrack{track}, 0)
	require.Len(t, first, 1)

	// Condition clears (track now identified) - stale key must be forgotten.
	cleared := contracts.RadarTrack{ID: "t1", RangeBand: contracts.BandSR, IDPresent: true, Pose: contracts.Pose{Position: contracts.Vec3{X: 60}}}
	eng.Evaluate(time.Unix(1, 0), []contracts.RadarTrack{cleared}, 1)

	// Condition re-appears immediately: must fire again since it's a new
	// rising edge, not a repeat within the same debounce window.
	reappear := eng.Evaluate(time.Unix(2, 0), []contracts.RadarTrack{track}, 2)
	assert.Len(t, reappear, 1)
}
