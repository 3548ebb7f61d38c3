package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/contracts"
)

func frameAt(x, y float64, band contracts.RangeBand, xpdrID string) contracts.RadarFrame {
	return contracts.RadarFrame{
		Detections: []contracts.Detection{
			{BearingRad: math.Atan2(y, x), RangeM: math.Hypot(x, y), Band: band, TransponderID: xpdrID},
		},
	}
}

func TestTrackPromotesAfterConfirmHits(t *testing.T) {
	store := NewStore(DefaultConfig())
	var tracks []contracts.RadarTrack
	for i := 0; i < 3; i++ {
		tracks = store.Update(frameAt(100, 0, contracts.BandLR, ""), 0.1)
	}
	require.Len(t, tracks, 1)
	assert.Equal(t, contracts.TrackTracked, tracks[0].Status)
	assert.Greater(t, tracks[0].Quality, 0.0)
}

func TestTentativeTrackDropsOnFirstMiss(t *testing.T) {
	store := NewStore(DefaultConfig())
	store.Update(frameAt(100, 0, contracts.BandLR, ""), 0.1)
	// No detection this tick: the single-hit tentative track must not
	// survive (spec.md §4.2: unconfirmed tracks don't survive a gap).
	tracks := store.Update(contracts.RadarFrame{}, 0.1)
	assert.Empty(t, tracks)
}

func TestConfirmedTrackSurvivesUpToMaxMisses(t *testing.T) {
	cfg := DefaultConfig()
	store := NewStore(cfg)
	for i := 0; i < cfg.ConfirmHits; i++ {
		store.Update(frameAt(100, 0, contracts.BandLR, ""), 0.1)
	}
	var last []contracts.RadarTrack
	for i := 0; i < cfg.MaxMisses; i++ {
		last = store.Update(contracts.RadarFrame{}, 0.1)
		if i < cfg.MaxMisses-1 {
			require.Len(t, last, 1, "track must stay present before MaxMisses is reached")
			assert.Equal(t, contracts.TrackTracked, last[0].Status)
		}
	}
	require.Len(t, last, 1)
	assert.Equal(t, contracts.TrackLost, last[0].Status)
}

func TestLRDetectionNeverCarriesIdentity(t *testing.T) {
	store := NewStore(DefaultConfig())
	tracks := store.Update(frameAt(100, 0, contracts.BandLR, "IFF-1"), 0.1)
	require.Len(t, tracks, 1)
	assert.False(t, tracks[0].IDPresent)
	assert.Empty(t, tracks[0].TransponderID)
}

func TestSRDetectionCarriesIdentity(t *testing.T) {
	store := NewStore(DefaultConfig())
	tracks := store.Update(frameAt(10, 0, contracts.BandSR, "IFF-1"), 0.1)
	require.Len(t, tracks, 1)
	assert.True(t, tracks[0].IDPresent)
	assert.Equal(t, "IFF-1", tracks[0].TransponderID)
}
