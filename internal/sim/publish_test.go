package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// TestFilterLRFrameDropsSRDetections grounds spec.md §4.2's LR-only
// republish subject.
func TestFilterLRFrameDropsSRDetections(t *testing.T) {
	frame := contracts.RadarFrame{
		Detections: []contracts.Detection{
			{Band: contracts.BandLR, RangeM: 500},
			{Band: contracts.BandSR, RangeM: 50, TransponderID: "friendly-1"},
		},
	}
	lr := filterLRFrame(frame)
	assert.Len(t, lr.Detections, 1)
	assert.Equal(t, contracts.BandLR, lr.Detections[0].Band)
}

func TestFilterSRTracksKeepsOnlySRBand(t *testing.T) {
	tracks := []contracts.RadarTrack{
		{ID: "t1", RangeBand: contracts.BandLR},
		{ID: "t2", RangeBand: contracts.BandSR},
	}
	sr := filterSRTracks(tracks)
	assert.Len(t, sr, 1)
	assert.Equal(t, "t2", sr[0].ID)
}
