package thermal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCoreTripAndClear grounds scenario S5: a core node heated past its
// trip point must emit one TripEvent, and must clear only once it cools
// back below the (lower) clear threshold.
func TestCoreTripAndClear(t *testing.T) {
	net := &Network{
		Nodes: []Node{
			{ID: "core", TempC: 25, HeatCapacity: 800, Cooling: 0.8, TripC: 90, ClearC: 85},
		},
		AmbientC: 25,
	}

	var trippedAt int
	tripped := false
	for i := 0; i < 5000 && !tripped; i++ {
		events, err := net.Step(Heat{2000}, 0.1)
		require.NoError(t, err)
		for _, e := range events {
			if e.NodeID == "core" && e.Tripped {
				tripped = true
				trippedAt = i
			}
		}
	}
	require.True(t, tripped, "core node must trip under sustained 2000W heat input")
	assert.True(t, net.IsTripped("core"))
	assert.Greater(t, trippedAt, 0)

	// Cool down: zero heat input, let cooling dominate until below 85.
	cleared := false
	for i := 0; i < 20000 && !cleared; i++ {
		events, err := net.Step(Heat{0}, 0.1)
		require.NoError(t, err)
		for _, e := range events {
			if e.NodeID == "core" && !e.Tripped {
				cleared = true
			}
		}
	}
	require.True(t, cleared, "core node must clear once below ClearC")
	assert.False(t, net.IsTripped("core"))
}

func TestStepRejectsMismatchedHeatLength(t *testing.T) {
	net := &Network{Nodes: []Node{{ID: "a", HeatCapacity: 1, Cooling: 1}}}
	_, err := net.Step(Heat{1, 2}, 0.1)
	assert.Error(t, err)
}

func TestCoupledNodesExchangeHeat(t *testing.T) {
	net := &Network{
		Nodes: []Node{
			{ID: "hot", TempC: 100, HeatCapacity: 100, Cooling: 0, TripC: 1000, ClearC: 999},
			{ID: "cold", TempC: 20, HeatCapacity: 100, Cooling: 0, TripC: 1000, ClearC: 999},
		},
		Coupling: [][]float64{
			{0, 5},
			{5, 0},
		},
		AmbientC: 20,
	}
	_, err := net.Step(Heat{0, 0}, 1)
	require.NoError(t, err)

	hotTemp, _ := net.TempC("hot")
	coldTemp, _ := net.TempC("cold")
	assert.Less(t, hotTemp, 100.0, "heat must flow from the hot node to the cold node")
	assert.Greater(t, coldTemp, 20.0)
}
