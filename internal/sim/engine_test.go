package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/sim/power"
	"github.com/qiki-dtmp/core/internal/sim/radarscene"
	"github.com/qiki-dtmp/core/internal/sim/thermal"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	net := thermal.Network{Nodes: []thermal.Node{{ID: "core", TempC: 25, HeatCapacity: 800, Cooling: 0.8, TripC: 90, ClearC: 85}}, AmbientC: 25}
	scene := radarscene.Scene{SRThresholdM: 100}
	w, err := NewWorld(net, scene, Profile{Profile: map[string]any{"model": "qiki-1"}, Manifest: map[string]any{"rev": 1}})
	require.NoError(t, err)
	return w
}

// TestStoppedSimProducesNoOutput checks the tick loop's idle state: a
// sim that has never received sim.start does not advance or publish.
func TestStoppedSimProducesNoOutput(t *testing.T) {
	w := newTestWorld(t)
	eng := NewEngine(DefaultConfig(), w)
	out, err := eng.Step(0, 0)
	require.NoError(t, err)
	assert.Zero(t, out)
}

// TestPDUOvercurrentShedOrderAtEngineLevel re-grounds scenario S4 through
// the full engine Step, not just the power.Evaluate unit.
func TestPDUOvercurrentShedOrderAtEngineLevel(t *testing.T) {
	w := newTestWorld(t)
	w.Power = power.Gates{
		SoCPct: 80, SoCLowPct: 20, SoCHighPct: 30,
		NBLActive: true, NBLAllowed: false,
		BusV: 48, MaxA: 10,
		LoadsW: map[string]float64{
			power.LoadNBL: 50, power.LoadRadar: 300, power.LoadTransponder: 70,
			power.LoadMotion: 100, power.LoadRCS: 80,
		},
	}
	eng := NewEngine(DefaultConfig(), w)
	require.NoError(t, eng.Accept(Command{Kind: CmdStart, Speed: 1}))

	out, err := eng.Step(1000, 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, []string{"nbl", "radar", "transponder"}, out.Telemetry.Power.ShedLoads)
	assert.True(t, out.Telemetry.Power.PDUThrottled)
	assert.NotContains(t, out.Telemetry.Power.Faults, "PDU_OVERCURRENT")
}

func TestXpdrModeRejectsInvalidValue(t *testing.T) {
	w := newTestWorld(t)
	eng := NewEngine(DefaultConfig(), w)
	err := eng.Accept(Command{Kind: CmdXpdrMode, XpdrMode: contracts.XpdrMode("BOGUS")})
	assert.Error(t, err)
}

func TestXpdrModeAppliesOnValidValue(t *testing.T) {
	w := newTestWorld(t)
	eng := NewEngine(DefaultConfig(), w)
	require.NoError(t, eng.Accept(Command{Kind: CmdXpdrMode, XpdrMode: contracts.XpdrOn}))
	assert.Equal(t, contracts.XpdrOn, w.Xpdr.Mode)
	assert.True(t, w.Xpdr.Active)
}

// TestThermalTripIsReachableWithHeatInput re-grounds scenario S5: a node
// given a sustained heat input that outpaces its cooling must eventually
// cross TripC and emit an edge, not just cool toward ambient forever.
func TestThermalTripIsReachableWithHeatInput(t *testing.T) {
	w := newTestWorld(t)
	w.HeatInputW = map[string]float64{"core": 2000}
	eng := NewEngine(DefaultConfig(), w)
	require.NoError(t, eng.Accept(Command{Kind: CmdStart, Speed: 1}))

	tripped := false
	for i := 0; i < 1000 && !tripped; i++ {
		out, err := eng.Step(float64(i), int64(i)*100_000_000)
		require.NoError(t, err)
		for _, e := range out.Edges {
			if e.Kind == EdgeThermalTrip {
				tripped = true
			}
		}
	}
	assert.True(t, tripped, "sustained heat input must eventually trip the node")
}

// TestSoCIntegratesDownWhenLoadsExceedSources re-grounds §4.1 step 2's
// "compute power loads, sources, SoC": with no sources and live loads, SoC
// must fall tick over tick instead of staying frozen at its initial value.
func TestSoCIntegratesDownWhenLoadsExceedSources(t *testing.T) {
	w := newTestWorld(t)
	w.BatteryCapacityWh = 10
	w.Power = power.Gates{
		SoCPct: 100, SoCLowPct: 20, SoCHighPct: 30,
		LoadsW: map[string]float64{power.LoadRadar: 150},
	}
	eng := NewEngine(DefaultConfig(), w)
	require.NoError(t, eng.Accept(Command{Kind: CmdStart, Speed: 1}))

	out, err := eng.Step(0, 0)
	require.NoError(t, err)
	assert.Less(t, out.Telemetry.Power.SoCPct, 100.0)
}

func TestDockEngageThenReleaseRoundTrips(t *testing.T) {
	w := newTestWorld(t)
	eng := NewEngine(DefaultConfig(), w)
	require.NoError(t, eng.Accept(Command{Kind: CmdStart, Speed: 1}))
	require.NoError(t, eng.Accept(Command{Kind: CmdDockEngage, Port: "A"}))
	assert.Equal(t, contracts.DockApproach, w.Docking.State)

	out, err := eng.Step(0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, out.Edges)
}
