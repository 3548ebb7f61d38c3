package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPDUOvercurrentShedOrder grounds scenario S4: bus_V=48, max_A=10
// (limit=480W), loads summing to 600W (nbl 50, radar 300, transponder
// 70, motion 100, rcs 80) with NBL active-but-not-allowed.
func TestPDUOvercurrentShedOrder(t *testing.T) {
	result := Evaluate(Gates{
		SoCPct: 80, SoCLowPct: 20, SoCHighPct: 30,
		NBLActive: true, NBLAllowed: false,
		BusV: 48, MaxA: 10,
		LoadsW: map[string]float64{
			LoadNBL: 50, LoadRadar: 300, LoadTransponder: 70,
			LoadMotion: 100, LoadRCS: 80,
		},
	})

	assert.Equal(t, []string{LoadNBL, LoadRadar, LoadTransponder}, result.ShedLoads,
		"shed_loads must start with nbl, radar, transponder in that exact order")
	assert.True(t, result.PDUThrottled)
	assert.NotContains(t, result.Faults, FaultPDUOvercurrent,
		"throttling motion/rcs must bring load under the limit so no fault is raised")
}

func TestPDUOvercurrentRaisesFaultWhenStillOver(t *testing.T) {
	result := Evaluate(Gates{
		SoCPct: 100, SoCLowPct: 20, SoCHighPct: 30,
		BusV: 48, MaxA: 10, // limit 480
		LoadsW: map[string]float64{
			LoadRadar: 2000, LoadMotion: 2000,
		},
	})
	// Shedding removes radar; motion throttled to 1000W is still over 480W.
	assert.Contains(t, result.Faults, FaultPDUOvercurrent)
	assert.True(t, result.PDUThrottled)
}

func TestSoCGateHysteresis(t *testing.T) {
	g := Gates{SoCPct: 15, SoCLowPct: 20, SoCHighPct: 30}
	r := Evaluate(g)
	assert.Contains(t, r.ShedLoads, LoadRadar)
	assert.Contains(t, r.ShedLoads, LoadTransponder)
	assert.Contains(t, r.ShedReasons, ReasonLowSoC)

	// Between low and high with prior shed state: stays shed (hysteresis).
	g.SoCPct = 25
	g.WasShedForSoC = true
	r2 := Evaluate(g)
	assert.True(t, r2.ShedForSoC)
	assert.Contains(t, r2.ShedLoads, LoadRadar)

	// At/above high: clears.
	g.SoCPct = 31
	r3 := Evaluate(g)
	assert.False(t, r3.ShedForSoC)
	assert.NotContains(t, r3.ShedLoads, LoadRadar)
}

func TestActivePowerWExcludesShedAndHalvesThrottled(t *testing.T) {
	g := Gates{
		SoCPct: 80, SoCLowPct: 20, SoCHighPct: 30,
		NBLActive: true, NBLAllowed: false,
		BusV: 48, MaxA: 10,
		LoadsW: map[string]float64{
			LoadNBL: 50, LoadRadar: 300, LoadTransponder: 70,
			LoadMotion: 100, LoadRCS: 80,
		},
	}
	r := Evaluate(g)
	// nbl/radar/transponder shed, motion+rcs throttled to half: 50 + 40 = 90.
	assert.Equal(t, 90.0, ActivePowerW(g, r))
}

func TestSourcesTotalWSumsAllSources(t *testing.T) {
	g := Gates{SourcesW: map[string]float64{"solar": 100, "rtg": 30}}
	assert.Equal(t, 130.0, SourcesTotalW(g))
}

func TestShedLoadsNoDuplicates(t *testing.T) {
	// Both the thermal gate and the PDU overcurrent gate add nbl, radar and
	// transponder (the 2000W motion load keeps the bus over its 480W limit
	// after the thermal gate's sheds); the result must still be
	// deduplicated and insertion-ordered (spec.md §3, §8 property 6).
	r := Evaluate(Gates{
		SoCPct: 100, SoCLowPct: 20, SoCHighPct: 30,
		PDUTripped: true,
		CoreTripped: true,
		BusV: 48, MaxA: 10,
		LoadsW: map[string]float64{LoadRadar: 2000, LoadTransponder: 50, LoadMotion: 2000},
	})
	seen := map[string]int{}
	for _, l := range r.ShedLoads {
		seen[l]++
	}
	for name, count := range seen {
		assert.Equalf(t, 1, count, "load %q must appear exactly once", name)
	}
}
