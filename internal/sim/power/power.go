// Package power implements the deterministic load-shedding policy of
// spec.md §4.1, tested as canonical by scenario S4. Shed loads and reasons
// are insertion-ordered and deduplicated, matching spec.md §3's invariant
// on power.shed_loads / power.shed_reasons.
package power

// Reasons a load may be shed or a fault raised (spec.md §4.1).
const (
	ReasonLowSoC         = "low_soc"
	ReasonThermalOverheat = "thermal_overheat"
	ReasonNBLBudget      = "nbl_budget"
	ReasonPDUOvercurrent = "pdu_overcurrent"

	FaultPDUOvercurrent = "PDU_OVERCURRENT"
)

// Loads named by the shedding policy.
const (
	LoadRadar       = "radar"
	LoadTransponder = "transponder"
	LoadNBL         = "nbl"
	LoadMotion      = "motion"
	LoadRCS         = "rcs"
)

// Gates describes the boolean inputs the shedding policy reacts to this
// tick (spec.md §4.1 steps 2: "SoC gate", "Thermal gate", "NBL gate",
// "PDU overcurrent").
type Gates struct {
	SoCPct        float64
	SoCLowPct     float64
	SoCHighPct    float64
	WasShedForSoC bool

	CoreTripped bool
	PDUTripped  bool

	NBLActive  bool
	NBLAllowed bool

	// BusV and MaxA define the PDU overcurrent limit (limit = BusV*MaxA).
	BusV float64
	MaxA float64
	// LoadsW maps load name -> watts drawn, used to compute power_out and,
	// after shedding radar/transponder/nbl, to evaluate whether throttling
	// motion then rcs is enough to clear the overcurrent condition.
	LoadsW map[string]float64
	// SourcesW maps source name (e.g. "solar", "rtg") -> watts generated
	// this tick, used only to integrate SoC; the shedding policy itself
	// does not react to sources.
	SourcesW map[string]float64
}

// Result is the shedding policy's output for one tick.
type Result struct {
	ShedLoads    []string
	ShedReasons  []string
	PDUThrottled bool
	Faults       []string
	ShedForSoC   bool // carried forward as Gates.WasShedForSoC next tick
}

// orderedSet preserves insertion order while rejecting duplicates,
// matching spec.md §3's invariant on shed_loads/shed_reasons.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(item string) {
	if s.seen[item] {
		return
	}
	s.seen[item] = true
	s.items = append(s.items, item)
}

// Evaluate runs the deterministic shedding order of spec.md §4.1:
//  1. SoC gate: shed radar, then transponder (reason low_soc) while below
//     low, hysteresis clears at high.
//  2. Thermal gate: core trip sheds nbl (thermal_overheat); pdu trip sheds
//     radar, transponder.
//  3. NBL gate: active-but-not-allowed sheds nbl.
//  4. PDU overcurrent: strict order nbl -> radar -> transponder, then
//     throttle motion -> rcs; if still over, raise PDU_OVERCURRENT.
func Evaluate(g Gates) Result {
	loads := newOrderedSet()
	reasons := newOrderedSet()
	var faults []string

	shedForSoC := g.WasShedForSoC
	if g.SoCPct <= g.SoCLowPct {
		shedForSoC = true
	} else if g.SoCPct >= g.SoCHighPct {
		shedForSoC = false
	}
	if shedForSoC {
		loads.add(LoadRadar)
		loads.add(LoadTransponder)
		reasons.add(ReasonLowSoC)
	}

	if g.CoreTripped {
		loads.add(LoadNBL)
		reasons.add(ReasonThermalOverheat)
	}
	if g.PDUTripped {
		loads.add(LoadRadar)
		loads.add(LoadTransponder)
	}

	if g.NBLActive && !g.NBLAllowed {
		loads.add(LoadNBL)
		if g.CoreTripped {
			reasons.add(ReasonThermalOverheat)
		} else {
			reasons.add(ReasonNBLBudget)
		}
	}

	throttled := false
	limit := g.BusV * g.MaxA
	if limit > 0 && g.LoadsW != nil {
		powerOut := func(excluding map[string]bool, throttleMotion, throttleRCS bool) float64 {
			total := 0.0
			for name, watts := range g.LoadsW {
				if excluding[name] {
					continue
				}
				if name == LoadMotion && throttleMotion {
					watts *= 0.5
				}
				if name == LoadRCS && throttleRCS {
					watts *= 0.5
				}
				total += watts
			}
			return total
		}

		// Loads shed by an earlier gate (SoC/thermal/NBL) this tick are
		// already off the bus; the overcurrent check must not double-count
		// them.
		excluded := map[string]bool{}
		for _, l := range loads.items {
			excluded[l] = true
		}
		if powerOut(excluded, false, false) > limit {
			// Strict, unconditional sequence (spec.md §4.1, scenario S4):
			// shed nbl -> radar -> transponder, then always throttle
			// motion -> rcs, and only then check whether a fault must be
			// raised. Each step runs regardless of whether an earlier
			// step already brought load under the limit.
			for _, l := range []string{LoadNBL, LoadRadar, LoadTransponder} {
				excluded[l] = true
				loads.add(l)
				reasons.add(ReasonPDUOvercurrent)
			}
			throttled = true
			if powerOut(excluded, true, true) > limit {
				faults = append(faults, FaultPDUOvercurrent)
			}
		}
	}

	return Result{
		ShedLoads:    loads.items,
		ShedReasons:  reasons.items,
		PDUThrottled: throttled,
		Faults:       faults,
		ShedForSoC:   shedForSoC,
	}
}

// ActivePowerW returns the total watts actually drawn by g.LoadsW after
// applying r's shed/throttle decisions, for integrating SoC over time
// against whatever sources are generating this tick.
func ActivePowerW(g Gates, r Result) float64 {
	shed := make(map[string]bool, len(r.ShedLoads))
	for _, l := range r.ShedLoads {
		shed[l] = true
	}
	total := 0.0
	for name, watts := range g.LoadsW {
		if shed[name] {
			continue
		}
		if r.PDUThrottled && (name == LoadMotion || name == LoadRCS) {
			watts *= 0.5
		}
		total += watts
	}
	return total
}

// SourcesTotalW sums every generating source for one tick.
func SourcesTotalW(g Gates) float64 {
	total := 0.0
	for _, watts := range g.SourcesW {
		total += watts
	}
	return total
}
