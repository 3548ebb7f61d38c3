// Package sim implements the simulation tick engine of spec.md §4.1: a
// deterministic per-tick world-state advance that publishes one
// telemetry snapshot and zero or more edge events, and accepts the
// sim.* control surface. Grounded on the teacher's cmd/radar/radar.go
// main loop (flag-driven config, signal-handled run loop) generalized
// from a serial/UDP ingest loop to a pure in-process state advance.
package sim

import (
	"fmt"
	"time"

	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/guard"
	"github.com/qiki-dtmp/core/internal/radar/track"
	"github.com/qiki-dtmp/core/internal/sim/power"
)

// EdgeKind enumerates the discrete, threshold-crossing events the sim
// emits only when they occur (spec.md glossary: "Edge event — an event
// emitted only when a monitored quantity crosses a threshold; not
// emitted every tick").
type EdgeKind string

const (
	EdgeThermalTrip   EdgeKind = "thermal_trip"
	EdgeThermalClear  EdgeKind = "thermal_clear"
	EdgeDockingChange EdgeKind = "docking_change"
	EdgePDUThrottle   EdgeKind = "pdu_throttle"
)

// Edge is one discrete event produced by a tick.
type Edge struct {
	Kind    EdgeKind
	Detail  string
	TsEpoch float64
}

// Config tunes the tick engine.
type Config struct {
	DTSeconds      float64
	SRThresholdM   float64
	TrackConfig    track.Config
	GuardRules     guard.RuleSet
	DebounceWindow float64 // seconds; 0 uses guard.Engine's default
}

// DefaultConfig matches spec.md §4.1's "configurable period (default
// 100 ms)".
func DefaultConfig() Config {
	return Config{
		DTSeconds:    0.1,
		SRThresholdM: 100,
		TrackConfig:  track.DefaultConfig(),
		GuardRules:   guard.DefaultRuleSet(),
	}
}

// TickOutput is everything produced by one Step: the telemetry snapshot
// (always emitted), the radar frame and track set (only meaningful on
// radar ticks, which in this engine is every tick), any edge events, and
// any guard alerts raised by the track set this tick.
type TickOutput struct {
	Telemetry   contracts.TelemetrySnapshot
	RadarFrame  contracts.RadarFrame
	Tracks      []contracts.RadarTrack
	Edges       []Edge
	GuardAlerts []guard.Alert
}

// Engine owns one World and the stateful subsystems (track store, guard
// engine) that persist across ticks.
type Engine struct {
	cfg    Config
	world  *World
	tracks *track.Store
	guard  *guard.Engine

	wasPDUThrottled bool
	prevDockState   contracts.DockingState
	lastSoCShed     bool
}

// NewEngine wires a World with its stateful subsystems.
func NewEngine(cfg Config, world *World) *Engine {
	debounce := time.Duration(cfg.DebounceWindow * float64(time.Second))
	return &Engine{
		cfg:           cfg,
		world:         world,
		tracks:        track.NewStore(cfg.TrackConfig),
		guard:         guard.NewEngine(cfg.GuardRules, debounce),
		prevDockState: world.Docking.State,
	}
}

// Accept applies a validated sim.* command to the world. It returns an
// error only for malformed commands; commands that are well-formed but
// not currently actionable (e.g. dock.engage while already docked) are
// silently ignored, matching the teacher's tolerant command-handling
// style in radar.go's control loop.
func (e *Engine) Accept(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	switch cmd.Kind {
	case CmdStart:
		e.world.Running = true
		if cmd.Speed > 0 {
			e.world.Speed = cmd.Speed
		} else if e.world.Speed == 0 {
			e.world.Speed = 1
		}
	case CmdStop:
		e.world.Running = false
	case CmdPause:
		e.world.Running = false
	case CmdReset:
		e.world.Velocity = contracts.Vec3{}
		e.world.Docking = DockingFSM{State: contracts.DockUndocked}
	case CmdRCS:
		applyRCS(&e.world.OmegaRadS, cmd.Axis, cmd.Duty)
	case CmdDockEngage, CmdDockRelease:
		e.world.Docking.HandleDock(cmd)
	case CmdXpdrMode:
		e.world.Xpdr.Mode = cmd.XpdrMode
		e.world.Xpdr.Active = cmd.XpdrMode == contracts.XpdrOn || cmd.XpdrMode == contracts.XpdrSpoof
	}
	return nil
}

// ProfileHash returns the world's static hardware profile hash, for
// callers (e.g. simrpc's HealthCheck) that need it without reaching
// into World directly.
func (e *Engine) ProfileHash() string { return e.world.ProfileHash }

// Running reports whether the world is currently ticking.
func (e *Engine) Running() bool { return e.world.Running }

func applyRCS(omega *contracts.Vec3, axis Axis, duty float64) {
	const gain = 0.05
	switch axis {
	case AxisPitchPos:
		omega.Y += gain * duty
	case AxisPitchNeg:
		omega.Y -= gain * duty
	case AxisYawPos:
		omega.Z += gain * duty
	case AxisYawNeg:
		omega.Z -= gain * duty
	case AxisRollPos:
		omega.X += gain * duty
	case AxisRollNeg:
		omega.X -= gain * duty
	}
}

// Step advances the world by one tick and produces its telemetry,
// radar, and edge output, following spec.md §4.1's tick algorithm:
//  1. integrate thermal network
//  2. evaluate power gates and shedding
//  3. advance kinematics and docking
//  4. generate the radar frame and update tracks
//  5. evaluate guard rules over the updated tracks
//  6. emit edge events for any threshold crossings
func (e *Engine) Step(tsEpoch float64, monotonicNs int64) (TickOutput, error) {
	if !e.world.Running {
		return TickOutput{}, nil
	}
	dt := e.cfg.DTSeconds

	thermalHeat := make([]float64, len(e.world.Thermal.Nodes))
	for i, n := range e.world.Thermal.Nodes {
		thermalHeat[i] = e.world.HeatInputW[n.ID]
	}
	tripEvents, err := e.world.Thermal.Step(thermalHeat, dt)
	if err != nil {
		return TickOutput{}, fmt.Errorf("sim: thermal step: %w", err)
	}

	var edges []Edge
	coreTripped := false
	for _, ev := range tripEvents {
		kind := EdgeThermalClear
		if ev.Tripped {
			kind = EdgeThermalTrip
			coreTripped = true
		}
		edges = append(edges, Edge{Kind: kind, Detail: ev.NodeID, TsEpoch: tsEpoch})
	}
	if !coreTripped {
		for _, n := range e.world.Thermal.Nodes {
			if n.Tripped {
				coreTripped = true
				break
			}
		}
	}

	gates := e.world.Power
	gates.CoreTripped = coreTripped
	gates.WasShedForSoC = e.lastSoCShed
	result := power.Evaluate(gates)
	e.lastSoCShed = result.ShedForSoC

	if e.world.BatteryCapacityWh > 0 {
		netW := power.SourcesTotalW(gates) - power.ActivePowerW(gates, result)
		e.world.Power.SoCPct = clampPct(e.world.Power.SoCPct + netW*dt/(36*e.world.BatteryCapacityWh))
	}

	if result.PDUThrottled && !e.wasPDUThrottled {
		edges = append(edges, Edge{Kind: EdgePDUThrottle, TsEpoch: tsEpoch})
	}
	e.wasPDUThrottled = result.PDUThrottled

	e.world.Position.X += e.world.Velocity.X * dt
	e.world.Position.Y += e.world.Velocity.Y * dt
	e.world.Position.Z += e.world.Velocity.Z * dt
	e.world.Attitude.RollRad += e.world.OmegaRadS.X * dt
	e.world.Attitude.PitchRad += e.world.OmegaRadS.Y * dt
	e.world.Attitude.YawRad += e.world.OmegaRadS.Z * dt
	e.world.RadiationDoseUsv += e.world.RadiationUsvh * dt / 3600

	e.world.Docking.Advance()
	if e.world.Docking.State != e.prevDockState {
		edges = append(edges, Edge{Kind: EdgeDockingChange, Detail: string(e.world.Docking.State), TsEpoch: tsEpoch})
		e.prevDockState = e.world.Docking.State
	}

	e.world.Scene.SRThresholdM = e.cfg.SRThresholdM
	frame := e.world.Scene.Step(dt, tsEpoch, monotonicNs)
	tracks := e.tracks.Update(frame, dt)

	alerts := e.guard.Evaluate(epochToTime(tsEpoch), tracks, tsEpoch)

	snap := e.snapshot(tsEpoch, monotonicNs, result)
	return TickOutput{
		Telemetry:   snap,
		RadarFrame:  frame,
		Tracks:      tracks,
		Edges:       edges,
		GuardAlerts: alerts,
	}, nil
}

func (e *Engine) snapshot(tsEpoch float64, monotonicNs int64, shed power.Result) contracts.TelemetrySnapshot {
	nodes := make([]contracts.ThermalNode, 0, len(e.world.Thermal.Nodes))
	for _, n := range e.world.Thermal.Nodes {
		nodes = append(nodes, contracts.ThermalNode{ID: n.ID, TempC: n.TempC})
	}

	var tempCoreC *float64
	if c, ok := e.world.Thermal.TempC("core"); ok {
		tempCoreC = &c
	}

	return contracts.TelemetrySnapshot{
		SchemaVersion: 1,
		Source:        "q-sim",
		TsEpoch:       tsEpoch,
		MonotonicNs:   monotonicNs,
		Position:      &e.world.Position,
		Velocity:      &e.world.Velocity,
		Attitude:      &e.world.Attitude,
		BatteryPct:    &e.world.BatteryPct,
		CPUPct:        &e.world.CPUPct,
		MemPct:        &e.world.MemPct,
		HullIntegrity: &e.world.HullIntegrity,
		Thermal:       contracts.Thermal{Nodes: nodes},
		Power: contracts.Power{
			SoCPct:       e.world.Power.SoCPct,
			LoadsW:       e.world.Power.LoadsW,
			SourcesW:     e.world.Power.SourcesW,
			ShedLoads:    shed.ShedLoads,
			ShedReasons:  shed.ShedReasons,
			PDUThrottled: shed.PDUThrottled,
			Faults:       shed.Faults,
		},
		RadiationUsvh: &e.world.RadiationUsvh,
		TempExternalC: &e.world.TempExternalC,
		TempCoreC:     tempCoreC,
		Comms:         contracts.Comms{Xpdr: e.world.Xpdr},
		Docking: contracts.Docking{
			State:     e.world.Docking.State,
			Port:      e.world.Docking.Port,
			Connected: e.world.Docking.State == contracts.DockDocked,
		},
		SensorPlane: contracts.SensorPlane{
			ImuRatesRadS:     &e.world.OmegaRadS,
			RadiationDoseUsv: &e.world.RadiationDoseUsv,
		},
		HardwareProfileHash: e.world.ProfileHash,
	}
}

func clampPct(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func epochToTime(tsEpoch float64) time.Time {
	sec := int64(tsEpoch)
	nsec := int64((tsEpoch - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}
