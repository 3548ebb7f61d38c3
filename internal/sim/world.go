package sim

import (
	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/hwprofile"
	"github.com/qiki-dtmp/core/internal/sim/power"
	"github.com/qiki-dtmp/core/internal/sim/radarscene"
	"github.com/qiki-dtmp/core/internal/sim/thermal"
)

// Profile is the static hardware description whose hash is embedded in
// every telemetry snapshot (spec.md §3: "hardware_profile_hash").
type Profile struct {
	Manifest map[string]any
	Profile  map[string]any
}

// World holds every piece of mutable state the tick engine advances; it
// is the generalization of the teacher's per-sensor state structs
// (radar.go's in-process DB/session state) collapsed into the single
// authoritative object the sim tick owns exclusively.
type World struct {
	Running bool
	Speed   float64

	Position contracts.Vec3
	Velocity contracts.Vec3
	Attitude contracts.Attitude
	OmegaRadS contracts.Vec3

	BatteryPct float64
	CPUPct     float64
	MemPct     float64
	HullIntegrity float64

	Thermal thermal.Network
	Power   power.Gates
	// HeatInputW is the external heat forcing term Q_i (watts) applied to
	// the thermal node with the matching ID this tick; a node absent from
	// the map gets zero forcing. Populated from config/commands, not the
	// thermal network itself, since Q_i is an input to the integration,
	// not part of its state.
	HeatInputW map[string]float64
	// BatteryCapacityWh is the pack capacity SoC is integrated against;
	// zero disables SoC integration (Power.SoCPct then stays whatever the
	// caller set it to, matching the teacher-derived unit tests that drive
	// Gates directly without modeling a pack).
	BatteryCapacityWh float64

	RadiationUsvh    float64
	RadiationDoseUsv float64
	TempExternalC    float64

	Xpdr contracts.XpdrState
	Docking DockingFSM

	Scene radarscene.Scene

	ProfileHash string
}

// DockingFSM is the docking subsystem's own small state machine
// (spec.md §4.1 step 5: "Update docking state machine if a docking
// command was accepted").
type DockingFSM struct {
	State contracts.DockingState
	Port  string
}

// HandleDock applies a dock engage/release command. Engage is only
// accepted from UNDOCKED; release is only accepted from ENGAGED/DOCKED.
func (d *DockingFSM) HandleDock(cmd Command) bool {
	switch cmd.Kind {
	case CmdDockEngage:
		if d.State != contracts.DockUndocked {
			return false
		}
		d.State = contracts.DockApproach
		d.Port = cmd.Port
		return true
	case CmdDockRelease:
		if d.State != contracts.DockEngaged && d.State != contracts.DockDocked {
			return false
		}
		d.State = contracts.DockUndocked
		d.Port = ""
		return true
	}
	return false
}

// Advance steps the docking state machine one tick closer to completion
// once an engage has been accepted; APPROACHING -> ENGAGED -> DOCKED.
func (d *DockingFSM) Advance() {
	switch d.State {
	case contracts.DockApproach:
		d.State = contracts.DockEngaged
	case contracts.DockEngaged:
		d.State = contracts.DockDocked
	}
}

// NewWorld constructs a World at rest with the given thermal network,
// radar scene, and hardware profile.
func NewWorld(net thermal.Network, scene radarscene.Scene, prof Profile) (*World, error) {
	hash, err := hwprofile.Hash(prof.Profile, prof.Manifest)
	if err != nil {
		return nil, err
	}
	return &World{
		BatteryPct:        100,
		HullIntegrity:     100,
		Thermal:           net,
		Scene:             scene,
		Docking:           DockingFSM{State: contracts.DockUndocked},
		ProfileHash:       hash,
		BatteryCapacityWh: 500,
	}, nil
}
