package sim

import (
	"fmt"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// CommandKind enumerates the sim.* control surface of spec.md §4.1.
type CommandKind string

const (
	CmdStart      CommandKind = "sim.start"
	CmdStop       CommandKind = "sim.stop"
	CmdPause      CommandKind = "sim.pause"
	CmdReset      CommandKind = "sim.reset"
	CmdRCS        CommandKind = "sim.rcs"
	CmdDockEngage CommandKind = "sim.dock.engage"
	CmdDockRelease CommandKind = "sim.dock.release"
	CmdXpdrMode   CommandKind = "sim.xpdr.mode"
)

// Axis is one of the six reaction-control-system thrust axes.
type Axis string

const (
	AxisPitchPos Axis = "pitch+"
	AxisPitchNeg Axis = "pitch-"
	AxisYawPos   Axis = "yaw+"
	AxisYawNeg   Axis = "yaw-"
	AxisRollPos  Axis = "roll+"
	AxisRollNeg  Axis = "roll-"
)

// Command is a decoded sim.* control message (spec.md §4.1: "sim.start{speed?},
// sim.stop, sim.pause, sim.reset", "sim.rcs.<axis>{duty∈[0,1], duration_s}",
// "sim.dock.engage{port?}, sim.dock.release", "sim.xpdr.mode{mode∈{...}}").
type Command struct {
	Kind CommandKind

	Speed float64 // sim.start

	Axis     Axis    // sim.rcs.<axis>
	Duty     float64 // sim.rcs.<axis>, [0,1]
	Duration float64 // sim.rcs.<axis>, seconds

	Port string // sim.dock.engage

	XpdrMode contracts.XpdrMode // sim.xpdr.mode
}

// Validate rejects malformed commands before they reach the tick loop,
// matching spec.md §4.1's "invalid modes fail" for sim.xpdr.mode.
func (c Command) Validate() error {
	switch c.Kind {
	case CmdRCS:
		if c.Duty < 0 || c.Duty > 1 {
			return fmt.Errorf("sim: rcs duty %v out of range [0,1]", c.Duty)
		}
		switch c.Axis {
		case AxisPitchPos, AxisPitchNeg, AxisYawPos, AxisYawNeg, AxisRollPos, AxisRollNeg:
		default:
			return fmt.Errorf("sim: unknown rcs axis %q", c.Axis)
		}
	case CmdXpdrMode:
		switch c.XpdrMode {
		case contracts.XpdrOn, contracts.XpdrOff, contracts.XpdrSilent, contracts.XpdrSpoof:
		default:
			return fmt.Errorf("sim: invalid xpdr mode %q", c.XpdrMode)
		}
	case CmdStart, CmdStop, CmdPause, CmdReset, CmdDockEngage, CmdDockRelease:
		// No further validation required.
	default:
		return fmt.Errorf("sim: unknown command kind %q", c.Kind)
	}
	return nil
}
