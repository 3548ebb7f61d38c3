package sim

import (
	"fmt"
	"strings"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// DecodeCommand turns a bus CommandEnvelope (spec.md §6: "command_name,
// parameters, metadata") into a validated Command. sim.rcs.<axis> encodes
// the axis in command_name itself; every other command_name maps
// one-to-one onto a CommandKind.
func DecodeCommand(env contracts.CommandEnvelope) (Command, error) {
	name := env.CommandName
	params := env.Parameters

	if axis, ok := strings.CutPrefix(name, "sim.rcs."); ok {
		cmd := Command{Kind: CmdRCS, Axis: Axis(axis)}
		cmd.Duty, _ = floatParam(params, "duty")
		cmd.Duration, _ = floatParam(params, "duration_s")
		return cmd, cmd.Validate()
	}

	switch CommandKind(name) {
	case CmdStart:
		cmd := Command{Kind: CmdStart}
		cmd.Speed, _ = floatParam(params, "speed")
		return cmd, cmd.Validate()
	case CmdStop, CmdPause, CmdReset:
		cmd := Command{Kind: CommandKind(name)}
		return cmd, cmd.Validate()
	case CmdDockEngage:
		cmd := Command{Kind: CmdDockEngage}
		if port, ok := params["port"].(string); ok {
			cmd.Port = port
		}
		return cmd, cmd.Validate()
	case CmdDockRelease:
		return Command{Kind: CmdDockRelease}, nil
	case CmdXpdrMode:
		cmd := Command{Kind: CmdXpdrMode}
		if mode, ok := params["mode"].(string); ok {
			cmd.XpdrMode = contracts.XpdrMode(mode)
		}
		return cmd, cmd.Validate()
	default:
		return Command{}, fmt.Errorf("sim: unknown command_name %q", name)
	}
}

func floatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
