package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/contracts"
)

func TestDecodeCommandRCSEncodesAxisInCommandName(t *testing.T) {
	cmd, err := DecodeCommand(contracts.CommandEnvelope{
		CommandName: "sim.rcs.yaw+",
		Parameters:  map[string]any{"duty": 0.5, "duration_s": 2.0},
	})
	require.NoError(t, err)
	assert.Equal(t, CmdRCS, cmd.Kind)
	assert.Equal(t, AxisYawPos, cmd.Axis)
	assert.Equal(t, 0.5, cmd.Duty)
}

func TestDecodeCommandRejectsInvalidAxis(t *testing.T) {
	_, err := DecodeCommand(contracts.CommandEnvelope{
		CommandName: "sim.rcs.diagonal",
		Parameters:  map[string]any{"duty": 0.2},
	})
	assert.Error(t, err)
}

func TestDecodeCommandXpdrModeRejectsInvalidValue(t *testing.T) {
	_, err := DecodeCommand(contracts.CommandEnvelope{
		CommandName: "sim.xpdr.mode",
		Parameters:  map[string]any{"mode": "BOGUS"},
	})
	assert.Error(t, err)
}

func TestDecodeCommandUnknownNameErrors(t *testing.T) {
	_, err := DecodeCommand(contracts.CommandEnvelope{CommandName: "sim.teleport"})
	assert.Error(t, err)
}

func TestDecodeCommandStartCarriesSpeed(t *testing.T) {
	cmd, err := DecodeCommand(contracts.CommandEnvelope{
		CommandName: "sim.start",
		Parameters:  map[string]any{"speed": 2.0},
	})
	require.NoError(t, err)
	assert.Equal(t, CmdStart, cmd.Kind)
	assert.Equal(t, 2.0, cmd.Speed)
}
