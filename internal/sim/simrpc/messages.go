package simrpc

import "github.com/qiki-dtmp/core/internal/contracts"

// HealthCheckRequest carries no fields; health is always reported for
// the service the client dialed.
type HealthCheckRequest struct{}

// HealthCheckResponse answers spec.md §5's "Control RPC ... point
// probes": whether the tick loop is running, whether the runner has
// fallen into SAFE mode, and the hardware profile hash so a probing
// client can cross-check it against BIOS without subscribing to the bus.
type HealthCheckResponse struct {
	Running             bool   `json:"running"`
	SafeMode            bool   `json:"safe_mode"`
	HardwareProfileHash string `json:"hardware_profile_hash"`
}

// SensorDataRequest carries no fields; the RPC always returns the
// latest tick's telemetry.
type SensorDataRequest struct{}

// SensorDataResponse wraps the latest telemetry snapshot. Present is
// false until the first tick has run.
type SensorDataResponse struct {
	Present   bool                          `json:"present"`
	Telemetry contracts.TelemetrySnapshot `json:"telemetry"`
}

// ActuatorCommandRequest mirrors a bus CommandEnvelope's command_name
// and parameters (spec.md §6), so the same sim.DecodeCommand logic the
// bus handler uses applies here too.
type ActuatorCommandRequest struct {
	CommandName string         `json:"command_name"`
	Parameters  map[string]any `json:"parameters"`
}

// ActuatorCommandResponse reports whether the command was accepted.
type ActuatorCommandResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// RadarFrameRequest carries no fields; the RPC always returns the
// latest tick's radar frame and track set.
type RadarFrameRequest struct{}

// RadarFrameResponse wraps the latest radar frame and derived tracks.
type RadarFrameResponse struct {
	Present bool                      `json:"present"`
	Frame   contracts.RadarFrame      `json:"frame"`
	Tracks  []contracts.RadarTrack    `json:"tracks"`
}
