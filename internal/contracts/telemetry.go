package contracts

// TelemetrySnapshot is the canonical per-tick world-state snapshot
// published by the simulation (spec.md §3). Pointer and map fields are
// left nil/absent when the underlying sensor or subsystem is disabled or
// has not yet produced data — never fabricated as zero, per the table's
// "missing data -> absent key" rule.
type TelemetrySnapshot struct {
	SchemaVersion int     `json:"schema_version"`
	Source        string  `json:"source"`
	TsEpoch       float64 `json:"ts_epoch"`
	MonotonicNs   int64   `json:"monotonic_ns"`

	Position *Vec3 `json:"position,omitempty"`
	Velocity *Vec3 `json:"velocity,omitempty"`
	Heading  *float64 `json:"heading,omitempty"`
	Attitude *Attitude `json:"attitude,omitempty"`

	BatteryPct *float64 `json:"battery_pct,omitempty"`
	CPUPct     *float64 `json:"cpu_pct,omitempty"`
	MemPct     *float64 `json:"mem_pct,omitempty"`
	HullIntegrity *float64 `json:"hull_integrity,omitempty"`

	Thermal Thermal `json:"thermal"`
	Power   Power   `json:"power"`

	RadiationUsvh   *float64 `json:"radiation_usvh,omitempty"`
	TempExternalC   *float64 `json:"temp_external_c,omitempty"`
	TempCoreC       *float64 `json:"temp_core_c,omitempty"`

	Comms        Comms        `json:"comms"`
	Docking      Docking      `json:"docking"`
	SensorPlane  SensorPlane  `json:"sensor_plane"`

	HardwareProfileHash string `json:"hardware_profile_hash"`
}

// Vec3 is a 3-component vector (position, velocity, angular rates, ...).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Attitude holds roll/pitch/yaw in radians.
type Attitude struct {
	RollRad  float64 `json:"roll_rad"`
	PitchRad float64 `json:"pitch_rad"`
	YawRad   float64 `json:"yaw_rad"`
}

// ThermalNode is one lumped-capacitance node in the thermal network.
type ThermalNode struct {
	ID     string  `json:"id"`
	TempC  float64 `json:"temp_c"`
}

// Thermal carries the current temperature of every modeled node.
type Thermal struct {
	Nodes []ThermalNode `json:"nodes"`
}

// Power carries the load-shedding state machine's observable output
// (spec.md §4.1 load-shedding order, tested as canonical in S4).
type Power struct {
	SoCPct        float64  `json:"soc"`
	LoadsW        map[string]float64 `json:"loads_w,omitempty"`
	SourcesW      map[string]float64 `json:"sources_w,omitempty"`
	ShedLoads     []string `json:"shed_loads"`
	ShedReasons   []string `json:"shed_reasons"`
	PDUThrottled  bool     `json:"pdu_throttled"`
	Faults        []string `json:"faults,omitempty"`
}

// XpdrMode is the transponder/IFF operating mode.
type XpdrMode string

const (
	XpdrOn     XpdrMode = "ON"
	XpdrOff    XpdrMode = "OFF"
	XpdrSilent XpdrMode = "SILENT"
	XpdrSpoof  XpdrMode = "SPOOF"
)

// Comms holds the transponder state.
type Comms struct {
	Xpdr XpdrState `json:"xpdr"`
}

// XpdrState is the comms.xpdr.* subtree of telemetry.
type XpdrState struct {
	Mode    XpdrMode `json:"mode"`
	Active  bool     `json:"active"`
	Allowed bool     `json:"allowed"`
	ID      string   `json:"id,omitempty"`
}

// DockingState is the docking state machine's state.
type DockingState string

const (
	DockUndocked  DockingState = "UNDOCKED"
	DockApproach  DockingState = "APPROACHING"
	DockEngaged   DockingState = "ENGAGED"
	DockDocked    DockingState = "DOCKED"
)

// Docking holds the current docking status.
type Docking struct {
	State     DockingState `json:"state"`
	Port      string       `json:"port,omitempty"`
	Connected bool         `json:"connected"`
}

// SensorPlane carries IMU/radiation/other sensor outputs; fields are left
// nil when the corresponding sensor is disabled.
type SensorPlane struct {
	ImuRatesRadS *Vec3    `json:"imu_rates_rad_s,omitempty"`
	RadiationDoseUsv *float64 `json:"radiation_dose_usv,omitempty"`
}
