package contracts

// RangeBand classifies a radar detection or track by distance: long-range
// detections carry no identity, short-range detections may.
type RangeBand string

const (
	BandLR RangeBand = "LR"
	BandSR RangeBand = "SR"
)

// Pose is the ego or track position/velocity/attitude used across the
// radar pipeline.
type Pose struct {
	Position Vec3 `json:"position"`
	Velocity Vec3 `json:"velocity"`
	EulerRad Vec3 `json:"euler_rad"`
	OmegaRadS Vec3 `json:"omega_rad_s"`
}

// Detection is a single per-frame radar return.
type Detection struct {
	BearingRad  float64   `json:"bearing_rad"`
	ElevationRad float64  `json:"elevation_rad"`
	RangeM      float64   `json:"range_m"`
	SNR         float64   `json:"snr"`
	Band        RangeBand `json:"band"`
	// TransponderID is only ever set on SR detections;
	// invariant enforced by the frame generator (spec.md §4.2, property 3).
	TransponderID string `json:"transponder_id,omitempty"`
}

// RadarFrame is one radar-tick's worth of detections, published before
// track association (spec.md §3).
type RadarFrame struct {
	TsEpoch    float64     `json:"ts_epoch"`
	MonotonicNs int64      `json:"monotonic_ns"`
	Ego        Pose        `json:"ego"`
	Detections []Detection `json:"detections"`
}

// TrackStatus is the lifecycle state of a radar track.
type TrackStatus string

const (
	TrackNew     TrackStatus = "NEW"
	TrackTracked TrackStatus = "TRACKED"
	TrackLost    TrackStatus = "LOST"
)

// RadarTrack is the track store's published view of one tracked object.
type RadarTrack struct {
	ID              string      `json:"id"`
	TsEpoch         float64     `json:"ts_epoch"`
	Pose            Pose        `json:"pose"`
	RangeBand       RangeBand   `json:"range_band"`
	TransponderMode XpdrMode    `json:"transponder_mode,omitempty"`
	IDPresent       bool        `json:"id_present"`
	TransponderID   string      `json:"transponder_id,omitempty"`
	Quality         float64     `json:"quality"`
	Status          TrackStatus `json:"status"`
}
