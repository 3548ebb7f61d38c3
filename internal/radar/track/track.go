// Package track implements the radar track store of spec.md §4.2: an
// alpha-beta filter over successive RadarFrame detections, with a
// tentative/confirmed/lost lifecycle. Modeled on the teacher's
// internal/lidar/l5tracks.Tracker (TrackState tentative/confirmed/deleted,
// predict/associate/update), narrowed from the teacher's 3-D
// cluster-association problem to range/bearing detections and swapping
// Mahalanobis gating for a simpler nearest-neighbour gate appropriate to
// the sparser radar contact picture.
package track

import (
	"math"

	"github.com/google/uuid"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// Status mirrors contracts.TrackStatus but adds the internal Tentative
// state before a track is promoted (spec.md §4.2: "new tracks require
// confirm_hits consecutive hits before being reported confirmed").
type Status string

const (
	StatusTentative Status = "tentative"
	StatusConfirmed Status = "confirmed"
	StatusLost      Status = "lost"
)

// Config tunes the association gate and lifecycle thresholds.
type Config struct {
	// Alpha/Beta are the position/velocity filter gains.
	Alpha float64
	Beta  float64
	// GateM is the maximum association distance in meters between a
	// predicted track position and a candidate detection.
	GateM float64
	// ConfirmHits is the number of consecutive associated hits required
	// to promote a tentative track to confirmed.
	ConfirmHits int
	// MaxMisses is the number of consecutive missed associations after
	// which a confirmed track is marked lost.
	MaxMisses int
	// RetireAfterMisses is the number of additional misses after Lost
	// before the track is removed from the store entirely.
	RetireAfterMisses int
}

// DefaultConfig matches the teacher's DefaultTrackerConfig calibration
// style: conservative gains, short confirm window.
func DefaultConfig() Config {
	return Config{
		Alpha:             0.6,
		Beta:              0.3,
		GateM:             50,
		ConfirmHits:       3,
		MaxMisses:         3,
		RetireAfterMisses: 10,
	}
}

// qualityWindow is the number of most recent associate/miss outcomes
// Quality averages over, so one fresh hit after a long miss streak (or
// vice versa) doesn't snap the ratio straight to 1 or 0.
const qualityWindow = 20

// Track is one tracked contact's filtered state.
type Track struct {
	ID            string
	Status        Status
	X, Y          float64 // filtered ego-relative position, meters
	VX, VY        float64 // filtered velocity, m/s
	Band          contracts.RangeBand
	TransponderID string
	Hits          int
	Misses        int

	outcomes []bool // ring of the last qualityWindow associate outcomes, true = hit
	nextSlot int
}

// recordOutcome appends one associate/miss outcome to the sliding window,
// overwriting the oldest entry once the window is full.
func (tr *Track) recordOutcome(hit bool) {
	if len(tr.outcomes) < qualityWindow {
		tr.outcomes = append(tr.outcomes, hit)
		return
	}
	tr.outcomes[tr.nextSlot] = hit
	tr.nextSlot = (tr.nextSlot + 1) % qualityWindow
}

// Quality is the hit ratio over the last qualityWindow associate outcomes,
// spec.md §4.2's track quality metric.
func (tr *Track) Quality() float64 {
	if len(tr.outcomes) == 0 {
		return 0
	}
	hits := 0
	for _, ok := range tr.outcomes {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tr.outcomes))
}

func (tr *Track) toContract(tsEpoch float64) contracts.RadarTrack {
	status := contracts.TrackTracked
	switch tr.Status {
	case StatusTentative:
		status = contracts.TrackNew
	case StatusLost:
		status = contracts.TrackLost
	}
	out := contracts.RadarTrack{
		ID:      tr.ID,
		TsEpoch: tsEpoch,
		Pose: contracts.Pose{
			Position: contracts.Vec3{X: tr.X, Y: tr.Y},
			Velocity: contracts.Vec3{X: tr.VX, Y: tr.VY},
		},
		RangeBand: tr.Band,
		Quality:   tr.Quality(),
		Status:    status,
	}
	// Identity is only ever carried on SR tracks (spec.md §4.2 property 3).
	if tr.Band == contracts.BandSR && tr.TransponderID != "" {
		out.IDPresent = true
		out.TransponderID = tr.TransponderID
	}
	return out
}

// Store is the stateful track store, one per simulated craft.
type Store struct {
	cfg    Config
	tracks map[string]*Track
}

// NewStore constructs an empty track store with the given config.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg, tracks: make(map[string]*Track)}
}

// Update runs one predict/associate/update/lifecycle cycle against the
// detections in frame, grounded on Tracker.Update's four-phase structure
// (predict existing tracks, associate detections, update matched tracks,
// spawn new tracks for unmatched detections, advance misses for
// unmatched tracks).
func (s *Store) Update(frame contracts.RadarFrame, dt float64) []contracts.RadarTrack {
	s.predict(dt)

	assigned := make(map[string]bool, len(frame.Detections))
	matchedTrack := make(map[int]*Track, len(frame.Detections))

	for i, det := range frame.Detections {
		x, y := polarToXY(det.BearingRad, det.RangeM)
		best := s.nearest(x, y, assigned)
		if best != nil {
			matchedTrack[i] = best
			assigned[best.ID] = true
		}
	}

	for i, det := range frame.Detections {
		x, y := polarToXY(det.BearingRad, det.RangeM)
		if tr, ok := matchedTrack[i]; ok {
			s.applyUpdate(tr, x, y, det.Band, det.TransponderID)
			continue
		}
		s.spawn(x, y, det.Band, det.TransponderID)
	}

	s.advanceMisses(assigned)
	s.cleanup()

	return s.Snapshot(frame.TsEpoch)
}

func (s *Store) predict(dt float64) {
	for _, tr := range s.tracks {
		tr.X += tr.VX * dt
		tr.Y += tr.VY * dt
	}
}

func (s *Store) nearest(x, y float64, assigned map[string]bool) *Track {
	var best *Track
	bestDist := s.cfg.GateM
	for _, tr := range s.tracks {
		if tr.Status == StatusLost || assigned[tr.ID] {
			continue
		}
		d := math.Hypot(tr.X-x, tr.Y-y)
		if d <= bestDist {
			bestDist = d
			best = tr
		}
	}
	return best
}

func (s *Store) applyUpdate(tr *Track, x, y float64, band contracts.RangeBand, xpdrID string) {
	innovX := x - tr.X
	innovY := y - tr.Y
	tr.X += s.cfg.Alpha * innovX
	tr.Y += s.cfg.Alpha * innovY
	tr.VX += s.cfg.Beta * innovX
	tr.VY += s.cfg.Beta * innovY
	tr.Band = band
	tr.TransponderID = xpdrID
	tr.Hits++
	tr.Misses = 0
	tr.recordOutcome(true)

	if tr.Status == StatusTentative && tr.Hits >= s.cfg.ConfirmHits {
		tr.Status = StatusConfirmed
	}
	if tr.Status == StatusLost {
		tr.Status = StatusConfirmed
	}
}

func (s *Store) spawn(x, y float64, band contracts.RangeBand, xpdrID string) {
	id := uuid.NewString()
	tr := &Track{
		ID:            id,
		Status:        StatusTentative,
		X:             x,
		Y:             y,
		Band:          band,
		TransponderID: xpdrID,
		Hits:          1,
	}
	tr.recordOutcome(true)
	s.tracks[id] = tr
}

func (s *Store) advanceMisses(assigned map[string]bool) {
	for _, tr := range s.tracks {
		if assigned[tr.ID] {
			continue
		}
		tr.Misses++
		tr.Hits = 0
		tr.recordOutcome(false)
		if tr.Status == StatusConfirmed && tr.Misses >= s.cfg.MaxMisses {
			tr.Status = StatusLost
		}
		if tr.Status == StatusTentative && tr.Misses >= 1 {
			// Unconfirmed tracks drop immediately on the first miss
			// (spec.md §4.2: tentative tracks do not survive a gap).
			delete(s.tracks, tr.ID)
		}
	}
}

func (s *Store) cleanup() {
	for id, tr := range s.tracks {
		if tr.Status == StatusLost && tr.Misses >= s.cfg.RetireAfterMisses {
			delete(s.tracks, id)
		}
	}
}

// Snapshot returns the current set of tracks as the wire contract type.
func (s *Store) Snapshot(tsEpoch float64) []contracts.RadarTrack {
	out := make([]contracts.RadarTrack, 0, len(s.tracks))
	for _, tr := range s.tracks {
		out = append(out, tr.toContract(tsEpoch))
	}
	return out
}

func polarToXY(bearingRad, rangeM float64) (float64, float64) {
	return rangeM * math.Cos(bearingRad), rangeM * math.Sin(bearingRad)
}
