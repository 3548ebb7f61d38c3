// Package radarscene generates the synthetic RadarFrame published once per
// radar tick by the simulation (spec.md §4.1 step 4). Contacts are
// injected by cmd/sim's default scene and by tests, and are
// stepped forward kinematically each tick; the frame generator's job is
// strictly the geometry -> Detection projection and the LR/SR band split,
// modeled on the teacher's internal/lidar/l2frames.FrameBuilder which
// turns raw packet geometry into one Frame per tick.
package radarscene

import (
	"math"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// Contact is one simulated object in the scene; the generator advances
// its kinematics by dt and projects it into ego-relative polar
// coordinates each tick.
type Contact struct {
	ID              string
	Position        contracts.Vec3
	Velocity        contracts.Vec3
	TransponderMode contracts.XpdrMode
	TransponderID   string
	SNR             float64
}

// Scene holds the ego pose and the set of contacts to render into frames.
type Scene struct {
	Ego            contracts.Pose
	Contacts       []Contact
	// SRThresholdM classifies a detection LR when range exceeds this
	// value, SR otherwise (spec.md §4.2: "range_band of LR (range >
	// sr_threshold_m) or SR").
	SRThresholdM float64
}

// Step advances every contact's position by dt seconds (straight-line
// kinematics) and returns the resulting frame.
func (s *Scene) Step(dt float64, tsEpoch float64, monotonicNs int64) contracts.RadarFrame {
	frame := contracts.RadarFrame{
		TsEpoch:     tsEpoch,
		MonotonicNs: monotonicNs,
		Ego:         s.Ego,
	}

	for i := range s.Contacts {
		c := &s.Contacts[i]
		c.Position.X += c.Velocity.X * dt
		c.Position.Y += c.Velocity.Y * dt
		c.Position.Z += c.Velocity.Z * dt

		dx := c.Position.X - s.Ego.Position.X
		dy := c.Position.Y - s.Ego.Position.Y
		dz := c.Position.Z - s.Ego.Position.Z
		rangeM := math.Sqrt(dx*dx + dy*dy + dz*dz)
		bearing := math.Atan2(dy, dx)
		elevation := math.Atan2(dz, math.Hypot(dx, dy))

		band := contracts.BandLR
		if rangeM <= s.SRThresholdM {
			band = contracts.BandSR
		}

		det := contracts.Detection{
			BearingRad:   bearing,
			ElevationRad: elevation,
			RangeM:       rangeM,
			SNR:          c.SNR,
			Band:         band,
		}
		// Strip identity from LR detections unconditionally (spec.md §4.2
		// "Validators strip identity from LR detections"; §8 property 3).
		if band == contracts.BandSR && c.TransponderMode != contracts.XpdrOff && c.TransponderMode != contracts.XpdrSilent {
			det.TransponderID = c.TransponderID
		}
		frame.Detections = append(frame.Detections, det)
	}
	return frame
}
