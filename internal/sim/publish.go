package sim

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/guard"
	"github.com/qiki-dtmp/core/internal/registrar"
)

// BusPublisher implements Publisher over a live bus connection, fanning
// one TickOutput out to the subjects of spec.md §5: telemetry
// (non-persisted, latest-wins), radar frames/tracks (persisted union plus
// filtered LR/SR subjects), guard alerts (persisted), and edge events
// republished through the registrar as audit events.
type BusPublisher struct {
	conn   *bus.Conn
	reg    *registrar.Registrar
	latest *LatestCache
}

// NewBusPublisher constructs a BusPublisher. reg is used to translate
// edge events and guard alerts into the audit event envelope. latest may
// be nil; if set, every published tick is also cached there for the
// simrpc point-probe surface to read.
func NewBusPublisher(conn *bus.Conn, reg *registrar.Registrar, latest *LatestCache) *BusPublisher {
	return &BusPublisher{conn: conn, reg: reg, latest: latest}
}

// Publish sends one tick's output to the bus. Telemetry, radar frame and
// radar track publish failures are returned, so they count toward
// Runner's SAFE mode; a telemetry failure also skips the radar publishes.
// Guard-alert and edge (audit) publish errors are discarded and never
// reach the Runner.
func (p *BusPublisher) Publish(out TickOutput) error {
	ctx := context.Background()

	if p.latest != nil {
		p.latest.Set(out)
	}

	telemetryJSON, err := json.Marshal(out.Telemetry)
	if err != nil {
		return fmt.Errorf("sim: marshal telemetry: %w", err)
	}
	dedupID := fmt.Sprintf("telemetry|%d", out.Telemetry.MonotonicNs)
	if err := p.conn.Publish(bus.SubjectTelemetry, dedupID, telemetryJSON); err != nil {
		return err
	}

	if err := p.publishFrame(ctx, out.RadarFrame); err != nil {
		return err
	}
	if err := p.publishTracks(ctx, out.Tracks, out.Telemetry.TsEpoch); err != nil {
		return err
	}
	for _, alert := range out.GuardAlerts {
		p.publishGuardAlert(ctx, alert)
	}
	for _, edge := range out.Edges {
		p.publishEdge(ctx, edge)
	}
	return nil
}

func (p *BusPublisher) publishFrame(ctx context.Context, frame contracts.RadarFrame) error {
	full, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("sim: marshal radar frame: %w", err)
	}
	id := fmt.Sprintf("frame|%d", frame.MonotonicNs)
	if err := p.conn.PublishJetStream(ctx, bus.SubjectRadarFrames, id, full); err != nil {
		return err
	}

	lr := filterLRFrame(frame)
	if len(lr.Detections) == 0 {
		return nil
	}
	lrJSON, err := json.Marshal(lr)
	if err != nil {
		return fmt.Errorf("sim: marshal LR radar frame: %w", err)
	}
	return p.conn.PublishJetStream(ctx, bus.SubjectRadarFramesLR, id+"|lr", lrJSON)
}

func (p *BusPublisher) publishTracks(ctx context.Context, tracks []contracts.RadarTrack, tsEpoch float64) error {
	full, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("sim: marshal radar tracks: %w", err)
	}
	id := fmt.Sprintf("tracks|%v", tsEpoch)
	if err := p.conn.PublishJetStream(ctx, bus.SubjectRadarTracks, id, full); err != nil {
		return err
	}

	sr := filterSRTracks(tracks)
	if len(sr) == 0 {
		return nil
	}
	srJSON, err := json.Marshal(sr)
	if err != nil {
		return fmt.Errorf("sim: marshal SR radar tracks: %w", err)
	}
	return p.conn.PublishJetStream(ctx, bus.SubjectRadarTracksSR, id+"|sr", srJSON)
}

func (p *BusPublisher) publishGuardAlert(ctx context.Context, alert guard.Alert) {
	wire := contracts.GuardAlert{
		Category:      "radar",
		Kind:          "guard_alert",
		RuleID:        alert.RuleID,
		Severity:      alert.Severity,
		TargetTrackID: alert.TargetTrackID,
		TsEpoch:       alert.TsEpoch,
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return
	}
	id := fmt.Sprintf("guard_alert|%s|%s|%v", alert.RuleID, alert.TargetTrackID, alert.TsEpoch)
	_ = p.conn.PublishJetStream(ctx, bus.SubjectGuardAlerts, id, payload)
	if p.reg != nil {
		_ = p.reg.Emit(ctx, alert.TsEpoch, "guard_alert", "radar", contracts.SevWarn, registrar.CodeGuardTrigger, map[string]any{
			"rule_id":         alert.RuleID,
			"target_track_id": alert.TargetTrackID,
		})
	}
}

// filterLRFrame returns a copy of frame containing only its LR-band
// detections, for republish on qiki.radar.v1.frames.lr.
func filterLRFrame(frame contracts.RadarFrame) contracts.RadarFrame {
	lr := frame
	lr.Detections = nil
	for _, d := range frame.Detections {
		if d.Band == contracts.BandLR {
			lr.Detections = append(lr.Detections, d)
		}
	}
	return lr
}

// filterSRTracks returns only the SR-band tracks, for republish on
// qiki.radar.v1.tracks.sr.
func filterSRTracks(tracks []contracts.RadarTrack) []contracts.RadarTrack {
	var sr []contracts.RadarTrack
	for _, t := range tracks {
		if t.RangeBand == contracts.BandSR {
			sr = append(sr, t)
		}
	}
	return sr
}

func (p *BusPublisher) publishEdge(ctx context.Context, edge Edge) {
	if p.reg == nil {
		return
	}
	_ = p.reg.Emit(ctx, edge.TsEpoch, string(edge.Kind), "sim", contracts.SevInfo, registrar.CodeSensorIO, map[string]any{
		"detail": edge.Detail,
	})
}
