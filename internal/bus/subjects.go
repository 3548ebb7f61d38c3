// Package bus is the QIKI_DTMP message backplane adapter: subject
// taxonomy, JetStream-style stream/consumer layout, dedup, pull consumers
// and back-pressure (spec.md §4.5). It wraps github.com/nats-io/nats.go
// the way the teacher wraps modernc.org/sqlite in internal/db — a thin
// Go-idiomatic layer the rest of the services depend on instead of the
// raw client.
package bus

// Canonical, version-prefixed subject taxonomy (spec.md §4.5). Forbidden:
// adding a v2 parallel subject while v1 exists in the same major, and
// adding a new subject to represent a value that already has a canonical
// field in telemetry (see internal/guardrails).
const (
	SubjectTelemetry       = "qiki.telemetry"
	SubjectRadarFrames     = "qiki.radar.v1.frames"
	SubjectRadarFramesLR   = "qiki.radar.v1.frames.lr"
	SubjectRadarTracks     = "qiki.radar.v1.tracks"
	SubjectRadarTracksSR   = "qiki.radar.v1.tracks.sr"
	SubjectCommandsControl = "qiki.commands.control"
	SubjectResponsesControl = "qiki.responses.control"
	SubjectIntents         = "qiki.intents"
	SubjectResponsesQiki   = "qiki.responses.qiki"
	SubjectEventsWildcard  = "qiki.events.v1.>"
	SubjectEventsAudit     = "qiki.events.v1.audit"
	SubjectEventsBios      = "qiki.events.v1.bios_status"
	SubjectGuardAlerts     = "qiki.radar.v1.guard_alerts"
	SubjectOperatorActions = "qiki.operator.actions"
)

// Stream names bound through Conn.AttachStream (spec.md §4.5).
const (
	StreamRadarV1  = "QIKI_RADAR_V1"
	StreamEventsV1 = "QIKI_EVENTS_V1"
)

// Durable consumer names (spec.md §4.5).
const (
	DurableRadarFramesPull = "radar_frames_pull"
	DurableRadarTracksPull = "radar_tracks_pull"
	DurableEventsAuditPull = "events_audit_pull"
)

// DedupWindowDefaultSeconds is the default message-id dedup window for persisted
// streams (spec.md §3: "default 120 s").
const DedupWindowDefaultSeconds = 120
