// Package registrar builds and persists the append-only audit event
// envelope of spec.md §6 to the events bus. It is the single place that
// knows how to map a qerrors.Kind and an ad-hoc WARN/INFO condition to
// the 1xx..9xx audit code classes (§6: "1xx bootstrap, 2xx sensor I/O,
// 3xx control I/O, 5xx faults, 7xx guard triggers, 9xx emergency").
package registrar

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/contracts"
)

// Registrar publishes EventEnvelopes to the audit subject.
type Registrar struct {
	conn    *bus.Conn
	source  string
	subject string
}

// New constructs a Registrar bound to one source identity (e.g. "q-sim",
// "agent").
func New(conn *bus.Conn, source, subject string) *Registrar {
	return &Registrar{conn: conn, source: source, subject: subject}
}

// Audit codes by class, one representative per class named in spec.md §6.
const (
	CodeBootstrap  = 100
	CodeSensorIO   = 200
	CodeControlIO  = 300
	CodeFault      = 500
	CodeGuardTrigger = 700
	CodeEmergency  = 900
)

// buildEnvelope assembles the event envelope; split out from Emit so the
// mapping logic is testable without a live bus connection.
func (r *Registrar) buildEnvelope(tsEpoch float64, kind, category string, severity contracts.Severity, code int, payload map[string]any) contracts.EventEnvelope {
	return contracts.EventEnvelope{
		EventSchemaVersion: 1,
		Source:             r.source,
		Subject:            r.subject,
		TsEpoch:            tsEpoch,
		Kind:               kind,
		Category:           category,
		Severity:           severity,
		Code:               code,
		Payload:            payload,
	}
}

// Emit publishes one audit event. tsEpoch, kind, category, severity, code
// and payload map directly onto spec.md §6's event envelope fields.
func (r *Registrar) Emit(ctx context.Context, tsEpoch float64, kind, category string, severity contracts.Severity, code int, payload map[string]any) error {
	env := r.buildEnvelope(tsEpoch, kind, category, severity, code, payload)
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.conn.PublishJetStream(ctx, r.subject, dedupID(env), data)
}

// EmitIncident republishes an incident-store lifecycle transition as an
// audit event, grounded on spec.md §4.6's incident_open/ack/clear/
// auto_clear kinds published on the operator audit subject.
func (r *Registrar) EmitIncident(ctx context.Context, tsEpoch float64, kind string, inc contracts.Incident) error {
	return r.Emit(ctx, tsEpoch, kind, "radar", contracts.SevWarn, CodeGuardTrigger, map[string]any{
		"rule_id":    inc.RuleID,
		"target_key": inc.TargetKey,
		"count":      inc.Count,
		"state":      inc.State,
	})
}

// dedupID derives a stable per-event id so consumers can dedup within
// the stream's window (spec.md §4.5 producer discipline): same source,
// subject, kind, and ts_epoch always yields the same id.
func dedupID(env contracts.EventEnvelope) string {
	return env.Source + "|" + env.Subject + "|" + env.Kind + "|" + strconv.FormatFloat(env.TsEpoch, 'f', -1, 64)
}
