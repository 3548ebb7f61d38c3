// Package operator implements the operator-facing HTTP surface of
// spec.md §4.6: acknowledge one incident, clear one. There is no route
// that lists incidents. It
// wires internal/incident's dedup/lifecycle store to the bus, following
// the same small-struct-with-RegisterRoutes idiom as internal/bios.
package operator

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/incident"
	"github.com/qiki-dtmp/core/internal/qlog"
	"github.com/qiki-dtmp/core/internal/registrar"
	"github.com/qiki-dtmp/core/internal/version"
)

// Service binds an incident store to a registrar so lifecycle
// transitions are both persisted and published on the audit subject.
type Service struct {
	store *incident.Store
	reg   *registrar.Registrar
}

// New constructs a Service publishing incident transitions via reg.
func New(store *incident.Store, reg *registrar.Registrar) *Service {
	return &Service{store: store, reg: reg}
}

// HandleGuardAlert ingests one guard alert, persists it, and republishes
// the resulting lifecycle transition (if any) on the audit subject
// (spec.md §4.6: "the operator surface dedups... into Incidents").
func (s *Service) HandleGuardAlert(ctx context.Context, alert contracts.GuardAlert) {
	ev, err := s.store.Ingest(alert)
	if err != nil {
		qlog.Get().Warn().Err(err).Msg("operator: failed to ingest guard alert")
		return
	}
	if ev == nil {
		return
	}
	if err := s.reg.EmitIncident(ctx, alert.TsEpoch, string(ev.Transition), ev.Incident); err != nil {
		qlog.Get().Warn().Err(err).Msg("operator: failed to publish incident transition")
	}
}

// RegisterRoutes attaches the operator HTTP surface: GET /healthz,
// GET /version, and POST /incidents/ack and /incidents/clear, which act
// on one (rule_id, target_key) pair. No route lists open incidents.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/version", version.Handler)
	mux.HandleFunc("/incidents/ack", s.handleTransition(s.store.Acknowledge))
	mux.HandleFunc("/incidents/clear", s.handleTransition(s.store.Clear))
}

func (s *Service) handleTransition(fn func(ruleID, target string, tsEpoch float64) (*incident.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			RuleID    string  `json:"rule_id"`
			TargetKey string  `json:"target_key"`
			TsEpoch   float64 `json:"ts_epoch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.RuleID) == "" || strings.TrimSpace(req.TargetKey) == "" {
			http.Error(w, "rule_id and target_key are required", http.StatusBadRequest)
			return
		}
		ev, err := fn(req.RuleID, req.TargetKey, req.TsEpoch)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ev.Incident)
	}
}
