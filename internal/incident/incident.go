// Package incident implements the operator incident store of spec.md
// §4.6: guard alerts and selected audit events are deduplicated into
// Incidents keyed by (rule_id, target_key), with an open/acked/cleared
// lifecycle and an absence-window auto-clear. Persistence and the admin
// surface follow the teacher's db.DB: a *sql.DB over modernc.org/sqlite
// plus tailscale/tailsql for live SQL debugging and a VACUUM INTO backup
// route (db/db.go's AttachAdminRoutes).
package incident

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// AbsenceWindowDefault is spec.md §4.6's "default 5 min without new
// alerts" auto-clear threshold.
const AbsenceWindowDefault = 5 * time.Minute

type key struct {
	ruleID, target string
}

// Store holds the in-memory dedup map plus a sqlite-backed log of
// incident lifecycle transitions, mirroring the teacher's split between
// a fast in-process structure (l5tracks.Tracker's map) and the
// persisted record (db.DB).
type Store struct {
	db             *sql.DB
	absenceWindow  time.Duration

	mu        sync.Mutex
	open      map[key]*contracts.Incident
}

// Opened/Acked/Cleared/AutoCleared are the four incident lifecycle
// transitions a caller may need to publish on the operator audit
// subject (spec.md §4.6).
type Transition string

const (
	Opened      Transition = "incident_open"
	Acked       Transition = "incident_ack"
	Cleared     Transition = "incident_clear"
	AutoCleared Transition = "incident_auto_clear"
)

// Event bundles a transition with the incident it happened to, so a
// caller can both persist and publish it in one step.
type Event struct {
	Transition Transition
	Incident   contracts.Incident
}

// NewStore opens (creating if needed) the sqlite incident log at path.
func NewStore(path string, absenceWindow time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("incident: open db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS incidents (
			rule_id TEXT NOT NULL,
			target_key TEXT NOT NULL,
			severity TEXT,
			first_seen_ts DOUBLE,
			last_seen_ts DOUBLE,
			count INTEGER,
			state TEXT,
			PRIMARY KEY (rule_id, target_key)
		);
		CREATE TABLE IF NOT EXISTS incident_events (
			event_id INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_id TEXT,
			target_key TEXT,
			transition TEXT,
			ts DOUBLE
		);
	`); err != nil {
		return nil, fmt.Errorf("incident: migrate: %w", err)
	}
	if absenceWindow <= 0 {
		absenceWindow = AbsenceWindowDefault
	}
	return &Store{db: db, absenceWindow: absenceWindow, open: make(map[key]*contracts.Incident)}, nil
}

// Ingest processes one guard alert against the dedup map (spec.md §4.6):
// a new (rule_id, target) key opens an incident; a repeat within the
// coalesce window increments count and updates last_seen_ts without
// re-publishing.
func (s *Store) Ingest(alert contracts.GuardAlert) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{ruleID: alert.RuleID, target: alert.TargetTrackID}
	if existing, ok := s.open[k]; ok {
		existing.LastSeenTs = alert.TsEpoch
		existing.Count++
		if err := s.persist(*existing); err != nil {
			return nil, err
		}
		return nil, nil
	}

	inc := &contracts.Incident{
		RuleID:      alert.RuleID,
		TargetKey:   alert.TargetTrackID,
		Severity:    alert.Severity,
		FirstSeenTs: alert.TsEpoch,
		LastSeenTs:  alert.TsEpoch,
		Count:       1,
		State:       contracts.IncidentOpen,
	}
	s.open[k] = inc
	if err := s.persist(*inc); err != nil {
		return nil, err
	}
	if err := s.logEvent(k, Opened, alert.TsEpoch); err != nil {
		return nil, err
	}
	return &Event{Transition: Opened, Incident: *inc}, nil
}

// Acknowledge transitions an open incident to acked (spec.md §4.6:
// "Operator actions... transition open -> acked").
func (s *Store) Acknowledge(ruleID, target string, tsEpoch float64) (*Event, error) {
	return s.transition(ruleID, target, contracts.IncidentOpen, contracts.IncidentAcked, Acked, tsEpoch)
}

// Clear transitions an acked incident to cleared.
func (s *Store) Clear(ruleID, target string, tsEpoch float64) (*Event, error) {
	return s.transition(ruleID, target, contracts.IncidentAcked, contracts.IncidentCleared, Cleared, tsEpoch)
}

func (s *Store) transition(ruleID, target string, from, to contracts.IncidentState, t Transition, tsEpoch float64) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{ruleID: ruleID, target: target}
	inc, ok := s.open[k]
	if !ok || inc.State != from {
		return nil, fmt.Errorf("incident: no %s incident for (%s,%s)", from, ruleID, target)
	}
	inc.State = to
	inc.LastSeenTs = tsEpoch
	if err := s.persist(*inc); err != nil {
		return nil, err
	}
	if err := s.logEvent(k, t, tsEpoch); err != nil {
		return nil, err
	}
	if to == contracts.IncidentCleared {
		delete(s.open, k)
	}
	return &Event{Transition: t, Incident: *inc}, nil
}

// SweepAutoClear scans open/acked incidents for those whose last_seen_ts
// is older than the absence window and auto-clears them (spec.md §4.6:
// "Auto-clear after an absence window... cleared and incident_auto_clear
// emitted").
func (s *Store) SweepAutoClear(nowEpoch float64) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []Event
	for k, inc := range s.open {
		if inc.State == contracts.IncidentCleared {
			continue
		}
		age := time.Duration((nowEpoch - inc.LastSeenTs) * float64(time.Second))
		if age < s.absenceWindow {
			continue
		}
		inc.State = contracts.IncidentCleared
		if err := s.persist(*inc); err != nil {
			return nil, err
		}
		if err := s.logEvent(k, AutoCleared, nowEpoch); err != nil {
			return nil, err
		}
		events = append(events, Event{Transition: AutoCleared, Incident: *inc})
		delete(s.open, k)
	}
	return events, nil
}

func (s *Store) persist(inc contracts.Incident) error {
	_, err := s.db.Exec(`
		INSERT INTO incidents (rule_id, target_key, severity, first_seen_ts, last_seen_ts, count, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rule_id, target_key) DO UPDATE SET
			severity=excluded.severity, last_seen_ts=excluded.last_seen_ts,
			count=excluded.count, state=excluded.state
	`, inc.RuleID, inc.TargetKey, inc.Severity, inc.FirstSeenTs, inc.LastSeenTs, inc.Count, inc.State)
	return err
}

func (s *Store) logEvent(k key, t Transition, tsEpoch float64) error {
	_, err := s.db.Exec(`INSERT INTO incident_events (rule_id, target_key, transition, ts) VALUES (?, ?, ?, ?)`,
		k.ruleID, k.target, string(t), tsEpoch)
	return err
}

// AttachAdminRoutes mounts a tailsql live-SQL debug console plus a
// VACUUM INTO backup route, exactly the operator surface the teacher's
// db.DB.AttachAdminRoutes provides for the radar database.
func (s *Store) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{RoutePrefix: "/debug/tailsql/"})
	if err != nil {
		log.Fatalf("incident: failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://incidents.db", s.db, &tailsql.DBOptions{Label: "Incident DB"})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the incident database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("incidents-backup-%d.db", time.Now().Unix())
		if _, err := s.db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer os.Remove(backupPath)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, backupPath)
	}))
}
