// Package bios implements the BIOS service of spec.md §4 item 5: reads a
// static hardware profile, computes its deterministic hash, and
// publishes periodic status. HTTP surface follows the teacher's
// http.NewServeMux + typed handler pattern (internal/lidar/monitor/webserver.go,
// db/db.go's AttachAdminRoutes).
package bios

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/hwprofile"
	"github.com/qiki-dtmp/core/internal/version"
)

// Config is the static hardware description BIOS reports on, plus the
// devices it POSTs.
type Config struct {
	FirmwareVersion string
	HardwareProfile map[string]any
	HardwareManifest map[string]any
	Devices         []Device
	IntervalS       float64
}

// Device is one hardware component BIOS performs a power-on self test
// against.
type Device struct {
	ID     string
	Name   string
	Status contracts.PostStatus
	Message string
}

// Service computes and caches the hardware profile hash (spec.md §3:
// "hardware_profile_hash must agree between BIOS status and telemetry
// whenever both are emitted by the same process generation") and serves
// the current BiosStatus.
type Service struct {
	cfg       Config
	source    string
	startedAt time.Time

	mu     sync.RWMutex
	status contracts.BiosStatus
}

// NewService computes the profile hash once at construction and caches
// it for the lifetime of the process generation.
func NewService(source string, cfg Config) (*Service, error) {
	hash, err := hwprofile.Hash(cfg.HardwareProfile, cfg.HardwareManifest)
	if err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, source: source, startedAt: time.Now()}
	s.recompute(hash)
	return s, nil
}

func (s *Service) recompute(hash string) {
	var results []contracts.PostResult
	allGo := true
	for _, d := range s.cfg.Devices {
		if d.Status != contracts.PostOK {
			allGo = false
		}
		results = append(results, contracts.PostResult{
			DeviceID: d.ID, DeviceName: d.Name, Status: d.Status, StatusMessage: d.Message,
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = contracts.BiosStatus{
		EventSchemaVersion:  1,
		Source:              s.source,
		Subject:             "qiki.events.v1.bios_status",
		Timestamp:           float64(time.Now().UnixNano()) / 1e9,
		FirmwareVersion:     s.cfg.FirmwareVersion,
		AllSystemsGo:        allGo,
		PostResults:         results,
		HardwareProfileHash: hash,
		UptimeS:             time.Since(s.startedAt).Seconds(),
	}
}

// Status returns the current BiosStatus, refreshing its uptime and
// timestamp fields (the hash and POST results are static per generation).
func (s *Service) Status() contracts.BiosStatus {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	st.Timestamp = float64(time.Now().UnixNano()) / 1e9
	st.UptimeS = time.Since(s.startedAt).Seconds()
	return st
}

// SetDeviceStatus updates one device's POST result and recomputes
// all_systems_go, used by scenario tooling to inject BIOS failures
// (spec.md §8 S2: "one device reports status=3").
func (s *Service) SetDeviceStatus(deviceID string, status contracts.PostStatus, message string) {
	for i := range s.cfg.Devices {
		if s.cfg.Devices[i].ID == deviceID {
			s.cfg.Devices[i].Status = status
			s.cfg.Devices[i].Message = message
		}
	}
	s.mu.RLock()
	hash := s.status.HardwareProfileHash
	s.mu.RUnlock()
	s.recompute(hash)
}

// RegisterRoutes attaches the BIOS HTTP surface of spec.md §7:
// GET /healthz -> {ok:true}; GET /bios/status -> BiosStatus; GET /version
// -> build identity; all other paths 404.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	mux.HandleFunc("/bios/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.Status())
	})
	mux.HandleFunc("/version", version.Handler)
}
