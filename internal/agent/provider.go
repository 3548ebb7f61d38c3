package agent

import (
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/fsmstore"
)

// BusDataProvider implements DataProvider over live bus subscriptions,
// caching the latest BIOS status and telemetry snapshot and queuing
// guard alerts until the next update_context call drains them (spec.md
// §4.3 step 1: "update_context pulls the latest BIOS status, telemetry,
// and any new guard alerts").
type BusDataProvider struct {
	store *fsmstore.Store

	mu            sync.Mutex
	bios          contracts.BiosStatus
	hasBios       bool
	telemetry     contracts.TelemetrySnapshot
	hasTelemetry  bool
	pendingAlerts []contracts.GuardAlert
}

var _ DataProvider = (*BusDataProvider)(nil)

// NewBusDataProvider constructs a provider reading FSM state from store.
func NewBusDataProvider(store *fsmstore.Store) *BusDataProvider {
	return &BusDataProvider{store: store}
}

// Subscribe attaches the provider to the bus subjects it caches from.
// Call once, before starting the orchestrator.
func (p *BusDataProvider) Subscribe(conn *bus.Conn) error {
	if _, err := conn.Subscribe(bus.SubjectEventsBios, p.handleBios); err != nil {
		return err
	}
	if _, err := conn.Subscribe(bus.SubjectTelemetry, p.handleTelemetry); err != nil {
		return err
	}
	if _, err := conn.Subscribe(bus.SubjectGuardAlerts, p.handleGuardAlert); err != nil {
		return err
	}
	return nil
}

func (p *BusDataProvider) FsmState() contracts.FsmState {
	return p.store.Get().Snapshot.State
}

func (p *BusDataProvider) Bios() (contracts.BiosStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bios, p.hasBios
}

func (p *BusDataProvider) Telemetry() (contracts.TelemetrySnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.telemetry, p.hasTelemetry
}

// GuardAlerts returns and clears every alert queued since the last call,
// so each alert is handed to exactly one tick.
func (p *BusDataProvider) GuardAlerts() []contracts.GuardAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	alerts := p.pendingAlerts
	p.pendingAlerts = nil
	return alerts
}

func (p *BusDataProvider) handleBios(msg *nats.Msg) {
	var status contracts.BiosStatus
	if err := json.Unmarshal(msg.Data, &status); err != nil {
		return
	}
	p.mu.Lock()
	p.bios = status
	p.hasBios = true
	p.mu.Unlock()
}

func (p *BusDataProvider) handleTelemetry(msg *nats.Msg) {
	var snap contracts.TelemetrySnapshot
	if err := json.Unmarshal(msg.Data, &snap); err != nil {
		return
	}
	p.mu.Lock()
	p.telemetry = snap
	p.hasTelemetry = true
	p.mu.Unlock()
}

func (p *BusDataProvider) handleGuardAlert(msg *nats.Msg) {
	var alert contracts.GuardAlert
	if err := json.Unmarshal(msg.Data, &alert); err != nil {
		return
	}
	p.mu.Lock()
	p.pendingAlerts = append(p.pendingAlerts, alert)
	p.mu.Unlock()
}
