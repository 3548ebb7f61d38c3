// Package fsmstore implements the process-local SSOT FSM state store of
// spec.md §4.4: a single writer, monotonically versioned, immutable
// snapshots, subscriber queues with drop-oldest back-pressure.
//
// The shape follows the teacher's internal/lidar/l5tracks.Tracker: a
// mutex-guarded struct exposing narrow Get/Set methods rather than handing
// out the internal state, plus bounded per-subscriber channels the way
// internal/lidar/visualiser.Publisher fans out frames to slow gRPC
// clients.
package fsmstore

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// ReasonColdStart is the reason on the initial snapshot written at process
// start (spec.md §4.4: "so logs never observe None").
const ReasonColdStart = "COLD_START"

// subscriberQueueDepth bounds each subscriber's channel; beyond this,
// the oldest queued snapshot is dropped (spec.md §4.4 drop-oldest policy).
const subscriberQueueDepth = 16

// Store is the single source of truth for FSM state within one process.
// The zero value is not usable; call New.
type Store struct {
	mu   sync.Mutex
	boot string

	written  bool
	version  int64
	snapshot contracts.FsmSnapshot
	fingerprint []byte
	cachedLogJSON []byte
	cachedLogVersion int64

	subs map[int]*subscriber
	nextSubID int

	// onDrop, if set, is called whenever a slow subscriber's queue drops a
	// snapshot; wired to internal/metrics in production.
	onDrop func(subID int)
}

type subscriber struct {
	ch     chan contracts.FsmSnapshot
	drops  int64
}

// New creates a Store for the given boot_id and writes the initial
// BOOTING/COLD_START snapshot (spec.md §4.4).
func New(bootID string) *Store {
	s := &Store{
		boot: bootID,
		subs: make(map[int]*subscriber),
	}
	initial := contracts.FsmSnapshot{
		State:  contracts.StateBooting,
		Reason: ReasonColdStart,
		History: []contracts.HistoryEntry{
			{State: contracts.StateBooting, Reason: ReasonColdStart},
		},
		SourceModule: "fsmstore",
	}
	// First write always succeeds and becomes version 0: the fingerprint
	// starts empty so any snapshot differs from it.
	s.setLocked(initial)
	return s
}

// BootID returns the process-scoped, constant boot id.
func (s *Store) BootID() string { return s.boot }

// Set computes a deterministic fingerprint of snapshot and stores it only
// if it differs from the currently stored fingerprint, incrementing
// version iff the bytes differ (spec.md §4.4, §8 property 2). Returns the
// resulting version regardless of whether a write occurred.
func (s *Store) Set(snapshot contracts.FsmSnapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(snapshot)
}

func (s *Store) setLocked(snapshot contracts.FsmSnapshot) (int64, error) {
	fp, err := fingerprint(snapshot)
	if err != nil {
		return s.version, err
	}
	if bytes.Equal(fp, s.fingerprint) {
		return s.version, nil
	}
	s.fingerprint = fp
	s.snapshot = snapshot.Clone()
	if s.written {
		s.version++
	}
	s.written = true
	s.cachedLogJSON = nil
	s.notifyLocked()
	return s.version, nil
}

// fingerprint returns the canonical serialized bytes used to detect a
// real change (spec.md §4.4: "computes a deterministic fingerprint
// (canonical serialization)"). encoding/json already serializes struct
// fields in declaration order and sorts map keys, which is sufficient
// determinism for a single Go binary's type.
func fingerprint(s contracts.FsmSnapshot) ([]byte, error) {
	return json.Marshal(s)
}

// View is an immutable, read-only accessor returned by Get; callers
// cannot mutate the store's internal snapshot through it because Get
// returns by value and any nested slices/maps were deep-copied on write.
type View struct {
	Snapshot contracts.FsmSnapshot
	Version  int64
	BootID   string
}

// Get returns the current snapshot, version and boot_id.
func (s *Store) Get() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{Snapshot: s.snapshot.Clone(), Version: s.version, BootID: s.boot}
}

// LogView is the cached {version, boot_id, snapshot} shape for log lines
// (spec.md §4.4 get_json_for_logs, cached per version to avoid
// reparsing).
func (s *Store) LogView() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedLogJSON != nil && s.cachedLogVersion == s.version {
		return s.cachedLogJSON, nil
	}
	out, err := json.Marshal(struct {
		Version int64                  `json:"version"`
		BootID  string                 `json:"boot_id"`
		Snapshot contracts.FsmSnapshot `json:"snapshot"`
	}{Version: s.version, BootID: s.boot, Snapshot: s.snapshot})
	if err != nil {
		return nil, err
	}
	s.cachedLogJSON = out
	s.cachedLogVersion = s.version
	return out, nil
}

// Subscribe registers a queue that immediately receives the current
// snapshot, then every subsequent change (spec.md §4.4). Callers must
// drain the returned channel; the Unsubscribe func must be called to
// release resources.
func (s *Store) Subscribe() (<-chan contracts.FsmSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	sub := &subscriber{ch: make(chan contracts.FsmSnapshot, subscriberQueueDepth)}
	s.subs[id] = sub
	sub.ch <- s.snapshot.Clone()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.subs[id]; ok {
			close(existing.ch)
			delete(s.subs, id)
		}
	}
	return sub.ch, unsubscribe
}

// notifyLocked enqueues the current snapshot to every subscriber,
// applying drop-oldest back-pressure when a queue is full (spec.md §4.4).
func (s *Store) notifyLocked() {
	for id, sub := range s.subs {
		select {
		case sub.ch <- s.snapshot.Clone():
		default:
			// Drop the oldest queued snapshot to make room, matching the
			// spec's drop-oldest policy, then enqueue the latest.
			select {
			case <-sub.ch:
				sub.drops++
				if s.onDrop != nil {
					s.onDrop(id)
				}
			default:
			}
			select {
			case sub.ch <- s.snapshot.Clone():
			default:
			}
		}
	}
}

// OnDrop installs a callback invoked whenever a subscriber's queue drops
// a snapshot, so callers can export a metric (spec.md §4.4: "their drop
// count is exposed as a metric").
func (s *Store) OnDrop(fn func(subID int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDrop = fn
}

// Drops returns the total drop count across all current subscribers.
func (s *Store) Drops() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, sub := range s.subs {
		total += sub.drops
	}
	return total
}
