package bus

import (
	"sync"
	"time"
)

// DedupWindow tracks message ids seen within a bounded time window so a
// consumer can reject redelivery of the same logical event (spec.md §3,
// §8 property 4: "redelivery of e must not cause a second state mutation
// in any consumer"). Streams enforce this at the broker; this is the
// consumer-side belt-and-suspenders version for plain (non-JetStream)
// subjects and for idempotent handlers that must not trust the broker
// alone.
type DedupWindow struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
}

// NewDedupWindow creates a tracker that remembers ids for window.
func NewDedupWindow(window time.Duration) *DedupWindow {
	if window <= 0 {
		window = DedupWindowDefaultSeconds * time.Second
	}
	return &DedupWindow{window: window, seen: make(map[string]time.Time)}
}

// Seen reports whether id was already observed within the window and
// records it. First call for an id returns false (not a duplicate);
// subsequent calls within the window return true.
func (d *DedupWindow) Seen(id string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evictLocked(now)
	if ts, ok := d.seen[id]; ok && now.Sub(ts) < d.window {
		return true
	}
	d.seen[id] = now
	return false
}

func (d *DedupWindow) evictLocked(now time.Time) {
	for id, ts := range d.seen {
		if now.Sub(ts) >= d.window {
			delete(d.seen, id)
		}
	}
}

// Len returns the number of ids currently tracked; exposed for tests and
// metrics.
func (d *DedupWindow) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
