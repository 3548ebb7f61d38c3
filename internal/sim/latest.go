package sim

import "sync"

// LatestCache holds the most recent TickOutput, following the same
// latest-wins idea as bridge's back-pressure policy: RPC point-probes
// (spec.md §5: "RPC exists for point probes") want the freshest state,
// not a queue of history.
type LatestCache struct {
	mu  sync.RWMutex
	out TickOutput
	set bool
}

// NewLatestCache returns an empty cache.
func NewLatestCache() *LatestCache {
	return &LatestCache{}
}

// Set stores out as the latest tick output.
func (c *LatestCache) Set(out TickOutput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = out
	c.set = true
}

// Get returns the latest tick output and whether one has been set yet.
func (c *LatestCache) Get() (TickOutput, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.out, c.set
}
