package bridge

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiki-dtmp/core/internal/metrics"
)

// TestOfferLatestWinsDropsOldestWhenFull exercises the back-pressure
// policy in isolation, without a live NATS connection: a full queue
// drops the oldest buffered payload to admit the newest, and the drop is
// counted (spec.md §4.5).
func TestOfferLatestWinsDropsOldestWhenFull(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	b := &Bridge{metrics: reg}
	pending := make(chan []byte, 1)

	b.offerLatestWins(pending, []byte("first"), "qiki.telemetry")
	b.offerLatestWins(pending, []byte("second"), "qiki.telemetry")

	require.Len(t, pending, 1)
	assert.Equal(t, "second", string(<-pending), "the newest payload must win over the stale queued one")

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.BusBackpressureDrops.WithLabelValues("qiki.telemetry")))
}
