// Package metrics exports the Prometheus counters/gauges referenced
// throughout spec.md as "exposed as a metric": FSM subscriber drops
// (§4.4), bus dedup/back-pressure drops (§4.5), and tick overruns
// (§4.3/§4.1 glossary TickOverrun). Grounded on the rest of the example
// pack's use of github.com/prometheus/client_golang for process metrics,
// since the teacher itself carries no metrics dependency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every counter/gauge a QIKI_DTMP process exports.
type Registry struct {
	FsmSubscriberDrops prometheus.Counter
	BusDedupRejects    *prometheus.CounterVec
	BusBackpressureDrops *prometheus.CounterVec
	TickOverruns       *prometheus.CounterVec
	TickDuration       *prometheus.HistogramVec
}

// NewRegistry constructs and registers every metric against reg (pass
// prometheus.NewRegistry() in tests to avoid the global default
// registry's duplicate-registration panics across test runs).
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		FsmSubscriberDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "qiki", Subsystem: "fsmstore", Name: "subscriber_drops_total",
			Help: "Snapshots dropped from a slow FSM store subscriber queue.",
		}),
		BusDedupRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qiki", Subsystem: "bus", Name: "dedup_rejects_total",
			Help: "Messages rejected by the dedup window, by subject.",
		}, []string{"subject"}),
		BusBackpressureDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qiki", Subsystem: "bus", Name: "backpressure_drops_total",
			Help: "Messages dropped under the bridge's latest-wins back-pressure policy, by subject.",
		}, []string{"subject"}),
		TickOverruns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qiki", Subsystem: "tick", Name: "overruns_total",
			Help: "Ticks that exceeded their budget, by component.",
		}, []string{"component"}),
		TickDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qiki", Subsystem: "tick", Name: "duration_seconds",
			Help:    "Tick processing duration, by component.",
			Buckets: prometheus.DefBuckets,
		}, []string{"component"}),
	}
}
