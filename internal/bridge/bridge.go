// Package bridge translates between the durable JetStream pull
// consumers of internal/bus and plain pub/sub fan-out for UI clients
// (spec.md §4.5). It applies a latest-wins back-pressure policy only to
// routes marked UIFacing (in cmd/bridge: the radar frame and track
// streams), never to event routes such as audit, and counts every drop.
package bridge

import (
	"context"
	"time"

	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/metrics"
	"github.com/qiki-dtmp/core/internal/qlog"
)

// Sink receives the re-published payload for one subject. UI transports
// (websocket fan-out, SSE) implement this.
type Sink interface {
	Publish(subject string, payload []byte)
}

// Route binds one durable pull consumer to a re-published subject.
// UIFacing marks subjects eligible for the latest-wins drop policy
// (spec.md §4.5: "only on UI-facing subjects (telemetry), never on
// persisted events").
type Route struct {
	Consumer     bus.PullConsumerSpec
	PublishAs    string
	UIFacing     bool
	QueueDepth   int // buffered channel depth before latest-wins applies; UIFacing only
}

// Bridge runs one goroutine per Route, fetching from its pull consumer
// and handing payloads to Sink.
type Bridge struct {
	conn    *bus.Conn
	sink    Sink
	metrics *metrics.Registry
}

// New constructs a Bridge over an established bus connection.
func New(conn *bus.Conn, sink Sink, reg *metrics.Registry) *Bridge {
	return &Bridge{conn: conn, sink: sink, metrics: reg}
}

// Run attaches every route's pull consumer and fetches from it until ctx
// is cancelled. UI-facing routes drop an in-flight payload rather than
// block the sink when the sink is slow; persisted-event routes never
// drop (the pull consumer's own MaxAckPending is the only back-pressure).
func (b *Bridge) Run(ctx context.Context, routes []Route) error {
	for _, route := range routes {
		route := route
		consumer, err := b.conn.AttachPullConsumer(ctx, route.Consumer)
		if err != nil {
			return err
		}
		go b.pump(ctx, consumer, route)
	}
	<-ctx.Done()
	return nil
}

func (b *Bridge) pump(ctx context.Context, consumer *bus.PullConsumer, route Route) {
	depth := route.QueueDepth
	if depth <= 0 {
		depth = 1
	}
	var pending chan []byte
	if route.UIFacing {
		pending = make(chan []byte, depth)
		go b.drain(ctx, pending, route.PublishAs)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch, err := consumer.Fetch(32, 2*time.Second)
		if err != nil {
			qlog.Get().Warn().Err(err).Str("route", route.PublishAs).Msg("bridge: fetch failed")
			continue
		}
		for msg := range batch.Messages() {
			payload := msg.Data()
			if route.UIFacing {
				b.offerLatestWins(pending, payload, route.PublishAs)
			} else {
				b.sink.Publish(route.PublishAs, payload)
			}
			msg.Ack()
		}
	}
}

// offerLatestWins implements spec.md §4.5's latest-wins policy: if the
// UI-facing queue is full, the oldest buffered payload is discarded (and
// counted) to make room for the newest.
func (b *Bridge) offerLatestWins(pending chan []byte, payload []byte, subject string) {
	select {
	case pending <- payload:
		return
	default:
	}
	select {
	case <-pending:
		if b.metrics != nil {
			b.metrics.BusBackpressureDrops.WithLabelValues(subject).Inc()
		}
	default:
	}
	select {
	case pending <- payload:
	default:
	}
}

func (b *Bridge) drain(ctx context.Context, pending <-chan []byte, subject string) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-pending:
			b.sink.Publish(subject, payload)
		}
	}
}
