package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/qiki-dtmp/core/internal/qerrors"
	"github.com/qiki-dtmp/core/internal/qlog"
)

// Default timeouts (spec.md §5: "default 2 s for request/response, 5 s for
// JetStream get-last").
const (
	DefaultRequestTimeout    = 2 * time.Second
	DefaultJetStreamGetLast  = 5 * time.Second
)

// Conn wraps a nats.Conn plus its JetStream context, giving the rest of
// QIKI_DTMP a small Go-idiomatic surface instead of the raw client —
// the same role internal/db.DB plays over modernc.org/sqlite in the
// teacher.
type Conn struct {
	NC *nats.Conn
	JS jetstream.JetStream
}

// Connect dials url (spec.md §6 NATS_URL) and opens a JetStream context.
func Connect(url string) (*Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("qiki-dtmp"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				qlog.Get().Warn().Err(err).Msg("bus disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			qlog.Get().Info().Msg("bus reconnected")
		}),
	)
	if err != nil {
		return nil, qerrors.New(qerrors.KindBusTransient, "bus.Connect", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, qerrors.New(qerrors.KindBusTransient, "bus.Connect.JetStream", err)
	}
	return &Conn{NC: nc, JS: js}, nil
}

// Close drains the connection, flushing in-flight publishes and
// subscriptions (spec.md §5 "graceful shutdown drains the pull consumers
// and flushes the publish side").
func (c *Conn) Close() error {
	return c.NC.Drain()
}

// Publish sends a non-persistent message on subject with a Nats-Msg-Id
// header set to id, used by stream consumers for dedup (spec.md §3/§4.5).
// Every published message must set this header; callers pass either a
// content hash or an externally-assigned ULID as id.
func (c *Conn) Publish(subject string, id string, payload []byte) error {
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set("Nats-Msg-Id", id)
	if err := c.NC.PublishMsg(msg); err != nil {
		return qerrors.New(qerrors.KindBusTransient, "bus.Publish", err)
	}
	return nil
}

// PublishJetStream sends a persisted message to a stream-bound subject,
// waiting for the broker's ack within timeout.
func (c *Conn) PublishJetStream(ctx context.Context, subject string, id string, payload []byte) error {
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set("Nats-Msg-Id", id)
	if _, err := c.JS.PublishMsg(ctx, msg); err != nil {
		return qerrors.New(qerrors.KindBusTransient, "bus.PublishJetStream", err)
	}
	return nil
}

// Subscribe registers a plain (non-durable) subscription and invokes fn
// for every message. Used for UI-facing, non-persisted subjects such as
// qiki.telemetry (spec.md §4.5).
func (c *Conn) Subscribe(subject string, fn nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.NC.Subscribe(subject, fn)
	if err != nil {
		return nil, qerrors.New(qerrors.KindBusTransient, "bus.Subscribe", err)
	}
	return sub, nil
}

// StreamSpec describes one JetStream stream binding from spec.md §4.5.
type StreamSpec struct {
	Name          string
	Subjects      []string
	MaxBytes      int64
	MaxAge        time.Duration
	DedupWindow   time.Duration
}

// AttachStream creates or updates a file-backed, discard-old stream bound
// to spec and returns once the broker has confirmed it.
func (c *Conn) AttachStream(ctx context.Context, spec StreamSpec) (jetstream.Stream, error) {
	dedup := spec.DedupWindow
	if dedup == 0 {
		dedup = DedupWindowDefaultSeconds * time.Second
	}
	cfg := jetstream.StreamConfig{
		Name:       spec.Name,
		Subjects:   spec.Subjects,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
		MaxBytes:   spec.MaxBytes,
		MaxAge:     spec.MaxAge,
		Duplicates: dedup,
	}
	str, err := c.JS.CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		return nil, qerrors.New(qerrors.KindBusTransient, fmt.Sprintf("bus.AttachStream(%s)", spec.Name), err)
	}
	return str, nil
}

// PullConsumerSpec describes one durable pull consumer from spec.md §4.5.
type PullConsumerSpec struct {
	Stream        string
	Durable       string
	FilterSubject string
	MaxAckPending int
	AckWait       time.Duration
}

// PullConsumer is a durable pull subscription; callers call Fetch in a
// loop, acking or nacking each message explicitly. This gives
// back-pressure by construction, the reason spec.md §4.5/GLOSSARY prefers
// pull consumers for heavy handlers.
type PullConsumer struct {
	consumer jetstream.Consumer
}

// AttachPullConsumer creates or binds the durable consumer described by
// spec.
func (c *Conn) AttachPullConsumer(ctx context.Context, spec PullConsumerSpec) (*PullConsumer, error) {
	maxAckPending := spec.MaxAckPending
	if maxAckPending == 0 {
		maxAckPending = 1000
	}
	ackWait := spec.AckWait
	if ackWait == 0 {
		ackWait = 30 * time.Second
	}
	cons, err := c.JS.CreateOrUpdateConsumer(ctx, spec.Stream, jetstream.ConsumerConfig{
		Durable:       spec.Durable,
		FilterSubject: spec.FilterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxAckPending: maxAckPending,
		AckWait:       ackWait,
	})
	if err != nil {
		return nil, qerrors.New(qerrors.KindBusTransient, fmt.Sprintf("bus.AttachPullConsumer(%s)", spec.Durable), err)
	}
	return &PullConsumer{consumer: cons}, nil
}

// Fetch requests up to batch messages, waiting at most maxWait. An empty
// result is not an error — callers loop and re-fetch.
func (p *PullConsumer) Fetch(batch int, maxWait time.Duration) (jetstream.MessageBatch, error) {
	msgs, err := p.consumer.Fetch(batch, jetstream.FetchMaxWait(maxWait))
	if err != nil {
		return nil, qerrors.New(qerrors.KindBusTransient, "bus.PullConsumer.Fetch", err)
	}
	return msgs, nil
}
