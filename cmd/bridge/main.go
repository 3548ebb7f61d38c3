// Command bridge runs q-bridge, the UI-facing fan-out of spec.md §4.5:
// it pulls from the persisted JetStream streams and forwards core
// pub/sub telemetry, republishing both over websocket to any connected
// UI client. Bootstrap follows the teacher's cmd/radar/radar.go main
// loop: flags, signal-driven shutdown, one goroutine per subsystem.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qiki-dtmp/core/internal/bridge"
	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/metrics"
	"github.com/qiki-dtmp/core/internal/qlog"
	"github.com/qiki-dtmp/core/internal/version"
)

var (
	natsURL  = flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	httpAddr = flag.String("http-addr", ":8082", "listen address for /ws and /metrics")
)

func main() {
	flag.Parse()

	conn, err := bus.Connect(*natsURL)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-bridge: failed to connect to NATS")
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(reg)
	sink := bridge.NewWSSink()
	br := bridge.New(conn, sink, metricsReg)

	routes := []bridge.Route{
		{
			Consumer:   bus.PullConsumerSpec{Stream: bus.StreamRadarV1, Durable: bus.DurableRadarFramesPull, FilterSubject: bus.SubjectRadarFrames},
			PublishAs:  bus.SubjectRadarFrames,
			UIFacing:   true,
			QueueDepth: 4,
		},
		{
			Consumer:   bus.PullConsumerSpec{Stream: bus.StreamRadarV1, Durable: bus.DurableRadarTracksPull, FilterSubject: bus.SubjectRadarTracks},
			PublishAs:  bus.SubjectRadarTracks,
			UIFacing:   true,
			QueueDepth: 4,
		},
		{
			Consumer:  bus.PullConsumerSpec{Stream: bus.StreamEventsV1, Durable: bus.DurableEventsAuditPull, FilterSubject: bus.SubjectEventsAudit},
			PublishAs: bus.SubjectEventsAudit,
			UIFacing:  false,
		},
	}

	go func() {
		if err := br.Run(ctx, routes); err != nil {
			qlog.Get().Fatal().Err(err).Msg("q-bridge: bridge run failed")
		}
	}()

	go forwardTelemetry(ctx, conn, sink)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", sink.HandleWS)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/version", version.Handler)

	httpServer := &http.Server{Addr: *httpAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			qlog.Get().Warn().Err(err).Msg("q-bridge: http server stopped")
		}
	}()

	qlog.Get().Info().Str("http_addr", *httpAddr).Msg("q-bridge: started")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	qlog.Get().Info().Msg("q-bridge: shutdown complete")
}

// forwardTelemetry subscribes to the non-persisted telemetry subject
// (core NATS pub/sub, not a JetStream route) and forwards every message
// straight to sink, since telemetry's own "latest wins" semantics come
// from core NATS's slow-consumer handling rather than bridge's pull
// consumer back-pressure.
func forwardTelemetry(ctx context.Context, conn *bus.Conn, sink *bridge.WSSink) {
	sub, err := conn.Subscribe(bus.SubjectTelemetry, func(msg *nats.Msg) {
		sink.Publish(bus.SubjectTelemetry, msg.Data)
	})
	if err != nil {
		qlog.Get().Warn().Err(err).Msg("q-bridge: failed to subscribe to telemetry")
		return
	}
	<-ctx.Done()
	_ = sub.Unsubscribe()
}
