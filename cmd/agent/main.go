// Command agent runs q-agent, the tick orchestrator of spec.md §4.3/§4.4:
// one process, one FSM store, one writer, five phases per tick
// (update_context, handle_bios, handle_fsm, evaluate_proposals,
// make_decision). Bootstrap follows the same flag/signal/NATS-connect
// idiom as cmd/sim and cmd/bios.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qiki-dtmp/core/internal/agent"
	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/fsmstore"
	"github.com/qiki-dtmp/core/internal/guardrails"
	"github.com/qiki-dtmp/core/internal/metrics"
	"github.com/qiki-dtmp/core/internal/qlog"
	"github.com/qiki-dtmp/core/internal/version"
)

var (
	natsURL  = flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	httpAddr = flag.String("http-addr", ":8083", "listen address for /metrics and /fsm")
	source   = flag.String("source", "q-agent", "source_module stamped on published decisions and proposals")
)

func main() {
	flag.Parse()

	conn, err := bus.Connect(*natsURL)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-agent: failed to connect to NATS")
	}
	defer conn.Close()

	reg := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(reg)

	bootID, err := contracts.NewBootID()
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-agent: failed to generate boot id")
	}
	store := fsmstore.New(bootID)
	store.OnDrop(func(subID int) {
		metricsReg.FsmSubscriberDrops.Inc()
		qlog.Get().Warn().Int("sub_id", subID).Msg("q-agent: fsm subscriber dropped a snapshot")
	})

	provider := agent.NewBusDataProvider(store)
	if err := provider.Subscribe(conn); err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-agent: failed to subscribe data provider")
	}

	decider := agent.NewBusDecider(conn, *source)
	engines := []agent.Engine{agent.NewGuardAlertEngine(*source)}

	writerGuard := &guardrails.FsmWriterGuard{}
	orchestrator, err := agent.NewOrchestrator(writerGuard, store, provider, engines, decider)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-agent: failed to claim fsm writer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/fsm", func(w http.ResponseWriter, r *http.Request) {
		data, err := store.LogView()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/version", version.Handler)

	httpServer := &http.Server{Addr: *httpAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			qlog.Get().Warn().Err(err).Msg("q-agent: http server stopped")
		}
	}()

	qlog.Get().Info().Str("boot_id", store.BootID()).Str("http_addr", *httpAddr).Msg("q-agent: started")
	orchestrator.Run(ctx)

	_ = httpServer.Close()
	qlog.Get().Info().Msg("q-agent: shutdown complete")
}
