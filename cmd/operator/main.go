// Command operator runs q-operator, the incident lifecycle service of
// spec.md §4.6: it subscribes to guard alerts, dedups them into
// Incidents, serves the ack/clear HTTP surface, and sweeps for
// auto-clear on an absence window. Bootstrap follows the same
// flag/signal/NATS-connect idiom as cmd/sim and cmd/bios.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/incident"
	"github.com/qiki-dtmp/core/internal/operator"
	"github.com/qiki-dtmp/core/internal/qlog"
	"github.com/qiki-dtmp/core/internal/registrar"
)

var (
	natsURL       = flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	httpAddr      = flag.String("http-addr", ":8084", "listen address for the operator HTTP surface")
	dbPath        = flag.String("db", "incidents.db", "path to the incident sqlite database")
	absenceWindow = flag.Duration("absence-window", incident.AbsenceWindowDefault, "auto-clear an incident after this long without a new alert")
	sweepPeriod   = flag.Duration("sweep-period", 30*time.Second, "how often to scan for auto-clear")
)

func main() {
	flag.Parse()

	store, err := incident.NewStore(*dbPath, *absenceWindow)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-operator: failed to open incident store")
	}

	conn, err := bus.Connect(*natsURL)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-operator: failed to connect to NATS")
	}
	defer conn.Close()

	reg := registrar.New(conn, "q-operator", bus.SubjectEventsAudit)
	svc := operator.New(store, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := conn.Subscribe(bus.SubjectGuardAlerts, func(msg *nats.Msg) {
		var alert contracts.GuardAlert
		if err := json.Unmarshal(msg.Data, &alert); err != nil {
			qlog.Get().Warn().Err(err).Msg("q-operator: failed to decode guard alert")
			return
		}
		svc.HandleGuardAlert(ctx, alert)
	}); err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-operator: failed to subscribe to guard alerts")
	}

	go runAutoClearSweep(ctx, store, reg, *sweepPeriod)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	store.AttachAdminRoutes(mux)

	httpServer := &http.Server{Addr: *httpAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			qlog.Get().Warn().Err(err).Msg("q-operator: http server stopped")
		}
	}()

	qlog.Get().Info().Str("http_addr", *httpAddr).Msg("q-operator: started")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	qlog.Get().Info().Msg("q-operator: shutdown complete")
}

// runAutoClearSweep periodically scans for incidents whose absence
// window has elapsed and republishes the resulting auto-clear
// transitions (spec.md §4.6: "Auto-clear after an absence window").
func runAutoClearSweep(ctx context.Context, store *incident.Store, reg *registrar.Registrar, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			nowEpoch := float64(now.UnixNano()) / 1e9
			events, err := store.SweepAutoClear(nowEpoch)
			if err != nil {
				qlog.Get().Warn().Err(err).Msg("q-operator: auto-clear sweep failed")
				continue
			}
			for _, ev := range events {
				if err := reg.EmitIncident(ctx, nowEpoch, string(ev.Transition), ev.Incident); err != nil {
					qlog.Get().Warn().Err(err).Msg("q-operator: failed to publish auto-clear")
				}
			}
		}
	}
}
