// Command bios runs q-bios, the BIOS service of spec.md §4 item 5: it
// computes the hardware profile hash once at startup, POSTs the
// configured devices, serves /healthz and /bios/status, and republishes
// its status on the bus every --interval. HTTP bootstrap and signal
// handling follow the teacher's cmd/radar/radar.go main loop.
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

	"github.com/qiki-dtmp/core/internal/bios"
	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/config"
	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/qlog"
)

var (
	natsURL    = flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	configPath = flag.String("config", "", "path to hardware_profile.json (uses built-in defaults if empty)")
	httpAddr   = flag.String("http-addr", ":8081", "listen address for /healthz and /bios/status")
	intervalS  = flag.Float64("interval-s", 5, "bios_status republish interval in seconds")
)

func main() {
	flag.Parse()

	hwCfg := config.DefaultHardwareConfig()
	if *configPath != "" {
		loaded, err := config.LoadHardwareConfig(*configPath)
		if err != nil {
			qlog.Get().Fatal().Err(err).Msg("q-bios: failed to load hardware config")
		}
		hwCfg = loaded
	}

	devices := make([]bios.Device, 0, len(hwCfg.Devices))
	for _, d := range hwCfg.Devices {
		devices = append(devices, bios.Device{
			ID:      d.ID,
			Name:    d.Name,
			Status:  contracts.PostStatus(d.Status),
			Message: d.Message,
		})
	}

	svc, err := bios.NewService("q-bios", bios.Config{
		FirmwareVersion:  hwCfg.FirmwareVersion,
		HardwareProfile:  hwCfg.HardwareProfile,
		HardwareManifest: hwCfg.HardwareManifest,
		Devices:          devices,
		IntervalS:        *intervalS,
	})
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-bios: failed to compute hardware profile hash")
	}

	conn, err := bus.Connect(*natsURL)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-bios: failed to connect to NATS")
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	httpServer := &http.Server{Addr: *httpAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			qlog.Get().Warn().Err(err).Msg("q-bios: http server stopped")
		}
	}()

	qlog.Get().Info().Str("http_addr", *httpAddr).Str("hash", svc.Status().HardwareProfileHash).Msg("q-bios: started")
	runPublishLoop(ctx, conn, svc, time.Duration(*intervalS*float64(time.Second)))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	qlog.Get().Info().Msg("q-bios: shutdown complete")
}

// runPublishLoop republishes BiosStatus on qiki.events.v1.bios_status
// every period until ctx is cancelled, matching the cadence spec.md §4
// item 5 expects BIOS to refresh uptime/timestamp at.
func runPublishLoop(ctx context.Context, conn *bus.Conn, svc *bios.Service, period time.Duration) {
	if period <= 0 {
		period = 5 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	publish := func() {
		status := svc.Status()
		data, err := json.Marshal(status)
		if err != nil {
			qlog.Get().Warn().Err(err).Msg("q-bios: failed to marshal bios status")
			return
		}
		id := bus.SubjectEventsBios + "|" + time.Unix(0, int64(status.Timestamp*1e9)).Format(time.RFC3339Nano)
		if err := conn.Publish(bus.SubjectEventsBios, id, data); err != nil {
			qlog.Get().Warn().Err(err).Msg("q-bios: failed to publish bios status")
		}
	}

	publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}
