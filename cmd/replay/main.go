// Command replay runs q-replay, the record/replay tool of spec.md's
// testable scenario S6. In record mode it subscribes to one bus subject
// and appends every message to a file; in replay mode it reads that file
// back and republishes each message at the requested speed. Bootstrap
// follows the same flag/signal/NATS-connect idiom as the other cmd/*
// binaries.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/qlog"
	"github.com/qiki-dtmp/core/internal/replay"
)

var (
	natsURL = flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	mode    = flag.String("mode", "", `"record" or "replay" (required)`)
	subject = flag.String("subject", bus.SubjectTelemetry, "subject to record from or replay onto")
	file    = flag.String("file", "", "recording file path (required)")
	speed   = flag.Float64("speed", 1, "replay mode: playback speed multiplier (0 = no delay)")
)

func main() {
	flag.Parse()

	if *file == "" {
		qlog.Get().Fatal().Msg("q-replay: -file is required")
	}

	conn, err := bus.Connect(*natsURL)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-replay: failed to connect to NATS")
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "record":
		runRecord(ctx, conn)
	case "replay":
		runReplay(ctx, conn)
	default:
		qlog.Get().Fatal().Str("mode", *mode).Msg(`q-replay: -mode must be "record" or "replay"`)
	}
}

func runRecord(ctx context.Context, conn *bus.Conn) {
	f, err := os.Create(*file)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-replay: failed to create recording file")
	}
	defer f.Close()

	w := replay.NewWriter(f)
	sub, err := conn.Subscribe(*subject, func(msg *nats.Msg) {
		if err := w.Write(msg.Subject, msg.Data, time.Now()); err != nil {
			qlog.Get().Warn().Err(err).Msg("q-replay: failed to write record")
		}
	})
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-replay: failed to subscribe")
	}
	defer sub.Unsubscribe()

	qlog.Get().Info().Str("subject", *subject).Str("file", *file).Msg("q-replay: recording")
	<-ctx.Done()
	qlog.Get().Info().Msg("q-replay: recording stopped")
}

func runReplay(ctx context.Context, conn *bus.Conn) {
	f, err := os.Open(*file)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-replay: failed to open recording file")
	}
	defer f.Close()

	qlog.Get().Info().Str("file", *file).Float64("speed", *speed).Msg("q-replay: replaying")
	count, err := replay.Play(ctx, replay.NewReader(f), conn, *speed)
	if err != nil {
		qlog.Get().Warn().Err(err).Int("published", count).Msg("q-replay: replay stopped early")
		return
	}
	qlog.Get().Info().Int("published", count).Msg("q-replay: replay complete")
}
