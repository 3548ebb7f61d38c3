// Command sim runs q-sim, the deterministic tick engine of spec.md §4.1:
// world-state advance, telemetry/radar publish, and the sim.* control
// surface. Flag handling, NATS_URL env var, and signal-driven shutdown
// follow the teacher's cmd/radar/radar.go main loop.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/grpc"

	"github.com/qiki-dtmp/core/internal/bus"
	"github.com/qiki-dtmp/core/internal/config"
	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/guard"
	"github.com/qiki-dtmp/core/internal/qlog"
	"github.com/qiki-dtmp/core/internal/radar/track"
	"github.com/qiki-dtmp/core/internal/registrar"
	"github.com/qiki-dtmp/core/internal/sim"
	"github.com/qiki-dtmp/core/internal/sim/power"
	"github.com/qiki-dtmp/core/internal/sim/radarscene"
	"github.com/qiki-dtmp/core/internal/sim/simrpc"
	"github.com/qiki-dtmp/core/internal/sim/thermal"
)

var (
	natsURL      = flag.String("nats-url", envOr("NATS_URL", nats.DefaultURL), "NATS server URL")
	configPath   = flag.String("config", "", "path to hardware_profile.json (uses built-in defaults if empty)")
	guardRules   = flag.String("guard-rules", "config/guard_rules.yaml", "path to guard_rules.yaml")
	tickPeriodMS = flag.Int("tick-period-ms", 0, "override tick period in milliseconds (0 uses config)")
	rpcAddr      = flag.String("rpc-addr", ":9091", "listen address for the sim control gRPC service")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.Parse()

	hwCfg := config.DefaultHardwareConfig()
	if *configPath != "" {
		loaded, err := config.LoadHardwareConfig(*configPath)
		if err != nil {
			qlog.Get().Fatal().Err(err).Msg("q-sim: failed to load hardware config")
		}
		hwCfg = loaded
	}

	rules := guard.DefaultRuleSet()
	if loaded, err := guard.LoadRuleSet(*guardRules); err == nil {
		rules = loaded
	} else {
		qlog.Get().Warn().Err(err).Str("path", *guardRules).Msg("q-sim: using built-in default guard rules")
	}

	world, err := sim.NewWorld(defaultThermalNetwork(), defaultScene(hwCfg), sim.Profile{
		Manifest: hwCfg.HardwareManifest,
		Profile:  hwCfg.HardwareProfile,
	})
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-sim: failed to construct world")
	}
	world.Power = defaultPowerGates()
	world.HeatInputW = defaultHeatInputW()

	engineCfg := sim.DefaultConfig()
	engineCfg.GuardRules = rules
	engineCfg.SRThresholdM = hwCfg.SRThresholdM
	engineCfg.TrackConfig = track.DefaultConfig()

	period := time.Duration(hwCfg.TickPeriodMS) * time.Millisecond
	if *tickPeriodMS > 0 {
		period = time.Duration(*tickPeriodMS) * time.Millisecond
	}
	if period > 0 {
		engineCfg.DTSeconds = period.Seconds()
	}

	engine := sim.NewEngine(engineCfg, world)

	conn, err := bus.Connect(*natsURL)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-sim: failed to connect to NATS")
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := attachStreams(ctx, conn); err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-sim: failed to attach JetStream streams")
	}

	reg := registrar.New(conn, "q-sim", bus.SubjectEventsAudit)
	latest := sim.NewLatestCache()
	publisher := sim.NewBusPublisher(conn, reg, latest)
	runner := sim.NewRunner(engine, publisher, period)

	sub, err := conn.Subscribe(bus.SubjectCommandsControl, commandHandler(engine, conn))
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-sim: failed to subscribe to control subject")
	}
	defer sub.Unsubscribe()

	if err := engine.Accept(sim.Command{Kind: sim.CmdStart, Speed: 1}); err != nil {
		qlog.Get().Warn().Err(err).Msg("q-sim: failed to auto-start tick loop")
	}

	grpcServer, err := startSimRPC(*rpcAddr, engine, latest, runner)
	if err != nil {
		qlog.Get().Fatal().Err(err).Msg("q-sim: failed to start control RPC")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	qlog.Get().Info().Str("nats_url", *natsURL).Str("rpc_addr", *rpcAddr).Msg("q-sim: starting tick loop")
	runner.Run(ctx)
	wg.Wait()
	qlog.Get().Info().Msg("q-sim: shutdown complete")
}

// startSimRPC starts the sim control gRPC service (spec.md §5) on a
// background goroutine and returns the server so the caller can stop it
// on shutdown.
func startSimRPC(addr string, engine *sim.Engine, latest *sim.LatestCache, runner *sim.Runner) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	grpcServer := grpc.NewServer()
	simrpc.RegisterSimControlServer(grpcServer, simrpc.NewServer(engine, latest, runner.SafeMode))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			qlog.Get().Warn().Err(err).Msg("q-sim: control RPC server stopped")
		}
	}()
	return grpcServer, nil
}

// attachStreams creates or updates the persisted streams this process
// publishes into (spec.md §5): QIKI_RADAR_V1 binds qiki.radar.v1.> and
// QIKI_EVENTS_V1 binds qiki.events.v1.>, so multi-token subjects such as
// qiki.radar.v1.frames.lr and qiki.radar.v1.tracks.sr are captured too.
func attachStreams(ctx context.Context, conn *bus.Conn) error {
	if _, err := conn.AttachStream(ctx, bus.StreamSpec{
		Name:     bus.StreamRadarV1,
		Subjects: []string{"qiki.radar.v1.>"},
		MaxAge:   24 * time.Hour,
	}); err != nil {
		return err
	}
	_, err := conn.AttachStream(ctx, bus.StreamSpec{
		Name:     bus.StreamEventsV1,
		Subjects: []string{"qiki.events.v1.>"},
		MaxAge:   24 * time.Hour,
	})
	return err
}

// commandHandler decodes a CommandEnvelope off qiki.commands.control,
// applies it to the engine, and replies with a CommandResponse on the
// message's reply subject (spec.md §6: "Response envelope carries the
// same message_id as request_id").
func commandHandler(engine *sim.Engine, conn *bus.Conn) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var env contracts.CommandEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			respond(msg, contracts.CommandResponse{OK: false, Error: err.Error()})
			return
		}
		cmd, err := sim.DecodeCommand(env)
		if err != nil {
			respond(msg, contracts.CommandResponse{RequestID: env.Metadata.MessageID, OK: false, Error: err.Error()})
			return
		}
		if err := engine.Accept(cmd); err != nil {
			respond(msg, contracts.CommandResponse{RequestID: env.Metadata.MessageID, OK: false, Error: err.Error()})
			return
		}
		respond(msg, contracts.CommandResponse{RequestID: env.Metadata.MessageID, OK: true})
	}
}

func respond(msg *nats.Msg, resp contracts.CommandResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if msg.Reply != "" {
		_ = msg.Respond(data)
	}
}

func defaultThermalNetwork() thermal.Network {
	return thermal.Network{
		AmbientC: -20,
		Nodes: []thermal.Node{
			{ID: "core", TempC: 20, HeatCapacity: 500, Cooling: 2, TripC: 85, ClearC: 75},
			{ID: "battery", TempC: 15, HeatCapacity: 300, Cooling: 1.5, TripC: 60, ClearC: 50},
		},
		Coupling: [][]float64{
			{0, 0.5},
			{0.5, 0},
		},
	}
}

func defaultPowerGates() power.Gates {
	return power.Gates{
		SoCPct:     100,
		SoCLowPct:  20,
		SoCHighPct: 30,
		NBLAllowed: true,
		BusV:       28,
		MaxA:       40,
		LoadsW: map[string]float64{
			power.LoadRadar:       150,
			power.LoadTransponder: 20,
			power.LoadNBL:         100,
			power.LoadMotion:      200,
			power.LoadRCS:         60,
		},
		SourcesW: map[string]float64{
			"solar": 100,
		},
	}
}

// defaultHeatInputW gives the core bus a continuous waste-heat forcing
// term so its thermal node can actually reach TripC under sustained load
// (scenario S5), rather than only ever cooling toward ambient.
func defaultHeatInputW() map[string]float64 {
	return map[string]float64{
		"core":    300,
		"battery": 5,
	}
}

func defaultScene(hwCfg *config.HardwareConfig) radarscene.Scene {
	return radarscene.Scene{
		SRThresholdM: hwCfg.SRThresholdM,
		Contacts: []radarscene.Contact{
			{
				ID:              "contact-1",
				Position:        contracts.Vec3{X: 300, Y: 0, Z: 0},
				Velocity:        contracts.Vec3{X: -5, Y: 0, Z: 0},
				TransponderMode: contracts.XpdrOn,
				TransponderID:   "friendly-1",
				SNR:             18,
			},
		},
	}
}
