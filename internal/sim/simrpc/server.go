package simrpc

import (
	"context"

	"github.com/qiki-dtmp/core/internal/contracts"
	"github.com/qiki-dtmp/core/internal/sim"
)

// Server implements SimControlServer over a live sim.Engine and its
// latest-tick cache. It never blocks on the tick loop: reads go through
// sim.LatestCache (latest-wins), and SendActuatorCommand reuses the same
// sim.DecodeCommand the bus control-subject handler uses, so RPC and bus
// command paths accept exactly the same command shapes.
type Server struct {
	engine   *sim.Engine
	latest   *sim.LatestCache
	safeMode func() bool
}

var _ SimControlServer = (*Server)(nil)

// NewServer constructs a Server. safeMode may be nil, in which case
// HealthCheck always reports safe_mode=false.
func NewServer(engine *sim.Engine, latest *sim.LatestCache, safeMode func() bool) *Server {
	return &Server{engine: engine, latest: latest, safeMode: safeMode}
}

func (s *Server) HealthCheck(_ context.Context, _ *HealthCheckRequest) (*HealthCheckResponse, error) {
	safe := false
	if s.safeMode != nil {
		safe = s.safeMode()
	}
	return &HealthCheckResponse{
		Running:             s.engine.Running(),
		SafeMode:            safe,
		HardwareProfileHash: s.engine.ProfileHash(),
	}, nil
}

func (s *Server) GetSensorData(_ context.Context, _ *SensorDataRequest) (*SensorDataResponse, error) {
	out, ok := s.latest.Get()
	if !ok {
		return &SensorDataResponse{}, nil
	}
	return &SensorDataResponse{Present: true, Telemetry: out.Telemetry}, nil
}

func (s *Server) SendActuatorCommand(_ context.Context, req *ActuatorCommandRequest) (*ActuatorCommandResponse, error) {
	cmd, err := sim.DecodeCommand(contracts.CommandEnvelope{
		CommandName: req.CommandName,
		Parameters:  req.Parameters,
	})
	if err != nil {
		return &ActuatorCommandResponse{OK: false, Error: err.Error()}, nil
	}
	if err := s.engine.Accept(cmd); err != nil {
		return &ActuatorCommandResponse{OK: false, Error: err.Error()}, nil
	}
	return &ActuatorCommandResponse{OK: true}, nil
}

func (s *Server) GetRadarFrame(_ context.Context, _ *RadarFrameRequest) (*RadarFrameResponse, error) {
	out, ok := s.latest.Get()
	if !ok {
		return &RadarFrameResponse{}, nil
	}
	return &RadarFrameResponse{Present: true, Frame: out.RadarFrame, Tracks: out.Tracks}, nil
}
