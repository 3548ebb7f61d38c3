// Package simrpc is q-sim's gRPC control surface (spec.md §5: "Control
// RPC (gRPC on sim service) ... preferred command path remains the bus
// (sim.*) for composability; RPC exists for point probes"). The service
// is defined by hand against grpc.ServiceDesc instead of protoc-gen-go
// output, carrying plain JSON-tagged messages (see codec.go) rather
// than generated protobuf types, the way the teacher's
// internal/lidar/visualiser package wires a hand-rolled gRPC server
// around its streaming frame service.
package simrpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "qiki.simrpc.SimControl"

// SimControlServer is implemented by Server (server.go) and registered
// with a *grpc.Server via RegisterSimControlServer.
type SimControlServer interface {
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
	GetSensorData(context.Context, *SensorDataRequest) (*SensorDataResponse, error)
	SendActuatorCommand(context.Context, *ActuatorCommandRequest) (*ActuatorCommandResponse, error)
	GetRadarFrame(context.Context, *RadarFrameRequest) (*RadarFrameResponse, error)
}

func _SimControl_HealthCheck_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimControlServer).HealthCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/HealthCheck"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimControlServer).HealthCheck(ctx, req.(*HealthCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SimControl_GetSensorData_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SensorDataRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimControlServer).GetSensorData(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/GetSensorData"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimControlServer).GetSensorData(ctx, req.(*SensorDataRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SimControl_SendActuatorCommand_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ActuatorCommandRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimControlServer).SendActuatorCommand(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/SendActuatorCommand"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimControlServer).SendActuatorCommand(ctx, req.(*ActuatorCommandRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SimControl_GetRadarFrame_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RadarFrameRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimControlServer).GetRadarFrame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/GetRadarFrame"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimControlServer).GetRadarFrame(ctx, req.(*RadarFrameRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc a generated _grpc.pb.go file would
// produce for this service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SimControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "HealthCheck", Handler: _SimControl_HealthCheck_Handler},
		{MethodName: "GetSensorData", Handler: _SimControl_GetSensorData_Handler},
		{MethodName: "SendActuatorCommand", Handler: _SimControl_SendActuatorCommand_Handler},
		{MethodName: "GetRadarFrame", Handler: _SimControl_GetRadarFrame_Handler},
	},
	Metadata: "simrpc.proto",
}

// RegisterSimControlServer registers srv on s, mirroring the generated
// pb.RegisterXServer helpers.
func RegisterSimControlServer(s grpc.ServiceRegistrar, srv SimControlServer) {
	s.RegisterService(&ServiceDesc, srv)
}
