package simrpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec lets the sim control service run over real gRPC/HTTP2
// transport without a protoc step: messages are plain JSON-tagged Go
// structs (messages.go) instead of generated protobuf types. Registered
// under "json" and requested by the client via grpc.CallContentSubtype.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return codecName }

const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
