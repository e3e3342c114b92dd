package rpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// wireMessage is implemented by the hand-encoded messages of the internal
// services. Field numbers follow the shared .proto contracts.
type wireMessage interface {
	marshalWire() ([]byte, error)
	unmarshalWire(b []byte) error
}

// codec speaks the protobuf wire format for wireMessage values and falls back
// to the protobuf runtime for generated messages such as the health service.
type codec struct{}

// Name matches the standard codec so peers see ordinary application/grpc+proto.
func (codec) Name() string { return "proto" }

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.marshalWire()
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("rpc codec: cannot marshal %T", v)
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wireMessage:
		return m.unmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("rpc codec: cannot unmarshal into %T", v)
}
