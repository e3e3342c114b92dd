package rpc

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestIDRequest_MatchesProtobufStringField(t *testing.T) {
	// a message with a single string in field 1 has the same encoding as
	// google.protobuf.StringValue
	ref, err := codec{}.Marshal(wrapperspb.String("5f0c1f3e-8a7d-4c1e-9b1a-2f3e4d5c6b7a"))
	if err != nil {
		t.Fatalf("marshal reference: %v", err)
	}
	got, err := (&idRequest{ID: "5f0c1f3e-8a7d-4c1e-9b1a-2f3e4d5c6b7a"}).marshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(got, ref) {
		t.Fatalf("wire mismatch:\n got %x\nwant %x", got, ref)
	}
}

func TestCheckDeletionResponse_DecodesFieldNumbers(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, "ok")
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)

	var resp checkDeletionResponse
	if err := resp.unmarshalWire(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.CanBeDeleted || resp.Reason != "ok" || resp.ActiveReservationCount != 7 {
		t.Fatalf("unexpected decode: %+v", resp)
	}
}

func TestReadFields_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 42)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, "db down")

	var resp deleteByHostResponse
	if err := resp.unmarshalWire(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ErrorMessage != "db down" || resp.Success {
		t.Fatalf("unexpected decode: %+v", resp)
	}
}

func TestReadFields_Truncated(t *testing.T) {
	b := protowire.AppendTag(nil, 2, protowire.BytesType)
	b = protowire.AppendVarint(b, 10) // declared length with no payload

	var resp userSummaryResponse
	if err := resp.unmarshalWire(b); err == nil {
		t.Fatalf("expected error for truncated message")
	}
}

func TestDefaultsAreOmitted(t *testing.T) {
	b, _ := (&userSummaryResponse{}).marshalWire()
	if len(b) != 0 {
		t.Fatalf("expected empty encoding for zero message, got %x", b)
	}
}
