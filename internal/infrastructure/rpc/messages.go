package rpc

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// field is one decoded scalar of a flat protobuf message.
type field struct {
	num    protowire.Number
	varint uint64
	bytes  []byte
}

// readFields decodes varint and length-delimited fields and skips anything
// else, so newer peers can add fields without breaking us.
func readFields(b []byte) ([]field, error) {
	var out []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.varint = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			f.bytes = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Proto3 omits default values on the wire.

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

// idRequest covers every request that carries a single id in field 1:
// CheckGuestDeletionRequest, CheckHostDeletionRequest, DeleteByHostRequest
// and GetUserSummaryRequest.
type idRequest struct {
	ID string
}

func (m *idRequest) marshalWire() ([]byte, error) {
	return appendString(nil, 1, m.ID), nil
}

func (m *idRequest) unmarshalWire(b []byte) error {
	fields, err := readFields(b)
	if err != nil {
		return err
	}
	*m = idRequest{}
	for _, f := range fields {
		if f.num == 1 {
			m.ID = string(f.bytes)
		}
	}
	return nil
}

// checkDeletionResponse is reservation.CheckDeletionResponse.
type checkDeletionResponse struct {
	CanBeDeleted           bool
	Reason                 string
	ActiveReservationCount int32
}

func (m *checkDeletionResponse) marshalWire() ([]byte, error) {
	b := appendBool(nil, 1, m.CanBeDeleted)
	b = appendString(b, 2, m.Reason)
	return appendInt32(b, 3, m.ActiveReservationCount), nil
}

func (m *checkDeletionResponse) unmarshalWire(b []byte) error {
	fields, err := readFields(b)
	if err != nil {
		return err
	}
	*m = checkDeletionResponse{}
	for _, f := range fields {
		switch f.num {
		case 1:
			m.CanBeDeleted = protowire.DecodeBool(f.varint)
		case 2:
			m.Reason = string(f.bytes)
		case 3:
			m.ActiveReservationCount = int32(f.varint)
		}
	}
	return nil
}

// deleteByHostResponse is accommodation.DeleteByHostResponse.
type deleteByHostResponse struct {
	Success      bool
	DeletedCount int32
	ErrorMessage string
}

func (m *deleteByHostResponse) marshalWire() ([]byte, error) {
	b := appendBool(nil, 1, m.Success)
	b = appendInt32(b, 2, m.DeletedCount)
	return appendString(b, 3, m.ErrorMessage), nil
}

func (m *deleteByHostResponse) unmarshalWire(b []byte) error {
	fields, err := readFields(b)
	if err != nil {
		return err
	}
	*m = deleteByHostResponse{}
	for _, f := range fields {
		switch f.num {
		case 1:
			m.Success = protowire.DecodeBool(f.varint)
		case 2:
			m.DeletedCount = int32(f.varint)
		case 3:
			m.ErrorMessage = string(f.bytes)
		}
	}
	return nil
}

// userSummaryResponse is user.GetUserSummaryResponse.
type userSummaryResponse struct {
	Found     bool
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      string
	IsDeleted bool
}

func (m *userSummaryResponse) marshalWire() ([]byte, error) {
	b := appendBool(nil, 1, m.Found)
	b = appendString(b, 2, m.UserID)
	b = appendString(b, 3, m.Email)
	b = appendString(b, 4, m.FirstName)
	b = appendString(b, 5, m.LastName)
	b = appendString(b, 6, m.Role)
	return appendBool(b, 7, m.IsDeleted), nil
}

func (m *userSummaryResponse) unmarshalWire(b []byte) error {
	fields, err := readFields(b)
	if err != nil {
		return err
	}
	*m = userSummaryResponse{}
	for _, f := range fields {
		switch f.num {
		case 1:
			m.Found = protowire.DecodeBool(f.varint)
		case 2:
			m.UserID = string(f.bytes)
		case 3:
			m.Email = string(f.bytes)
		case 4:
			m.FirstName = string(f.bytes)
		case 5:
			m.LastName = string(f.bytes)
		case 6:
			m.Role = string(f.bytes)
		case 7:
			m.IsDeleted = protowire.DecodeBool(f.varint)
		}
	}
	return nil
}
