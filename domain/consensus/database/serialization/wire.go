package serialization

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// messageEncoder appends protobuf-encoded fields to a buffer. Field numbers
// are fixed per record type and must never be reused.
type messageEncoder struct {
	buf []byte
}

func (e *messageEncoder) uint(num protowire.Number, value uint64) {
	if value == 0 {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, value)
}

func (e *messageEncoder) bytes(num protowire.Number, value []byte) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, value)
}

func (e *messageEncoder) message(num protowire.Number, encode func(e *messageEncoder)) {
	inner := &messageEncoder{}
	encode(inner)
	e.bytes(num, inner.buf)
}

// field is a single decoded field. Varint fields populate value, length
// delimited fields populate data.
type field struct {
	num   protowire.Number
	typ   protowire.Type
	value uint64
	data  []byte
}

// decodeMessage calls handle for every field in b, in wire order. Unknown
// field numbers are passed through and should be ignored by handle.
func decodeMessage(b []byte, handle func(f *field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrapf(ErrMalformedRecord, "malformed field tag: %s", protowire.ParseError(n))
		}
		b = b[n:]

		f := &field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.value, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.data, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return errors.Wrapf(ErrMalformedRecord, "malformed field %d: %s", num, protowire.ParseError(n))
		}
		b = b[n:]

		err := handle(f)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *field) expectVarint() error {
	if f.typ != protowire.VarintType {
		return errorf("field %d: expected varint, got wire type %d", f.num, f.typ)
	}
	return nil
}

func (f *field) expectBytes() error {
	if f.typ != protowire.BytesType {
		return errorf("field %d: expected bytes, got wire type %d", f.num, f.typ)
	}
	return nil
}
