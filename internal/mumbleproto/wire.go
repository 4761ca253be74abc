// Package mumbleproto hand-writes the Mumble control-channel and UDP
// Protobuf message shapes directly against protowire's low-level tag and
// varint primitives (spec §4.6/§4.7). No protoc-generated package for
// Mumble's .proto set ships in this environment or anywhere in the
// retrieved example pack, so messages are (de)serialized field-by-field
// instead of inventing a bespoke, non-Protobuf wire format.
package mumbleproto

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// decodeFields walks the tag/value pairs of a Protobuf message, handing
// each field to set and advancing by however many bytes set reports
// having consumed from the value (not including the tag). Unknown field
// numbers are skipped via protowire.ConsumeFieldValue, matching real
// Protobuf's forward-compatible decode behavior.
func decodeFields(data []byte, set func(num protowire.Number, typ protowire.Type, data []byte) (n int, handled bool)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		consumed, handled := set(num, typ, data)
		if handled {
			if consumed < 0 {
				return protowire.ParseError(consumed)
			}
			data = data[consumed:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
	}
	return nil
}

func appendUint64Field(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendUint32Field(b []byte, num protowire.Number, v uint32) []byte {
	return appendUint64Field(b, num, uint64(v))
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	u := uint64(0)
	if v {
		u = 1
	}
	return appendUint64Field(b, num, u)
}

func appendInt64Field(b []byte, num protowire.Number, v int64) []byte {
	return appendUint64Field(b, num, uint64(v))
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	return appendBytesField(b, num, []byte(v))
}

func appendFloatField(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func fixed32ToFloat(v uint32) float32 {
	return math.Float32frombits(v)
}
