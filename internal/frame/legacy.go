package frame

import (
	"errors"

	"mumbleclient/internal/varint"
)

// Legacy UDP packet types (spec §4.7): the high 3 bits of the first byte.
// Ping is kind 1; voice kinds 0/2/3/4 select the codec.
const (
	LegacyCodecCELTAlpha = 0
	LegacyKindPing       = 1
	LegacyCodecSpeex     = 2
	LegacyCodecCELTBeta  = 3
	LegacyCodecOpus      = 4
)

var (
	// ErrShortPacket is returned when a legacy UDP packet is too small to
	// contain its declared header.
	ErrShortPacket = errors.New("frame: short legacy udp packet")
)

// VoicePacket is an inbound UDP voice datagram, normalized across the
// legacy and Protobuf eras (spec §4.7 "Inbound voice always yields...").
type VoicePacket struct {
	Target     uint8 // legacy: from the header byte; Protobuf: from the Audio message
	Codec      int
	Sender     uint32 // legacy: decoded from the payload; Protobuf: from the message
	Sequence   uint64
	OpusData   []byte
	Terminator bool
}

// EncodeLegacyHeader writes the one-byte (codec<<5 | target) legacy header.
func EncodeLegacyHeader(codec int, target uint8) byte {
	return byte(codec&0x7)<<5 | target&0x1F
}

// DecodeLegacyVoice parses a legacy-era voice payload: varint sender
// session, then a codec-specific frame header, then the codec payload.
// codec and target come from the datagram's first byte, already split by
// the caller; data is everything after it. For Opus, bit 13 (0x2000) of
// the length header sets Terminator and the low 13 bits give the payload
// length; callers derive speaking as !Terminator.
func DecodeLegacyVoice(codec int, target uint8, data []byte) (*VoicePacket, error) {
	sender, n, err := varint.Decode(data)
	if err != nil {
		return nil, err
	}
	data = data[n:]

	vp := &VoicePacket{Target: target, Codec: codec, Sender: uint32(sender)}

	switch codec {
	case LegacyCodecOpus:
		length, n, err := varint.Decode(data)
		if err != nil {
			return nil, err
		}
		data = data[n:]
		size := int(length) & 0x1FFF
		vp.Terminator = length&0x2000 != 0
		if len(data) < size {
			return nil, ErrShortPacket
		}
		vp.OpusData = data[:size]
	default:
		// Speex/CELT: one or more TOC-prefixed frames; a zero-length frame
		// terminates the segment, the high bit of the TOC byte continues it.
		var payload []byte
		for {
			if len(data) < 1 {
				return nil, ErrShortPacket
			}
			toc := data[0]
			data = data[1:]
			size := int(toc & 0x7F)
			if size == 0 {
				vp.Terminator = true
			}
			if len(data) < size {
				return nil, ErrShortPacket
			}
			payload = append(payload, data[:size]...)
			data = data[size:]
			if toc&0x80 == 0 {
				break
			}
		}
		vp.OpusData = payload
	}
	return vp, nil
}

// EncodeLegacyVoice builds a legacy-era Opus voice payload (sender session
// varint, Opus length+terminator varint, Opus bytes), the only codec this
// client transmits.
func EncodeLegacyVoice(sender uint32, seq uint64, opus []byte, terminator bool) []byte {
	var buf []byte
	buf = varint.Encode(buf, int64(sender))
	length := int64(len(opus))
	if terminator {
		length |= 0x2000
	}
	buf = varint.Encode(buf, length)
	return append(buf, opus...)
}

// DecodeLegacyPing returns the varint timestamp carried by a legacy ping
// payload.
func DecodeLegacyPing(data []byte) (uint64, error) {
	v, _, err := varint.Decode(data)
	return uint64(v), err
}

// EncodeLegacyPing builds a legacy ping payload: a single varint timestamp.
func EncodeLegacyPing(timestamp uint64) []byte {
	return varint.Encode(nil, int64(timestamp))
}
