package frame

import (
	"errors"

	"mumbleclient/internal/mumbleproto"
)

// ErrEmptyDatagram is returned when a decrypted UDP payload has no leading
// kind/header byte at all.
var ErrEmptyDatagram = errors.New("frame: empty udp payload")

// DecodeUDP demultiplexes a decrypted UDP payload (the plaintext recovered
// from the OCB cryptostate) according to era, yielding either a voice
// packet or a ping timestamp.
//
// legacy selects the pre-1.5 framing: type/target packed in the first
// byte, varint headers. Otherwise the first byte is the Protobuf
// discriminator (spec §4.7).
func DecodeUDP(legacy bool, data []byte) (voice *VoicePacket, pingTimestamp uint64, isPing bool, err error) {
	if len(data) < 1 {
		return nil, 0, false, ErrEmptyDatagram
	}

	if legacy {
		header := data[0]
		kind := (header >> 5) & 0x07
		target := header & 0x1F
		rest := data[1:]

		if kind == LegacyKindPing {
			ts, err := DecodeLegacyPing(rest)
			return nil, ts, true, err
		}
		vp, err := DecodeLegacyVoice(int(kind), target, rest)
		return vp, 0, false, err
	}

	switch data[0] {
	case mumbleproto.UDPKindPing:
		p, err := mumbleproto.UnmarshalPingUDP(data[1:])
		if err != nil {
			return nil, 0, false, err
		}
		return nil, p.Timestamp, true, nil
	case mumbleproto.UDPKindAudio:
		a, err := mumbleproto.UnmarshalAudio(data[1:])
		if err != nil {
			return nil, 0, false, err
		}
		return &VoicePacket{
			Target:     uint8(a.Target),
			Codec:      LegacyCodecOpus,
			Sender:     a.SenderSession,
			Sequence:   a.SequenceNumber,
			OpusData:   a.OpusData,
			Terminator: a.IsTerminator,
		}, 0, false, nil
	default:
		return nil, 0, false, errors.New("frame: unknown udp protobuf kind")
	}
}

// EncodeUDPVoice builds an outbound UDP voice payload for the given era.
func EncodeUDPVoice(legacy bool, target uint8, seq uint64, opus []byte, terminator bool) []byte {
	if legacy {
		header := EncodeLegacyHeader(LegacyCodecOpus, target)
		body := EncodeLegacyVoice(0, seq, opus, terminator)
		return append([]byte{header}, body...)
	}
	a := &mumbleproto.Audio{
		Target:         uint32(target),
		SequenceNumber: seq,
		OpusData:       opus,
		IsTerminator:   terminator,
	}
	return append([]byte{mumbleproto.UDPKindAudio}, a.Marshal()...)
}

// EncodeUDPPing builds an outbound UDP ping payload for the given era.
func EncodeUDPPing(legacy bool, timestamp uint64) []byte {
	if legacy {
		header := byte(LegacyKindPing << 5)
		return append([]byte{header}, EncodeLegacyPing(timestamp)...)
	}
	p := &mumbleproto.PingUDP{Timestamp: timestamp}
	return append([]byte{mumbleproto.UDPKindPing}, p.Marshal()...)
}
