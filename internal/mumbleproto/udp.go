package mumbleproto

import "google.golang.org/protobuf/encoding/protowire"

// UDP Protobuf datagrams (spec §4.7 "Protobuf (≥1.5)") are a single
// leading byte — 0 for Audio, 1 for Ping — followed by one of these two
// messages, distinct from (and much flatter than) the TCP control-channel
// Protobuf set.
const (
	UDPKindAudio byte = 0
	UDPKindPing  byte = 1
)

// Audio is the UDP Protobuf voice datagram body.
type Audio struct {
	Target            uint32
	SenderSession     uint32
	HasSenderSession  bool
	SequenceNumber    uint64
	OpusData          []byte
	IsTerminator      bool
	PositionalData    []float32
	VolumeAdjustment  float32
	HasVolumeAdjustment bool
}

func (a *Audio) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, a.Target)
	if a.HasSenderSession {
		b = appendUint32Field(b, 2, a.SenderSession)
	}
	b = appendUint64Field(b, 3, a.SequenceNumber)
	b = appendBytesField(b, 4, a.OpusData)
	for _, p := range a.PositionalData {
		b = appendFloatField(b, 5, p)
	}
	if a.HasVolumeAdjustment {
		b = appendFloatField(b, 6, a.VolumeAdjustment)
	}
	b = appendBoolField(b, 7, a.IsTerminator)
	return b
}

func UnmarshalAudio(data []byte) (*Audio, error) {
	a := &Audio{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			a.Target = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			a.SenderSession, a.HasSenderSession = uint32(v), true
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			a.SequenceNumber = v
			return n, true
		case 4:
			v, n := protowire.ConsumeBytes(d)
			a.OpusData = append([]byte(nil), v...)
			return n, true
		case 5:
			v, n := protowire.ConsumeFixed32(d)
			a.PositionalData = append(a.PositionalData, fixed32ToFloat(v))
			return n, true
		case 6:
			v, n := protowire.ConsumeFixed32(d)
			a.VolumeAdjustment, a.HasVolumeAdjustment = fixed32ToFloat(v), true
			return n, true
		case 7:
			v, n := protowire.ConsumeVarint(d)
			a.IsTerminator = v != 0
			return n, true
		}
		return 0, false
	})
	return a, err
}

// PingUDP is the UDP Protobuf ping datagram body.
type PingUDP struct {
	Timestamp uint64
}

func (p *PingUDP) Marshal() []byte {
	return appendUint64Field(nil, 1, p.Timestamp)
}

func UnmarshalPingUDP(data []byte) (*PingUDP, error) {
	p := &PingUDP{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		if num == 1 {
			v, n := protowire.ConsumeVarint(d)
			p.Timestamp = v
			return n, true
		}
		return 0, false
	})
	return p, err
}
