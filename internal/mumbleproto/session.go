package mumbleproto

import "google.golang.org/protobuf/encoding/protowire"

// Authenticate is message type 2, outbound only.
type Authenticate struct {
	Username string
	Password string
	Tokens   []string
	Opus     bool
}

func (a *Authenticate) Marshal() []byte {
	var b []byte
	if a.Username != "" {
		b = appendStringField(b, 1, a.Username)
	}
	if a.Password != "" {
		b = appendStringField(b, 2, a.Password)
	}
	for _, tok := range a.Tokens {
		b = appendStringField(b, 3, tok)
	}
	b = appendBoolField(b, 5, a.Opus)
	return b
}

// Ping is message type 3: the TCP control-channel keepalive carrying
// cryptostate and RTT statistics (spec §4.6 "Ping").
type Ping struct {
	Timestamp   uint64
	Good        uint32
	Late        uint32
	Lost        uint32
	Resync      uint32
	UDPPackets  uint32
	TCPPackets  uint32
	UDPPingAvg  float32
	UDPPingVar  float32
	TCPPingAvg  float32
	TCPPingVar  float32
}

func (p *Ping) Marshal() []byte {
	var b []byte
	b = appendUint64Field(b, 1, p.Timestamp)
	b = appendUint32Field(b, 2, p.Good)
	b = appendUint32Field(b, 3, p.Late)
	b = appendUint32Field(b, 4, p.Lost)
	b = appendUint32Field(b, 5, p.Resync)
	b = appendUint32Field(b, 6, p.UDPPackets)
	b = appendUint32Field(b, 7, p.TCPPackets)
	b = appendFloatField(b, 8, p.UDPPingAvg)
	b = appendFloatField(b, 9, p.UDPPingVar)
	b = appendFloatField(b, 10, p.TCPPingAvg)
	b = appendFloatField(b, 11, p.TCPPingVar)
	return b
}

func UnmarshalPing(data []byte) (*Ping, error) {
	p := &Ping{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			p.Timestamp = v
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			p.Good = uint32(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			p.Late = uint32(v)
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			p.Lost = uint32(v)
			return n, true
		case 5:
			v, n := protowire.ConsumeVarint(d)
			p.Resync = uint32(v)
			return n, true
		case 6:
			v, n := protowire.ConsumeVarint(d)
			p.UDPPackets = uint32(v)
			return n, true
		case 7:
			v, n := protowire.ConsumeVarint(d)
			p.TCPPackets = uint32(v)
			return n, true
		case 8:
			v, n := protowire.ConsumeFixed32(d)
			p.UDPPingAvg = fixed32ToFloat(v)
			return n, true
		case 9:
			v, n := protowire.ConsumeFixed32(d)
			p.UDPPingVar = fixed32ToFloat(v)
			return n, true
		case 10:
			v, n := protowire.ConsumeFixed32(d)
			p.TCPPingAvg = fixed32ToFloat(v)
			return n, true
		case 11:
			v, n := protowire.ConsumeFixed32(d)
			p.TCPPingVar = fixed32ToFloat(v)
			return n, true
		}
		return 0, false
	})
	return p, err
}

// Reject is message type 4.
type Reject struct {
	Type   RejectType
	Reason string
}

type RejectType int32

const (
	RejectNone RejectType = iota
	RejectWrongVersion
	RejectInvalidUsername
	RejectWrongUserPW
	RejectWrongServerPW
	RejectUsernameInUse
	RejectServerFull
	RejectNoCertificate
	RejectAuthenticatorFail
)

func UnmarshalReject(data []byte) (*Reject, error) {
	r := &Reject{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			r.Type = RejectType(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(d)
			r.Reason = string(v)
			return n, true
		}
		return 0, false
	})
	return r, err
}

// ServerSync is message type 5.
type ServerSync struct {
	Session      uint32
	MaxBandwidth uint32
	WelcomeText  string
	Permissions  int64
}

func UnmarshalServerSync(data []byte) (*ServerSync, error) {
	s := &ServerSync{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			s.Session = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			s.MaxBandwidth = uint32(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(d)
			s.WelcomeText = string(v)
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			s.Permissions = int64(v)
			return n, true
		}
		return 0, false
	})
	return s, err
}

// UserRemove is message type 8.
type UserRemove struct {
	Session uint32
	Actor   uint32
	Reason  string
	Ban     bool
}

func UnmarshalUserRemove(data []byte) (*UserRemove, error) {
	u := &UserRemove{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			u.Session = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			u.Actor = uint32(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(d)
			u.Reason = string(v)
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			u.Ban = v != 0
			return n, true
		}
		return 0, false
	})
	return u, err
}
