package mumbleproto

import "google.golang.org/protobuf/encoding/protowire"

// BanEntry is one row of a BanList message.
type BanEntry struct {
	Address string
	Mask    int32
	Name    string
	Hash    string
	Reason  string
}

// BanList is message type 10, exposed as a read-only view (spec §1
// excludes "wrappers that exist only to expose ... ban-list Protobuf
// fields" — this struct is the read model, not a mutation builder).
type BanList struct {
	Bans  []BanEntry
	Query bool
}

func UnmarshalBanList(data []byte) (*BanList, error) {
	bl := &BanList{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(d)
			entry, err := unmarshalBanEntry(v)
			if err == nil {
				bl.Bans = append(bl.Bans, *entry)
			}
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			bl.Query = v != 0
			return n, true
		}
		return 0, false
	})
	return bl, err
}

func unmarshalBanEntry(data []byte) (*BanEntry, error) {
	e := &BanEntry{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(d)
			e.Address = string(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			e.Mask = int32(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(d)
			e.Name = string(v)
			return n, true
		case 4:
			v, n := protowire.ConsumeBytes(d)
			e.Hash = string(v)
			return n, true
		case 5:
			v, n := protowire.ConsumeBytes(d)
			e.Reason = string(v)
			return n, true
		}
		return 0, false
	})
	return e, err
}

// ContextAction describes one entry a ContextActionModify message adds or
// removes from the client's context-action registry (SPEC_FULL's
// supplemented context-actions feature).
type ContextAction struct {
	Action  string
	Text    string
	Context uint32
}

// ContextActionModify is message type 16.
type ContextActionModify struct {
	Action  string
	Text    string
	Context uint32
	Operation uint32 // 0 = add, 1 = remove
}

func UnmarshalContextActionModify(data []byte) (*ContextActionModify, error) {
	c := &ContextActionModify{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(d)
			c.Action = string(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(d)
			c.Text = string(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			c.Context = uint32(v)
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			c.Operation = uint32(v)
			return n, true
		}
		return 0, false
	})
	return c, err
}

// UserListEntry is one row of a UserList (registered-user database)
// response.
type UserListEntry struct {
	UserID   uint32
	Name     string
	LastSeen string
}

// UserList is message type 18.
type UserList struct {
	Users []UserListEntry
}

func UnmarshalUserList(data []byte) (*UserList, error) {
	ul := &UserList{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		if num == 1 {
			v, n := protowire.ConsumeBytes(d)
			entry, err := unmarshalUserListEntry(v)
			if err == nil {
				ul.Users = append(ul.Users, *entry)
			}
			return n, true
		}
		return 0, false
	})
	return ul, err
}

func unmarshalUserListEntry(data []byte) (*UserListEntry, error) {
	e := &UserListEntry{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			e.UserID = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(d)
			e.Name = string(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(d)
			e.LastSeen = string(v)
			return n, true
		}
		return 0, false
	})
	return e, err
}

// CodecVersion is message type 21.
type CodecVersion struct {
	Alpha       int32
	Beta        int32
	PreferAlpha bool
	Opus        bool
}

func UnmarshalCodecVersion(data []byte) (*CodecVersion, error) {
	c := &CodecVersion{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			c.Alpha = int32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			c.Beta = int32(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			c.PreferAlpha = v != 0
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			c.Opus = v != 0
			return n, true
		}
		return 0, false
	})
	return c, err
}

// UserStats is message type 22 — only the fields surfaced by OnUserStats
// (spec's hook table); the real message carries a much larger diagnostic
// payload (certificate chain, per-codec counters) that has no consumer in
// this client.
type UserStats struct {
	Session    uint32
	StatsOnly  bool
	UDPPackets uint32
	TCPPackets uint32
	Version    *Version
}

func UnmarshalUserStats(data []byte) (*UserStats, error) {
	u := &UserStats{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			u.Session = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			u.StatsOnly = v != 0
			return n, true
		case 7:
			v, n := protowire.ConsumeBytes(d)
			ver, err := UnmarshalVersion(v)
			if err == nil {
				u.Version = ver
			}
			return n, true
		}
		return 0, false
	})
	return u, err
}

// ServerConfig is message type 24.
type ServerConfig struct {
	MaxBandwidth       uint32
	WelcomeText        string
	AllowHTML          bool
	MessageLength      uint32
	ImageMessageLength uint32
	MaxUsers           uint32
}

func UnmarshalServerConfig(data []byte) (*ServerConfig, error) {
	s := &ServerConfig{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			s.MaxBandwidth = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(d)
			s.WelcomeText = string(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			s.AllowHTML = v != 0
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			s.MessageLength = uint32(v)
			return n, true
		case 5:
			v, n := protowire.ConsumeVarint(d)
			s.ImageMessageLength = uint32(v)
			return n, true
		case 6:
			v, n := protowire.ConsumeVarint(d)
			s.MaxUsers = uint32(v)
			return n, true
		}
		return 0, false
	})
	return s, err
}

// SuggestConfig is message type 25.
type SuggestConfig struct {
	Version     uint32
	HasVersion  bool
	Positional  bool
	HasPositional bool
	PushToTalk  bool
	HasPushToTalk bool
}

func UnmarshalSuggestConfig(data []byte) (*SuggestConfig, error) {
	s := &SuggestConfig{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			s.Version, s.HasVersion = uint32(v), true
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			s.Positional, s.HasPositional = v != 0, true
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			s.PushToTalk, s.HasPushToTalk = v != 0, true
			return n, true
		}
		return 0, false
	})
	return s, err
}

// PluginDataTransmission is message type 26.
type PluginDataTransmission struct {
	SenderSession    uint32
	ReceiverSessions []uint32
	Data             []byte
	DataID           string
}

func (p *PluginDataTransmission) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, p.SenderSession)
	for _, r := range p.ReceiverSessions {
		b = appendUint32Field(b, 2, r)
	}
	b = appendBytesField(b, 3, p.Data)
	b = appendStringField(b, 4, p.DataID)
	return b
}

func UnmarshalPluginDataTransmission(data []byte) (*PluginDataTransmission, error) {
	p := &PluginDataTransmission{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			p.SenderSession = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			p.ReceiverSessions = append(p.ReceiverSessions, uint32(v))
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(d)
			p.Data = append([]byte(nil), v...)
			return n, true
		case 4:
			v, n := protowire.ConsumeBytes(d)
			p.DataID = string(v)
			return n, true
		}
		return 0, false
	})
	return p, err
}

// VoiceTargetEntry is one rule within a VoiceTarget message: either a
// direct set of sessions, or a channel (optionally scoped to a group and
// expanded to linked/child channels).
type VoiceTargetEntry struct {
	Sessions  []uint32
	ChannelID uint32
	Group     string
	Links     bool
	Children  bool
}

func (e *VoiceTargetEntry) marshal() []byte {
	var b []byte
	for _, s := range e.Sessions {
		b = appendUint32Field(b, 1, s)
	}
	if len(e.Sessions) == 0 {
		b = appendUint32Field(b, 2, e.ChannelID)
		if e.Group != "" {
			b = appendStringField(b, 3, e.Group)
		}
		b = appendBoolField(b, 4, e.Links)
		b = appendBoolField(b, 5, e.Children)
	}
	return b
}

// VoiceTarget is message type 17, outbound only: it assigns a set of
// VoiceTargetEntry rules to a server-side slot (spec §3's voice target
// registration).
type VoiceTarget struct {
	ID      uint32
	Targets []VoiceTargetEntry
}

func (v *VoiceTarget) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, v.ID)
	for _, t := range v.Targets {
		b = appendBytesField(b, 2, t.marshal())
	}
	return b
}
