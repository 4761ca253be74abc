package mumbleproto

import "google.golang.org/protobuf/encoding/protowire"

// TextMessage is message type 11.
type TextMessage struct {
	Actor     uint32
	Sessions  []uint32
	ChannelID []uint32
	TreeID    []uint32
	Message   string
}

func (t *TextMessage) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, t.Actor)
	for _, s := range t.Sessions {
		b = appendUint32Field(b, 2, s)
	}
	for _, c := range t.ChannelID {
		b = appendUint32Field(b, 3, c)
	}
	for _, t2 := range t.TreeID {
		b = appendUint32Field(b, 4, t2)
	}
	b = appendStringField(b, 5, t.Message)
	return b
}

func UnmarshalTextMessage(data []byte) (*TextMessage, error) {
	t := &TextMessage{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			t.Actor = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			t.Sessions = append(t.Sessions, uint32(v))
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			t.ChannelID = append(t.ChannelID, uint32(v))
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			t.TreeID = append(t.TreeID, uint32(v))
			return n, true
		case 5:
			v, n := protowire.ConsumeBytes(d)
			t.Message = string(v)
			return n, true
		}
		return 0, false
	})
	return t, err
}

// PermissionDenied is message type 12.
type PermissionDenied struct {
	Permission uint32
	ChannelID  uint32
	Session    uint32
	Reason     string
	Type       uint32
	Name       string
}

func UnmarshalPermissionDenied(data []byte) (*PermissionDenied, error) {
	p := &PermissionDenied{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			p.Permission = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			p.ChannelID = uint32(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			p.Session = uint32(v)
			return n, true
		case 4:
			v, n := protowire.ConsumeBytes(d)
			p.Reason = string(v)
			return n, true
		case 5:
			v, n := protowire.ConsumeVarint(d)
			p.Type = uint32(v)
			return n, true
		case 6:
			v, n := protowire.ConsumeBytes(d)
			p.Name = string(v)
			return n, true
		}
		return 0, false
	})
	return p, err
}

// PermissionQuery is message type 20.
type PermissionQuery struct {
	ChannelID   uint32
	Permissions uint32
	Flush       bool
}

func UnmarshalPermissionQuery(data []byte) (*PermissionQuery, error) {
	p := &PermissionQuery{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			p.ChannelID = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			p.Permissions = uint32(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			p.Flush = v != 0
			return n, true
		}
		return 0, false
	})
	return p, err
}

// ACLEntry is one grant/deny/inherit row in an ACL message.
type ACLEntry struct {
	UserID       int32
	Group        string
	ApplyHere    bool
	ApplySubs    bool
	Grant        uint32
	Deny         uint32
}

// ACL is message type 13 — exposed to embedders as a read-only view
// (spec §1 "wrappers that exist only to expose ... ban-list Protobuf
// fields" is out of scope; this is the corresponding read model for ACL).
type ACL struct {
	ChannelID        uint32
	InheritACLs      bool
	Groups           []string
	Entries          []ACLEntry
}

func UnmarshalACL(data []byte) (*ACL, error) {
	a := &ACL{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			a.ChannelID = uint32(v)
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			a.InheritACLs = v != 0
			return n, true
		case 4:
			v, n := protowire.ConsumeBytes(d)
			entry, err := unmarshalACLEntry(v)
			if err == nil {
				a.Entries = append(a.Entries, *entry)
			}
			return n, true
		}
		return 0, false
	})
	return a, err
}

func unmarshalACLEntry(data []byte) (*ACLEntry, error) {
	e := &ACLEntry{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			e.ApplyHere = v != 0
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			e.ApplySubs = v != 0
			return n, true
		case 3:
			v, n := protowire.ConsumeVarint(d)
			e.UserID = int32(v)
			return n, true
		case 4:
			v, n := protowire.ConsumeBytes(d)
			e.Group = string(v)
			return n, true
		case 5:
			v, n := protowire.ConsumeVarint(d)
			e.Grant = uint32(v)
			return n, true
		case 6:
			v, n := protowire.ConsumeVarint(d)
			e.Deny = uint32(v)
			return n, true
		}
		return 0, false
	})
	return e, err
}

// QueryUsers is message type 14.
type QueryUsers struct {
	IDs   []uint32
	Names []string
}

func (q *QueryUsers) Marshal() []byte {
	var b []byte
	for _, id := range q.IDs {
		b = appendUint32Field(b, 1, id)
	}
	for _, n := range q.Names {
		b = appendStringField(b, 2, n)
	}
	return b
}

func UnmarshalQueryUsers(data []byte) (*QueryUsers, error) {
	q := &QueryUsers{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			q.IDs = append(q.IDs, uint32(v))
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(d)
			q.Names = append(q.Names, string(v))
			return n, true
		}
		return 0, false
	})
	return q, err
}
