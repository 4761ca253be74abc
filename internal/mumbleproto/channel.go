package mumbleproto

import "google.golang.org/protobuf/encoding/protowire"

// ChannelState is message type 7. LinksAdd/LinksRemove carry incremental
// set-algebra updates; Links (when present) replaces the full link set
// (spec §4.6 "apply links-add/links-remove/links-replace set algebra").
type ChannelState struct {
	ChannelID         uint32
	HasChannelID      bool
	Parent            uint32
	HasParent         bool
	Name              string
	HasName           bool
	Links             []uint32
	HasLinks          bool
	Description       string
	HasDescription    bool
	LinksAdd          []uint32
	LinksRemove       []uint32
	Temporary         bool
	Position          int32
	HasPosition       bool
	DescriptionHash   []byte
	MaxUsers          uint32
	IsEnterRestricted bool
	CanEnter          bool
	HasCanEnter       bool
}

func UnmarshalChannelState(data []byte) (*ChannelState, error) {
	c := &ChannelState{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			c.ChannelID, c.HasChannelID = uint32(v), true
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			c.Parent, c.HasParent = uint32(v), true
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(d)
			c.Name, c.HasName = string(v), true
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			c.Links, c.HasLinks = append(c.Links, uint32(v)), true
			return n, true
		case 5:
			v, n := protowire.ConsumeBytes(d)
			c.Description, c.HasDescription = string(v), true
			return n, true
		case 6:
			v, n := protowire.ConsumeVarint(d)
			c.LinksAdd = append(c.LinksAdd, uint32(v))
			return n, true
		case 7:
			v, n := protowire.ConsumeVarint(d)
			c.LinksRemove = append(c.LinksRemove, uint32(v))
			return n, true
		case 8:
			v, n := protowire.ConsumeVarint(d)
			c.Temporary = v != 0
			return n, true
		case 9:
			v, n := protowire.ConsumeVarint(d)
			c.Position, c.HasPosition = int32(v), true
			return n, true
		case 10:
			v, n := protowire.ConsumeBytes(d)
			c.DescriptionHash = append([]byte(nil), v...)
			return n, true
		case 11:
			v, n := protowire.ConsumeVarint(d)
			c.MaxUsers = uint32(v)
			return n, true
		case 12:
			v, n := protowire.ConsumeVarint(d)
			c.IsEnterRestricted = v != 0
			return n, true
		case 13:
			v, n := protowire.ConsumeVarint(d)
			c.CanEnter, c.HasCanEnter = v != 0, true
			return n, true
		}
		return 0, false
	})
	return c, err
}

func (c *ChannelState) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, c.ChannelID)
	if c.HasParent {
		b = appendUint32Field(b, 2, c.Parent)
	}
	if c.HasName {
		b = appendStringField(b, 3, c.Name)
	}
	for _, l := range c.Links {
		b = appendUint32Field(b, 4, l)
	}
	if c.HasDescription {
		b = appendStringField(b, 5, c.Description)
	}
	for _, l := range c.LinksAdd {
		b = appendUint32Field(b, 6, l)
	}
	for _, l := range c.LinksRemove {
		b = appendUint32Field(b, 7, l)
	}
	b = appendBoolField(b, 8, c.Temporary)
	if c.HasPosition {
		b = appendInt64Field(b, 9, int64(c.Position))
	}
	if len(c.DescriptionHash) > 0 {
		b = appendBytesField(b, 10, c.DescriptionHash)
	}
	if c.MaxUsers != 0 {
		b = appendUint32Field(b, 11, c.MaxUsers)
	}
	b = appendBoolField(b, 12, c.IsEnterRestricted)
	if c.HasCanEnter {
		b = appendBoolField(b, 13, c.CanEnter)
	}
	return b
}

// ChannelRemove is message type 6.
type ChannelRemove struct {
	ChannelID uint32
}

func UnmarshalChannelRemove(data []byte) (*ChannelRemove, error) {
	c := &ChannelRemove{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		if num == 1 {
			v, n := protowire.ConsumeVarint(d)
			c.ChannelID = uint32(v)
			return n, true
		}
		return 0, false
	})
	return c, err
}
