package mumbleproto

import "google.golang.org/protobuf/encoding/protowire"

// UserState is message type 9. ListeningChannelAdd/Remove carry the
// per-listened-channel membership deltas; ListeningVolumeAdjustment pairs
// a channel id with a per-channel gain the server has configured for this
// user (supplemental feature, spec.md §4 data model "listened channel
// ids" plus SPEC_FULL's per-listened-channel volume).
type UserState struct {
	Session               uint32
	HasSession            bool
	Actor                 uint32
	Name                  string
	HasName               bool
	UserID                uint32
	HasUserID             bool
	ChannelID             uint32
	HasChannelID          bool
	Mute                  bool
	HasMute               bool
	Deaf                  bool
	HasDeaf               bool
	Suppress              bool
	HasSuppress           bool
	SelfMute              bool
	HasSelfMute           bool
	SelfDeaf              bool
	HasSelfDeaf           bool
	Texture               []byte
	Comment               string
	HasComment            bool
	Hash                  string
	CommentHash           []byte
	TextureHash           []byte
	PrioritySpeaker       bool
	HasPrioritySpeaker    bool
	Recording             bool
	HasRecording          bool
	ListeningChannelAdd   []uint32
	ListeningChannelRemove []uint32
	ListenVolumeChannel   []uint32
	ListenVolumeAdjust    []float32
}

func UnmarshalUserState(data []byte) (*UserState, error) {
	u := &UserState{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(d)
			u.Session, u.HasSession = uint32(v), true
			return n, true
		case 2:
			v, n := protowire.ConsumeVarint(d)
			u.Actor = uint32(v)
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(d)
			u.Name, u.HasName = string(v), true
			return n, true
		case 4:
			v, n := protowire.ConsumeVarint(d)
			u.UserID, u.HasUserID = uint32(v), true
			return n, true
		case 5:
			v, n := protowire.ConsumeVarint(d)
			u.ChannelID, u.HasChannelID = uint32(v), true
			return n, true
		case 6:
			v, n := protowire.ConsumeVarint(d)
			u.Mute, u.HasMute = v != 0, true
			return n, true
		case 7:
			v, n := protowire.ConsumeVarint(d)
			u.Deaf, u.HasDeaf = v != 0, true
			return n, true
		case 8:
			v, n := protowire.ConsumeVarint(d)
			u.Suppress, u.HasSuppress = v != 0, true
			return n, true
		case 9:
			v, n := protowire.ConsumeVarint(d)
			u.SelfMute, u.HasSelfMute = v != 0, true
			return n, true
		case 10:
			v, n := protowire.ConsumeVarint(d)
			u.SelfDeaf, u.HasSelfDeaf = v != 0, true
			return n, true
		case 11:
			v, n := protowire.ConsumeBytes(d)
			u.Texture = append([]byte(nil), v...)
			return n, true
		case 14:
			v, n := protowire.ConsumeBytes(d)
			u.Comment, u.HasComment = string(v), true
			return n, true
		case 15:
			v, n := protowire.ConsumeBytes(d)
			u.Hash = string(v)
			return n, true
		case 16:
			v, n := protowire.ConsumeBytes(d)
			u.CommentHash = append([]byte(nil), v...)
			return n, true
		case 17:
			v, n := protowire.ConsumeBytes(d)
			u.TextureHash = append([]byte(nil), v...)
			return n, true
		case 18:
			v, n := protowire.ConsumeVarint(d)
			u.PrioritySpeaker, u.HasPrioritySpeaker = v != 0, true
			return n, true
		case 19:
			v, n := protowire.ConsumeVarint(d)
			u.Recording, u.HasRecording = v != 0, true
			return n, true
		case 21:
			v, n := protowire.ConsumeVarint(d)
			u.ListeningChannelAdd = append(u.ListeningChannelAdd, uint32(v))
			return n, true
		case 22:
			v, n := protowire.ConsumeVarint(d)
			u.ListeningChannelRemove = append(u.ListeningChannelRemove, uint32(v))
			return n, true
		case 23:
			v, n := protowire.ConsumeVarint(d)
			u.ListenVolumeChannel = append(u.ListenVolumeChannel, uint32(v))
			return n, true
		case 24:
			v, n := protowire.ConsumeFixed32(d)
			u.ListenVolumeAdjust = append(u.ListenVolumeAdjust, fixed32ToFloat(v))
			return n, true
		}
		return 0, false
	})
	return u, err
}

func (u *UserState) Marshal() []byte {
	var b []byte
	b = appendUint32Field(b, 1, u.Session)
	b = appendUint32Field(b, 2, u.Actor)
	if u.HasName {
		b = appendStringField(b, 3, u.Name)
	}
	if u.HasUserID {
		b = appendUint32Field(b, 4, u.UserID)
	}
	if u.HasChannelID {
		b = appendUint32Field(b, 5, u.ChannelID)
	}
	if u.HasMute {
		b = appendBoolField(b, 6, u.Mute)
	}
	if u.HasDeaf {
		b = appendBoolField(b, 7, u.Deaf)
	}
	if u.HasSuppress {
		b = appendBoolField(b, 8, u.Suppress)
	}
	if u.HasSelfMute {
		b = appendBoolField(b, 9, u.SelfMute)
	}
	if u.HasSelfDeaf {
		b = appendBoolField(b, 10, u.SelfDeaf)
	}
	if len(u.Texture) > 0 {
		b = appendBytesField(b, 11, u.Texture)
	}
	if u.HasComment {
		b = appendStringField(b, 14, u.Comment)
	}
	if u.Hash != "" {
		b = appendStringField(b, 15, u.Hash)
	}
	if len(u.CommentHash) > 0 {
		b = appendBytesField(b, 16, u.CommentHash)
	}
	if len(u.TextureHash) > 0 {
		b = appendBytesField(b, 17, u.TextureHash)
	}
	if u.HasPrioritySpeaker {
		b = appendBoolField(b, 18, u.PrioritySpeaker)
	}
	if u.HasRecording {
		b = appendBoolField(b, 19, u.Recording)
	}
	for _, c := range u.ListeningChannelAdd {
		b = appendUint32Field(b, 21, c)
	}
	for _, c := range u.ListeningChannelRemove {
		b = appendUint32Field(b, 22, c)
	}
	for _, c := range u.ListenVolumeChannel {
		b = appendUint32Field(b, 23, c)
	}
	for _, v := range u.ListenVolumeAdjust {
		b = appendFloatField(b, 24, v)
	}
	return b
}
