package mumbleproto

import "google.golang.org/protobuf/encoding/protowire"

// Version is message type 0: the version handshake exchanged as soon as
// the TLS connection opens, in both directions.
type Version struct {
	VersionV1 uint64
	VersionV2 uint64
	Release   string
	OS        string
	OSVersion string
}

// EncodeLegacyVersion returns the legacy packed major/minor/patch form: the high 16
// bits are major, the next 8 bits are minor, the low 8 bits are patch.
func EncodeLegacyVersion(major, minor, patch uint16) uint64 {
	return uint64(major)<<16 | uint64(minor&0xFF)<<8 | uint64(patch&0xFF)
}

func (v *Version) Marshal() []byte {
	var b []byte
	if v.VersionV1 != 0 {
		b = appendUint64Field(b, 1, v.VersionV1)
	}
	if v.Release != "" {
		b = appendStringField(b, 2, v.Release)
	}
	if v.OS != "" {
		b = appendStringField(b, 3, v.OS)
	}
	if v.OSVersion != "" {
		b = appendStringField(b, 4, v.OSVersion)
	}
	if v.VersionV2 != 0 {
		b = appendUint64Field(b, 5, v.VersionV2)
	}
	return b
}

func UnmarshalVersion(data []byte) (*Version, error) {
	v := &Version{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			val, n := protowire.ConsumeVarint(d)
			v.VersionV1 = val
			return n, true
		case 2:
			val, n := protowire.ConsumeBytes(d)
			v.Release = string(val)
			return n, true
		case 3:
			val, n := protowire.ConsumeBytes(d)
			v.OS = string(val)
			return n, true
		case 4:
			val, n := protowire.ConsumeBytes(d)
			v.OSVersion = string(val)
			return n, true
		case 5:
			val, n := protowire.ConsumeVarint(d)
			v.VersionV2 = val
			return n, true
		}
		return 0, false
	})
	return v, err
}

// Major/Minor/Patch decode the packed legacy version field (v1) per spec
// §4.6's "server < 1.5" comparison (bytes 2/1/1 for major/minor/patch).
func (v *Version) Major() uint16 { return uint16(v.VersionV1 >> 16) }
func (v *Version) Minor() uint16 { return uint16(v.VersionV1 >> 8 & 0xFF) }
func (v *Version) Patch() uint16 { return uint16(v.VersionV1 & 0xFF) }
