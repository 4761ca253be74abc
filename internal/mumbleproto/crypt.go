package mumbleproto

import "google.golang.org/protobuf/encoding/protowire"

// CryptSetup is message type 15. Exactly which of Key/ClientNonce/
// ServerNonce are present determines the keying operation (spec §4.2's
// resync protocol): all three present is a full (re)key, ServerNonce
// alone is a server-driven resync, ClientNonce alone is a client-driven
// resync request.
type CryptSetup struct {
	Key         []byte
	ClientNonce []byte
	ServerNonce []byte
}

func (c *CryptSetup) Marshal() []byte {
	var b []byte
	if len(c.Key) > 0 {
		b = appendBytesField(b, 1, c.Key)
	}
	if len(c.ClientNonce) > 0 {
		b = appendBytesField(b, 2, c.ClientNonce)
	}
	if len(c.ServerNonce) > 0 {
		b = appendBytesField(b, 3, c.ServerNonce)
	}
	return b
}

func UnmarshalCryptSetup(data []byte) (*CryptSetup, error) {
	c := &CryptSetup{}
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, bool) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(d)
			c.Key = append([]byte(nil), v...)
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(d)
			c.ClientNonce = append([]byte(nil), v...)
			return n, true
		case 3:
			v, n := protowire.ConsumeBytes(d)
			c.ServerNonce = append([]byte(nil), v...)
			return n, true
		}
		return 0, false
	})
	return c, err
}
