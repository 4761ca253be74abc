package ocb

import (
	"crypto/cipher"
	"errors"
)

// ErrReplay is returned when a datagram's nonce byte has already been
// consumed (an exact replay, or a stale retransmit far outside the late
// window).
var ErrReplay = errors.New("ocb: replayed or stale packet")

// CryptState holds the symmetric key and the two independent nonce
// counters (one per direction) that together implement Mumble's UDP
// datagram authentication scheme (spec §4.2).
//
// A CryptState is not safe for concurrent use; callers serialize encrypt
// and decrypt through the same goroutine that owns the UDP socket, the way
// the teacher's tls.go treats a *tls.Config as build-once, read-many.
type CryptState struct {
	block cipher.Block

	// eiv is our local "encrypt" nonce: it increments on every Seal.
	eiv [blockSize]byte
	// div is the remote "decrypt" nonce: the last nonce byte-0 we've
	// accepted, tracked so out-of-order and lost packets can be detected.
	div [blockSize]byte

	// replay guards against exact replays: replay[b] is the div[1] value
	// last accepted when div[0] == b.
	replay [256]uint8
	seen   [256]bool

	Good, Late, Lost, Resyncs uint32
}

// New builds a CryptState from a 16-byte AES-128 key and the client/server
// IV pair exchanged during the CryptSetup handshake.
func New(key, clientIV, serverIV []byte) (*CryptState, error) {
	block, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	cs := &CryptState{block: block}
	copy(cs.eiv[:], clientIV)
	copy(cs.div[:], serverIV)
	return cs, nil
}

// incrementNonce treats n as a 128-bit little-endian counter (byte 0 is
// least significant) and adds 1, carrying up through the array.
func incrementNonce(n *[blockSize]byte) {
	for i := range n {
		n[i]++
		if n[i] != 0 {
			return
		}
	}
}

// decrementUpper undoes one byte-0 carry's worth of increment across
// n[1:], borrowing across a 0x00->0xFF boundary exactly like
// incrementNonce carries the other way. Used when a late packet's iv0
// byte is numerically ahead of the current div[0]: that can only mean
// div[0] has wrapped (0xFF -> 0x00, carrying into div[1:]) at least once
// since the late packet was originally sent, so div[1:] must be rolled
// back to the value it held at that time before the packet can verify.
func decrementUpper(n *[blockSize]byte) {
	for i := 1; i < len(n); i++ {
		n[i]--
		if n[i] != 0xFF {
			return
		}
	}
}

// Seal encrypts plaintext and returns the wire datagram: a 1-byte nonce
// tag, a 3-byte truncated OCB tag, then the ciphertext.
func (cs *CryptState) Seal(plaintext []byte) []byte {
	incrementNonce(&cs.eiv)
	ciphertext, tag := Seal(cs.block, cs.eiv, plaintext)

	out := make([]byte, 4+len(ciphertext))
	out[0] = cs.eiv[0]
	copy(out[1:4], tag[:3])
	copy(out[4:], ciphertext)
	return out
}

// Open validates and decrypts a wire datagram produced by the peer's Seal.
//
// Decrypt follows spec §4.2: packets arriving with the expected next nonce
// byte advance div in lock-step; a small negative gap is treated as a late
// (reordered) packet and decrypted against a temporarily rewound div; a
// positive gap counts the skipped sequence numbers as lost; anything
// further out of range is rejected outright as stale. An exact replay
// (same div[0], same previously-accepted div[1]) is rejected before any
// decryption is attempted.
func (cs *CryptState) Open(datagram []byte) ([]byte, error) {
	if len(datagram) < 4 {
		return nil, ErrShort
	}
	ivByte := datagram[0]
	var tag [blockSize]byte
	copy(tag[:3], datagram[1:4])
	ciphertext := datagram[4:]

	saved := cs.div
	late := false

	switch delta := int8(ivByte - cs.div[0]); {
	case delta == 1:
		incrementNonce(&cs.div)
	case delta > 1:
		cs.Lost += uint32(delta - 1)
		for i := int8(0); i < delta; i++ {
			incrementNonce(&cs.div)
		}
	case delta <= 0 && delta > -30:
		late = true
		if ivByte > cs.div[0] {
			// The late byte reads numerically higher than our current
			// div[0] even though it arrived behind: div[0] must have
			// wrapped past 0xFF since this packet was sent, carrying
			// div[1:] forward. Borrow that carry back out before using
			// div to verify this packet's tag (spec §4.2;
			// original_source/mumble/ocb.c's matching branch).
			decrementUpper(&cs.div)
		}
		cs.div[0] = ivByte
	default:
		return nil, ErrReplay
	}

	if cs.seen[cs.div[0]] && cs.replay[cs.div[0]] == cs.div[1] {
		cs.div = saved
		return nil, ErrReplay
	}

	plaintext, err := Open(cs.block, cs.div, ciphertext, tag)
	if err != nil {
		cs.div = saved
		return nil, err
	}

	cs.replay[cs.div[0]] = cs.div[1]
	cs.seen[cs.div[0]] = true
	cs.Good++
	if late {
		cs.Late++
		cs.div = saved
	}
	return plaintext, nil
}

// Resync resets the decrypt-side nonce to match a freshly received IV,
// called after a burst of consecutive decrypt failures (spec §4.2's
// resync path) rather than letting the stream stay desynchronized.
func (cs *CryptState) Resync(serverIV []byte) {
	copy(cs.div[:], serverIV)
	cs.seen = [256]bool{}
	cs.replay = [256]uint8{}
	cs.Resyncs++
}
