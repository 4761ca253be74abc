// Package ocb implements the OCB-AES128 variant Mumble uses to authenticate
// and encrypt UDP voice/ping datagrams, plus the surrounding nonce
// sequencing, replay detection, and resync bookkeeping (spec §4.2).
//
// The mode itself (L/Δ doubling in GF(2^128), running checksum, truncated
// tag) is hand-rolled against crypto/aes: neither the standard library nor
// any library in the retrieved example pack ships an OCB cipher.Block mode
// (crypto/cipher only has GCM/CBC/CTR/CFB/OFB), and this is a specific,
// non-RFC-7253 variant, so there is no upstream implementation to adopt.
package ocb

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"
)

const blockSize = 16

var (
	// ErrTagMismatch is returned when the received tag bytes don't match the
	// recomputed OCB tag.
	ErrTagMismatch = errors.New("ocb: tag mismatch")
	// ErrForgery is returned when the XEX* counter-cryptanalysis check fires
	// on a decrypted short final block.
	ErrForgery = errors.New("ocb: forged short block")
	// ErrShort is returned when a datagram is too small to contain a header.
	ErrShort = errors.New("ocb: short datagram")
)

// double multiplies x by 2 in GF(2^128) using the primitive polynomial
// 0x87, treating x as a big-endian 128-bit integer (byte 0 is most
// significant), matching the OCB specification's doubling operation.
func double(x [blockSize]byte) [blockSize]byte {
	var out [blockSize]byte
	carry := x[0] >> 7
	for i := 0; i < blockSize-1; i++ {
		out[i] = x[i]<<1 | x[i+1]>>7
	}
	out[blockSize-1] = x[blockSize-1] << 1
	if carry == 1 {
		out[blockSize-1] ^= 0x87
	}
	return out
}

func xorBlock(a, b [blockSize]byte) [blockSize]byte {
	var out [blockSize]byte
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func triple(delta [blockSize]byte) [blockSize]byte {
	return xorBlock(double(delta), delta)
}

func encryptBlock(c cipher.Block, in [blockSize]byte) [blockSize]byte {
	var out [blockSize]byte
	c.Encrypt(out[:], in[:])
	return out
}

// lenEncoded returns the 16-byte length-encoding block XOR'd against the
// final pad to detect the XEX* forgery pattern: a single non-zero byte at
// the end carrying the bit length of the short block, zero elsewhere.
func lenEncoded(remainder int) [blockSize]byte {
	var out [blockSize]byte
	out[blockSize-1] = byte(remainder * 8)
	return out
}

// isCriticalPattern reports whether block is all-zero except possibly its
// last byte — the XEX* counter-cryptanalysis pattern (spec §4.2).
func isCriticalPattern(block []byte) bool {
	for i := 0; i < len(block)-1; i++ {
		if block[i] != 0 {
			return false
		}
	}
	return true
}

// NewCipher wraps an AES-128 key as the block cipher OCB operates over.
func NewCipher(key []byte) (cipher.Block, error) {
	return aes.NewCipher(key)
}

// Seal OCB-encrypts plaintext under key and nonce, returning the ciphertext
// (same length as plaintext) and the 16-byte authentication tag.
//
// If the second-to-last full block of plaintext is all-zero except
// possibly its last byte (the XEX* critical pattern), the low bit of that
// block — and of the running checksum, so the tag stays consistent — is
// flipped before encryption rather than refusing the packet outright
// (spec's primary recommendation; the bit flip is inaudible in the
// resulting Opus frame).
func Seal(c cipher.Block, nonce [blockSize]byte, plaintext []byte) (ciphertext []byte, tag [blockSize]byte) {
	work := make([]byte, len(plaintext))
	copy(work, plaintext)

	nFull := len(work) / blockSize
	if nFull >= 2 {
		start := (nFull - 2) * blockSize
		if isCriticalPattern(work[start : start+blockSize]) {
			work[start+blockSize-1] ^= 0x01
		}
	}

	delta := encryptBlock(c, nonce)
	var checksum [blockSize]byte
	out := make([]byte, len(work))

	for i := 0; i < nFull; i++ {
		delta = double(delta)
		var block [blockSize]byte
		copy(block[:], work[i*blockSize:(i+1)*blockSize])
		xored := xorBlock(block, delta)
		enc := xorBlock(encryptBlock(c, xored), delta)
		copy(out[i*blockSize:], enc[:])
		checksum = xorBlock(checksum, block)
	}

	deltaFull := delta
	rem := len(work) - nFull*blockSize
	if rem > 0 {
		deltaShort := double(delta)
		pad := encryptBlock(c, deltaShort)
		tail := work[nFull*blockSize:]
		for j := 0; j < rem; j++ {
			out[nFull*blockSize+j] = tail[j] ^ pad[j]
			checksum[j] ^= tail[j]
		}
	}

	tagDelta := xorBlock(triple(deltaFull), lenEncoded(rem))
	tag = encryptBlock(c, xorBlock(tagDelta, checksum))
	return out, tag
}

// Open OCB-decrypts ciphertext under key and nonce and verifies it against
// tag. Only the first three tag bytes, the part a datagram carries, are
// compared. Returns ErrForgery if the XEX* check fires on the final short
// block, ErrTagMismatch if those bytes of the recomputed tag disagree.
func Open(c cipher.Block, nonce [blockSize]byte, ciphertext []byte, tag [blockSize]byte) ([]byte, error) {
	nFull := len(ciphertext) / blockSize
	delta := encryptBlock(c, nonce)
	var checksum [blockSize]byte
	out := make([]byte, len(ciphertext))

	for i := 0; i < nFull; i++ {
		delta = double(delta)
		var block [blockSize]byte
		copy(block[:], ciphertext[i*blockSize:(i+1)*blockSize])
		xored := xorBlock(block, delta)
		dec := xorBlock(decryptBlock(c, xored), delta)
		copy(out[i*blockSize:], dec[:])
		checksum = xorBlock(checksum, dec)
	}

	deltaFull := delta
	rem := len(ciphertext) - nFull*blockSize
	if rem > 0 {
		deltaShort := double(delta)
		pad := encryptBlock(c, deltaShort)
		tail := ciphertext[nFull*blockSize:]
		plainTail := make([]byte, rem)
		for j := 0; j < rem; j++ {
			plainTail[j] = tail[j] ^ pad[j]
			out[nFull*blockSize+j] = plainTail[j]
			checksum[j] ^= plainTail[j]
		}
		if forged(plainTail, xorBlock(deltaShort, lenEncoded(rem))) {
			return nil, ErrForgery
		}
	}

	tagDelta := xorBlock(triple(deltaFull), lenEncoded(rem))
	gotTag := encryptBlock(c, xorBlock(tagDelta, checksum))
	if subtle.ConstantTimeCompare(gotTag[:3], tag[:3]) != 1 {
		return nil, ErrTagMismatch
	}
	return out, nil
}

// forged reports whether the decrypted short block matches the XEX*
// critical value (Δ XOR len_encoded) everywhere but the trailing byte —
// the signature of a forged/attacker-crafted packet (spec §4.2).
func forged(plainTail []byte, expect [blockSize]byte) bool {
	if len(plainTail) < 2 {
		return false
	}
	for i := 0; i < len(plainTail)-1; i++ {
		if plainTail[i] != expect[i] {
			return false
		}
	}
	return true
}

func decryptBlock(c cipher.Block, in [blockSize]byte) [blockSize]byte {
	var out [blockSize]byte
	c.Decrypt(out[:], in[:])
	return out
}
