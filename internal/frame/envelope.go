// Package frame implements the on-wire shapes Mumble uses outside the
// Protobuf message bodies themselves: the TCP control-channel envelope,
// and the UDP legacy/Protobuf voice and ping headers (spec §4.6-§4.7).
//
// The TCP reader follows the same "buffer incrementally across readiness
// events, decide on a complete frame, hand a borrowed slice to exactly one
// handler" shape as the teacher's bufio.Scanner-based readControl, adapted
// from newline-delimited JSON to a fixed binary length-prefixed envelope.
package frame

import (
	"encoding/binary"
	"errors"
)

const (
	// HeaderSize is the fixed TCP envelope header: u16 type, u32 length.
	HeaderSize = 6

	// MaxPayload is the largest payload length this reader accepts before
	// treating the frame as a protocol violation (spec §4.6: "8 MiB - 1").
	MaxPayload = 8*1024*1024 - 1
)

// ErrOversizeFrame is returned when a declared payload length exceeds
// MaxPayload; the caller MUST close the connection on this error.
var ErrOversizeFrame = errors.New("frame: envelope length exceeds maximum")

// Envelope is one decoded TCP control-channel frame: a message type
// number and a borrowed view of its payload bytes.
type Envelope struct {
	Type    uint16
	Payload []byte
}

// EncodeEnvelope appends a complete envelope (header + payload) to buf.
func EncodeEnvelope(buf []byte, msgType uint16, payload []byte) []byte {
	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint16(hdr[0:2], msgType)
	binary.BigEndian.PutUint32(hdr[2:6], uint32(len(payload)))
	buf = append(buf, hdr[:]...)
	return append(buf, payload...)
}

// Reader incrementally assembles TCP envelopes from a byte stream that may
// arrive in arbitrary chunk sizes. It is not safe for concurrent use; the
// owning event-loop goroutine is the sole caller.
type Reader struct {
	buf []byte
}

// Feed appends newly read bytes to the reader's internal buffer.
func (r *Reader) Feed(data []byte) {
	r.buf = append(r.buf, data...)
}

// Next attempts to decode one complete envelope from the buffered bytes.
// It returns ok=false (with a nil error) when more data is needed. The
// returned Envelope's Payload aliases the reader's internal buffer and is
// only valid until the next call to Next or Feed.
func (r *Reader) Next() (env Envelope, ok bool, err error) {
	if len(r.buf) < HeaderSize {
		return Envelope{}, false, nil
	}
	msgType := binary.BigEndian.Uint16(r.buf[0:2])
	length := binary.BigEndian.Uint32(r.buf[2:6])
	if length > MaxPayload {
		return Envelope{}, false, ErrOversizeFrame
	}
	total := HeaderSize + int(length)
	if len(r.buf) < total {
		return Envelope{}, false, nil
	}

	env = Envelope{Type: msgType, Payload: r.buf[HeaderSize:total]}
	r.buf = r.buf[total:]
	return env, true, nil
}

// Pending reports how many bytes are currently buffered, awaiting a
// complete frame.
func (r *Reader) Pending() int {
	return len(r.buf)
}
