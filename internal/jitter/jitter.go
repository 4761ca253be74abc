// Package jitter implements a per-sender jitter buffer for inbound Mumble
// voice datagrams.
//
// It reorders out-of-order packets using sequence numbers, buffers a
// configurable number of frames before starting playback, and signals
// missing frames so the caller can invoke Opus packet-loss concealment —
// preferring the next packet's in-band FEC payload over blind PLC when
// one is available.
package jitter

import (
	"time"

	"mumbleclient/internal/frame"
)

const (
	ringSize = 16 // must be power of 2
	ringMask = ringSize - 1

	// staleTimeout is how long a sender must be silent before their stream
	// is pruned from the buffer.
	staleTimeout = 500 * time.Millisecond
)

// Frame is a single voice frame released by Pop, ready for delivery to a
// client's inbound-voice hooks.
type Frame struct {
	SenderID uint32
	// Packet is nil when the sequence slot's playback deadline passed
	// without the packet arriving: a loss the caller must conceal.
	Packet *frame.VoicePacket
	// FECData is the opus payload of the *next* buffered frame, supplied
	// only when Packet is nil and that next frame is present. Opus
	// encodes a lossy copy of the previous frame alongside the current
	// one when in-band FEC is enabled (voice.Encoder.SetInBandFEC); the
	// caller can decode FECData with that parameter instead of falling
	// back to plain PLC.
	FECData []byte
}

// slot holds one voice packet in the ring buffer.
type slot struct {
	packet *frame.VoicePacket
	seq    uint16
	set    bool
}

// stream tracks per-sender jitter buffer state.
type stream struct {
	ring     [ringSize]slot
	nextPlay uint16    // next sequence number to consume
	primed   bool      // true once we've buffered enough frames to start
	count    int       // frames received during priming
	lastRecv time.Time // time of last Push
}

// Buffer is a per-sender jitter buffer. Not safe for concurrent use;
// the caller (the client's inbound voice loop) is the sole reader and
// synchronises externally.
type Buffer struct {
	streams map[uint32]*stream
	depth   int // frames to buffer before starting playback
}

// New creates a jitter buffer with the given depth (in 20 ms frames).
// A depth of 3 adds ~60 ms latency and tolerates reordering within that window.
func New(depth int) *Buffer {
	return &Buffer{
		streams: make(map[uint32]*stream),
		depth:   clampDepth(depth),
	}
}

func clampDepth(depth int) int {
	if depth < 1 {
		depth = 1
	}
	if depth > ringSize/2 {
		depth = ringSize / 2
	}
	return depth
}

// SetDepth changes the priming depth used for newly (re)primed streams.
// Streams already primed keep running at their original depth until they
// reset; this mirrors adapt.TargetJitterDepth being re-evaluated on each
// ping round-trip without disrupting audio already in flight.
func (b *Buffer) SetDepth(depth int) {
	b.depth = clampDepth(depth)
}

// Depth returns the buffer's current priming depth.
func (b *Buffer) Depth() int { return b.depth }

// Push inserts a received voice packet into its sender's ring buffer,
// keyed by the packet's session id and sequence number.
func (b *Buffer) Push(vp *frame.VoicePacket) {
	seq := uint16(vp.Sequence)
	s, ok := b.streams[vp.Sender]
	if !ok {
		s = &stream{nextPlay: seq}
		b.streams[vp.Sender] = s
	}
	s.lastRecv = time.Now()

	idx := int(seq) & ringMask

	if !s.primed {
		// During priming, accumulate frames without consuming.
		s.ring[idx] = slot{packet: vp, seq: seq, set: true}
		s.count++
		if s.count >= b.depth {
			s.primed = true
		}
		return
	}

	// Signed distance from nextPlay: positive = ahead, negative = behind.
	dist := int16(seq - s.nextPlay)

	if dist < 0 {
		// Late arrival (already played past this seq) — drop.
		return
	}
	if int(dist) >= ringSize {
		// Way ahead of expectation — likely a sender restart or long gap.
		// Reset the stream and start priming again.
		*s = stream{
			nextPlay: seq,
			lastRecv: time.Now(),
			count:    1,
		}
		s.ring[idx] = slot{packet: vp, seq: seq, set: true}
		if s.count >= b.depth {
			s.primed = true
		}
		return
	}

	s.ring[idx] = slot{packet: vp, seq: seq, set: true}
}

// Pop returns one frame per active sender for the current 20 ms playback tick.
// Senders that have gone silent for more than staleTimeout are pruned.
func (b *Buffer) Pop() []Frame {
	now := time.Now()
	var frames []Frame
	var stale []uint32

	for id, s := range b.streams {
		if now.Sub(s.lastRecv) > staleTimeout {
			stale = append(stale, id)
			continue
		}
		if !s.primed {
			continue
		}

		idx := int(s.nextPlay) & ringMask
		if s.ring[idx].set && s.ring[idx].seq == s.nextPlay {
			frames = append(frames, Frame{SenderID: id, Packet: s.ring[idx].packet})
			s.ring[idx] = slot{} // clear
		} else {
			// Missing frame — offer the next slot's data for FEC if it's
			// already arrived, else signal plain PLC.
			s.ring[idx] = slot{} // clear any stale data
			fr := Frame{SenderID: id}
			nextIdx := (idx + 1) & ringMask
			nextSeq := s.nextPlay + 1
			if n := s.ring[nextIdx]; n.set && n.seq == nextSeq {
				fr.FECData = n.packet.OpusData
			}
			frames = append(frames, fr)
		}
		s.nextPlay++
	}

	for _, id := range stale {
		delete(b.streams, id)
	}

	return frames
}

// Reset clears all buffered state (e.g. on disconnect).
func (b *Buffer) Reset() {
	b.streams = make(map[uint32]*stream)
}

// ActiveSenders returns the number of senders with primed streams.
func (b *Buffer) ActiveSenders() int {
	n := 0
	for _, s := range b.streams {
		if s.primed {
			n++
		}
	}
	return n
}
