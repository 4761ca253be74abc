package mumbleclient

import (
	"io"
	"sync"

	"mumbleclient/internal/audiotypes"
)

// SeekMode selects the origin for AudioSource.Seek, matching the standard
// io.Seeker constants {set, cur, end} (spec §4.4). Aliased from
// internal/audiotypes so internal/capture's live-microphone Decoder can
// implement Seek/Tags against the same named types without importing
// this package back (see audiotypes' doc comment).
type SeekMode = audiotypes.SeekMode

const (
	SeekSet = audiotypes.SeekSet
	SeekCur = audiotypes.SeekCur
	SeekEnd = audiotypes.SeekEnd
)

// SoundTags holds the metadata tags a decoder may expose (spec §4.4,
// supplemented per SPEC_FULL.md §4 from the original source's sound-file
// tag queries).
type SoundTags = audiotypes.SoundTags

// Decoder is the embedder-supplied or built-in PCM producer behind an
// AudioSource: a seekable stream of interleaved float32 samples at a fixed
// rate and channel count. Implementations wrap a sound-file codec; the
// core only depends on this interface, mirroring the teacher's
// opusEncoder/opusDecoder test-seam shape in client/audio.go.
type Decoder interface {
	// Read fills dst with interleaved samples and returns the number of
	// frames read. io.EOF signals end-of-stream.
	Read(dst []float32) (frames int, err error)
	SampleRate() int
	Channels() int
	// Seek repositions the decoder; offset is in frames.
	Seek(mode SeekMode, offset int64) error
	// LengthFrames returns the total stream length, or -1 if unknown
	// (e.g. a live/unbounded source).
	LengthFrames() int64
	Tags() SoundTags
	Close() error
}

// ringCapacity is the source ring buffer size in float32 samples
// (interleaved). Spec §4.4 requires room for at least two frames of 48 kHz
// stereo audio per producer cycle; sized generously above that so the
// producer can batch several decode calls per wake.
const ringCapacity = 1 << 15 // 32768 samples, power of two for masking

// ring is a single-producer/single-consumer float32 ring buffer, the same
// power-of-two-masked shape as internal/jitter's packet ring, adapted from
// discrete packets to a continuous interleaved sample stream.
type ring struct {
	buf        [ringCapacity]float32
	readIdx    int
	writeIdx   int
	count      int
}

func (r *ring) free() int { return ringCapacity - r.count }

func (r *ring) write(src []float32) int {
	n := len(src)
	if n > r.free() {
		n = r.free()
	}
	for i := 0; i < n; i++ {
		r.buf[r.writeIdx] = src[i]
		r.writeIdx = (r.writeIdx + 1) & (ringCapacity - 1)
	}
	r.count += n
	return n
}

func (r *ring) read(dst []float32) int {
	n := len(dst)
	if n > r.count {
		n = r.count
	}
	for i := 0; i < n; i++ {
		dst[i] = r.buf[r.readIdx]
		r.readIdx = (r.readIdx + 1) & (ringCapacity - 1)
	}
	r.count -= n
	return n
}

// AudioSource is a seekable, ring-buffered PCM producer feeding the mixer
// (spec §4.4). Each source has its own mutex guarding its ring-buffer
// offsets and playing/fade state, matching spec §6's concurrency model.
type AudioSource struct {
	mu sync.Mutex

	dec     Decoder
	decRate int
	decCh   int

	r    ring
	res  *resampler
	tmp  [256]float32 // scratch for one decoder read, reused across calls

	vol       float32
	fadeSt    fadeState
	playing   bool
	looping   bool // infinite loop
	loopCount int   // remaining finite loop count; -1 means infinite, 0 means none

	id registryHandle

	onEnd func(*AudioSource)
}

// registryHandle is an opaque identifier a Client assigns to track this
// source in its active set.
type registryHandle uint64

// NewAudioSource wraps dec as a mixer-ready AudioSource at unit volume,
// not yet playing.
func NewAudioSource(dec Decoder) *AudioSource {
	s := &AudioSource{
		dec:     dec,
		decRate: dec.SampleRate(),
		decCh:   dec.Channels(),
		vol:     1.0,
	}
	s.res = newResampler(s.decRate)
	return s
}

// Play attaches the source to the active set (via onEnd/registry wiring
// done by the owning Client) and starts or rewinds playback.
func (s *AudioSource) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		if err := s.dec.Seek(SeekSet, 0); err != nil {
			return err
		}
		s.res.Reset()
		s.r.readIdx, s.r.writeIdx, s.r.count = 0, 0, 0
	}
	s.playing = true
	return nil
}

// Pause stops feeding the mixer without resetting position.
func (s *AudioSource) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Stop halts playback and rewinds to the start.
func (s *AudioSource) Stop() {
	s.mu.Lock()
	s.playing = false
	s.dec.Seek(SeekSet, 0)
	s.res.Reset()
	s.r.readIdx, s.r.writeIdx, s.r.count = 0, 0, 0
	s.mu.Unlock()
}

// Seek repositions the underlying decoder and clears buffered/resampler
// state so the next mix reads from the new position cleanly.
func (s *AudioSource) Seek(mode SeekMode, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dec.Seek(mode, offset); err != nil {
		return err
	}
	s.res.Reset()
	s.r.readIdx, s.r.writeIdx, s.r.count = 0, 0, 0
	return nil
}

// FadeTo ramps the source's volume to target over durationFrames output
// frames (caller converts seconds to frames at the scheduler's cadence).
func (s *AudioSource) FadeTo(target float32, durationFrames int) {
	s.mu.Lock()
	s.fadeSt.start(s.vol, target, durationFrames, false)
	s.mu.Unlock()
}

// FadeOut ramps volume to zero and marks the source for removal once the
// ramp completes (spec §4.3: "forced to end-of-stream").
func (s *AudioSource) FadeOut(durationFrames int) {
	s.mu.Lock()
	s.fadeSt.start(s.vol, 0, durationFrames, true)
	s.mu.Unlock()
}

// SetLooping sets infinite looping (count < 0) or a finite remaining
// repeat count (count >= 0); count == 0 disables looping.
func (s *AudioSource) SetLooping(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count < 0 {
		s.looping = true
		s.loopCount = -1
		return
	}
	s.looping = false
	s.loopCount = count
}

// SetVolume sets the source's base volume multiplier.
func (s *AudioSource) SetVolume(v float32) {
	s.mu.Lock()
	s.vol = v
	s.mu.Unlock()
}

func (s *AudioSource) volume() float32  { return s.vol }
func (s *AudioSource) fade() *fadeState { s.mu.Lock(); defer s.mu.Unlock(); return &s.fadeSt }

// fill is the producer-side operation (spec §4.4): when free ring space is
// at least half capacity, decode more samples, channel/rate-adapt them,
// and write into the ring. Called from the client's producer goroutine.
func (s *AudioSource) fill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	for s.r.free() >= ringCapacity/2 {
		frames, err := s.dec.Read(s.tmp[:cap(s.tmp)/s.decCh*s.decCh])
		if frames == 0 && err != nil {
			s.handleEndOfStream()
			return
		}
		stereo := make([]float32, frames*mixChannels)
		for f := 0; f < frames; f++ {
			l, r := adaptChannels(s.tmp[f*s.decCh:f*s.decCh+s.decCh], s.decCh)
			stereo[f*mixChannels] = l
			stereo[f*mixChannels+1] = r
		}
		if s.decRate == outputRate {
			s.r.write(stereo)
		} else {
			out := make([]float32, (len(stereo)/mixChannels+1)*mixChannels)
			_, produced := s.res.Process(out, stereo, mixChannels, len(out)/mixChannels)
			s.r.write(out[:produced*mixChannels])
		}
		if err == io.EOF {
			s.handleEndOfStream()
			return
		}
	}
}

// handleEndOfStream applies the loop/stop decision from spec §4.4: seek to
// zero and keep playing (infinite or counted loop), or stop and notify.
func (s *AudioSource) handleEndOfStream() {
	switch {
	case s.looping:
		s.dec.Seek(SeekSet, 0)
		s.res.Reset()
	case s.loopCount > 0:
		s.loopCount--
		s.dec.Seek(SeekSet, 0)
		s.res.Reset()
	default:
		s.playing = false
		if s.onEnd != nil {
			go s.onEnd(s)
		}
	}
}

// readMixed implements mixSource: pull up to len(dst)/2 stereo frames from
// the ring. Returns endOfStream when playback has stopped and the ring has
// drained, so the caller can retire this source from the active set.
func (s *AudioSource) readMixed(dst []float32) (frames int, endOfStream bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.r.read(dst)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return n / mixChannels, !s.playing && s.r.count == 0
}

// LengthSamples, LengthFrames, LengthSeconds report the stream's extent in
// each of the units spec §4.4 asks for.
func (s *AudioSource) LengthFrames() int64 { return s.dec.LengthFrames() }
func (s *AudioSource) LengthSamples() int64 {
	n := s.dec.LengthFrames()
	if n < 0 {
		return -1
	}
	return n * int64(s.decCh)
}
func (s *AudioSource) LengthSeconds() float64 {
	n := s.dec.LengthFrames()
	if n < 0 || s.decRate == 0 {
		return -1
	}
	return float64(n) / float64(s.decRate)
}

// Tags returns the decoder's metadata tags.
func (s *AudioSource) Tags() SoundTags { return s.dec.Tags() }

// Close releases the underlying decoder.
func (s *AudioSource) Close() error { return s.dec.Close() }
