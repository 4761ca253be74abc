package mumbleclient

import (
	"io"
	"testing"
)

// fakeDecoder emits a fixed mono PCM buffer at outputRate, so AudioSource's
// ring/resample path can be exercised without any real sound-file codec.
type fakeDecoder struct {
	samples []float32
	pos     int
	rate    int
	ch      int
	closed  bool
}

func newFakeDecoder(samples []float32) *fakeDecoder {
	return &fakeDecoder{samples: samples, rate: outputRate, ch: 1}
}

func (d *fakeDecoder) Read(dst []float32) (int, error) {
	remaining := len(d.samples) - d.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	n := len(dst)
	if n > remaining {
		n = remaining
	}
	copy(dst[:n], d.samples[d.pos:d.pos+n])
	d.pos += n
	if d.pos >= len(d.samples) {
		return n, io.EOF
	}
	return n, nil
}

func (d *fakeDecoder) SampleRate() int { return d.rate }
func (d *fakeDecoder) Channels() int   { return d.ch }

func (d *fakeDecoder) Seek(mode SeekMode, offset int64) error {
	if mode == SeekSet && offset == 0 {
		d.pos = 0
	}
	return nil
}

func (d *fakeDecoder) LengthFrames() int64 { return int64(len(d.samples)) }
func (d *fakeDecoder) Tags() SoundTags     { return SoundTags{Title: "fake"} }
func (d *fakeDecoder) Close() error        { d.closed = true; return nil }

func TestAudioSourcePlayFillReadMixed(t *testing.T) {
	dec := newFakeDecoder([]float32{0.1, 0.2, 0.3, 0.4})
	src := NewAudioSource(dec)

	if err := src.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	src.fill()

	dst := make([]float32, 4*mixChannels)
	frames, eos := src.readMixed(dst)
	if frames != 4 {
		t.Fatalf("frames = %d, want 4", frames)
	}
	// fill hit EOF with looping disabled, so playback stopped; reading all
	// 4 frames drained the ring, so end-of-stream comes with them.
	if !eos {
		t.Fatalf("eos = false, want true once the stopped stream's ring is drained")
	}
	// Mono source: each stereo frame duplicates the source sample to both
	// channels (adaptChannels' mono case).
	if dst[0] != 0.1 || dst[1] != 0.1 {
		t.Fatalf("dst[0:2] = %v, want [0.1 0.1]", dst[0:2])
	}
}

func TestAudioSourceEndOfStreamWithoutLoop(t *testing.T) {
	dec := newFakeDecoder([]float32{0.1, 0.2})
	src := NewAudioSource(dec)
	src.Play()
	src.fill()

	dst := make([]float32, 2*mixChannels)
	src.readMixed(dst)

	// fill() should have driven the source to end-of-stream and stopped
	// playback since looping is disabled by default.
	dst2 := make([]float32, mixChannels)
	_, eos := src.readMixed(dst2)
	if !eos {
		t.Fatalf("eos = false, want true once drained with looping disabled")
	}
}

func TestAudioSourceLoopingReplaysStream(t *testing.T) {
	dec := newFakeDecoder([]float32{0.5, 0.5})
	src := NewAudioSource(dec)
	src.SetLooping(-1)
	src.Play()

	src.fill() // decode one pass to EOF, loop back to start
	src.fill() // decode a second pass after the seek-to-0

	if src.r.count != 2*2*mixChannels {
		t.Fatalf("ring holds %d samples, want %d (two passes of the 2-frame stream)", src.r.count, 2*2*mixChannels)
	}
	if !src.playing {
		t.Fatalf("playing = false, want still playing after loop")
	}
}

func TestAudioSourceSeekResetsRingAndResampler(t *testing.T) {
	dec := newFakeDecoder([]float32{0.1, 0.2, 0.3, 0.4})
	src := NewAudioSource(dec)
	src.Play()
	src.fill()

	if err := src.Seek(SeekSet, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if src.r.count != 0 {
		t.Fatalf("ring count after Seek = %d, want 0", src.r.count)
	}
}

func TestAudioSourceFadeOutEndsStream(t *testing.T) {
	dec := newFakeDecoder(make([]float32, 1000))
	src := NewAudioSource(dec)
	src.Play()
	src.FadeOut(1)

	fs := src.fade()
	_, fadeEnded := fs.advance(src.volume())
	if !fadeEnded {
		t.Fatalf("fade did not end after its single frame")
	}
}
