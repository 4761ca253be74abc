package mumbleclient

import (
	"io"
	"math"
)

// NotificationSound identifies a built-in UI audio cue an embedder can play
// through the normal AudioSource/mixing path (SPEC_FULL.md §4 supplement,
// adapted from client/notification.go's synthesized-tone generator).
type NotificationSound int

const (
	SoundConnect    NotificationSound = iota // ascending two-tone: C5 -> G5
	SoundDisconnect                          // descending two-tone: G5 -> C5
	SoundUserJoined                          // single high ping: A5
	SoundUserLeft                            // single low ping: A4
	SoundMute                                // descending tone: C5 -> A4
	SoundUnmute                              // ascending tone: A4 -> C5
)

// notifVolume is the peak amplitude of notification tones in [-1, 1].
const notifVolume = 0.18

// notifSampleRate matches every other source's output target so no
// resampling is needed on the notification path.
const notifSampleRate = outputRate

// PlayNotification synthesizes sound and plays it through the mixer at unit
// volume, exactly like any embedder-supplied AudioSource.
func (c *Client) PlayNotification(sound NotificationSound) error {
	dec := newToneDecoder(sound)
	if dec == nil {
		return nil
	}
	return c.PlaySource(NewAudioSource(dec))
}

// toneDecoder is a Decoder that plays a short fixed PCM buffer once and then
// reports io.EOF; it needs neither seeking by content nor looping support
// beyond what AudioSource already provides.
type toneDecoder struct {
	samples []float32
	pos     int
}

func newToneDecoder(sound NotificationSound) *toneDecoder {
	tones := tonesFor(sound)
	if tones == nil {
		return nil
	}
	var samples []float32
	for _, t := range tones {
		samples = append(samples, sineTone(float64(t.freqHz), t.durMs)...)
	}
	return &toneDecoder{samples: samples}
}

type tone struct {
	freqHz int
	durMs  int
}

func tonesFor(sound NotificationSound) []tone {
	switch sound {
	case SoundConnect:
		return []tone{{523, 80}, {784, 120}}
	case SoundDisconnect:
		return []tone{{784, 80}, {523, 120}}
	case SoundUserJoined:
		return []tone{{880, 120}}
	case SoundUserLeft:
		return []tone{{440, 120}}
	case SoundMute:
		return []tone{{523, 80}, {440, 100}}
	case SoundUnmute:
		return []tone{{440, 80}, {523, 100}}
	default:
		return nil
	}
}

// sineTone renders a mono sine wave at freqHz for durMs milliseconds with a
// 5 ms linear fade-in/out envelope to avoid clicks.
func sineTone(freqHz float64, durMs int) []float32 {
	total := notifSampleRate * durMs / 1000
	out := make([]float32, total)

	fadeLen := notifSampleRate * 5 / 1000
	if fadeLen > total/2 {
		fadeLen = total / 2
	}

	for i := range out {
		t := float64(i) / float64(notifSampleRate)
		s := float32(math.Sin(2 * math.Pi * freqHz * t))

		env := float32(1.0)
		switch {
		case i < fadeLen:
			env = float32(i) / float32(fadeLen)
		case i >= total-fadeLen:
			env = float32(total-1-i) / float32(fadeLen)
		}
		out[i] = s * env * notifVolume
	}
	return out
}

func (d *toneDecoder) Read(dst []float32) (frames int, err error) {
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

func (d *toneDecoder) SampleRate() int { return notifSampleRate }
func (d *toneDecoder) Channels() int   { return 1 }

func (d *toneDecoder) Seek(mode SeekMode, offset int64) error {
	switch mode {
	case SeekSet:
		d.pos = int(offset)
	case SeekCur:
		d.pos += int(offset)
	case SeekEnd:
		d.pos = len(d.samples) + int(offset)
	}
	if d.pos < 0 {
		d.pos = 0
	}
	return nil
}

func (d *toneDecoder) LengthFrames() int64 { return int64(len(d.samples)) }
func (d *toneDecoder) Tags() SoundTags     { return SoundTags{Title: "notification"} }
func (d *toneDecoder) Close() error        { return nil }
