// Package capture opens a PortAudio input stream and exposes it as a
// mumbleclient.Decoder, so local microphone audio can be fed through the
// same AudioSource/mixer/scheduler path as any file-backed source
// (SPEC_FULL.md §4 supplement: local capture with the original source's
// AGC/VAD/noise-gate/echo-cancel chain). Grounded on client/audio.go's
// AudioEngine device listing and stream open/start/stop sequencing.
package capture

import (
	"io"
	"sync"

	"github.com/gordonklaus/portaudio"

	"mumbleclient/internal/aec"
	"mumbleclient/internal/agc"
	"mumbleclient/internal/audiotypes"
	"mumbleclient/internal/noisegate"
	"mumbleclient/internal/vad"
)

// Device describes one PortAudio input device.
type Device struct {
	ID   int
	Name string
}

// ListInputDevices returns every device with at least one input channel.
func ListInputDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var out []Device
	for i, d := range devices {
		if d.MaxInputChannels > 0 {
			out = append(out, Device{ID: i, Name: d.Name})
		}
	}
	return out, nil
}

// Mic is a mumbleclient.Decoder backed by a live PortAudio capture stream at
// a fixed sample rate and a single (mono) channel. Every captured frame is
// run through, in order, acoustic echo cancellation (if far-end audio is
// fed in via FeedFarEnd), a noise gate, automatic gain control, and voice
// activity detection; frames the VAD rejects are reported as silence
// (still delivered, so the mixer's cadence never stalls) rather than
// dropped, matching AudioSource's expectation of a steady frame stream.
type Mic struct {
	mu sync.Mutex

	stream     *portaudio.Stream
	buf        []float32
	sampleRate int

	gate *noisegate.Gate
	agc  *agc.AGC
	vad  *vad.VAD
	aec  *aec.AEC

	closed bool
}

// Open starts capturing from deviceID (or the system default if deviceID <
// 0) at sampleRate with frameSize samples per callback.
func Open(deviceID int, sampleRate, frameSize int) (*Mic, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	dev, err := resolveDevice(devices, deviceID)
	if err != nil {
		return nil, err
	}

	buf := make([]float32, frameSize)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: frameSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &Mic{
		stream:     stream,
		buf:        buf,
		sampleRate: sampleRate,
		gate:       noisegate.New(),
		agc:        agc.New(),
		vad:        vad.New(),
		aec:        aec.New(frameSize),
	}, nil
}

func resolveDevice(devices []*portaudio.DeviceInfo, idx int) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return portaudio.DefaultInputDevice()
}

// FeedFarEnd supplies the just-played-back reference signal to the echo
// canceller, matching aec.AEC's producer/consumer split.
func (m *Mic) FeedFarEnd(frame []float32) {
	m.mu.Lock()
	m.aec.FeedFarEnd(frame)
	m.mu.Unlock()
}

// Gate, AGC, VAD expose the capture chain's tunable stages to an embedder.
func (m *Mic) Gate() *noisegate.Gate { return m.gate }
func (m *Mic) AGC() *agc.AGC         { return m.agc }
func (m *Mic) VAD() *vad.VAD         { return m.vad }

// Read implements mumbleclient.Decoder: it blocks for one PortAudio buffer,
// then runs the capture chain and copies the result into dst.
func (m *Mic) Read(dst []float32) (frames int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	if err := m.stream.Read(); err != nil {
		return 0, err
	}

	frame := append([]float32(nil), m.buf...)
	m.aec.Process(frame)
	level := m.gate.Process(frame)
	frame = m.agc.Process(frame)
	if !m.gate.IsOpen() || !m.vad.ShouldSend(level) {
		for i := range frame {
			frame[i] = 0
		}
	}

	n := len(dst)
	if n > len(frame) {
		n = len(frame)
	}
	copy(dst[:n], frame[:n])
	return n, nil
}

func (m *Mic) SampleRate() int { return m.sampleRate }
func (m *Mic) Channels() int   { return 1 }

// Seek is a no-op: a live capture stream has no addressable position.
func (m *Mic) Seek(_ audiotypes.SeekMode, _ int64) error { return nil }

// LengthFrames reports -1: a live microphone stream has unbounded length.
func (m *Mic) LengthFrames() int64 { return -1 }

// Tags reports the capture chain's processing stages in place of
// file metadata, since a live input stream carries none of its own.
func (m *Mic) Tags() audiotypes.SoundTags {
	return audiotypes.SoundTags{Title: "microphone", Software: "aec+noisegate+agc+vad"}
}

// Close stops and releases the PortAudio stream.
func (m *Mic) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.stream.Stop()
	return m.stream.Close()
}
