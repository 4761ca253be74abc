package mumbleclient

import (
	"sync"
	"sync/atomic"
	"time"

	"mumbleclient/internal/adapt"
	"mumbleclient/internal/frame"
	"mumbleclient/internal/voice"
)

// bandwidthOverheadBits estimates the non-Opus cost of one transmitted
// voice packet: IP+UDP headers plus the Mumble envelope/sequence/target
// bytes (spec §4.5: "{opus data size, IP+UDP overhead estimate, protocol
// envelope}").
const bandwidthOverheadBits = (20+8+frame.HeaderSize+8) * 8

// frameSizeLadder is the coarsening order bandwidth adaptation walks
// through before touching the bitrate (spec §4.5: "{10→20→40}").
var frameSizeLadder = []int{10, 20, 40}

// minBitrateKbps is the floor bandwidth adaptation will not cross (spec
// §4.5: "floor of 8 kbit/s").
const minBitrateKbps = 8

// scheduler drives the fixed-cadence encode-and-send cycle (spec §4.5).
// It owns the stereo mixing scratch, the active audio-source set, the
// Opus encoder, and the outbound sequence number.
type scheduler struct {
	mu      sync.Mutex
	sources []mixSource

	frameSizeMs int
	bitrateKbps int
	maxBandwidthBits uint64
	lossEWMA         float64 // smoothed uplink loss rate, adapt.SmoothLoss

	encoder voice.Encoder
	seq     uint64 // current audio sequence number, wraps per Mumble's voice-sequence space

	producing bool // true if the previous tick transmitted audio

	// onTransmit is invoked with the finished Opus frame, its sequence
	// number, and the terminator flag once encoding completes, on the
	// scheduler's own goroutine (spec §5: "the completion callback runs
	// on the loop thread").
	onTransmit func(opus []byte, seq uint64, terminator bool)

	// onAudioStream lets an embedder inject PCM directly into a
	// client-owned pipe buffer (spec §4.5 step (b)); its return value,
	// if non-nil, is additively mixed in identically to a source.
	onAudioStream func(sampleRate, channels, frames int) []float32

	stopCh chan struct{}
	ticker *time.Ticker
}

func newScheduler(frameSizeMs int, enc voice.Encoder) *scheduler {
	return &scheduler{
		frameSizeMs: frameSizeMs,
		bitrateKbps: 32,
		encoder:     enc,
		stopCh:      make(chan struct{}),
	}
}

// addSource / removeSource maintain the active set under the client-wide
// mutex guarding scheduler iteration (spec §5).
func (s *scheduler) addSource(src mixSource) {
	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
}

func (s *scheduler) removeSource(src mixSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.sources {
		if v == src {
			s.sources = append(s.sources[:i], s.sources[i+1:]...)
			return
		}
	}
}

// frameSamples returns the frame size in samples-per-channel at 48 kHz
// for the scheduler's current frameSizeMs.
func (s *scheduler) frameSamples() int {
	return outputRate * s.frameSizeMs / 1000
}

// start launches the periodic timer goroutine. clientVolume is read
// fresh each tick via volFn so SetVolume takes effect immediately.
func (s *scheduler) start(volFn func() float32, onFrame func()) {
	s.ticker = time.NewTicker(time.Duration(s.frameSizeMs) * time.Millisecond)
	go func() {
		for {
			select {
			case <-s.stopCh:
				s.ticker.Stop()
				return
			case <-s.ticker.C:
				s.tick(volFn())
				if onFrame != nil {
					onFrame()
				}
			}
		}
	}()
}

func (s *scheduler) stop() {
	close(s.stopCh)
}

// tick performs one scheduler cycle: mix, optionally pull embedder PCM,
// and encode+transmit on a worker when there is audio to send or a
// speech segment just ended (spec §4.5 steps a-d).
func (s *scheduler) tick(clientVolume float32) {
	frames := s.frameSamples()
	scratch := make([]float32, frames*mixChannels)

	s.mu.Lock()
	sources := append([]mixSource(nil), s.sources...)
	s.mu.Unlock()

	for _, src := range sources {
		if as, ok := src.(*AudioSource); ok {
			as.fill()
		}
	}

	ended := mixInto(scratch, sources, clientVolume)
	for _, e := range ended {
		s.removeSource(e)
	}

	producedThisTick := len(sources) > 0

	if s.onAudioStream != nil {
		if injected := s.onAudioStream(outputRate, mixChannels, frames); injected != nil {
			for i := 0; i < len(scratch) && i < len(injected); i++ {
				scratch[i] = clampFloat32(scratch[i] + injected[i])
			}
			producedThisTick = true
		}
	}

	terminator := !producedThisTick && s.producing
	shouldSend := producedThisTick || terminator
	s.producing = producedThisTick

	if !shouldSend {
		return
	}

	pcm := make([]int16, len(scratch))
	for i, v := range scratch {
		pcm[i] = int16(clampFloat32(v) * 32767)
	}

	go s.encodeAndTransmit(pcm, terminator)
}

// encodeAndTransmit runs the Opus encode on a worker so the timer
// goroutine never blocks on it (spec §4.5: "Encoding runs on a worker").
func (s *scheduler) encodeAndTransmit(pcm []int16, terminator bool) {
	buf := make([]byte, voice.MaxPacketBytes)
	n, err := s.encoder.Encode(pcm, buf)
	if err != nil {
		return
	}
	seq := s.nextSeq()
	if s.onTransmit != nil {
		s.onTransmit(buf[:n], seq, terminator)
	}
}

// nextSeq returns and increments the outbound sequence number.
func (s *scheduler) nextSeq() uint64 {
	return atomic.AddUint64(&s.seq, 1) - 1
}

// applyBandwidth implements spec §4.5's bandwidth adaptation: given a
// server-advertised max_bandwidth in bits/s, coarsen the frame size
// {10→20→40} and then lower the bitrate in 1 kbit/s steps to the floor
// until the estimated per-second cost fits.
func (s *scheduler) applyBandwidth(maxBandwidthBits uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxBandwidthBits = maxBandwidthBits

	for _, fsMs := range frameSizeLadder {
		if s.estimatedBitsPerSecond(fsMs, s.bitrateKbps) <= maxBandwidthBits {
			s.frameSizeMs = fsMs
			break
		}
		s.frameSizeMs = fsMs
	}

	for s.estimatedBitsPerSecond(s.frameSizeMs, s.bitrateKbps) > maxBandwidthBits && s.bitrateKbps > minBitrateKbps {
		s.bitrateKbps--
	}

	if s.encoder != nil {
		s.encoder.SetBitrate(s.bitrateKbps * 1000)
		s.encoder.SetApplication(voice.ApplicationForBitrate(s.bitrateKbps))
	}
}

// adaptQuality implements the link-quality half of bitrate adaptation,
// complementing applyBandwidth's server-advertised cap: lossRate and
// rttMs come from the peer's periodic Ping stats (spec §4.6), smoothed
// and walked along adapt.Ladder. A step that would exceed the
// server's max_bandwidth is discarded rather than applied, so this
// never overrides applyBandwidth's hard ceiling.
func (s *scheduler) adaptQuality(lossRate, rttMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lossEWMA = adapt.SmoothLoss(s.lossEWMA, lossRate, 0.3)
	next := adapt.NextBitrate(s.bitrateKbps, s.lossEWMA, rttMs)
	if next == s.bitrateKbps {
		return
	}
	if s.maxBandwidthBits > 0 && s.estimatedBitsPerSecond(s.frameSizeMs, next) > s.maxBandwidthBits {
		return
	}

	s.bitrateKbps = next
	if s.encoder != nil {
		s.encoder.SetBitrate(s.bitrateKbps * 1000)
		s.encoder.SetApplication(voice.ApplicationForBitrate(s.bitrateKbps))
	}
}

// estimatedBitsPerSecond computes the network cost per second of voice at
// the given frame size and bitrate: one Opus packet of
// (bitrateKbps*1000*frameSizeMs/8000) bytes, plus overhead, sent
// (1000/frameSizeMs) times per second.
func (s *scheduler) estimatedBitsPerSecond(frameSizeMs, bitrateKbps int) uint64 {
	opusBytesPerFrame := bitrateKbps * 1000 * frameSizeMs / 8 / 1000
	packetsPerSecond := 1000 / frameSizeMs
	bitsPerPacket := uint64(opusBytesPerFrame*8) + bandwidthOverheadBits
	return bitsPerPacket * uint64(packetsPerSecond)
}
