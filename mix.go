package mumbleclient

// mixChannels is the fixed channel count of the mixing target (spec §4.3:
// "A stereo (2-channel) float scratch").
const mixChannels = 2

// fadeState tracks a linear volume ramp applied to one audio source,
// advancing one frame per output sample (spec §4.3).
type fadeState struct {
	active    bool
	fadeOut   bool // true if this ramp ends the source (fadeOut vs fadeTo)
	from, to  float32
	remaining int
	total     int
}

// start begins a linear ramp from the source's current volume to
// target, lasting durationFrames output frames.
func (f *fadeState) start(current, target float32, durationFrames int, isFadeOut bool) {
	if durationFrames <= 0 {
		f.active = false
		return
	}
	f.active = true
	f.fadeOut = isFadeOut
	f.from = current
	f.to = target
	f.remaining = durationFrames
	f.total = durationFrames
}

// advance applies one frame of the ramp and returns the volume to use for
// that frame, plus whether the ramp just completed as a fade-out (in which
// case the caller must force end-of-stream on the source).
func (f *fadeState) advance(baseVolume float32) (volume float32, justEndedFadeOut bool) {
	if !f.active {
		return baseVolume, false
	}
	f.remaining--
	vol := f.to + (f.from-f.to)*float32(f.remaining)/float32(f.total)
	if f.remaining <= 0 {
		f.active = false
		if f.fadeOut {
			return vol, true
		}
	}
	return vol, false
}

// mixSource is the minimal surface the mixer needs from a producer: a
// ring-buffer read of adapted (channel + rate converted to 48 kHz stereo)
// samples, plus the per-source volume knobs the mixer applies.
type mixSource interface {
	// readMixed fills dst (stereo-interleaved, len(dst)/2 frames) with
	// this source's next samples, already channel- and rate-adapted to
	// 48 kHz stereo. It returns the number of frames actually written;
	// fewer than requested means the source is temporarily starved (the
	// ring buffer underran) or at end-of-stream.
	readMixed(dst []float32) (frames int, endOfStream bool)
	volume() float32
	fade() *fadeState
}

// mixInto sums every active source into scratch (a stereo-interleaved
// buffer of exactly frameCount frames), scaled by
// source.volume * source.fade_volume * clientVolume (spec §4.3 step 4).
// It returns the sources that reached end-of-stream this tick so the
// caller can retire them from the active set.
func mixInto(scratch []float32, sources []mixSource, clientVolume float32) (ended []mixSource) {
	for i := range scratch {
		scratch[i] = 0
	}

	frameCount := len(scratch) / mixChannels
	buf := make([]float32, len(scratch))

	for _, src := range sources {
		frames, eos := src.readMixed(buf[:frameCount*mixChannels])
		fs := src.fade()
		baseVol := src.volume()

		for f := 0; f < frames; f++ {
			vol, fadeEnded := fs.advance(baseVol)
			scale := vol * clientVolume
			scratch[f*mixChannels] += buf[f*mixChannels] * scale
			scratch[f*mixChannels+1] += buf[f*mixChannels+1] * scale
			if fadeEnded {
				eos = true
			}
		}
		if eos {
			ended = append(ended, src)
		}
	}

	for i := range scratch {
		scratch[i] = clampFloat32(scratch[i])
	}
	return ended
}

func clampFloat32(v float32) float32 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}
