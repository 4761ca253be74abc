package mumbleclient

// outputRate is the fixed mixing and network sample rate (spec §4.3).
const outputRate = 48000

// resampler performs streaming linear-interpolation sample-rate conversion
// with state retained across calls, so a source read in small chunks
// resamples identically to one read all at once. No resampling library
// appears anywhere in the retrieved pack (see DESIGN.md), so this is a
// direct, from-scratch implementation of the one streaming algorithm spec
// §4.3 requires.
type resampler struct {
	sourceRate int
	// pos is the fractional read position into the current input chunk,
	// in source-sample units; its integer part indexes into in and its
	// fractional part is the interpolation weight toward the next sample.
	pos float64
}

// newResampler returns a resampler converting from sourceRate to outputRate.
// sourceRate == outputRate is allowed; Process then passes samples through.
func newResampler(sourceRate int) *resampler {
	return &resampler{sourceRate: sourceRate}
}

// Reset clears retained state. Called on end-of-stream or loop boundary
// (spec §4.3 step 3) so the next Process call does not interpolate across
// a seek discontinuity.
func (r *resampler) Reset() {
	r.pos = 0
}

// Process converts interleaved input frames (channels samples per frame)
// at sourceRate into up to outFrames frames at outputRate, writing into
// out (which must hold at least outFrames*channels samples) and returning
// the number of source frames consumed and output frames produced.
// Process stops short of outFrames when in does not hold enough trailing
// samples to interpolate the next output frame; the caller re-invokes it
// once more input is available, and the retained fractional position
// picks the conversion back up exactly where it left off.
func (r *resampler) Process(out, in []float32, channels, outFrames int) (consumed, produced int) {
	inFrames := len(in) / channels
	if r.sourceRate == outputRate {
		n := outFrames
		if n > inFrames {
			n = inFrames
		}
		copy(out[:n*channels], in[:n*channels])
		return n, n
	}

	ratio := float64(r.sourceRate) / float64(outputRate)
	for produced < outFrames {
		idx := int(r.pos)
		if idx+1 >= inFrames {
			break
		}
		frac := float32(r.pos - float64(idx))
		s0 := in[idx*channels : idx*channels+channels]
		s1 := in[(idx+1)*channels : (idx+1)*channels+channels]
		for c := 0; c < channels; c++ {
			out[produced*channels+c] = s0[c] + (s1[c]-s0[c])*frac
		}
		produced++
		r.pos += ratio
	}

	consumed = int(r.pos)
	if consumed > inFrames {
		consumed = inFrames
	}
	r.pos -= float64(consumed)
	return consumed, produced
}

// adaptChannels converts an interleaved source frame of srcChannels
// samples into a 2-channel (stereo) frame, per spec §4.3 step 2: mono
// duplicates to both sides; >2 channels downmix with even indices summed
// into left, odd into right, each normalized by N/2; stereo passes
// through unchanged.
func adaptChannels(src []float32, srcChannels int) (left, right float32) {
	switch {
	case srcChannels == 1:
		return src[0], src[0]
	case srcChannels == 2:
		return src[0], src[1]
	default:
		for i, s := range src {
			if i%2 == 0 {
				left += s
			} else {
				right += s
			}
		}
		norm := float32(srcChannels) / 2
		return left / norm, right / norm
	}
}
