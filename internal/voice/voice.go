// Package voice wraps gopkg.in/hraban/opus.v2 behind the small
// encoder/decoder interfaces the scheduler needs, the same test-seam
// shape client/audio.go uses (opusEncoder/opusDecoder) so a fake codec
// can stand in during tests without linking libopus.
package voice

import "gopkg.in/hraban/opus.v2"

// SampleRate and Channels are fixed by spec §4.3's mixing target: 48 kHz
// stereo.
const (
	SampleRate = 48000
	Channels   = 2

	// MaxPacketBytes is RFC 6716's maximum single Opus packet size.
	MaxPacketBytes = 1275
)

// Application selects the Opus encoder's application mode, chosen from
// the resulting bitrate per spec §4.5's bandwidth adaptation rule.
type Application int

const (
	AppVoIP Application = iota
	AppAudio
	AppLowDelay
)

func (a Application) toOpus() int {
	switch a {
	case AppAudio:
		return opus.AppAudio
	case AppLowDelay:
		return opus.AppRestrictedLowdelay
	default:
		return opus.AppVoIP
	}
}

// Encoder abstracts Opus encoding for testing, matching client/audio.go's
// opusEncoder interface shape.
type Encoder interface {
	Encode(pcm []int16, data []byte) (int, error)
	SetBitrate(bitrate int) error
	SetApplication(app Application) error
	SetDTX(dtx bool) error
	SetInBandFEC(fec bool) error
	SetPacketLossPerc(lossPerc int) error
}

// Decoder abstracts Opus decoding for testing, matching client/audio.go's
// opusDecoder interface shape.
type Decoder interface {
	Decode(data []byte, pcm []int16) (int, error)
	DecodeFEC(data []byte, pcm []int16) error
}

// libopusEncoder adapts *opus.Encoder to Encoder.
type libopusEncoder struct{ enc *opus.Encoder }

// NewEncoder constructs a 48 kHz stereo Opus encoder in the given
// application mode.
func NewEncoder(app Application) (Encoder, error) {
	enc, err := opus.NewEncoder(SampleRate, Channels, app.toOpus())
	if err != nil {
		return nil, err
	}
	return &libopusEncoder{enc: enc}, nil
}

func (e *libopusEncoder) Encode(pcm []int16, data []byte) (int, error) {
	return e.enc.Encode(pcm, data)
}
func (e *libopusEncoder) SetBitrate(bitrate int) error { return e.enc.SetBitrate(bitrate) }
func (e *libopusEncoder) SetApplication(app Application) error {
	return e.enc.SetApplication(app.toOpus())
}
func (e *libopusEncoder) SetDTX(dtx bool) error                 { return e.enc.SetDTX(dtx) }
func (e *libopusEncoder) SetInBandFEC(fec bool) error           { return e.enc.SetInBandFEC(fec) }
func (e *libopusEncoder) SetPacketLossPerc(lossPerc int) error  { return e.enc.SetPacketLossPerc(lossPerc) }

// libopusDecoder adapts *opus.Decoder to Decoder.
type libopusDecoder struct{ dec *opus.Decoder }

// NewDecoder constructs a 48 kHz stereo Opus decoder.
func NewDecoder() (Decoder, error) {
	dec, err := opus.NewDecoder(SampleRate, Channels)
	if err != nil {
		return nil, err
	}
	return &libopusDecoder{dec: dec}, nil
}

func (d *libopusDecoder) Decode(data []byte, pcm []int16) (int, error) {
	return d.dec.Decode(data, pcm)
}
func (d *libopusDecoder) DecodeFEC(data []byte, pcm []int16) error {
	return d.dec.DecodeFEC(data, pcm)
}

// ApplicationForBitrate picks the Opus application mode from the
// resulting bitrate per spec §4.5: "≥64 kbit/s → low-delay, ≥32 kbit/s →
// audio, else VoIP".
func ApplicationForBitrate(kbps int) Application {
	switch {
	case kbps >= 64:
		return AppLowDelay
	case kbps >= 32:
		return AppAudio
	default:
		return AppVoIP
	}
}
