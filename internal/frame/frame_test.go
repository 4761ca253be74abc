package frame

import (
	"bytes"
	"testing"
)

func TestEnvelopeParseOneByteAtATime(t *testing.T) {
	// Scenario 1 from the testable-properties list: type 1 (UDPTunnel),
	// body 0A 01 41, fed one byte at a time.
	raw := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x03, 0x0A, 0x01, 0x41}

	var r Reader
	var got []Envelope
	for _, b := range raw {
		r.Feed([]byte{b})
		for {
			env, ok, err := r.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !ok {
				break
			}
			payload := append([]byte(nil), env.Payload...)
			got = append(got, Envelope{Type: env.Type, Payload: payload})
		}
	}

	if len(got) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(got))
	}
	if got[0].Type != 1 {
		t.Fatalf("type = %d, want 1", got[0].Type)
	}
	if !bytes.Equal(got[0].Payload, []byte{0x0A, 0x01, 0x41}) {
		t.Fatalf("payload = % x", got[0].Payload)
	}
}

func TestEnvelopeRoundTripArbitraryChunking(t *testing.T) {
	var full []byte
	full = EncodeEnvelope(full, 5, []byte("hello"))
	full = EncodeEnvelope(full, 9, bytes.Repeat([]byte{0x42}, 300))

	for _, chunkSize := range []int{1, 2, 3, 7, 64, 1024} {
		var r Reader
		var envs []Envelope
		for i := 0; i < len(full); i += chunkSize {
			end := i + chunkSize
			if end > len(full) {
				end = len(full)
			}
			r.Feed(full[i:end])
			for {
				env, ok, err := r.Next()
				if err != nil {
					t.Fatalf("chunk %d: Next: %v", chunkSize, err)
				}
				if !ok {
					break
				}
				envs = append(envs, Envelope{Type: env.Type, Payload: append([]byte(nil), env.Payload...)})
			}
		}
		if len(envs) != 2 {
			t.Fatalf("chunk %d: got %d envelopes, want 2", chunkSize, len(envs))
		}
		if envs[0].Type != 5 || string(envs[0].Payload) != "hello" {
			t.Fatalf("chunk %d: first envelope wrong: %+v", chunkSize, envs[0])
		}
		if envs[1].Type != 9 || len(envs[1].Payload) != 300 {
			t.Fatalf("chunk %d: second envelope wrong: type=%d len=%d", chunkSize, envs[1].Type, len(envs[1].Payload))
		}
	}
}

func TestEnvelopeOversizeRejected(t *testing.T) {
	var hdr [HeaderSize]byte
	hdr[0], hdr[1] = 0, 1
	hdr[2], hdr[3], hdr[4], hdr[5] = 0xFF, 0xFF, 0xFF, 0xFF // length > MaxPayload
	var r Reader
	r.Feed(hdr[:])
	_, _, err := r.Next()
	if err != ErrOversizeFrame {
		t.Fatalf("got %v, want ErrOversizeFrame", err)
	}
}

func TestLegacyVoiceOpusRoundTrip(t *testing.T) {
	opus := []byte{0x01, 0x02, 0x03, 0x04}
	encoded := EncodeLegacyVoice(7, 0, opus, true)
	vp, err := DecodeLegacyVoice(LegacyCodecOpus, 0, encoded)
	if err != nil {
		t.Fatal(err)
	}
	if vp.Sender != 7 || !vp.Terminator {
		t.Fatalf("got %+v", vp)
	}
	if !bytes.Equal(vp.OpusData, opus) {
		t.Fatalf("OpusData = % x", vp.OpusData)
	}
}

func TestLegacyPingRoundTrip(t *testing.T) {
	encoded := EncodeLegacyPing(123456789)
	ts, err := DecodeLegacyPing(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if ts != 123456789 {
		t.Fatalf("ts = %d", ts)
	}
}

func TestDecodeUDPLegacyVoice(t *testing.T) {
	opus := []byte{0xAA, 0xBB}
	body := EncodeLegacyVoice(3, 0, opus, false)
	header := EncodeLegacyHeader(LegacyCodecOpus, 0)
	datagram := append([]byte{header}, body...)

	vp, _, isPing, err := DecodeUDP(true, datagram)
	if err != nil {
		t.Fatal(err)
	}
	if isPing {
		t.Fatal("expected voice, got ping")
	}
	if vp.Sender != 3 || !bytes.Equal(vp.OpusData, opus) {
		t.Fatalf("got %+v", vp)
	}
}

func TestDecodeUDPProtobufVoice(t *testing.T) {
	datagram := EncodeUDPVoice(false, 0, 42, []byte{0x01, 0x02}, true)
	vp, _, isPing, err := DecodeUDP(false, datagram)
	if err != nil {
		t.Fatal(err)
	}
	if isPing {
		t.Fatal("expected voice, got ping")
	}
	if vp.Sequence != 42 || !vp.Terminator {
		t.Fatalf("got %+v", vp)
	}
}

func TestDecodeUDPProtobufPing(t *testing.T) {
	datagram := EncodeUDPPing(false, 999)
	_, ts, isPing, err := DecodeUDP(false, datagram)
	if err != nil {
		t.Fatal(err)
	}
	if !isPing || ts != 999 {
		t.Fatalf("ts=%d isPing=%v", ts, isPing)
	}
}

func TestDecodeOpusTOCStereoFullband20ms(t *testing.T) {
	// config 31 (fullband, 20 ms, CELT), stereo flag set.
	toc := byte(31<<3) | 0x04
	info := DecodeOpusTOC(toc)
	if info.Channels != 2 || info.Bandwidth != "fullband" || info.FrameDurationMs != 20 {
		t.Fatalf("got %+v", info)
	}
}
