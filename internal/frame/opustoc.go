package frame

// OpusFrameInfo is the subset of an Opus TOC byte (RFC 6716 §3.1) this
// client introspects for the OnUserSpeak hook (spec §4.7: "channels,
// bandwidth, samples-per-frame derived from the Opus TOC byte").
type OpusFrameInfo struct {
	Channels        int
	Bandwidth       string // "narrowband".."fullband"
	FrameDurationMs float64
	Mode            string // "silk", "hybrid", "celt"
}

// opusConfigTable maps the 5-bit config number (RFC 6716 Table 2) to mode,
// bandwidth, and frame duration in milliseconds.
var opusConfigTable = [32]struct {
	mode     string
	band     string
	duration float64
}{
	// SILK-only, NB/MB/WB, 10/20/40/60 ms
	0: {"silk", "narrowband", 10}, 1: {"silk", "narrowband", 20},
	2: {"silk", "narrowband", 40}, 3: {"silk", "narrowband", 60},
	4: {"silk", "mediumband", 10}, 5: {"silk", "mediumband", 20},
	6: {"silk", "mediumband", 40}, 7: {"silk", "mediumband", 60},
	8: {"silk", "wideband", 10}, 9: {"silk", "wideband", 20},
	10: {"silk", "wideband", 40}, 11: {"silk", "wideband", 60},
	// Hybrid, SWB/FB, 10/20 ms
	12: {"hybrid", "superwideband", 10}, 13: {"hybrid", "superwideband", 20},
	14: {"hybrid", "fullband", 10}, 15: {"hybrid", "fullband", 20},
	// CELT-only, NB/WB/SWB/FB, 2.5/5/10/20 ms
	16: {"celt", "narrowband", 2.5}, 17: {"celt", "narrowband", 5},
	18: {"celt", "narrowband", 10}, 19: {"celt", "narrowband", 20},
	20: {"celt", "wideband", 2.5}, 21: {"celt", "wideband", 5},
	22: {"celt", "wideband", 10}, 23: {"celt", "wideband", 20},
	24: {"celt", "superwideband", 2.5}, 25: {"celt", "superwideband", 5},
	26: {"celt", "superwideband", 10}, 27: {"celt", "superwideband", 20},
	28: {"celt", "fullband", 2.5}, 29: {"celt", "fullband", 5},
	30: {"celt", "fullband", 10}, 31: {"celt", "fullband", 20},
}

// DecodeOpusTOC decodes the leading TOC byte of an Opus packet.
func DecodeOpusTOC(toc byte) OpusFrameInfo {
	config := toc >> 3
	stereo := toc&0x04 != 0
	entry := opusConfigTable[config]

	channels := 1
	if stereo {
		channels = 2
	}
	return OpusFrameInfo{
		Channels:        channels,
		Bandwidth:       entry.band,
		FrameDurationMs: entry.duration,
		Mode:            entry.mode,
	}
}
