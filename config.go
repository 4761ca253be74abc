package mumbleclient

// defaultPort is the standard Mumble server port (spec §6).
const defaultPort = 64738

// Config holds the construction inputs a Client needs before it can dial:
// host/port, a TLS client certificate, and the version string announced
// to the server. Unlike the teacher's client/internal/config package this
// holds no on-disk persistence — spec §1 names "no persistent store" as
// an explicit Non-goal, so there is no Load/Save/Path trio here, just the
// plain defaulted struct.
type Config struct {
	Host string
	Port int

	// CertPEMPath and KeyPEMPath locate the client certificate/key pair
	// the transport presents during the TLS handshake (spec §4.8: "The
	// client MUST present a certificate + private-key pair").
	CertPEMPath string
	KeyPEMPath  string

	// VersionMajor/Minor/Patch and Release are announced to the server in
	// the Version message. Minor < 5 forces legacy UDP/voice framing
	// (spec §6).
	VersionMajor uint16
	VersionMinor uint16
	VersionPatch uint16
	Release      string

	// FrameSizeMs is the audio scheduler cadence, one of {10, 20, 40, 60}
	// (spec §4.5). Bandwidth adaptation may coarsen it at runtime.
	FrameSizeMs int

	// Logger receives structured log lines from every subsystem. Defaults
	// to a thin stdlib-log adapter when nil (see logger.go).
	Logger Logger
}

// DefaultConfig returns a Config with the spec's documented defaults:
// port 64738, a 20 ms frame size, and version 1.5.0 (modern framing).
func DefaultConfig() Config {
	return Config{
		Port:         defaultPort,
		VersionMajor: 1,
		VersionMinor: 5,
		VersionPatch: 0,
		Release:      "mumbleclient",
		FrameSizeMs:  20,
	}
}

// legacyVoice reports whether this Config's announced version predates
// 1.5, which forces the legacy UDP/voice framing per spec §4.7.
func (c Config) legacyVoice() bool {
	return c.VersionMajor == 1 && c.VersionMinor < 5 || c.VersionMajor == 0
}

// DialOptions carries the connection parameters presented at Auth time,
// kept separate from Config per spec §6's distinction between
// construction inputs and per-connection auth parameters.
type DialOptions struct {
	Username string
	Password string
	Tokens   []string
}
