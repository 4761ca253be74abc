package mumbleclient

import "testing"

func TestDefaultConfigValues(t *testing.T) {
	c := DefaultConfig()
	if c.Port != defaultPort {
		t.Fatalf("Port = %d, want %d", c.Port, defaultPort)
	}
	if c.VersionMajor != 1 || c.VersionMinor != 5 || c.VersionPatch != 0 {
		t.Fatalf("version = %d.%d.%d, want 1.5.0", c.VersionMajor, c.VersionMinor, c.VersionPatch)
	}
	if c.FrameSizeMs != 20 {
		t.Fatalf("FrameSizeMs = %d, want 20", c.FrameSizeMs)
	}
}

func TestLegacyVoiceDetection(t *testing.T) {
	cases := []struct {
		major, minor uint16
		want         bool
	}{
		{1, 5, false},
		{1, 4, true},
		{1, 2, true},
		{0, 9, true},
		{2, 0, false},
	}
	for _, tc := range cases {
		c := Config{VersionMajor: tc.major, VersionMinor: tc.minor}
		if got := c.legacyVoice(); got != tc.want {
			t.Fatalf("legacyVoice for %d.%d = %v, want %v", tc.major, tc.minor, got, tc.want)
		}
	}
}
