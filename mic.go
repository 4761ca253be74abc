package mumbleclient

import "mumbleclient/internal/capture"

// ListCaptureDevices enumerates the system's available microphone input
// devices (SPEC_FULL.md §4 supplement).
func ListCaptureDevices() ([]capture.Device, error) {
	return capture.ListInputDevices()
}

// StartMicrophoneCapture opens a live PortAudio input stream (deviceID <
// 0 selects the system default) and plays it through the same
// AudioSource/scheduler/mixer path as any file-backed source, running it
// through the capture package's echo-cancel/noise-gate/AGC/VAD chain
// first (SPEC_FULL.md §4 supplement). The returned *capture.Mic stays
// under the caller's control so the embedder can feed the chain's echo
// canceller the audio it plays back via FeedFarEnd, and so it can be
// closed independently of the AudioSource it was wrapped in.
func (c *Client) StartMicrophoneCapture(deviceID int) (*capture.Mic, error) {
	frameSize := outputRate * c.cfg.FrameSizeMs / 1000
	mic, err := capture.Open(deviceID, outputRate, frameSize)
	if err != nil {
		return nil, newError(ErrKindResource, err)
	}
	if err := c.PlaySource(NewAudioSource(mic)); err != nil {
		mic.Close()
		return nil, err
	}
	return mic, nil
}
