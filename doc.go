// Package mumbleclient implements a client-side library for the Mumble
// voice-chat protocol: TLS transport with OCB-AES128 UDP voice encryption,
// the TCP control-envelope and UDP legacy/Protobuf voice framing, a
// channel/user roster, an Opus-based voice capture/playback pipeline, and
// a named multi-subscriber hook table for observing protocol events.
//
// A typical embedder constructs a Config, creates a Client with NewClient,
// registers hooks with Hook, calls Connect and Auth, and then drives voice
// and text through the Client's exported methods.
package mumbleclient
