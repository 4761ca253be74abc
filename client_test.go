package mumbleclient

import (
	"net"
	"testing"
	"time"

	"mumbleclient/internal/frame"
	"mumbleclient/internal/mumbleproto"
)

type acceptResult struct {
	conn net.Conn
	err  error
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(DefaultConfig())
	if state(c.state.Load()) != stateDisconnected {
		t.Fatalf("initial state = %v, want stateDisconnected", c.state.Load())
	}
	if c.Volume() != 1.0 {
		t.Fatalf("Volume = %v, want 1.0", c.Volume())
	}
	if c.logger == nil {
		t.Fatalf("logger is nil, want stdLogger default")
	}
	if len(c.Channels()) != 1 {
		t.Fatalf("Channels = %v, want exactly the pre-seeded root", c.Channels())
	}
}

func TestClientSetVolume(t *testing.T) {
	c := NewClient(DefaultConfig())
	c.SetVolume(0.25)
	if c.Volume() != 0.25 {
		t.Fatalf("Volume = %v, want 0.25", c.Volume())
	}
}

func TestClientHookAndUnhook(t *testing.T) {
	c := NewClient(DefaultConfig())
	called := false
	c.Hook(OnConnect, "test", func(cl *Client, payload any) (any, error) {
		called = true
		return nil, nil
	})
	c.hooks.call(c, OnConnect, nil)
	if !called {
		t.Fatalf("hook registered via Client.Hook was never invoked")
	}

	called = false
	c.Unhook(OnConnect, "test")
	c.hooks.call(c, OnConnect, nil)
	if called {
		t.Fatalf("hook still invoked after Client.Unhook")
	}
}

func TestHandleVersionFlipsLegacyForOldServer(t *testing.T) {
	c := NewClient(DefaultConfig())
	old := &mumbleproto.Version{VersionV1: mumbleproto.EncodeLegacyVersion(1, 3, 0)}
	if err := c.handleVersion(old.Marshal()); err != nil {
		t.Fatalf("handleVersion: %v", err)
	}
	if !c.legacy {
		t.Fatalf("legacy = false after a 1.3.0 server version")
	}
}

func TestHandleVersionLeavesModernServerNonLegacy(t *testing.T) {
	c := NewClient(DefaultConfig())
	modern := &mumbleproto.Version{VersionV1: mumbleproto.EncodeLegacyVersion(1, 5, 0)}
	if err := c.handleVersion(modern.Marshal()); err != nil {
		t.Fatalf("handleVersion: %v", err)
	}
	if c.legacy {
		t.Fatalf("legacy = true after a 1.5.0 server version")
	}
}

func TestHandleUserStateCreatesUserAndFiresHooks(t *testing.T) {
	c := NewClient(DefaultConfig())
	c.state.Store(int32(stateSynced))

	var gotState, gotConnect bool
	c.Hook(OnUserState, "t", func(cl *Client, payload any) (any, error) {
		gotState = true
		return nil, nil
	})
	c.Hook(OnUserConnect, "t", func(cl *Client, payload any) (any, error) {
		gotConnect = true
		return nil, nil
	})

	us := &mumbleproto.UserState{Session: 7, HasName: true, Name: "alice"}
	if err := c.handleUserState(us.Marshal()); err != nil {
		t.Fatalf("handleUserState: %v", err)
	}

	u, ok := c.User(7)
	if !ok {
		t.Fatalf("user 7 not registered")
	}
	if u.Name != "alice" {
		t.Fatalf("Name = %q, want alice", u.Name)
	}
	if !gotState {
		t.Fatalf("OnUserState never fired")
	}
	if !gotConnect {
		t.Fatalf("OnUserConnect never fired for a user's first UserState after sync")
	}
}

func TestHandleChannelStateAppliesFieldsAndLinks(t *testing.T) {
	c := NewClient(DefaultConfig())
	cs := &mumbleproto.ChannelState{
		ChannelID: 3,
		HasName:   true,
		Name:      "General",
		HasLinks:  true,
		Links:     []uint32{4, 5},
	}
	if err := c.handleChannelState(cs.Marshal()); err != nil {
		t.Fatalf("handleChannelState: %v", err)
	}
	ch, ok := c.Channel(3)
	if !ok {
		t.Fatalf("channel 3 not registered")
	}
	if ch.Name != "General" {
		t.Fatalf("Name = %q, want General", ch.Name)
	}
	if !ch.Links[4] || !ch.Links[5] {
		t.Fatalf("Links = %v, want {4,5}", ch.Links)
	}
}

func TestHandleInboundVoiceDerivesSpeakingFromTerminator(t *testing.T) {
	c := NewClient(DefaultConfig())
	var starts, stops int
	c.Hook(OnUserStartSpeaking, "t", func(cl *Client, payload any) (any, error) {
		starts++
		return nil, nil
	})
	c.Hook(OnUserStopSpeaking, "t", func(cl *Client, payload any) (any, error) {
		stops++
		return nil, nil
	})

	// The default jitter buffer primes at depth 1, so every push is
	// immediately poppable; drain it the way runVoiceJitterLoop does on
	// its own ticker, but synchronously so the test stays deterministic.
	drain := func() {
		for _, fr := range c.jitterBuf.Pop() {
			c.deliverVoiceFrame(fr)
		}
	}

	c.handleInboundVoice(&frame.VoicePacket{Sender: 9, Sequence: 0, OpusData: []byte{0x00}, Terminator: false})
	drain()
	c.handleInboundVoice(&frame.VoicePacket{Sender: 9, Sequence: 1, OpusData: []byte{0x00}, Terminator: false})
	drain()
	if starts != 1 {
		t.Fatalf("starts = %d, want 1 (only on the first packet)", starts)
	}

	c.handleInboundVoice(&frame.VoicePacket{Sender: 9, Sequence: 2, OpusData: []byte{0x00}, Terminator: true})
	drain()
	if stops != 1 {
		t.Fatalf("stops = %d, want 1", stops)
	}
	u, _ := c.User(9)
	if u.IsSpeaking() {
		t.Fatalf("user still marked speaking after a terminator packet")
	}
}

func TestJitterBufferConcealsLateFrameWithoutTouchingSpeakingState(t *testing.T) {
	c := NewClient(DefaultConfig())
	c.jitterBuf.SetDepth(2)

	drain := func() {
		for _, fr := range c.jitterBuf.Pop() {
			c.deliverVoiceFrame(fr)
		}
	}

	c.handleInboundVoice(&frame.VoicePacket{Sender: 5, Sequence: 0, OpusData: []byte{1}})
	c.handleInboundVoice(&frame.VoicePacket{Sender: 5, Sequence: 1, OpusData: []byte{2}})
	drain() // pops seq 0, starting speaking
	drain() // pops seq 1, nextPlay advances to seq 2

	u, _ := c.User(5)
	if !u.IsSpeaking() {
		t.Fatalf("speaking should already be true after seq 0/1")
	}

	// seq 2 is skipped entirely; the next pop must conceal rather than
	// block, offering seq 3's payload as FEC data, and must not flip the
	// user's speaking state off.
	var sawConcealment bool
	c.Hook(OnUserSpeak, "t", func(cl *Client, payload any) (any, error) {
		if ev, ok := payload.(*SpeakEvent); ok && ev.Packet == nil {
			sawConcealment = true
			if ev.FECData == nil || ev.FECData[0] != 4 {
				t.Errorf("FECData = %v, want seq 3's payload [4]", ev.FECData)
			}
		}
		return nil, nil
	})
	c.handleInboundVoice(&frame.VoicePacket{Sender: 5, Sequence: 3, OpusData: []byte{4}})
	drain()
	if !sawConcealment {
		t.Fatalf("expected a concealment (nil Packet) OnUserSpeak event for the skipped seq 2")
	}
	if !u.IsSpeaking() {
		t.Fatalf("a concealment tick must not clear speaking state")
	}
}

func TestRegisterVoiceTargetSendsWireMessage(t *testing.T) {
	ln, host, port := listenTLS(t)
	defer ln.Close()

	serverConn := make(chan acceptResult, 1)
	go func() {
		conn, err := ln.Accept()
		serverConn <- acceptResult{conn: conn, err: err}
	}()

	c := NewClient(Config{Host: host, Port: port})
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect("test done")

	res := <-serverConn
	if res.err != nil {
		t.Fatalf("server accept: %v", res.err)
	}
	defer res.conn.Close()

	vt := NewVoiceTarget().AddSessions(1, 2)
	slot, err := c.RegisterVoiceTarget(vt)
	if err != nil {
		t.Fatalf("RegisterVoiceTarget: %v", err)
	}
	if slot != 1 {
		t.Fatalf("slot = %d, want 1 (first free)", slot)
	}

	buf := make([]byte, 512)
	res.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	// The server sees the client's Version message first, then the
	// VoiceTarget message; read until we find a VoiceTarget (type 17)
	// envelope or time out.
	var r frame.Reader
	for {
		n, err := res.conn.Read(buf)
		if err != nil {
			t.Fatalf("server read: %v", err)
		}
		r.Feed(buf[:n])
		for {
			env, ok, ferr := r.Next()
			if ferr != nil {
				t.Fatalf("envelope decode: %v", ferr)
			}
			if !ok {
				break
			}
			if env.Type == msgVoiceTarget {
				return
			}
		}
	}
}
