package mumbleclient

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"mumbleclient/internal/adapt"
	"mumbleclient/internal/frame"
	"mumbleclient/internal/jitter"
	"mumbleclient/internal/mumbleproto"
	"mumbleclient/internal/ocb"
	"mumbleclient/internal/voice"
)

// voiceTickMs is the cadence the inbound jitter buffer is drained at;
// it matches Mumble's wire frame size so playback stays in lock-step
// with how fast senders actually produce frames.
const voiceTickMs = 20

// Message type numbers for the TCP envelope dispatch table (spec §4.6).
const (
	msgVersion                = 0
	msgUDPTunnel              = 1
	msgAuthenticate           = 2
	msgPing                   = 3
	msgReject                 = 4
	msgServerSync             = 5
	msgChannelRemove          = 6
	msgChannelState           = 7
	msgUserRemove             = 8
	msgUserState              = 9
	msgBanList                = 10
	msgTextMessage            = 11
	msgPermissionDenied       = 12
	msgACL                    = 13
	msgQueryUsers             = 14
	msgCryptSetup             = 15
	msgContextActionModify    = 16
	msgVoiceTarget            = 17
	msgUserList               = 18
	msgPermissionQuery        = 20
	msgCodecVersion           = 21
	msgUserStats              = 22
	msgServerConfig           = 24
	msgSuggestConfig          = 25
	msgPluginDataTransmission = 26
)

// state is the Client's connection lifecycle (spec §3).
type state int32

const (
	stateDisconnected state = iota
	stateConnecting
	stateConnected
	stateSynced
	stateClosed
)

// Client is the top-level session context (spec §3): it owns the TLS
// connection, UDP socket, cryptostate, encoder, channel/user rosters,
// hook table, audio-source set, ping statistics, voice target, audio
// frame size, max-bandwidth hint, and legacy-mode flag. Grounded on
// client/app.go's App struct ("owns everything, exposes
// Connect/Disconnect, wires callbacks").
type Client struct {
	cfg Config

	state atomic.Int32

	transport *transport
	hooks     *hookTable
	channels  *channelRegistry
	users     *userRegistry
	voiceTgts voiceTargetRegistry
	sched     *scheduler
	ping      pingState

	jitterBuf   *jitter.Buffer
	voiceStopCh chan struct{}

	session uint32
	legacy  bool

	volume atomic.Uint32 // float32 bits

	contextActions map[string]mumbleproto.ContextAction

	mu              sync.Mutex
	lastUDPPingSent time.Time

	logger Logger
}

// NewClient constructs a disconnected Client from cfg. The Client does
// not dial until Connect is called.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = stdLogger{}
	}
	c := &Client{
		cfg:            cfg,
		hooks:          newHookTable(),
		channels:       newChannelRegistry(),
		users:          newUserRegistry(),
		legacy:         cfg.legacyVoice(),
		contextActions: make(map[string]mumbleproto.ContextAction),
		jitterBuf:      jitter.New(adapt.DefaultJitterDepth),
		logger:         logger,
	}
	c.volume.Store(floatBits(1.0))
	c.state.Store(int32(stateDisconnected))
	return c
}

// Hook registers a callback under name/callbackName (spec §4.9).
func (c *Client) Hook(name HookName, callbackName string, fn HookFunc) {
	c.hooks.Hook(name, callbackName, fn)
}

// Unhook removes a previously registered callback.
func (c *Client) Unhook(name HookName, callbackName string) {
	c.hooks.Unhook(name, callbackName)
}

// Connect dials the server and starts the TLS handshake and UDP socket.
// It returns once the transport is up (state -> connected); ServerSync
// (state -> synced) and subsequent progress are reported through hooks,
// per spec §5: "connect returns immediately with a success/failure pair".
func (c *Client) Connect() error {
	c.state.Store(int32(stateConnecting))
	t, err := dial(c.cfg)
	if err != nil {
		c.state.Store(int32(stateDisconnected))
		return err
	}
	c.transport = t
	c.state.Store(int32(stateConnected))

	enc, err := voice.NewEncoder(voice.AppVoIP)
	if err != nil {
		c.transport.close()
		c.state.Store(int32(stateDisconnected))
		return newError(ErrKindResource, err)
	}
	c.sched = newScheduler(c.cfg.FrameSizeMs, enc)
	c.sched.onTransmit = c.transmitVoiceFrame
	c.voiceStopCh = make(chan struct{})

	go c.runTCPLoop()
	go c.runUDPLoop()
	go c.runPingLoop()
	go c.runVoiceJitterLoop()

	ver := &mumbleproto.Version{
		VersionV1: mumbleproto.EncodeLegacyVersion(c.cfg.VersionMajor, c.cfg.VersionMinor, c.cfg.VersionPatch),
		Release:   c.cfg.Release,
	}
	if err := c.transport.writeEnvelope(msgVersion, ver.Marshal()); err != nil {
		return err
	}

	c.hooks.call(c, OnConnect, c)
	return nil
}

// Auth sends the Authenticate message, presenting username/password/
// tokens (spec §6).
func (c *Client) Auth(opts DialOptions) error {
	if state(c.state.Load()) < stateConnected {
		return ErrState
	}
	auth := &mumbleproto.Authenticate{
		Username: opts.Username,
		Password: opts.Password,
		Tokens:   opts.Tokens,
		Opus:     true,
	}
	return c.transport.writeEnvelope(msgAuthenticate, auth.Marshal())
}

// Disconnect idempotently tears down the session from any stage (spec
// §5). reason, if non-empty, is attached to the OnDisconnect payload.
func (c *Client) Disconnect(reason string) {
	prev := state(c.state.Swap(int32(stateClosed)))
	if prev == stateClosed {
		return
	}
	if c.sched != nil {
		c.sched.stop()
	}
	if c.voiceStopCh != nil {
		close(c.voiceStopCh)
	}
	if c.transport != nil {
		c.transport.close()
	}
	c.jitterBuf.Reset()
	c.hooks.call(c, OnDisconnect, reason)
}

// Say sends a text message to the given channel and/or user sessions.
func (c *Client) Say(message string, channelIDs, sessions []uint32) error {
	if s := state(c.state.Load()); s < stateSynced || s == stateClosed {
		return ErrDisconnected
	}
	tm := &mumbleproto.TextMessage{ChannelID: channelIDs, Sessions: sessions, Message: message}
	return c.transport.writeEnvelope(msgTextMessage, tm.Marshal())
}

// SetVolume sets the client-wide playback volume multiplier applied
// during mixing (spec §4.3).
func (c *Client) SetVolume(v float32) { c.volume.Store(floatBits(v)) }
func (c *Client) Volume() float32     { return floatFromBits(c.volume.Load()) }

// Channels returns every known channel.
func (c *Client) Channels() []*Channel { return c.channels.All() }

// Channel looks up a single channel by id.
func (c *Client) Channel(id uint32) (*Channel, bool) { return c.channels.Lookup(id) }

// Users returns every known user.
func (c *Client) Users() []*User { return c.users.All() }

// User looks up a single user by session id.
func (c *Client) User(session uint32) (*User, bool) { return c.users.Lookup(session) }

// Session returns the client's own session id once synced (0 before).
func (c *Client) Session() uint32 { return c.session }

// RegisterVoiceTarget assigns vt a server-side slot and sends it to the
// server; the returned slot can be passed to SetCurrentVoiceTarget. vt is
// consumed (spec §3: "registerVoiceTarget, which consumes it").
func (c *Client) RegisterVoiceTarget(vt *VoiceTarget) (uint8, error) {
	slot, err := c.voiceTgts.register(vt)
	if err != nil {
		return 0, err
	}
	msg := &mumbleproto.VoiceTarget{ID: uint32(slot)}
	for _, e := range vt.entries {
		msg.Targets = append(msg.Targets, mumbleproto.VoiceTargetEntry{
			Sessions:  e.Sessions,
			ChannelID: e.ChannelID,
			Group:     e.Group,
			Links:     e.IncludeLinks,
			Children:  e.IncludeChildren,
		})
	}
	if err := c.transport.writeEnvelope(msgVoiceTarget, msg.Marshal()); err != nil {
		c.voiceTgts.release(slot)
		return 0, err
	}
	return slot, nil
}

// SetCurrentVoiceTarget selects which slot subsequent voice frames use; 0
// is normal speech.
func (c *Client) SetCurrentVoiceTarget(slot uint8) { c.voiceTgts.setCurrent(slot) }

// PlaySource attaches src to the active mixing set and starts playback.
func (c *Client) PlaySource(src *AudioSource) error {
	if err := src.Play(); err != nil {
		return err
	}
	src.onEnd = func(s *AudioSource) {
		c.sched.removeSource(s)
		c.hooks.call(c, OnAudioStreamEnd, s)
	}
	c.sched.addSource(src)
	return nil
}

// ContextActions returns a snapshot of the server-registered context
// action registry (SPEC_FULL.md §4 supplement).
func (c *Client) ContextActions() map[string]mumbleproto.ContextAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]mumbleproto.ContextAction, len(c.contextActions))
	for k, v := range c.contextActions {
		out[k] = v
	}
	return out
}

// transmitVoiceFrame is the scheduler's onTransmit callback: send over
// UDP if the cryptostate is valid, else tunnel inside TCP (spec §4.5).
func (c *Client) transmitVoiceFrame(opusData []byte, seq uint64, terminator bool) {
	target := c.voiceTgts.current
	if c.transport.cryptValid() && !c.ping.tcpUDPTunnel {
		if err := c.transport.sendUDPVoice(target, seq, opusData, terminator); err == nil {
			return
		}
	}
	payload := frame.EncodeUDPVoice(c.legacy, target, seq, opusData, terminator)
	c.transport.writeEnvelope(msgUDPTunnel, payload)
}

// runTCPLoop reads and dispatches control-channel envelopes until the
// connection closes.
func (c *Client) runTCPLoop() {
	err := c.transport.readTCPLoop(func(env frame.Envelope) error {
		return c.dispatchTCP(env)
	})
	if err != nil && state(c.state.Load()) != stateClosed {
		c.logger.Warnf("tcp loop: %v", err)
		c.Disconnect(err.Error())
	}
}

// runUDPLoop reads and demuxes inbound voice/ping datagrams.
func (c *Client) runUDPLoop() {
	c.transport.readUDPLoop(c.handleInboundVoice, c.handleInboundUDPPong)
}

// dispatchTCP implements the type-number dispatch table of spec §4.6.
// An unrecognized type is a no-op (its bytes are already consumed by the
// envelope framer, matching "discard exactly length bytes and continue").
func (c *Client) dispatchTCP(env frame.Envelope) error {
	switch env.Type {
	case msgVersion:
		return c.handleVersion(env.Payload)
	case msgUDPTunnel:
		return c.handleUDPTunnel(env.Payload)
	case msgPing:
		return c.handleTCPPing(env.Payload)
	case msgReject:
		return c.handleReject(env.Payload)
	case msgServerSync:
		return c.handleServerSync(env.Payload)
	case msgChannelRemove:
		return c.handleChannelRemove(env.Payload)
	case msgChannelState:
		return c.handleChannelState(env.Payload)
	case msgUserRemove:
		return c.handleUserRemove(env.Payload)
	case msgUserState:
		return c.handleUserState(env.Payload)
	case msgBanList:
		bl, err := mumbleproto.UnmarshalBanList(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnBanList, bl)
	case msgTextMessage:
		tm, err := mumbleproto.UnmarshalTextMessage(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnMessage, tm)
	case msgPermissionDenied:
		pd, err := mumbleproto.UnmarshalPermissionDenied(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnPermissionDenied, pd)
	case msgACL:
		acl, err := mumbleproto.UnmarshalACL(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnACL, acl)
	case msgQueryUsers:
		qu, err := mumbleproto.UnmarshalQueryUsers(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnQueryUsers, qu)
	case msgCryptSetup:
		return c.handleCryptSetup(env.Payload)
	case msgContextActionModify:
		return c.handleContextActionModify(env.Payload)
	case msgUserList:
		ul, err := mumbleproto.UnmarshalUserList(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnUserList, ul)
	case msgPermissionQuery:
		return c.handlePermissionQuery(env.Payload)
	case msgCodecVersion:
		cv, err := mumbleproto.UnmarshalCodecVersion(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnCodecVersion, cv)
	case msgUserStats:
		us, err := mumbleproto.UnmarshalUserStats(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnUserStats, us)
	case msgServerConfig:
		sc, err := mumbleproto.UnmarshalServerConfig(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnServerConfig, sc)
	case msgSuggestConfig:
		sg, err := mumbleproto.UnmarshalSuggestConfig(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnSuggestConfig, sg)
	case msgPluginDataTransmission:
		pd, err := mumbleproto.UnmarshalPluginDataTransmission(env.Payload)
		if err != nil {
			return nil
		}
		c.hooks.call(c, OnPluginData, pd)
	}
	return nil
}

func (c *Client) handleVersion(payload []byte) error {
	v, err := mumbleproto.UnmarshalVersion(payload)
	if err != nil {
		return nil
	}
	if v.Major() < 1 || (v.Major() == 1 && v.Minor() < 5) {
		c.legacy = true
		if c.transport != nil {
			c.transport.legacy = true
		}
	}
	c.hooks.call(c, OnServerVersion, v)
	return nil
}

func (c *Client) handleUDPTunnel(payload []byte) error {
	vp, ts, isPing, err := frame.DecodeUDP(c.legacy, payload)
	if err != nil {
		return nil
	}
	if isPing {
		c.handleInboundUDPPong(ts)
		return nil
	}
	c.handleInboundVoice(vp)
	return nil
}

// handleTCPPing processes the server's periodic Ping message, which
// reports (spec §4.6) how many of the packets *we* sent it arrived good,
// late, or were lost — the uplink-quality signal applyBandwidth's static
// server cap doesn't capture. adaptQuality folds it, together with the
// freshest measured RTT, into the scheduler's bitrate ladder, and the
// same jitter estimate retunes how deep the inbound jitter buffer primes.
func (c *Client) handleTCPPing(payload []byte) error {
	p, err := mumbleproto.UnmarshalPing(payload)
	if err != nil {
		return nil
	}

	if total := p.Good + p.Late + p.Lost; total > 0 && c.sched != nil {
		lossRate := float64(p.Late+p.Lost) / float64(total)
		rttMs := c.ping.udpRTT.avg
		if rttMs == 0 {
			rttMs = c.ping.tcpRTT.avg
		}
		c.sched.adaptQuality(lossRate, rttMs)

		jitterMs := math.Sqrt(c.ping.udpRTT.vr)
		c.jitterBuf.SetDepth(adapt.TargetJitterDepth(jitterMs, lossRate))
	}

	c.hooks.call(c, OnPongTCP, p)
	return nil
}

func (c *Client) handleReject(payload []byte) error {
	r, err := mumbleproto.UnmarshalReject(payload)
	if err != nil {
		return nil
	}
	c.hooks.call(c, OnServerReject, r)
	c.Disconnect("rejected: " + r.Reason)
	return nil
}

func (c *Client) handleServerSync(payload []byte) error {
	s, err := mumbleproto.UnmarshalServerSync(payload)
	if err != nil {
		return nil
	}
	c.session = s.Session
	c.state.Store(int32(stateSynced))
	if c.sched != nil {
		c.sched.applyBandwidth(uint64(s.MaxBandwidth))
		c.sched.start(c.Volume, nil)
	}
	c.hooks.call(c, OnServerSync, s)
	return nil
}

func (c *Client) handleChannelRemove(payload []byte) error {
	cr, err := mumbleproto.UnmarshalChannelRemove(payload)
	if err != nil {
		return nil
	}
	c.channels.Remove(cr.ChannelID)
	c.hooks.call(c, OnChannelRemove, cr)
	return nil
}

func (c *Client) handleChannelState(payload []byte) error {
	cs, err := mumbleproto.UnmarshalChannelState(payload)
	if err != nil {
		return nil
	}
	ch := c.channels.getOrCreate(cs.ChannelID)
	ch.mu.Lock()
	if cs.HasParent {
		ch.ParentID = cs.Parent
	}
	if cs.HasName {
		ch.Name = cs.Name
	}
	if cs.HasDescription {
		ch.Description = cs.Description
	}
	if len(cs.DescriptionHash) > 0 {
		ch.DescHash = cs.DescriptionHash
	}
	ch.Temporary = cs.Temporary
	if cs.HasPosition {
		ch.Position = cs.Position
	}
	if cs.MaxUsers != 0 {
		ch.MaxUsers = cs.MaxUsers
	}
	ch.IsEnterRestricted = cs.IsEnterRestricted
	if cs.HasCanEnter {
		ch.CanEnter = cs.CanEnter
	}
	ch.mu.Unlock()

	var replace []uint32
	if cs.HasLinks {
		replace = cs.Links
	}
	ch.applyLinkDelta(replace, cs.LinksAdd, cs.LinksRemove)

	c.hooks.call(c, OnChannelState, ch)
	return nil
}

func (c *Client) handleUserRemove(payload []byte) error {
	ur, err := mumbleproto.UnmarshalUserRemove(payload)
	if err != nil {
		return nil
	}
	c.users.Remove(ur.Session)
	c.hooks.call(c, OnUserRemove, ur)
	if ur.Session == c.session {
		reason := "kicked: " + ur.Reason
		c.Disconnect(reason)
	}
	return nil
}

func (c *Client) handleUserState(payload []byte) error {
	us, err := mumbleproto.UnmarshalUserState(payload)
	if err != nil {
		return nil
	}
	u, created := c.users.getOrCreate(us.Session)
	u.mu.Lock()
	prevChannel := u.ChannelID
	wasConnected := u.Connected
	if us.HasName {
		u.Name = us.Name
	}
	if us.HasUserID {
		id := us.UserID
		u.UserID = &id
	}
	if us.HasChannelID {
		u.ChannelID = us.ChannelID
	}
	if us.HasMute {
		u.Mute = us.Mute
	}
	if us.HasDeaf {
		u.Deaf = us.Deaf
	}
	if us.HasSuppress {
		u.Suppress = us.Suppress
	}
	if us.HasSelfMute {
		u.SelfMute = us.SelfMute
	}
	if us.HasSelfDeaf {
		u.SelfDeaf = us.SelfDeaf
	}
	if us.HasComment {
		u.Comment = us.Comment
	}
	if len(us.Texture) > 0 {
		u.Texture = us.Texture
	}
	u.CertHash = us.Hash
	if len(us.CommentHash) > 0 {
		u.CommentHash = us.CommentHash
	}
	if len(us.TextureHash) > 0 {
		u.TextureHash = us.TextureHash
	}
	if us.HasPrioritySpeaker {
		u.PrioritySpeaker = us.PrioritySpeaker
	}
	if us.HasRecording {
		u.Recording = us.Recording
	}
	for _, id := range us.ListeningChannelAdd {
		u.ListenedChannels[id] = true
	}
	for _, id := range us.ListeningChannelRemove {
		delete(u.ListenedChannels, id)
	}
	for i, chID := range us.ListenVolumeChannel {
		if i < len(us.ListenVolumeAdjust) {
			if ch, ok := c.channels.Lookup(chID); ok {
				ch.setListenVolume(us.Session, us.ListenVolumeAdjust[i])
			}
		}
	}
	justConnected := state(c.state.Load()) == stateSynced && !wasConnected
	if justConnected {
		u.Connected = true
	}
	u.mu.Unlock()

	c.hooks.call(c, OnUserState, u)
	if created && justConnected {
		c.hooks.call(c, OnUserConnect, u)
	}
	if us.HasChannelID && wasConnected && prevChannel != us.ChannelID {
		c.hooks.call(c, OnUserChannel, u)
	}
	return nil
}

func (c *Client) handleCryptSetup(payload []byte) error {
	cs, err := mumbleproto.UnmarshalCryptSetup(payload)
	if err != nil {
		return nil
	}
	switch {
	case len(cs.Key) > 0 && len(cs.ClientNonce) > 0 && len(cs.ServerNonce) > 0:
		cryptState, err := ocb.New(cs.Key, cs.ClientNonce, cs.ServerNonce)
		if err != nil {
			return nil
		}
		c.transport.setCrypt(cryptState)
	case len(cs.ServerNonce) > 0 && len(cs.Key) == 0:
		c.transport.cryptMu.RLock()
		existing := c.transport.crypt
		c.transport.cryptMu.RUnlock()
		if existing != nil {
			existing.Resync(cs.ServerNonce)
		}
	}
	if c.transport.cryptValid() {
		c.sendUDPPing()
	}
	c.hooks.call(c, OnCryptSetup, cs)
	return nil
}

func (c *Client) handleContextActionModify(payload []byte) error {
	cam, err := mumbleproto.UnmarshalContextActionModify(payload)
	if err != nil {
		return nil
	}
	c.mu.Lock()
	if cam.Operation == 0 { // add
		c.contextActions[cam.Action] = mumbleproto.ContextAction{Action: cam.Action, Text: cam.Text, Context: cam.Context}
	} else {
		delete(c.contextActions, cam.Action)
	}
	c.mu.Unlock()
	c.hooks.call(c, OnContextActionModify, cam)
	return nil
}

func (c *Client) handlePermissionQuery(payload []byte) error {
	pq, err := mumbleproto.UnmarshalPermissionQuery(payload)
	if err != nil {
		return nil
	}
	if pq.Flush {
		for _, ch := range c.channels.All() {
			ch.invalidatePermissions()
		}
	}
	if ch, ok := c.channels.Lookup(pq.ChannelID); ok {
		ch.setPermissions(pq.Permissions)
	}
	c.hooks.call(c, OnPermissionQuery, pq)
	return nil
}

// handleInboundVoice feeds an inbound UDP voice datagram into the
// per-sender jitter buffer rather than dispatching it immediately,
// so reordered and lost frames are resolved before delivery (spec
// §4.7, adapted to play out on the fixed voiceTickMs cadence runVoiceJitterLoop
// drives instead of at arrival time).
func (c *Client) handleInboundVoice(vp *frame.VoicePacket) {
	c.jitterBuf.Push(vp)
}

// runVoiceJitterLoop drains the jitter buffer on a fixed cadence and
// dispatches one playback-ordered frame per active sender per tick,
// running until Disconnect closes voiceStopCh.
func (c *Client) runVoiceJitterLoop() {
	ticker := time.NewTicker(voiceTickMs * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.voiceStopCh:
			return
		case <-ticker.C:
			for _, fr := range c.jitterBuf.Pop() {
				c.deliverVoiceFrame(fr)
			}
		}
	}
}

// deliverVoiceFrame updates per-sender speaking state and fires the
// speaking hooks for one jitter-buffer-released frame (spec §4.7). A nil
// Packet is a concealment tick: the sender is still active but this slot's
// frame never arrived in time, so OnUserSpeak carries FECData (the next
// frame's opus payload, usable with Opus in-band FEC) or nothing at all
// when even that is unavailable, without touching the speaking-state
// machine (a lost frame is not a terminator).
func (c *Client) deliverVoiceFrame(fr jitter.Frame) {
	u, _ := c.users.getOrCreate(fr.SenderID)

	if fr.Packet == nil {
		c.hooks.call(c, OnUserSpeak, &SpeakEvent{User: u, FECData: fr.FECData})
		return
	}

	wasSpeaking := u.IsSpeaking()
	if !wasSpeaking {
		u.setSpeaking(true)
		c.hooks.call(c, OnUserStartSpeaking, u)
	}
	info := frame.DecodeOpusTOC(firstByteOr(fr.Packet.OpusData, 0))
	c.hooks.call(c, OnUserSpeak, &SpeakEvent{User: u, Packet: fr.Packet, OpusInfo: info})
	if fr.Packet.Terminator {
		u.setSpeaking(false)
		c.hooks.call(c, OnUserStopSpeaking, u)
	}
}

func firstByteOr(b []byte, def byte) byte {
	if len(b) == 0 {
		return def
	}
	return b[0]
}

// SpeakEvent is the OnUserSpeak hook payload. Packet is nil on a jitter
// buffer concealment tick (the frame never arrived in time); FECData, if
// non-nil, carries the next frame's opus payload for Opus in-band FEC
// decode instead of blind PLC.
type SpeakEvent struct {
	User     *User
	Packet   *frame.VoicePacket
	OpusInfo frame.OpusFrameInfo
	FECData  []byte
}

// runPingLoop sends periodic TCP and UDP pings (spec §4.6: every 30 s).
func (c *Client) runPingLoop() {
	ticker := time.NewTicker(pingInterval * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if state(c.state.Load()) >= stateClosed {
			return
		}
		c.sendTCPPing()
		if c.transport.cryptValid() {
			c.sendUDPPing()
		}
	}
}

func (c *Client) sendTCPPing() {
	var good, late, lost, resyncs uint32
	c.transport.cryptMu.RLock()
	if cs := c.transport.crypt; cs != nil {
		good, late, lost, resyncs = cs.Good, cs.Late, cs.Lost, cs.Resyncs
	}
	c.transport.cryptMu.RUnlock()

	p := &mumbleproto.Ping{
		Timestamp:  uint64(time.Now().UnixMicro()),
		Good:       good,
		Late:       late,
		Lost:       lost,
		Resync:     resyncs,
		UDPPackets: c.ping.udpPackets,
		TCPPackets: c.ping.tcpPackets,
		UDPPingAvg: float32(c.ping.udpRTT.avg),
		UDPPingVar: float32(c.ping.udpRTT.vr),
		TCPPingAvg: float32(c.ping.tcpRTT.avg),
		TCPPingVar: float32(c.ping.tcpRTT.vr),
	}
	c.transport.writeEnvelope(msgPing, p.Marshal())
	c.hooks.call(c, OnPingTCP, p)
}

func (c *Client) sendUDPPing() {
	c.mu.Lock()
	c.lastUDPPingSent = time.Now()
	c.mu.Unlock()
	ts := uint64(time.Now().UnixMicro())
	if err := c.transport.sendUDPPing(ts); err != nil {
		return
	}
	if c.ping.onUDPPingSent() {
		c.logger.Warnf("udp pings unanswered twice, falling back to tcp tunnel")
	}
	c.hooks.call(c, OnPingUDP, ts)
}

func (c *Client) handleInboundUDPPong(timestamp uint64) {
	c.mu.Lock()
	sent := c.lastUDPPingSent
	c.mu.Unlock()
	delayMs := float64(time.Since(sent).Microseconds()) / 1000.0
	if c.ping.onUDPPong(delayMs) {
		c.logger.Infof("udp pongs resumed, leaving tcp tunnel fallback")
	}
	c.hooks.call(c, OnPongUDP, timestamp)
}

func floatBits(f float32) uint32     { return math.Float32bits(f) }
func floatFromBits(b uint32) float32 { return math.Float32frombits(b) }
