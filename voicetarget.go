package mumbleclient

// maxVoiceTargetSlots is the server-side slot range voice targets
// register into: "1..30, 0 is normal speech" (spec §3).
const maxVoiceTargetSlots = 30

// VoiceTargetEntry is one {channel | sessions} rule within a VoiceTarget.
// A zero-value ChannelID with a non-empty Sessions set targets those
// users directly; a non-zero ChannelID targets a channel (optionally
// restricted to a group, and optionally expanded to linked/child
// channels).
type VoiceTargetEntry struct {
	Sessions []uint32

	ChannelID      uint32
	Group          string
	IncludeLinks   bool
	IncludeChildren bool
}

// VoiceTarget is an opaque, builder-shaped voice routing configuration
// (spec §3). Build one with NewVoiceTarget, add entries, then pass it to
// Client.RegisterVoiceTarget, which consumes it.
type VoiceTarget struct {
	entries []VoiceTargetEntry
}

// NewVoiceTarget returns an empty VoiceTarget builder.
func NewVoiceTarget() *VoiceTarget {
	return &VoiceTarget{}
}

// AddSessions targets the given user sessions directly.
func (vt *VoiceTarget) AddSessions(sessions ...uint32) *VoiceTarget {
	vt.entries = append(vt.entries, VoiceTargetEntry{Sessions: sessions})
	return vt
}

// AddChannel targets a channel, optionally restricted to group and
// optionally expanded to linked and/or child channels.
func (vt *VoiceTarget) AddChannel(channelID uint32, group string, includeLinks, includeChildren bool) *VoiceTarget {
	vt.entries = append(vt.entries, VoiceTargetEntry{
		ChannelID:       channelID,
		Group:           group,
		IncludeLinks:    includeLinks,
		IncludeChildren: includeChildren,
	})
	return vt
}

// voiceTargetRegistry assigns VoiceTargets to the server-side 1..30 slot
// range and tracks the client's currently selected slot (spec §3).
type voiceTargetRegistry struct {
	slots   [maxVoiceTargetSlots + 1]*VoiceTarget // index 0 unused (normal speech)
	current uint8
}

// register assigns vt to the first free slot (1..30) and returns it.
func (r *voiceTargetRegistry) register(vt *VoiceTarget) (uint8, error) {
	for slot := uint8(1); slot <= maxVoiceTargetSlots; slot++ {
		if r.slots[slot] == nil {
			r.slots[slot] = vt
			return slot, nil
		}
	}
	return 0, ErrTooManyVoiceTargets
}

// release frees a previously registered slot.
func (r *voiceTargetRegistry) release(slot uint8) {
	if slot >= 1 && slot <= maxVoiceTargetSlots {
		r.slots[slot] = nil
	}
}

// setCurrent selects which slot subsequent outbound voice frames use
// (spec §3: "client's 'current voice target' field").
func (r *voiceTargetRegistry) setCurrent(slot uint8) {
	r.current = slot
}
