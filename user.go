package mumbleclient

import "sync"

// User models one entry in the server's user roster (spec §3), keyed by
// the ephemeral, server-assigned 32-bit session id.
type User struct {
	mu sync.RWMutex

	Session   uint32
	UserID    *uint32 // persistent account id, nil if unregistered
	Name      string
	ChannelID uint32

	Mute, Deaf, SelfMute, SelfDeaf, Suppress bool
	PrioritySpeaker                          bool
	Recording                                bool

	Comment     string
	CommentHash []byte
	Texture     []byte
	TextureHash []byte
	CertHash    string

	// Connected flips true on the first UserState seen after sync (spec
	// §3: "`connected` flips true on first UserState after sync and
	// emits a connect hook").
	Connected bool

	// Speaking is derived from the voice stream terminator bit, not from
	// any protocol message (spec §3, §4.7).
	Speaking bool

	// ListenedChannels is the set of channel ids this user has live
	// listening enabled for (SPEC_FULL.md §4 supplement), independent of
	// ChannelID.
	ListenedChannels map[uint32]bool
}

func newUser(session uint32) *User {
	return &User{
		Session:          session,
		ListenedChannels: make(map[uint32]bool),
	}
}

// IsSpeaking reports the derived speaking flag.
func (u *User) IsSpeaking() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.Speaking
}

func (u *User) setSpeaking(v bool) {
	u.mu.Lock()
	u.Speaking = v
	u.mu.Unlock()
}

// userRegistry is the Client's id-keyed map of live users, mirroring
// channelRegistry's shape (spec §9).
type userRegistry struct {
	mu   sync.RWMutex
	byID map[uint32]*User
}

func newUserRegistry() *userRegistry {
	return &userRegistry{byID: make(map[uint32]*User)}
}

// getOrCreate returns the user with the given session, creating it (and
// reporting created=true) if this is the first mention.
func (r *userRegistry) getOrCreate(session uint32) (u *User, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[session]
	if !ok {
		u = newUser(session)
		r.byID[session] = u
		return u, true
	}
	return u, false
}

func (r *userRegistry) Lookup(session uint32) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[session]
	return u, ok
}

func (r *userRegistry) Remove(session uint32) {
	r.mu.Lock()
	delete(r.byID, session)
	r.mu.Unlock()
}

func (r *userRegistry) All() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out
}
