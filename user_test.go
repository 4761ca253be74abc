package mumbleclient

import "testing"

func TestUserRegistryGetOrCreateReportsCreated(t *testing.T) {
	r := newUserRegistry()
	u, created := r.getOrCreate(10)
	if !created {
		t.Fatalf("created = false on first mention of session 10")
	}
	if u.Session != 10 {
		t.Fatalf("Session = %d, want 10", u.Session)
	}

	again, created2 := r.getOrCreate(10)
	if created2 {
		t.Fatalf("created = true on second mention of session 10")
	}
	if again != u {
		t.Fatalf("getOrCreate returned a different instance the second time")
	}
}

func TestUserRegistryRemove(t *testing.T) {
	r := newUserRegistry()
	r.getOrCreate(3)
	r.Remove(3)
	if _, ok := r.Lookup(3); ok {
		t.Fatalf("session 3 still present after Remove")
	}
}

func TestUserSpeakingFlag(t *testing.T) {
	u := newUser(1)
	if u.IsSpeaking() {
		t.Fatalf("new user reports speaking = true")
	}
	u.setSpeaking(true)
	if !u.IsSpeaking() {
		t.Fatalf("setSpeaking(true) did not take effect")
	}
	u.setSpeaking(false)
	if u.IsSpeaking() {
		t.Fatalf("setSpeaking(false) did not take effect")
	}
}

func TestUserListenedChannelsInitialized(t *testing.T) {
	u := newUser(1)
	if u.ListenedChannels == nil {
		t.Fatalf("ListenedChannels is nil on a fresh user")
	}
	u.ListenedChannels[9] = true
	if !u.ListenedChannels[9] {
		t.Fatalf("listened channel 9 not recorded")
	}
}
