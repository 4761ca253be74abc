package mumbleclient

import "fmt"

// HookName identifies one of the event points listed in spec §6.
type HookName string

const (
	OnConnect       HookName = "OnConnect"
	OnDisconnect    HookName = "OnDisconnect"
	OnError         HookName = "OnError"
	OnServerVersion HookName = "OnServerVersion"
	OnServerSync    HookName = "OnServerSync"
	OnServerReject  HookName = "OnServerReject"
	OnServerConfig  HookName = "OnServerConfig"
	OnSuggestConfig HookName = "OnSuggestConfig"
	OnPingTCP       HookName = "OnPingTCP"
	OnPongTCP       HookName = "OnPongTCP"
	OnPingUDP       HookName = "OnPingUDP"
	OnPongUDP       HookName = "OnPongUDP"

	OnChannelState  HookName = "OnChannelState"
	OnChannelRemove HookName = "OnChannelRemove"

	OnUserState      HookName = "OnUserState"
	OnUserConnect    HookName = "OnUserConnect"
	OnUserRemove     HookName = "OnUserRemove"
	OnUserChannel    HookName = "OnUserChannel"
	OnMessage        HookName = "OnMessage"

	OnPermissionDenied HookName = "OnPermissionDenied"
	OnPermissionQuery  HookName = "OnPermissionQuery"
	OnACL              HookName = "OnACL"
	OnBanList          HookName = "OnBanList"
	OnUserList         HookName = "OnUserList"
	OnQueryUsers       HookName = "OnQueryUsers"
	OnCodecVersion     HookName = "OnCodecVersion"
	OnUserStats        HookName = "OnUserStats"

	OnContextActionModify HookName = "OnContextActionModify"
	OnPluginData          HookName = "OnPluginData"
	OnCryptSetup          HookName = "OnCryptSetup"

	OnAudioStream       HookName = "OnAudioStream"
	OnAudioStreamEnd    HookName = "OnAudioStreamEnd"
	OnUserSpeak         HookName = "OnUserSpeak"
	OnUserStartSpeaking HookName = "OnUserStartSpeaking"
	OnUserStopSpeaking  HookName = "OnUserStopSpeaking"
)

// HookFunc is one registered callback. It receives the owning Client and
// an event payload whose concrete type is documented per HookName (e.g.
// OnUserState delivers *User, OnMessage delivers *mumbleproto.TextMessage).
// It may return a value, which call reports back to its caller — spec
// §4.9: "invokes each callback... and returns the first return value
// emitted".
type HookFunc func(c *Client, payload any) (ret any, err error)

// hookTable is "a table `hook-name → (callback-name → callable)`"
// (spec §4.9), generalized from the teacher's single-callback-per-event
// SetOnXxx fields (client/interfaces.go's Transporter) to a named,
// multi-subscriber table so more than one embedder concern can observe
// the same event without clobbering each other's callback.
type hookTable struct {
	hooks map[HookName]map[string]HookFunc
}

func newHookTable() *hookTable {
	return &hookTable{hooks: make(map[HookName]map[string]HookFunc)}
}

// Hook registers fn under name/callbackName, appending or overriding an
// existing registration with the same callbackName (spec §4.9).
func (t *hookTable) Hook(name HookName, callbackName string, fn HookFunc) {
	m, ok := t.hooks[name]
	if !ok {
		m = make(map[string]HookFunc)
		t.hooks[name] = m
	}
	m[callbackName] = fn
}

// Unhook removes a previously registered callback.
func (t *hookTable) Unhook(name HookName, callbackName string) {
	delete(t.hooks[name], callbackName)
}

// call iterates every callback registered under name, invoking it with
// (client, payload). It returns the first non-nil return value emitted.
// A callback that panics or errors is caught and routed to OnError,
// except OnError callbacks themselves, which are invoked unprotected —
// spec §4.9: "re-entrancy into OnError during its own dispatch is fatal".
func (t *hookTable) call(c *Client, name HookName, payload any) any {
	var first any
	for cbName, fn := range t.hooks[name] {
		if name == OnError {
			ret, _ := fn(c, payload)
			if first == nil {
				first = ret
			}
			continue
		}
		ret, err := t.invokeGuarded(cbName, fn, c, payload)
		if err != nil {
			t.call(c, OnError, &ClientError{Kind: ErrKindProtocol, Err: err})
			continue
		}
		if first == nil {
			first = ret
		}
	}
	return first
}

// invokeGuarded recovers a panicking callback into an error so one
// misbehaving hook cannot bring down the event loop.
func (t *hookTable) invokeGuarded(cbName string, fn HookFunc, c *Client, payload any) (ret any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook %q panicked: %v", cbName, r)
		}
	}()
	return fn(c, payload)
}
