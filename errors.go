package mumbleclient

import "fmt"

// ErrorKind classifies a ClientError per the error taxonomy of spec §7.
type ErrorKind int

const (
	ErrKindNetwork ErrorKind = iota
	ErrKindProtocol
	ErrKindCrypto
	ErrKindResource
	ErrKindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNetwork:
		return "network"
	case ErrKindProtocol:
		return "protocol"
	case ErrKindCrypto:
		return "crypto"
	case ErrKindResource:
		return "resource"
	case ErrKindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ClientError wraps an underlying error with the taxonomy kind it belongs
// to, so hook payloads and OnError can branch without string-matching
// (spec §7).
type ClientError struct {
	Kind ErrorKind
	Err  error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("mumbleclient: %s: %v", e.Kind, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *ClientError {
	return &ClientError{Kind: kind, Err: err}
}

// Sentinel errors for states and conditions outside the OCB/transport
// package boundaries (those export their own — ocb.ErrReplay etc.).
var (
	// ErrDisconnected is returned by Say when there is no synced session:
	// before ServerSync has arrived, or once the client has been closed.
	ErrDisconnected = fmt.Errorf("mumbleclient: client is disconnected")

	// ErrState is returned when an operation is attempted in a state that
	// does not support it (e.g. Auth before the TLS handshake completes).
	ErrState = fmt.Errorf("mumbleclient: invalid client state for operation")

	// ErrUnknownChannel / ErrUnknownUser name an unknown channel id or user
	// session. The roster lookups (Client.Channel, Client.User) do not return
	// them; they report a miss through their bool result.
	ErrUnknownChannel = fmt.Errorf("mumbleclient: unknown channel id")
	ErrUnknownUser    = fmt.Errorf("mumbleclient: unknown user session")

	// ErrTooManyVoiceTargets is returned by RegisterVoiceTarget once all
	// 30 server-side slots are in use (spec §3: "1..30, 0 is normal speech").
	ErrTooManyVoiceTargets = fmt.Errorf("mumbleclient: no free voice target slot")
)
