package mumbleclient

import (
	"errors"
	"testing"
)

func TestClientErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	ce := newError(ErrKindCrypto, inner)
	if !errors.Is(ce, inner) {
		t.Fatalf("errors.Is(ce, inner) = false, want true")
	}
	if ce.Kind != ErrKindCrypto {
		t.Fatalf("Kind = %v, want ErrKindCrypto", ce.Kind)
	}
}

func TestErrorKindString(t *testing.T) {
	cases := map[ErrorKind]string{
		ErrKindNetwork:  "network",
		ErrKindProtocol: "protocol",
		ErrKindCrypto:   "crypto",
		ErrKindResource: "resource",
		ErrKindDecode:   "decode",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("String(%d) = %q, want %q", k, got, want)
		}
	}
}

func TestClientErrorMessageIncludesKind(t *testing.T) {
	ce := newError(ErrKindNetwork, errors.New("dial failed"))
	msg := ce.Error()
	if msg == "" {
		t.Fatalf("Error() returned empty string")
	}
}
