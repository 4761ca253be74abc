package mumbleclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"mumbleclient/internal/frame"
	"mumbleclient/internal/ocb"
)

// dialTimeout bounds the TLS handshake and the UDP socket setup (spec
// §5: "Connect has an implicit socket timeout (5 s recv/send)").
const dialTimeout = 5 * time.Second

// transport owns the two sockets a Client dials: a TLS-over-TCP control
// connection and a UDP voice datagram socket, plus the cryptostate
// guarding the latter. Grounded on client/transport.go's Transport
// struct (ctrlMu-guarded writer, single dedicated connection per client),
// generalized from WebTransport streams to a raw net.Conn pair.
type transport struct {
	tcp    *tls.Conn
	udp    *net.UDPConn
	reader frame.Reader

	writeMu sync.Mutex

	crypt   *ocb.CryptState
	cryptMu sync.RWMutex

	legacy bool

	logger Logger
}

// dial opens the TLS control connection. cfg.CertPEMPath/KeyPEMPath, if
// set, are presented as the client certificate (spec §4.8: "The client
// MUST present a certificate + private-key pair").
func dial(cfg Config) (*transport, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	tlsConf := &tls.Config{InsecureSkipVerify: true} // Mumble servers commonly use self-signed certs; trust is established out-of-band via cert hash, not a CA chain
	if cfg.CertPEMPath != "" && cfg.KeyPEMPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertPEMPath, cfg.KeyPEMPath)
		if err != nil {
			return nil, newError(ErrKindResource, err)
		}
		tlsConf.Certificates = []tls.Certificate{cert}
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	rawConn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, newError(ErrKindNetwork, err)
	}
	tcpConn := tls.Client(rawConn, tlsConf)
	if err := tcpConn.SetDeadline(time.Now().Add(dialTimeout)); err != nil {
		tcpConn.Close()
		return nil, newError(ErrKindNetwork, err)
	}
	if err := tcpConn.Handshake(); err != nil {
		tcpConn.Close()
		return nil, newError(ErrKindNetwork, err)
	}
	tcpConn.SetDeadline(time.Time{})

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		tcpConn.Close()
		return nil, newError(ErrKindNetwork, err)
	}
	udpConn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		tcpConn.Close()
		return nil, newError(ErrKindNetwork, err)
	}

	return &transport{tcp: tcpConn, udp: udpConn, legacy: cfg.legacyVoice(), logger: cfg.Logger}, nil
}

// close tears down both sockets. Idempotent per spec §5.
func (t *transport) close() {
	if t.tcp != nil {
		t.tcp.Close()
	}
	if t.udp != nil {
		t.udp.Close()
	}
}

// writeEnvelope writes one complete TCP envelope. Serialized by writeMu
// since the scheduler, the ping loop, and the dispatch-driven replies can
// all write concurrently.
func (t *transport) writeEnvelope(msgType uint16, payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	buf := frame.EncodeEnvelope(nil, msgType, payload)
	_, err := t.tcp.Write(buf)
	return err
}

// readTCPLoop feeds bytes from the control connection into the envelope
// reader and invokes handle for each complete frame, until the connection
// closes or handle returns a fatal error.
func (t *transport) readTCPLoop(handle func(env frame.Envelope) error) error {
	buf := make([]byte, 4096)
	for {
		n, err := t.tcp.Read(buf)
		if n > 0 {
			t.reader.Feed(buf[:n])
			for {
				env, ok, ferr := t.reader.Next()
				if ferr != nil {
					return newError(ErrKindProtocol, ferr)
				}
				if !ok {
					break
				}
				if herr := handle(env); herr != nil {
					return herr
				}
			}
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return newError(ErrKindNetwork, err)
		}
	}
}

// setCrypt installs a freshly negotiated cryptostate (CryptSetup with key
// + both nonces), replacing any previous one.
func (t *transport) setCrypt(cs *ocb.CryptState) {
	t.cryptMu.Lock()
	t.crypt = cs
	t.cryptMu.Unlock()
}

// cryptValid reports whether a cryptostate is installed; until it is, UDP
// datagrams are dropped and voice must tunnel over TCP (spec §4.8).
func (t *transport) cryptValid() bool {
	t.cryptMu.RLock()
	defer t.cryptMu.RUnlock()
	return t.crypt != nil
}

// sendUDPVoice encrypts and sends one voice datagram, or returns an
// ErrKindCrypto ClientError if no cryptostate is installed yet.
func (t *transport) sendUDPVoice(target uint8, seq uint64, opusData []byte, terminator bool) error {
	t.cryptMu.RLock()
	cs := t.crypt
	t.cryptMu.RUnlock()
	if cs == nil {
		return newError(ErrKindCrypto, errors.New("cryptostate not established"))
	}
	plaintext := frame.EncodeUDPVoice(t.legacy, target, seq, opusData, terminator)
	datagram := cs.Seal(plaintext)
	_, err := t.udp.Write(datagram)
	return err
}

// sendUDPPing encrypts and sends one UDP ping with the given timestamp.
func (t *transport) sendUDPPing(timestamp uint64) error {
	t.cryptMu.RLock()
	cs := t.crypt
	t.cryptMu.RUnlock()
	if cs == nil {
		return newError(ErrKindCrypto, errors.New("cryptostate not established"))
	}
	plaintext := frame.EncodeUDPPing(t.legacy, timestamp)
	datagram := cs.Seal(plaintext)
	_, err := t.udp.Write(datagram)
	return err
}

// readUDPLoop reads, decrypts, and demuxes inbound UDP datagrams until the
// socket closes, invoking onVoice/onPing as appropriate.
func (t *transport) readUDPLoop(onVoice func(*frame.VoicePacket), onPing func(timestamp uint64)) error {
	buf := make([]byte, 2048)
	for {
		n, err := t.udp.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return newError(ErrKindNetwork, err)
		}

		t.cryptMu.RLock()
		cs := t.crypt
		t.cryptMu.RUnlock()
		if cs == nil {
			continue // cryptostate not yet established; drop (spec §4.8)
		}

		plaintext, err := cs.Open(buf[:n])
		if err != nil {
			if t.logger != nil {
				t.logger.Warnf("udp decrypt: %v", err)
			}
			continue
		}

		vp, ts, isPing, err := frame.DecodeUDP(t.legacy, plaintext)
		if err != nil {
			if t.logger != nil {
				t.logger.Warnf("udp demux: %v", err)
			}
			continue
		}
		if isPing {
			if onPing != nil {
				onPing(ts)
			}
			continue
		}
		if onVoice != nil {
			onVoice(vp)
		}
	}
}
