// Package testtls generates throwaway self-signed certificates so transport
// tests can exercise the TLS-over-TCP dial path without a real Mumble
// server or a disk-resident certificate pair.
package testtls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// Pair is a self-signed certificate and the TLS configs derived from it: one
// for a test listener (server side) and one for a dialing client that trusts
// it via InsecureSkipVerify (tests don't carry a CA bundle).
type Pair struct {
	ServerConfig *tls.Config
	ClientConfig *tls.Config
	Fingerprint  string
}

// Generate creates a self-signed ECDSA P-256 certificate valid for validity,
// with hostname (default "localhost") as the CommonName and DNS SAN.
func Generate(validity time.Duration, hostname string) (*Pair, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	cn := "localhost"
	if hostname != "" {
		cn = hostname
	}
	sans := []string{"localhost"}
	if hostname != "" && hostname != "localhost" {
		sans = append(sans, hostname)
	}

	tmpl := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(validity),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              sans,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	fp := sha256.Sum256(certDER)

	tlsCert := tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  key,
		Leaf:        cert,
	}

	return &Pair{
		ServerConfig: &tls.Config{Certificates: []tls.Certificate{tlsCert}},
		ClientConfig: &tls.Config{InsecureSkipVerify: true, Certificates: []tls.Certificate{tlsCert}},
		Fingerprint:  hex.EncodeToString(fp[:]),
	}, nil
}
