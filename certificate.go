package webrtc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/webrtcore/webrtc/rtcerr"
)

// certificateLifetime matches the teacher's pattern of a short-lived,
// never-persisted certificate — one per PeerConnection's DtlsContext,
// regenerated every process run (spec §4.1, §9 "ephemeral per peer
// connection; key material must never be persisted").
const (
	certificateNotBeforeSkew = -24 * time.Hour
	certificateLifetime      = 30 * 24 * time.Hour
)

// generateCertificate creates a fresh EC P-256 private key and a
// self-signed X.509 certificate per spec §4.1: CN is 16 random bytes
// in hex, notBefore = now-1d, notAfter = now+30d, a random 32-bit
// serial, version 3, signed with SHA-256.
func generateCertificate() (*ecdsa.PrivateKey, *x509.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, &rtcerr.DtlsError{Err: fmt.Errorf("generate certificate key: %w", err)}
	}

	cn := make([]byte, 16)
	if _, err := rand.Read(cn); err != nil {
		return nil, nil, &rtcerr.DtlsError{Err: fmt.Errorf("generate certificate CN: %w", err)}
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 32))
	if err != nil {
		return nil, nil, &rtcerr.DtlsError{Err: fmt.Errorf("generate certificate serial: %w", err)}
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: hex.EncodeToString(cn)},
		NotBefore:             now.Add(certificateNotBeforeSkew),
		NotAfter:              now.Add(certificateLifetime),
		Version:               2, // encoded "version 3" is value 2 (x509 Version is zero-based)
		SignatureAlgorithm:    x509.ECDSAWithSHA256,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, &rtcerr.DtlsError{Err: fmt.Errorf("create certificate: %w", err)}
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, &rtcerr.DtlsError{Err: fmt.Errorf("parse generated certificate: %w", err)}
	}

	return key, cert, nil
}

// fingerprintSHA256 formats the uppercase colon-separated hex SHA-256
// digest of a DER-encoded certificate (spec §4.1) — e.g. "AA:BB:...".
// This formatting is load-bearing for interop (spec §9).
func fingerprintSHA256(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = strings.ToUpper(hex.EncodeToString([]byte{b}))
	}
	return strings.Join(parts, ":")
}
