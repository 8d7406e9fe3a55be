package webrtc

import (
	"crypto/ecdsa"
	"crypto/tls"
	"crypto/x509"

	"github.com/pion/dtls/v3"
)

// srtpProfile is the only SRTP protection profile this module
// advertises (spec §3, §4.1).
const srtpProfile = "SRTP_AES128_CM_SHA1_80"

// cipherSuites restricts the DTLS handshake to strong ECDSA suites,
// the Go-idiomatic equivalent of the reference "HIGH:!CAMELLIA:!aNULL"
// OpenSSL cipher string (spec §4.1): no anonymous, no NULL, no
// Camellia, ECDSA only since every certificate here is ECDSA P-256.
var cipherSuites = []dtls.CipherSuiteID{
	dtls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	dtls.TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA,
	dtls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA256,
}

// DtlsContext is the process-wide (really: per-PeerConnection) DTLS
// configuration shared read-only by every DtlsSession the connection
// creates: one self-signed certificate, its fingerprint, and the
// cipher/SRTP-profile policy (spec §3, §4.1).
type DtlsContext struct {
	key             *ecdsa.PrivateKey
	cert            *x509.Certificate
	LocalFingerprint string
}

// NewDtlsContext generates a fresh ECDSA P-256 certificate and
// publishes its fingerprint. Failure of any primitive aborts
// construction with a DtlsError (spec §4.1).
func NewDtlsContext() (*DtlsContext, error) {
	key, cert, err := generateCertificate()
	if err != nil {
		return nil, err
	}

	return &DtlsContext{
		key:              key,
		cert:             cert,
		LocalFingerprint: fingerprintSHA256(cert),
	}, nil
}

// config builds the dtls.Config shared by every session this context
// backs. Peer verification is "request and require" with a callback
// that always accepts (InsecureSkipVerify): the real check is the
// post-handshake fingerprint comparison DtlsSession.connect performs,
// matching spec §4.1/§4.2 exactly.
func (c *DtlsContext) config() *dtls.Config {
	return &dtls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{c.cert.Raw},
			PrivateKey:  c.key,
		}},
		SRTPProtectionProfiles: []dtls.SRTPProtectionProfile{dtls.SRTP_AES128_CM_HMAC_SHA1_80},
		CipherSuites:           cipherSuites,
		ClientAuth:             dtls.RequireAnyClientCert,
		InsecureSkipVerify:     true,
	}
}
