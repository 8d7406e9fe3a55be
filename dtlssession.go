package webrtc

import (
	"context"
	"crypto/x509"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pion/dtls/v3"
	"github.com/pion/logging"
	"github.com/pion/srtp/v3"
	"github.com/webrtcore/webrtc/ice"
	"github.com/webrtcore/webrtc/internal/iceadapter"
	"github.com/webrtcore/webrtc/internal/mux"
	"github.com/webrtcore/webrtc/rtcerr"
)

// dtlsHandshakeTimeout bounds the blocking dtls.Client/dtls.Server
// call. The reference design has no explicit timeout (spec §9 open
// question ii); this module adds the recommended 30s bound and fails
// with DtlsError on expiry.
const dtlsHandshakeTimeout = 30 * time.Second

// keyingMaterialLength is 2*(16+14) bytes: client_write_key(16) ||
// server_write_key(16) || client_write_salt(14) || server_write_salt(14)
// (spec §4.2).
const (
	srtpKeyLen  = 16
	srtpSaltLen = 14
	keyingMaterialLength = 2 * (srtpKeyLen + srtpSaltLen)
)

// DtlsSession drives one transceiver's DTLS handshake over its ICE
// connection, derives SRTP keys from the DTLS master secret, and
// demuxes/encrypts/decrypts traffic on that connection (spec §4.2).
type DtlsSession struct {
	ctx  *DtlsContext
	role DtlsRole

	mu               sync.Mutex
	state            DtlsSessionState
	encrypted        bool
	remoteFingerprint string

	transport ice.Connection
	iceConn   *iceadapter.Conn
	demux     *mux.Mux
	dtlsEP    *mux.Endpoint
	srtpEP    *mux.Endpoint
	dtlsConn  *dtls.Conn

	txSRTP *srtp.Context
	rxSRTP *srtp.Context

	Data *duplexChannel
	RTP  *duplexChannel

	log logging.LeveledLogger

	closeOnce sync.Once
	stopPumps chan struct{}
}

// NewDtlsSession constructs a session for transport in the given
// role. The handshake does not start until connect is called.
func NewDtlsSession(ctx *DtlsContext, role DtlsRole, transport ice.Connection, log logging.LeveledLogger) *DtlsSession {
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("dtls")
	}
	return &DtlsSession{
		ctx:       ctx,
		role:      role,
		state:     DtlsSessionStateClosed,
		transport: transport,
		Data:      newDuplexChannel(log),
		RTP:       newDuplexChannel(log),
		log:       log,
		stopPumps: make(chan struct{}),
	}
}

// SetRemoteFingerprint installs the fingerprint the peer connection
// parsed from the remote description. Must be called before connect.
func (s *DtlsSession) SetRemoteFingerprint(fp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteFingerprint = fp
}

// State returns the session's current lifecycle state.
func (s *DtlsSession) State() DtlsSessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Encrypted reports whether the handshake has completed.
func (s *DtlsSession) Encrypted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encrypted
}

// ReadyToConnect reports whether a remote fingerprint has been
// installed, i.e. whether the owning transceiver's remote description
// has been applied yet. The connect coroutine's precondition that
// "every transport has both local and remote candidates" (spec §4.4)
// extends here to the DTLS side: connect must not be attempted before
// the remote fingerprint is known.
func (s *DtlsSession) ReadyToConnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteFingerprint != ""
}

// Connect runs the handshake (spec §4.2 "connect()"). Preconditions:
// state is CLOSED and a remote fingerprint has been assigned.
func (s *DtlsSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != DtlsSessionStateClosed {
		s.mu.Unlock()
		return &rtcerr.InvalidStateError{Err: fmt.Errorf("dtls session already %s", s.state)}
	}
	if s.remoteFingerprint == "" {
		s.mu.Unlock()
		return &rtcerr.InternalError{Err: fmt.Errorf("remote fingerprint not set")}
	}
	s.state = DtlsSessionStateConnecting
	s.mu.Unlock()

	s.iceConn = iceadapter.Wrap(s.transport)
	s.demux = mux.NewMux(mux.Config{
		Conn:          s.iceConn,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	s.dtlsEP = s.demux.NewEndpoint(mux.MatchDTLS)
	s.srtpEP = s.demux.NewEndpoint(mux.MatchSRTP)

	handshakeCtx, cancel := context.WithTimeout(ctx, dtlsHandshakeTimeout)
	defer cancel()

	var dtlsConn *dtls.Conn
	var err error
	cfg := s.ctx.config()
	if s.role == DtlsRoleClient {
		dtlsConn, err = dtls.ClientWithContext(handshakeCtx, s.dtlsEP, cfg)
	} else {
		dtlsConn, err = dtls.ServerWithContext(handshakeCtx, s.dtlsEP, cfg)
	}
	if err != nil {
		s.fail()
		return &rtcerr.DtlsError{Err: fmt.Errorf("dtls handshake: %w", err)}
	}

	if err := s.verifyRemoteFingerprint(dtlsConn); err != nil {
		_ = dtlsConn.Close()
		s.fail()
		return err
	}

	if err := s.installSRTPKeys(dtlsConn); err != nil {
		_ = dtlsConn.Close()
		s.fail()
		return err
	}

	s.mu.Lock()
	s.dtlsConn = dtlsConn
	s.state = DtlsSessionStateConnected
	s.encrypted = true
	s.mu.Unlock()

	go s.pumpData()
	go s.pumpRTP()

	return nil
}

func (s *DtlsSession) fail() {
	s.mu.Lock()
	s.state = DtlsSessionStateClosed
	s.mu.Unlock()
}

func (s *DtlsSession) verifyRemoteFingerprint(conn *dtls.Conn) error {
	remoteCerts := conn.RemoteCertificate()
	if len(remoteCerts) == 0 {
		return &rtcerr.DtlsError{Err: fmt.Errorf("peer presented no certificate")}
	}

	cert, err := x509.ParseCertificate(remoteCerts[0])
	if err != nil {
		return &rtcerr.DtlsError{Err: fmt.Errorf("parse remote certificate: %w", err)}
	}

	remote := fingerprintSHA256(cert)
	if !strings.EqualFold(remote, s.remoteFingerprint) {
		return &rtcerr.DtlsError{Err: fmt.Errorf("remote fingerprint mismatch: got %s want %s", remote, s.remoteFingerprint)}
	}
	return nil
}

// installSRTPKeys exports 60 bytes of keying material and splits it
// per spec §4.2 into client/server write key/salt, then assigns the
// tx/rx SRTP contexts per spec §3's role convention: the controlling
// (server) side transmits with server_write_key and receives with
// client_write_key; the controlled (client) side is the mirror.
func (s *DtlsSession) installSRTPKeys(conn *dtls.Conn) error {
	material, err := conn.ExportKeyingMaterial("EXTRACTOR-dtls_srtp", nil, keyingMaterialLength)
	if err != nil {
		return &rtcerr.DtlsError{Err: fmt.Errorf("export keying material: %w", err)}
	}

	clientWriteKey := material[0:srtpKeyLen]
	serverWriteKey := material[srtpKeyLen : 2*srtpKeyLen]
	clientWriteSalt := material[2*srtpKeyLen : 2*srtpKeyLen+srtpSaltLen]
	serverWriteSalt := material[2*srtpKeyLen+srtpSaltLen : 2*srtpKeyLen+2*srtpSaltLen]

	clientKey := append(append([]byte{}, clientWriteKey...), clientWriteSalt...)
	serverKey := append(append([]byte{}, serverWriteKey...), serverWriteSalt...)

	var txKey, rxKey []byte
	if s.role == DtlsRoleServer {
		txKey, rxKey = serverKey, clientKey
	} else {
		txKey, rxKey = clientKey, serverKey
	}

	profile := srtp.ProtectionProfileAes128CmHmacSha1_80

	s.txSRTP, err = srtp.CreateContext(txKey[:srtpKeyLen], txKey[srtpKeyLen:], profile)
	if err != nil {
		return &rtcerr.DtlsError{Err: fmt.Errorf("create tx srtp context: %w", err)}
	}
	s.rxSRTP, err = srtp.CreateContext(rxKey[:srtpKeyLen], rxKey[srtpKeyLen:], profile)
	if err != nil {
		return &rtcerr.DtlsError{Err: fmt.Errorf("create rx srtp context: %w", err)}
	}
	return nil
}

// pumpData forwards decrypted DTLS application data (SCTP traffic)
// into the Data channel. A zero-length read signals remote shutdown
// and tears the session down (spec §4.2).
func (s *DtlsSession) pumpData() {
	buf := make([]byte, 1500)
	for {
		n, err := s.dtlsConn.Read(buf)
		if err != nil {
			s.teardown()
			return
		}
		if n == 0 {
			s.teardown()
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		s.Data.enqueue(payload)
	}
}

// pumpRTP classifies each datagram on the SRTP/SRTCP endpoint as RTP
// or RTCP by its payload-type field against the RTCP range
// (192-223), unprotects it, and enqueues the plaintext into RTP.
// Unprotect failures and classification misses are dropped, never
// fatal (spec §4.2 "Failure semantics").
func (s *DtlsSession) pumpRTP() {
	buf := make([]byte, 1500)
	for {
		n, err := s.srtpEP.Read(buf)
		if err != nil {
			return
		}
		pkt := make([]byte, n)
		copy(pkt, buf[:n])

		if isRTCPPacket(pkt) {
			plain, err := s.rxSRTP.DecryptRTCP(nil, pkt, nil)
			if err != nil {
				s.log.Warnf("srtcp unprotect failed: %v", err)
				continue
			}
			s.RTP.enqueue(plain)
			continue
		}

		plain, err := s.rxSRTP.DecryptRTP(nil, pkt, nil)
		if err != nil {
			s.log.Warnf("srtp unprotect failed: %v", err)
			continue
		}
		s.RTP.enqueue(plain)
	}
}

// rtcpPTLow/rtcpPTHigh is RFC 3550's RTCP payload-type range used to
// tell an SRTP packet from an SRTCP packet once both have already
// been routed here by the outer [128,191] first-byte demux (spec §4.2,
// §9 "First-byte demux").
const (
	rtcpPTLow  = 192
	rtcpPTHigh = 223
)

// isRTCPPacket reads the second octet directly rather than through
// rtp.Header.Unmarshal, whose PayloadType is masked to 7 bits and so
// can never fall in the 192-223 range.
func isRTCPPacket(buf []byte) bool {
	if len(buf) < 2 {
		return false
	}
	pt := buf[1]
	return pt >= rtcpPTLow && pt <= rtcpPTHigh
}

// SendData writes through the TLS engine; refused unless the session
// is CONNECTED (spec §4.2).
func (s *DtlsSession) SendData(b []byte) error {
	s.mu.Lock()
	connected := s.state == DtlsSessionStateConnected
	conn := s.dtlsConn
	s.mu.Unlock()
	if !connected {
		return &rtcerr.InvalidStateError{Err: fmt.Errorf("dtls session not connected")}
	}
	_, err := conn.Write(b)
	return err
}

// SendRTP classifies b as RTP or RTCP, protects it with the outbound
// SRTP context, and writes the ciphertext directly to the transport
// (spec §4.2).
func (s *DtlsSession) SendRTP(b []byte) error {
	s.mu.Lock()
	connected := s.state == DtlsSessionStateConnected
	s.mu.Unlock()
	if !connected {
		return &rtcerr.InvalidStateError{Err: fmt.Errorf("dtls session not connected")}
	}

	var cipher []byte
	var err error
	if isRTCPPacket(b) {
		cipher, err = s.txSRTP.EncryptRTCP(nil, b, nil)
	} else {
		cipher, err = s.txSRTP.EncryptRTP(nil, b, nil)
	}
	if err != nil {
		return err
	}
	_, err = s.srtpEP.Write(cipher)
	return err
}

// teardown funnels remote shutdown, transport errors, and explicit
// Close into the same terminal path (spec §4.2, §7).
func (s *DtlsSession) teardown() {
	s.mu.Lock()
	s.state = DtlsSessionStateClosed
	s.mu.Unlock()

	s.Data.close()
	s.RTP.close()
}

// Close issues a TLS shutdown, flushes once, signals closure, and
// stops the receive pumps. Idempotent (spec §4.2, Testable Property 6).
func (s *DtlsSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn := s.dtlsConn
		demux := s.demux
		s.state = DtlsSessionStateClosed
		s.mu.Unlock()

		if conn != nil {
			err = conn.Close()
		}
		if demux != nil {
			_ = demux.Close()
		}

		s.Data.close()
		s.RTP.close()
	})
	return err
}
