package webrtc

import (
	"context"
	"sync"
	"testing"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
	"github.com/webrtcore/webrtc/rtcerr"
)

// newConnectedSessionPair drives two DtlsSessions bound to a loopback
// ICE pair through a real handshake, per spec Testable Property 3.
func newConnectedSessionPair(t *testing.T) (*DtlsSession, *DtlsSession) {
	t.Helper()

	aIce, bIce := newLoopbackICEPair()

	aCtx, err := NewDtlsContext()
	require.NoError(t, err)
	bCtx, err := NewDtlsContext()
	require.NoError(t, err)

	a := NewDtlsSession(aCtx, dtlsRoleForControlling(aIce.Controlling()), aIce, nil)
	b := NewDtlsSession(bCtx, dtlsRoleForControlling(bIce.Controlling()), bIce, nil)
	a.SetRemoteFingerprint(bCtx.LocalFingerprint)
	b.SetRemoteFingerprint(aCtx.LocalFingerprint)

	var wg sync.WaitGroup
	var aErr, bErr error
	wg.Add(2)
	go func() { defer wg.Done(); aErr = a.Connect(context.Background()) }()
	go func() { defer wg.Done(); bErr = b.Connect(context.Background()) }()
	wg.Wait()

	require.NoError(t, aErr)
	require.NoError(t, bErr)
	return a, b
}

func TestDtlsSessionLiveness(t *testing.T) {
	a, b := newConnectedSessionPair(t)
	defer func() { _ = a.Close() }()
	defer func() { _ = b.Close() }()

	require.True(t, a.Encrypted())
	require.True(t, b.Encrypted())
	require.Equal(t, DtlsSessionStateConnected, a.State())
	require.Equal(t, DtlsSessionStateConnected, b.State())
}

// TestDtlsSessionSRTPSymmetry covers Testable Property 4 for the RTP
// direction: rx.unprotect(tx.protect(P)) == P.
func TestDtlsSessionSRTPSymmetry(t *testing.T) {
	a, b := newConnectedSessionPair(t)
	defer func() { _ = a.Close() }()
	defer func() { _ = b.Close() }()

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    111,
			SequenceNumber: 1000,
			Timestamp:      5000,
			SSRC:           0xdeadbeef,
		},
		Payload: []byte("hello srtp"),
	}
	raw, err := pkt.Marshal()
	require.NoError(t, err)

	require.NoError(t, a.SendRTP(raw))

	recvd, err := b.RTP.Recv()
	require.NoError(t, err)

	got := &rtp.Packet{}
	require.NoError(t, got.Unmarshal(recvd))
	require.Equal(t, pkt.Payload, got.Payload)
	require.Equal(t, pkt.SSRC, got.SSRC)
	require.Equal(t, pkt.SequenceNumber, got.SequenceNumber)
}

// TestDtlsSessionSRTCPSymmetry covers Testable Property 4 for the RTCP
// direction, using a real rtcp.ReceiverReport to justify this module's
// dependency on github.com/pion/rtcp.
func TestDtlsSessionSRTCPSymmetry(t *testing.T) {
	a, b := newConnectedSessionPair(t)
	defer func() { _ = a.Close() }()
	defer func() { _ = b.Close() }()

	rr := &rtcp.ReceiverReport{
		SSRC: 0xdeadbeef,
		Reports: []rtcp.ReceptionReport{
			{SSRC: 0xcafef00d, FractionLost: 1, TotalLost: 2, LastSequenceNumber: 99, Jitter: 3},
		},
	}
	raw, err := rr.Marshal()
	require.NoError(t, err)

	// rtcp.ReceiverReport's packet type (201) must land in the raw
	// second-byte RTCP range so SendRTP actually takes the SRTCP path,
	// not the RTP one.
	require.True(t, isRTCPPacket(raw))

	require.NoError(t, a.SendRTP(raw))

	recvd, err := b.RTP.Recv()
	require.NoError(t, err)

	pkts, err := rtcp.Unmarshal(recvd)
	require.NoError(t, err)
	require.Len(t, pkts, 1)

	got, ok := pkts[0].(*rtcp.ReceiverReport)
	require.True(t, ok)
	require.Equal(t, rr.SSRC, got.SSRC)
	require.Len(t, got.Reports, 1)
	require.Equal(t, rr.Reports[0].SSRC, got.Reports[0].SSRC)
}

// TestDtlsSessionCloseIsIdempotent covers Testable Property 6.
func TestDtlsSessionCloseIsIdempotent(t *testing.T) {
	a, b := newConnectedSessionPair(t)
	defer func() { _ = b.Close() }()

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	require.Equal(t, DtlsSessionStateClosed, a.State())

	_, err := a.Data.Recv()
	require.ErrorIs(t, err, rtcerr.ErrConnectionClosed)

	err = a.SendData([]byte("x"))
	require.Error(t, err)
}

// TestDtlsSessionBadRemoteFingerprint covers the "Bad remote
// fingerprint" scenario (spec §8): the side with the mismatched
// fingerprint fails connect() with DtlsError and returns to CLOSED.
func TestDtlsSessionBadRemoteFingerprint(t *testing.T) {
	aIce, bIce := newLoopbackICEPair()

	aCtx, err := NewDtlsContext()
	require.NoError(t, err)
	bCtx, err := NewDtlsContext()
	require.NoError(t, err)

	a := NewDtlsSession(aCtx, dtlsRoleForControlling(aIce.Controlling()), aIce, nil)
	b := NewDtlsSession(bCtx, dtlsRoleForControlling(bIce.Controlling()), bIce, nil)
	a.SetRemoteFingerprint("00:11:22:33:44:55:66:77:88:99:AA:BB:CC:DD:EE:FF:00:11:22:33:44:55:66:77:88:99:AA:BB:CC:DD:EE:FF")
	b.SetRemoteFingerprint(aCtx.LocalFingerprint)

	var wg sync.WaitGroup
	var aErr, bErr error
	wg.Add(2)
	go func() { defer wg.Done(); aErr = a.Connect(context.Background()) }()
	go func() { defer wg.Done(); bErr = b.Connect(context.Background()) }()
	wg.Wait()
	defer func() { _ = b.Close() }()

	require.Error(t, aErr)
	var dtlsErr *rtcerr.DtlsError
	require.ErrorAs(t, aErr, &dtlsErr)
	require.Equal(t, DtlsSessionStateClosed, a.State())
	_ = bErr
}
