package webrtc

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/webrtcore/webrtc/ice"
	"github.com/webrtcore/webrtc/rtcerr"
	"github.com/webrtcore/webrtc/sdp"
)

// icePairer hands out loopback ICE connections pairwise across two
// PeerConnections under test: every connection the offerer's factory
// creates is queued for the answerer's factory to pick up next, in
// the same order both sides see their media blocks.
type icePairer struct {
	mu      sync.Mutex
	pending []ice.Connection
}

func newIcePairer() *icePairer { return &icePairer{} }

func (p *icePairer) offererFactory() ICEConnectionFactory {
	return func(bool) (ice.Connection, error) {
		a, b := newLoopbackICEPair()
		p.mu.Lock()
		p.pending = append(p.pending, b)
		p.mu.Unlock()
		return a, nil
	}
}

func (p *icePairer) answererFactory() ICEConnectionFactory {
	return func(bool) (ice.Connection, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(p.pending) == 0 {
			return nil, fmt.Errorf("icePairer: no pending connection")
		}
		next := p.pending[0]
		p.pending = p.pending[1:]
		return next, nil
	}
}

// stubSCTPEndpoint is a no-op SCTPEndpoint test double: the
// association state machine itself is an external collaborator (spec
// §1), so peer-connection-level tests only need something that
// satisfies the contract, not a working one.
type stubSCTPEndpoint struct {
	closeOnce sync.Once
	closed    chan struct{}
}

func newStubSCTPEndpoint() *stubSCTPEndpoint {
	return &stubSCTPEndpoint{closed: make(chan struct{})}
}

func (s *stubSCTPEndpoint) Run() error { <-s.closed; return nil }

func (s *stubSCTPEndpoint) Recv() (uint16, uint32, []byte, error) {
	<-s.closed
	return 0, 0, nil, rtcerr.ErrConnectionClosed
}

func (s *stubSCTPEndpoint) Send(uint16, uint32, []byte) error { return nil }

func (s *stubSCTPEndpoint) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *stubSCTPEndpoint) Abort() error { return s.Close() }

func (s *stubSCTPEndpoint) State() SCTPEndpointState { return SCTPEndpointStateEstablished }

func stubSCTPFactory(bool, *DtlsSession) (SCTPEndpoint, error) {
	return newStubSCTPEndpoint(), nil
}

// waitForCompleted registers a one-shot ICE-connection-state watcher
// before any signaling call fires the connect coroutine, so the
// completed signal can never be missed by a race with test setup.
func waitForCompleted(pc *PeerConnection) <-chan struct{} {
	ch := make(chan struct{})
	var once sync.Once
	pc.OnICEConnectionStateChange(func(s IceConnectionState) {
		if s == IceConnectionStateCompleted {
			once.Do(func() { close(ch) })
		}
	})
	return ch
}

func requireCompleted(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ICEConnectionStateCompleted")
	}
}

// TestOfferAnswerWiring exercises the spec §8 concrete scenario: addTrack
// then createOffer produces exactly one negotiated audio m-line, and a
// full offer/answer exchange between two peer connections reaches
// IceConnectionStateCompleted on both sides.
func TestOfferAnswerWiring(t *testing.T) {
	pairer := newIcePairer()

	pcA, err := NewPeerConnection(pairer.offererFactory(), stubSCTPFactory, nil)
	require.NoError(t, err)
	defer func() { _ = pcA.Close() }()

	pcB, err := NewPeerConnection(pairer.answererFactory(), stubSCTPFactory, nil)
	require.NoError(t, err)
	defer func() { _ = pcB.Close() }()

	completedA := waitForCompleted(pcA)
	completedB := waitForCompleted(pcB)

	require.NoError(t, pcA.AddTrack(&Track{ID: "audio-1", Kind: CodecKindAudio}))

	offer, err := pcA.CreateOffer()
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(offer.SDP, "m=audio"))
	require.Contains(t, offer.SDP, "m=audio 9 UDP/TLS/RTP/SAVPF 96 0 8\r\n")
	require.Equal(t, 1, strings.Count(offer.SDP, "a=setup:actpass"))
	require.Contains(t, offer.SDP, "a=rtpmap:96 opus/48000/2\r\n")
	require.Contains(t, offer.SDP, "a=rtpmap:0 PCMU/8000\r\n")
	require.Contains(t, offer.SDP, "a=rtpmap:8 PCMA/8000\r\n")

	require.NoError(t, pcA.SetLocalDescription(offer))
	require.NoError(t, pcB.SetRemoteDescription(offer))

	answer, err := pcB.CreateAnswer()
	require.NoError(t, err)
	require.NoError(t, pcB.SetLocalDescription(answer))
	require.NoError(t, pcA.SetRemoteDescription(answer))

	requireCompleted(t, completedA)
	requireCompleted(t, completedB)

	require.Equal(t, SignalingStateStable, pcA.SignalingState())
	require.Equal(t, SignalingStateStable, pcB.SignalingState())
}

// TestCreateAnswerFromStableFails covers Testable Property 8.
func TestCreateAnswerFromStableFails(t *testing.T) {
	pairer := newIcePairer()
	pc, err := NewPeerConnection(pairer.offererFactory(), stubSCTPFactory, nil)
	require.NoError(t, err)
	defer func() { _ = pc.Close() }()

	_, err = pc.CreateAnswer()
	require.Error(t, err)
	var invalidState *rtcerr.InvalidStateError
	require.ErrorAs(t, err, &invalidState)
}

// TestSetRemoteDescriptionAnswerFromStableFails covers the "Invalid SDP
// answer state" scenario (spec §8): answer from stable is rejected and
// signaling state is left unchanged.
func TestSetRemoteDescriptionAnswerFromStableFails(t *testing.T) {
	pairer := newIcePairer()
	pc, err := NewPeerConnection(pairer.offererFactory(), stubSCTPFactory, nil)
	require.NoError(t, err)
	defer func() { _ = pc.Close() }()

	err = pc.SetRemoteDescription(&sdp.SessionDescription{SDP: "v=0\r\n", Type: sdp.TypeAnswer})
	require.Error(t, err)
	var invalidState *rtcerr.InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	require.Equal(t, SignalingStateStable, pc.SignalingState())
}

// TestAddTrackAfterCloseFails covers Testable Property 8.
func TestAddTrackAfterCloseFails(t *testing.T) {
	pairer := newIcePairer()
	pc, err := NewPeerConnection(pairer.offererFactory(), stubSCTPFactory, nil)
	require.NoError(t, err)
	require.NoError(t, pc.Close())

	err = pc.AddTrack(&Track{ID: "audio-1", Kind: CodecKindAudio})
	require.Error(t, err)
	var invalidState *rtcerr.InvalidStateError
	require.ErrorAs(t, err, &invalidState)
}
