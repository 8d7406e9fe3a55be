package webrtc

import (
	"context"
	"sync"

	"github.com/webrtcore/webrtc/ice"
	"github.com/webrtcore/webrtc/rtcerr"
)

// loopbackICE is an in-memory ice.Connection test double: two paired
// instances exchanging datagrams over buffered channels, standing in
// for the external ICE agent (spec §1) so DTLS/SRTP and peer
// connection wiring can be exercised without one.
type loopbackICE struct {
	controlling bool

	localUser, localPass   string
	remoteUser, remotePass string
	remoteCandidates       []ice.Candidate

	send chan []byte
	recv chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// newLoopbackICEPair returns two connected loopbackICE instances, a
// playing controlling and b playing controlled, matching spec §3's
// convention that a Connection's Controlling() selects the DTLS role.
func newLoopbackICEPair() (a, b *loopbackICE) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a = &loopbackICE{
		controlling: true,
		localUser:   "aufrag", localPass: "apassword0000000000000000",
		send: ab, recv: ba, closed: make(chan struct{}),
	}
	b = &loopbackICE{
		controlling: false,
		localUser:   "bufrag", localPass: "bpassword0000000000000000",
		send: ba, recv: ab, closed: make(chan struct{}),
	}
	return a, b
}

func (c *loopbackICE) Recv() ([]byte, error) {
	select {
	case b := <-c.recv:
		return b, nil
	case <-c.closed:
		return nil, rtcerr.ErrConnectionClosed
	}
}

func (c *loopbackICE) Send(b []byte) error {
	cp := append([]byte{}, b...)
	select {
	case c.send <- cp:
		return nil
	case <-c.closed:
		return rtcerr.ErrConnectionClosed
	}
}

func (c *loopbackICE) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *loopbackICE) LocalCandidates() []ice.Candidate {
	return []ice.Candidate{"1 1 UDP 2122260223 10.0.0.1 54400 typ host"}
}

func (c *loopbackICE) RemoteCandidates() []ice.Candidate { return c.remoteCandidates }

func (c *loopbackICE) LocalUsername() string  { return c.localUser }
func (c *loopbackICE) LocalPassword() string  { return c.localPass }
func (c *loopbackICE) RemoteUsername() string { return c.remoteUser }
func (c *loopbackICE) RemotePassword() string { return c.remotePass }

func (c *loopbackICE) SetRemoteCredentials(ufrag, pwd string) {
	c.remoteUser, c.remotePass = ufrag, pwd
}

func (c *loopbackICE) SetRemoteCandidates(cands []ice.Candidate) {
	c.remoteCandidates = cands
}

func (c *loopbackICE) GetDefaultCandidate(int) (ice.Candidate, error) {
	return c.LocalCandidates()[0], nil
}

func (c *loopbackICE) GatherCandidates(context.Context) error { return nil }
func (c *loopbackICE) Connect(context.Context) error           { return nil }
func (c *loopbackICE) Controlling() bool                       { return c.controlling }
