// Package ice defines the contract this module expects from an ICE
// agent. The agent itself — candidate gathering, STUN/TURN, nominated
// pair selection — is an external collaborator (spec §1) and is never
// implemented here; this package exists only so webrtcore can depend
// on an interface instead of a concrete ICE stack.
package ice

import "context"

// Candidate is the serialized form of one ICE candidate, i.e. the
// value half of an SDP "a=candidate:..." line.
type Candidate string

// Connection is the opaque ICE transport a Connection handed to a
// Transceiver or to the SCTP transport. One Connection is created per
// transceiver and is uniquely owned by it.
type Connection interface {
	// Recv blocks for the next inbound datagram. It returns
	// rtcerr.ErrConnectionClosed once the connection has been closed.
	Recv() ([]byte, error)

	// Send writes one outbound datagram. The order of Send calls is
	// the order datagrams leave the wire.
	Send(b []byte) error

	// Close releases the connection. Idempotent.
	Close() error

	// LocalCandidates/RemoteCandidates are the gathered/learned
	// candidate lines, in the order they were produced.
	LocalCandidates() []Candidate
	RemoteCandidates() []Candidate

	// LocalUsername/LocalPassword are this side's ICE short-term
	// credentials (ice-ufrag / ice-pwd).
	LocalUsername() string
	LocalPassword() string

	// RemoteUsername/RemotePassword are the remote side's ICE
	// short-term credentials, as learned from the remote description.
	RemoteUsername() string
	RemotePassword() string

	// SetRemoteCredentials installs the remote ice-ufrag/ice-pwd
	// parsed from a remote description.
	SetRemoteCredentials(ufrag, pwd string)

	// SetRemoteCandidates installs the remote candidate lines parsed
	// from a remote description.
	SetRemoteCandidates(candidates []Candidate)

	// GetDefaultCandidate returns the best candidate for the given
	// ICE component (1 = RTP, 2 = RTCP) once gathering has produced
	// one.
	GetDefaultCandidate(component int) (Candidate, error)

	// GatherCandidates performs one-shot candidate gathering.
	GatherCandidates(ctx context.Context) error

	// Connect brings the connection up against the peer: STUN
	// connectivity checks and nominated-pair selection. Blocking.
	Connect(ctx context.Context) error

	// Controlling reports whether this side is the ICE controlling
	// agent. The DTLS role (spec §3) is derived from this: controlling
	// implies the DTLS server role.
	Controlling() bool
}
