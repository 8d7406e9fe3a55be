package webrtc

// SCTPEndpointState is the external SCTP association's lifecycle
// (spec §6). The association state machine itself is out of scope
// (spec §1); this module only observes and reacts to it.
type SCTPEndpointState int

const (
	SCTPEndpointStateClosed SCTPEndpointState = iota + 1
	SCTPEndpointStateCookieWait
	SCTPEndpointStateCookieEchoed
	SCTPEndpointStateEstablished
)

func (s SCTPEndpointState) String() string {
	switch s {
	case SCTPEndpointStateClosed:
		return "closed"
	case SCTPEndpointStateCookieWait:
		return "cookie-wait"
	case SCTPEndpointStateCookieEchoed:
		return "cookie-echoed"
	case SCTPEndpointStateEstablished:
		return "established"
	default:
		return "unknown"
	}
}

// SCTPEndpoint is the external SCTP association contract (spec §6).
// This module consumes it; the association state machine itself is
// an external collaborator and is never implemented here.
type SCTPEndpoint interface {
	// Run starts the association's own processing loop. Blocking;
	// callers run it in its own goroutine.
	Run() error

	// Recv blocks for the next inbound message, yielding the stream
	// id, protocol identifier, and payload.
	Recv() (streamID uint16, proto uint32, payload []byte, err error)

	// Send transmits payload on streamID with the given protocol
	// identifier.
	Send(streamID uint16, proto uint32, payload []byte) error

	// Close gracefully shuts the association down. Idempotent.
	Close() error

	// Abort forcibly terminates the association.
	Abort() error

	// State reports the association's current lifecycle state.
	State() SCTPEndpointState
}
