package webrtc

import (
	"sync"

	"github.com/pion/logging"
)

// SCTPTransport is the C5 adapter around an external SCTPEndpoint: it
// owns the endpoint the peer connection creates for data channels,
// starts its run loop once the underlying DTLS data channel is
// CONNECTED, and exposes open/close hooks. The association state
// machine itself is out of scope (spec §1) — this type only drives
// and observes it, mirroring the teacher's SCTPTransport.Start/Stop
// shape around *sctp.Association.
type SCTPTransport struct {
	mu sync.Mutex

	endpoint    SCTPEndpoint
	controlling bool
	started     bool

	onDataChannel func(streamID uint16, proto uint32, payload []byte)

	log logging.LeveledLogger
}

// NewSCTPTransport wraps endpoint. controlling is true when the SCTP
// ICE+DTLS pair was created locally by CreateDataChannel, and false
// when it was created for a remote application m-line.
func NewSCTPTransport(endpoint SCTPEndpoint, controlling bool, log logging.LeveledLogger) *SCTPTransport {
	return &SCTPTransport{
		endpoint:    endpoint,
		controlling: controlling,
		log:         log,
	}
}

// Start runs the endpoint's processing loop in its own goroutine and
// begins the receive-dispatch loop. Called once the peer connection's
// SCTP DTLS session reaches CONNECTED (spec §4.4 "start the
// SCTP association and data-channel manager if present").
func (t *SCTPTransport) Start() {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	go func() {
		if err := t.endpoint.Run(); err != nil {
			t.log.Warnf("sctp association run loop exited: %v", err)
		}
	}()
	go t.acceptLoop()
}

func (t *SCTPTransport) acceptLoop() {
	for {
		streamID, proto, payload, err := t.endpoint.Recv()
		if err != nil {
			return
		}

		t.mu.Lock()
		hdlr := t.onDataChannel
		t.mu.Unlock()

		if hdlr != nil {
			hdlr(streamID, proto, payload)
		}
	}
}

// OnDataChannel installs the callback invoked for every inbound
// message the association delivers (spec §6 "the channel management
// itself is external" — this forwards raw messages only).
func (t *SCTPTransport) OnDataChannel(f func(streamID uint16, proto uint32, payload []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDataChannel = f
}

// Send writes payload on streamID through the association.
func (t *SCTPTransport) Send(streamID uint16, proto uint32, payload []byte) error {
	return t.endpoint.Send(streamID, proto, payload)
}

// State reports the underlying association's lifecycle state.
func (t *SCTPTransport) State() SCTPEndpointState {
	return t.endpoint.State()
}

// Close gracefully closes the association. Idempotent at the
// endpoint's own discretion; this adapter does not add a second layer
// of idempotence since the SCTP endpoint contract already documents
// Close as idempotent (spec §6).
func (t *SCTPTransport) Close() error {
	return t.endpoint.Close()
}
