package webrtc

import (
	"sync"

	"github.com/pion/logging"
	"github.com/pion/randutil"
	"github.com/webrtcore/webrtc/ice"
)

// Track is the minimal track handle addTrack binds to a sender. The
// media-capture/packetizer pipeline behind it is out of scope (spec
// §1); a Track here is just an identity and kind to negotiate with.
type Track struct {
	ID   string
	Kind CodecKind
}

// sender holds the local track bound to a transceiver, if any, plus
// its assigned SSRC (spec §3 "sender{track, ssrc}").
type sender struct {
	track *Track
	ssrc  uint32
}

// receiver holds the remote track discovered for a transceiver, if
// any (spec §3 "receiver{track}").
type receiver struct {
	track *Track
}

// Transceiver pairs one ICE connection and one DTLS session with a
// negotiated codec list and a send/receive track pair (spec §3). It
// is created on first local addTrack or first remote m-line of its
// kind, and uniquely owns its ICE connection and DTLS session for
// their lifetime.
type Transceiver struct {
	mu sync.Mutex

	Kind      CodecKind
	Direction RTPTransceiverDirection
	Codecs    []Codec

	sender   sender
	receiver receiver

	controlling bool

	IceConnection ice.Connection
	DtlsSession   *DtlsSession

	sctpTransport *SCTPTransport

	stopped bool

	log logging.LeveledLogger
}

// newTransceiver wires an ICE connection to a DTLS session whose role
// follows spec §3's invariant: server iff controlling.
func newTransceiver(kind CodecKind, ic ice.Connection, ctx *DtlsContext, log logging.LeveledLogger) *Transceiver {
	controlling := ic.Controlling()
	role := dtlsRoleForControlling(controlling)

	t := &Transceiver{
		Kind:          kind,
		Direction:     RTPTransceiverDirectionInactive,
		controlling:   controlling,
		IceConnection: ic,
		log:           log,
	}
	t.DtlsSession = NewDtlsSession(ctx, role, ic, log)
	return t
}

// bindSendTrack attaches track as this transceiver's outbound source,
// assigning a random SSRC the first time (spec §4.4 addTrack), and
// updates direction the way the teacher's setSendingTrack does:
// recvonly->sendrecv, inactive->sendonly.
func (t *Transceiver) bindSendTrack(track *Track) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sender.track == nil {
		t.sender.ssrc = randutil.NewMathRandomGenerator().Uint32()
	}
	t.sender.track = track

	switch t.Direction {
	case RTPTransceiverDirectionRecvonly:
		t.Direction = RTPTransceiverDirectionSendrecv
	case RTPTransceiverDirectionInactive:
		t.Direction = RTPTransceiverDirectionSendonly
	}
	return nil
}

// bindRecvTrack records a remote track discovered from an incoming
// offer's m-line of this transceiver's kind.
func (t *Transceiver) bindRecvTrack(track *Track) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.receiver.track = track

	switch t.Direction {
	case RTPTransceiverDirectionSendonly:
		t.Direction = RTPTransceiverDirectionSendrecv
	case RTPTransceiverDirectionInactive:
		t.Direction = RTPTransceiverDirectionRecvonly
	}
}

// hasSendTrack reports whether a local track is already bound,
// matching spec §4.4's addTrack reuse check.
func (t *Transceiver) hasSendTrack() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sender.track != nil
}

// setCodecs installs the negotiated codec list for this transceiver
// (spec §3 "for every transceiver, exactly one codec list is
// negotiated").
func (t *Transceiver) setCodecs(codecs []Codec) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Codecs = codecs
}

// ssrc returns the sender's assigned SSRC, 0 if none has been
// assigned yet.
func (t *Transceiver) ssrc() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sender.ssrc
}

// runRTP bridges the DTLS session's rtp channel to the transceiver's
// receive side. The actual packetizer/depacketizer pipeline is
// external (spec §1); this loop only keeps the channel draining so
// the session's bounded buffer never backs up once CONNECTED.
func (t *Transceiver) runRTP(onPacket func(pkt []byte)) {
	for {
		pkt, err := t.DtlsSession.RTP.Recv()
		if err != nil {
			return
		}
		if onPacket != nil {
			onPacket(pkt)
		}
	}
}

// stop irreversibly stops the transceiver's DTLS session and ICE
// connection. Idempotent via the session's own idempotent Close.
func (t *Transceiver) stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.mu.Unlock()

	if err := t.DtlsSession.Close(); err != nil {
		return err
	}
	return t.IceConnection.Close()
}
