package webrtc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/pion/randutil"
	"github.com/webrtcore/webrtc/ice"
	"github.com/webrtcore/webrtc/rtcerr"
	"github.com/webrtcore/webrtc/sdp"
)

// cnameAlphabet matches the teacher's RTPSender id alphabet
// (rtpsender.go), reused here for the per-connection RTCP CNAME.
const cnameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ICEConnectionFactory constructs one fresh, uniquely-owned ICE
// connection for a transceiver or for the SCTP transport. The ICE
// agent itself is an external collaborator (spec §1); the peer
// connection only knows how to ask for one.
type ICEConnectionFactory func(controlling bool) (ice.Connection, error)

// SCTPEndpointFactory constructs the external SCTP association bound
// to session's DTLS data channel (spec §6 "constructed with is_server,
// transport=<dtls.data channel>").
type SCTPEndpointFactory func(isServer bool, session *DtlsSession) (SCTPEndpoint, error)

// DataChannelHandle is the minimal handle createDataChannel returns.
// The data-channel API surface beyond creation is an explicit
// Non-goal; this is identity plus a best-effort Send over the
// association once it is established.
type DataChannelHandle struct {
	Label    string
	Protocol string

	pc *PeerConnection
}

// Send forwards payload over the peer connection's SCTP transport, if
// established.
func (h *DataChannelHandle) Send(payload []byte) error {
	h.pc.mu.Lock()
	t := h.pc.sctpTransport
	h.pc.mu.Unlock()
	if t == nil {
		return &rtcerr.InvalidStateError{Err: fmt.Errorf("sctp transport not yet established")}
	}
	return t.Send(0, 51, payload)
}

// PeerConnection owns a set of transceivers and an optional SCTP
// transport, running the signaling and ICE state machines that wire
// them together (spec §3, §4.4).
type PeerConnection struct {
	mu sync.Mutex

	cname       string
	dtlsContext *DtlsContext

	transceivers []*Transceiver

	sctpIce       ice.Connection
	sctpDtls      *DtlsSession
	sctpTransport *SCTPTransport
	sctpControlling bool

	signalingState     SignalingState
	iceConnectionState IceConnectionState
	iceGatheringState  IceGatheringState
	closed             bool

	currentLocalDescription  *sdp.SessionDescription
	currentRemoteDescription *sdp.SessionDescription

	iceFactory  ICEConnectionFactory
	sctpFactory SCTPEndpointFactory

	onICEConnectionStateChange func(IceConnectionState)
	onICEGatheringStateChange  func(IceGatheringState)
	onSignalingStateChange     func(SignalingState)
	onTrack                    func(track *Track, t *Transceiver)

	log logging.LeveledLogger

	actions chan func()
	stopCh  chan struct{}
	stopOnce sync.Once
}

// NewPeerConnection constructs a PeerConnection with a fresh DTLS
// context (spec §4.1) and starts its single dispatch goroutine (spec
// §5 / SPEC_FULL.md §5).
func NewPeerConnection(iceFactory ICEConnectionFactory, sctpFactory SCTPEndpointFactory, log logging.LeveledLogger) (*PeerConnection, error) {
	ctx, err := NewDtlsContext()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("webrtc")
	}

	cname, err := randutil.GenerateCryptoRandomString(16, cnameAlphabet)
	if err != nil {
		return nil, &rtcerr.InternalError{Err: err}
	}

	pc := &PeerConnection{
		cname:              cname,
		dtlsContext:        ctx,
		signalingState:     SignalingStateStable,
		iceConnectionState: IceConnectionStateNew,
		iceGatheringState:  IceGatheringStateNew,
		iceFactory:         iceFactory,
		sctpFactory:        sctpFactory,
		log:                log,
		actions:            make(chan func()),
		stopCh:             make(chan struct{}),
	}

	go pc.run()

	return pc, nil
}

func (pc *PeerConnection) run() {
	for {
		select {
		case f := <-pc.actions:
			f()
		case <-pc.stopCh:
			return
		}
	}
}

// do serializes f onto the single dispatch goroutine and blocks for
// its result, giving every exported operation the same "no true
// parallelism" guarantee the spec's cooperative model relies on
// (spec §5).
func (pc *PeerConnection) do(f func() error) error {
	errCh := make(chan error, 1)
	select {
	case pc.actions <- func() { errCh <- f() }:
	case <-pc.stopCh:
		return &rtcerr.InvalidStateError{Err: fmt.Errorf("peer connection closed")}
	}
	select {
	case err := <-errCh:
		return err
	case <-pc.stopCh:
		return &rtcerr.InvalidStateError{Err: fmt.Errorf("peer connection closed")}
	}
}

// Event hook setters (spec §6 "Events emitted by the peer connection").

func (pc *PeerConnection) OnICEConnectionStateChange(f func(IceConnectionState)) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.onICEConnectionStateChange = f
}

func (pc *PeerConnection) OnICEGatheringStateChange(f func(IceGatheringState)) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.onICEGatheringStateChange = f
}

func (pc *PeerConnection) OnSignalingStateChange(f func(SignalingState)) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.onSignalingStateChange = f
}

func (pc *PeerConnection) OnTrack(f func(track *Track, t *Transceiver)) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.onTrack = f
}

// setSignalingState must be called from the dispatch goroutine.
func (pc *PeerConnection) setSignalingState(s SignalingState) {
	pc.mu.Lock()
	pc.signalingState = s
	hdlr := pc.onSignalingStateChange
	pc.mu.Unlock()
	if hdlr != nil {
		hdlr(s)
	}
}

func (pc *PeerConnection) setICEConnectionState(s IceConnectionState) {
	pc.mu.Lock()
	pc.iceConnectionState = s
	hdlr := pc.onICEConnectionStateChange
	pc.mu.Unlock()
	if hdlr != nil {
		hdlr(s)
	}
}

func (pc *PeerConnection) setICEGatheringState(s IceGatheringState) {
	pc.mu.Lock()
	pc.iceGatheringState = s
	hdlr := pc.onICEGatheringStateChange
	pc.mu.Unlock()
	if hdlr != nil {
		hdlr(s)
	}
}

// GetTransceivers returns every transceiver the connection owns, in
// creation order.
func (pc *PeerConnection) GetTransceivers() []*Transceiver {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	out := make([]*Transceiver, len(pc.transceivers))
	copy(out, pc.transceivers)
	return out
}

// GetSenders returns the transceivers that currently have a bound
// local track.
func (pc *PeerConnection) GetSenders() []*Transceiver {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	var out []*Transceiver
	for _, t := range pc.transceivers {
		if t.hasSendTrack() {
			out = append(out, t)
		}
	}
	return out
}

// GetReceivers returns the transceivers that currently have a
// discovered remote track.
func (pc *PeerConnection) GetReceivers() []*Transceiver {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	var out []*Transceiver
	for _, t := range pc.transceivers {
		t.mu.Lock()
		has := t.receiver.track != nil
		t.mu.Unlock()
		if has {
			out = append(out, t)
		}
	}
	return out
}

// SignalingState, IceConnectionState, IceGatheringState report the
// current state of each of the three machines (spec §3).
func (pc *PeerConnection) SignalingState() SignalingState {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.signalingState
}

func (pc *PeerConnection) ICEConnectionState() IceConnectionState {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.iceConnectionState
}

func (pc *PeerConnection) ICEGatheringState() IceGatheringState {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.iceGatheringState
}

// AddTrack implements spec §4.4 addTrack.
func (pc *PeerConnection) AddTrack(track *Track) error {
	return pc.do(func() error {
		pc.mu.Lock()
		closed := pc.closed
		pc.mu.Unlock()
		if closed {
			return &rtcerr.InvalidStateError{Err: fmt.Errorf("peer connection closed")}
		}
		if track.Kind != CodecKindAudio && track.Kind != CodecKindVideo {
			return &rtcerr.InternalError{Err: fmt.Errorf("unsupported track kind %v", track.Kind)}
		}

		pc.mu.Lock()
		for _, t := range pc.transceivers {
			if t.Kind == track.Kind && !t.hasSendTrack() {
				pc.mu.Unlock()
				return t.bindSendTrack(track)
			}
		}
		pc.mu.Unlock()

		ic, err := pc.iceFactory(true)
		if err != nil {
			return &rtcerr.InternalError{Err: err}
		}
		t := newTransceiver(track.Kind, ic, pc.dtlsContext, pc.log)
		if err := t.bindSendTrack(track); err != nil {
			return err
		}

		pc.mu.Lock()
		pc.transceivers = append(pc.transceivers, t)
		pc.mu.Unlock()
		return nil
	})
}

// CreateDataChannel implements spec §4.4 createDataChannel: creates
// the SCTP transport's underlying ICE+DTLS pair with controlling=true
// on first call; subsequent calls reuse it.
func (pc *PeerConnection) CreateDataChannel(label, protocol string) (*DataChannelHandle, error) {
	var handle *DataChannelHandle
	err := pc.do(func() error {
		pc.mu.Lock()
		closed := pc.closed
		hasSCTP := pc.sctpIce != nil
		pc.mu.Unlock()
		if closed {
			return &rtcerr.InvalidStateError{Err: fmt.Errorf("peer connection closed")}
		}

		if !hasSCTP {
			ic, err := pc.iceFactory(true)
			if err != nil {
				return &rtcerr.InternalError{Err: err}
			}
			role := dtlsRoleForControlling(true)
			pc.mu.Lock()
			pc.sctpIce = ic
			pc.sctpControlling = true
			pc.sctpDtls = NewDtlsSession(pc.dtlsContext, role, ic, pc.log)
			pc.mu.Unlock()
		}

		handle = &DataChannelHandle{Label: label, Protocol: protocol, pc: pc}
		return nil
	})
	return handle, err
}

// CreateOffer implements spec §4.4 createOffer.
func (pc *PeerConnection) CreateOffer() (*sdp.SessionDescription, error) {
	var out *sdp.SessionDescription
	err := pc.do(func() error {
		pc.mu.Lock()
		closed := pc.closed
		transceivers := append([]*Transceiver{}, pc.transceivers...)
		hasSCTP := pc.sctpIce != nil
		pc.mu.Unlock()

		if closed {
			return &rtcerr.InvalidStateError{Err: fmt.Errorf("peer connection closed")}
		}
		if len(transceivers) == 0 && !hasSCTP {
			return &rtcerr.InternalError{Err: fmt.Errorf("nothing to offer")}
		}

		nextDynamicPT := uint8(dynamicPTLow)
		var medias []sdp.MediaInput
		for _, t := range transceivers {
			codecs, err := offerCodecsForKind(t.Kind, &nextDynamicPT)
			if err != nil {
				return err
			}
			t.setCodecs(codecs)
			medias = append(medias, pc.mediaInputFor(t, codecs, sdp.SetupActpass))
		}
		if hasSCTP {
			medias = append(medias, pc.sctpMediaInput(sdp.SetupActpass))
		}

		text := sdp.Emit(time.Now().Unix(), medias)
		out = &sdp.SessionDescription{SDP: text, Type: sdp.TypeOffer}
		return nil
	})
	return out, err
}

// CreateAnswer implements spec §4.4 createAnswer.
func (pc *PeerConnection) CreateAnswer() (*sdp.SessionDescription, error) {
	var out *sdp.SessionDescription
	err := pc.do(func() error {
		pc.mu.Lock()
		state := pc.signalingState
		transceivers := append([]*Transceiver{}, pc.transceivers...)
		hasSCTP := pc.sctpIce != nil
		pc.mu.Unlock()

		if state != SignalingStateHaveRemoteOffer {
			return &rtcerr.InvalidStateError{Err: fmt.Errorf("createAnswer from %s", state)}
		}

		var medias []sdp.MediaInput
		for _, t := range transceivers {
			t.mu.Lock()
			codecs := append([]Codec{}, t.Codecs...)
			t.mu.Unlock()
			medias = append(medias, pc.mediaInputFor(t, codecs, sdp.SetupActive))
		}
		if hasSCTP {
			medias = append(medias, pc.sctpMediaInput(sdp.SetupActive))
		}

		text := sdp.Emit(time.Now().Unix(), medias)
		out = &sdp.SessionDescription{SDP: text, Type: sdp.TypeAnswer}
		return nil
	})
	return out, err
}

func (pc *PeerConnection) mediaInputFor(t *Transceiver, codecs []Codec, setup sdp.Setup) sdp.MediaInput {
	var entries []sdp.CodecEntry
	for _, c := range codecs {
		pt, _ := c.PT()
		entries = append(entries, sdp.CodecEntry{PT: pt, Name: c.Name, Rate: c.ClockRate, Channels: c.Channels})
	}

	t.mu.Lock()
	direction := t.Direction
	ssrc := t.sender.ssrc
	t.mu.Unlock()

	return sdp.MediaInput{
		Kind:            t.Kind.String(),
		Codecs:          entries,
		Direction:       directionToSDP(direction),
		SSRC:            ssrc,
		Cname:           pc.cname,
		IceUfrag:        t.IceConnection.LocalUsername(),
		IcePwd:          t.IceConnection.LocalPassword(),
		Candidates:      candidateStrings(t.IceConnection.LocalCandidates()),
		DtlsFingerprint: pc.dtlsContext.LocalFingerprint,
		DtlsSetup:       setup,
	}
}

func (pc *PeerConnection) sctpMediaInput(setup sdp.Setup) sdp.MediaInput {
	pc.mu.Lock()
	ic := pc.sctpIce
	pc.mu.Unlock()

	return sdp.MediaInput{
		Kind:            "application",
		IceUfrag:        ic.LocalUsername(),
		IcePwd:          ic.LocalPassword(),
		Candidates:      candidateStrings(ic.LocalCandidates()),
		DtlsFingerprint: pc.dtlsContext.LocalFingerprint,
		DtlsSetup:       setup,
	}
}

func candidateStrings(cands []ice.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = string(c)
	}
	return out
}

// SetLocalDescription implements spec §4.4 setLocalDescription.
func (pc *PeerConnection) SetLocalDescription(desc *sdp.SessionDescription) error {
	return pc.do(func() error {
		pc.mu.Lock()
		cur := pc.signalingState
		pc.mu.Unlock()

		op := signalingStateOpSetLocal
		next, err := checkNextSignalingState(cur, op, desc.Type)
		if err != nil {
			return err
		}

		pc.mu.Lock()
		pc.currentLocalDescription = desc
		pc.mu.Unlock()
		pc.setSignalingState(next)

		pc.startGathering()
		pc.startConnect()
		return nil
	})
}

// SetRemoteDescription implements spec §4.4 setRemoteDescription.
func (pc *PeerConnection) SetRemoteDescription(desc *sdp.SessionDescription) error {
	return pc.do(func() error {
		pc.mu.Lock()
		cur := pc.signalingState
		pc.mu.Unlock()

		switch desc.Type {
		case sdp.TypeOffer:
			if cur != SignalingStateStable && cur != SignalingStateHaveRemoteOffer {
				return &rtcerr.InvalidStateError{Err: fmt.Errorf("setRemoteDescription(offer) from %s", cur)}
			}
		case sdp.TypeAnswer:
			if cur != SignalingStateHaveLocalOffer {
				return &rtcerr.InvalidStateError{Err: fmt.Errorf("setRemoteDescription(answer) from %s", cur)}
			}
		default:
			return &rtcerr.InvalidStateError{Err: fmt.Errorf("unsupported remote description type %s", desc.Type)}
		}

		medias, err := sdp.Parse(desc.SDP)
		if err != nil {
			return err
		}

		for _, m := range medias {
			if m.Kind == "application" {
				if err := pc.wireSCTP(m); err != nil {
					return err
				}
				continue
			}

			kind, ok := parseKind(m.Kind)
			if !ok {
				continue
			}
			if err := pc.wireTransceiver(kind, m); err != nil {
				return err
			}
		}

		desc.Media = medias
		pc.mu.Lock()
		pc.currentRemoteDescription = desc
		pc.mu.Unlock()

		op := signalingStateOpSetRemote
		next, err := checkNextSignalingState(cur, op, desc.Type)
		if err != nil {
			return err
		}
		pc.setSignalingState(next)

		pc.startConnect()
		return nil
	})
}

func parseKind(s string) (CodecKind, bool) {
	switch s {
	case "audio":
		return CodecKindAudio, true
	case "video":
		return CodecKindVideo, true
	default:
		return 0, false
	}
}

func (pc *PeerConnection) wireTransceiver(kind CodecKind, m sdp.MediaDescription) error {
	pc.mu.Lock()
	var t *Transceiver
	for _, existing := range pc.transceivers {
		if existing.Kind == kind {
			t = existing
			break
		}
	}
	pc.mu.Unlock()

	if t == nil {
		ic, err := pc.iceFactory(false)
		if err != nil {
			return &rtcerr.InternalError{Err: err}
		}
		t = newTransceiver(kind, ic, pc.dtlsContext, pc.log)
		pc.mu.Lock()
		pc.transceivers = append(pc.transceivers, t)
		pc.mu.Unlock()
	}

	remoteTrack := &Track{ID: m.IceUfrag, Kind: kind}
	t.bindRecvTrack(remoteTrack)
	if hdlr := pc.trackHandler(); hdlr != nil {
		hdlr(remoteTrack, t)
	}

	remote := remoteCodecs(kind, m)
	local := defaultCodecsForKind(kind)
	t.setCodecs(findCommonCodecs(local, remote))

	t.IceConnection.SetRemoteCredentials(m.IceUfrag, m.IcePwd)
	t.IceConnection.SetRemoteCandidates(toICECandidates(m.IceCandidates))
	t.DtlsSession.SetRemoteFingerprint(m.DtlsFingerprint)
	return nil
}

func (pc *PeerConnection) wireSCTP(m sdp.MediaDescription) error {
	pc.mu.Lock()
	exists := pc.sctpIce != nil
	pc.mu.Unlock()

	if !exists {
		ic, err := pc.iceFactory(false)
		if err != nil {
			return &rtcerr.InternalError{Err: err}
		}
		role := dtlsRoleForControlling(false)
		pc.mu.Lock()
		pc.sctpIce = ic
		pc.sctpControlling = false
		pc.sctpDtls = NewDtlsSession(pc.dtlsContext, role, ic, pc.log)
		pc.mu.Unlock()
	}

	pc.mu.Lock()
	ic := pc.sctpIce
	dtls := pc.sctpDtls
	pc.mu.Unlock()

	ic.SetRemoteCredentials(m.IceUfrag, m.IcePwd)
	ic.SetRemoteCandidates(toICECandidates(m.IceCandidates))
	dtls.SetRemoteFingerprint(m.DtlsFingerprint)
	return nil
}

func (pc *PeerConnection) trackHandler() func(*Track, *Transceiver) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.onTrack
}

func toICECandidates(raw []string) []ice.Candidate {
	out := make([]ice.Candidate, len(raw))
	for i, s := range raw {
		out[i] = ice.Candidate(s)
	}
	return out
}

func defaultCodecsForKind(kind CodecKind) []Codec {
	var out []Codec
	for _, c := range defaultCodecs() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func remoteCodecs(kind CodecKind, m sdp.MediaDescription) []Codec {
	var out []Codec
	for _, pt := range m.Fmt {
		raw, ok := m.RTPMap[pt]
		if !ok {
			continue
		}
		c, ok := codecFromRTPMapEntry(kind, pt, raw)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// startGathering runs spec §4.4's gather coroutine: one-shot per peer
// connection, transitioning new->gathering->complete.
func (pc *PeerConnection) startGathering() {
	pc.mu.Lock()
	if pc.iceGatheringState != IceGatheringStateNew {
		pc.mu.Unlock()
		return
	}
	conns := pc.allICEConnections()
	pc.mu.Unlock()

	pc.setICEGatheringState(IceGatheringStateGathering)

	go func() {
		for _, ic := range conns {
			if err := ic.GatherCandidates(context.Background()); err != nil {
				pc.log.Warnf("candidate gathering failed: %v", err)
			}
		}
		select {
		case pc.actions <- func() { pc.setICEGatheringState(IceGatheringStateComplete) }:
		case <-pc.stopCh:
		}
	}()
}

// startConnect runs spec §4.4's connect coroutine: brings every
// (ice, dtls) pair up sequentially, then starts transceiver RTP pumps
// and the SCTP transport. Both setLocalDescription and
// setRemoteDescription "schedule" this coroutine (spec §4.4); it is
// a no-op until every existing transport has learned its remote
// fingerprint, so an offerer's setLocalDescription(offer) — which
// runs before any remote info exists — harmlessly schedules without
// consuming the one-shot new->checking transition.
func (pc *PeerConnection) startConnect() {
	pc.mu.Lock()
	if pc.iceConnectionState != IceConnectionStateNew {
		pc.mu.Unlock()
		return
	}
	transceivers := append([]*Transceiver{}, pc.transceivers...)
	sctpIce := pc.sctpIce
	sctpDtls := pc.sctpDtls
	sctpControlling := pc.sctpControlling
	pc.mu.Unlock()

	if len(transceivers) == 0 && sctpIce == nil {
		return
	}
	for _, t := range transceivers {
		if !t.DtlsSession.ReadyToConnect() {
			return
		}
	}
	if sctpDtls != nil && !sctpDtls.ReadyToConnect() {
		return
	}

	pc.setICEConnectionState(IceConnectionStateChecking)

	go func() {
		ctx := context.Background()
		for _, t := range transceivers {
			if err := t.IceConnection.Connect(ctx); err != nil {
				pc.log.Warnf("ice connect failed: %v", err)
				return
			}
			if err := t.DtlsSession.Connect(ctx); err != nil {
				pc.log.Warnf("dtls connect failed: %v", err)
				return
			}
		}
		if sctpIce != nil {
			if err := sctpIce.Connect(ctx); err != nil {
				pc.log.Warnf("sctp ice connect failed: %v", err)
				return
			}
			if err := sctpDtls.Connect(ctx); err != nil {
				pc.log.Warnf("sctp dtls connect failed: %v", err)
				return
			}
		}

		finish := func() {
			for _, t := range transceivers {
				go t.runRTP(nil)
			}
			if sctpIce != nil && pc.sctpFactory != nil {
				endpoint, err := pc.sctpFactory(sctpControlling, sctpDtls)
				if err != nil {
					pc.log.Warnf("sctp endpoint construction failed: %v", err)
				} else {
					transport := NewSCTPTransport(endpoint, sctpControlling, pc.log)
					pc.mu.Lock()
					pc.sctpTransport = transport
					pc.mu.Unlock()
					transport.Start()
				}
			}
			pc.setICEConnectionState(IceConnectionStateCompleted)
		}
		select {
		case pc.actions <- finish:
		case <-pc.stopCh:
		}
	}()
}

// allICEConnections must be called with pc.mu held.
func (pc *PeerConnection) allICEConnections() []ice.Connection {
	out := make([]ice.Connection, 0, len(pc.transceivers)+1)
	for _, t := range pc.transceivers {
		out = append(out, t.IceConnection)
	}
	if pc.sctpIce != nil {
		out = append(out, pc.sctpIce)
	}
	return out
}

// Close implements spec §4.4 close: idempotent, stops every
// transceiver's DTLS session then its ICE connection before closing
// the SCTP transport (spec §9 open question iii).
func (pc *PeerConnection) Close() error {
	select {
	case <-pc.stopCh:
		return nil
	default:
	}

	err := pc.do(func() error {
		pc.mu.Lock()
		if pc.closed {
			pc.mu.Unlock()
			return nil
		}
		pc.closed = true
		transceivers := append([]*Transceiver{}, pc.transceivers...)
		sctpTransport := pc.sctpTransport
		sctpDtls := pc.sctpDtls
		sctpIce := pc.sctpIce
		pc.mu.Unlock()

		pc.setSignalingState(SignalingStateClosed)

		var errs []error
		for _, t := range transceivers {
			if err := t.stop(); err != nil {
				errs = append(errs, err)
			}
		}

		if sctpTransport != nil {
			if err := sctpTransport.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if sctpDtls != nil {
			if err := sctpDtls.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if sctpIce != nil {
			if err := sctpIce.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		pc.setICEConnectionState(IceConnectionStateClosed)

		if len(errs) > 0 {
			return &rtcerr.InternalError{Err: flattenErrs(errs)}
		}
		return nil
	})

	pc.stopOnce.Do(func() { close(pc.stopCh) })
	return err
}

func flattenErrs(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msg := errs[0].Error()
	for _, e := range errs[1:] {
		msg += "; " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
