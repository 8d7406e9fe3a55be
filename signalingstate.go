package webrtc

import (
	"fmt"

	"github.com/webrtcore/webrtc/rtcerr"
	"github.com/webrtcore/webrtc/sdp"
)

// signalingStateOp names which side of an offer/answer exchange a
// description was applied to.
type signalingStateOp int

const (
	signalingStateOpSetLocal signalingStateOp = iota + 1
	signalingStateOpSetRemote
)

func (op signalingStateOp) String() string {
	switch op {
	case signalingStateOpSetLocal:
		return "SetLocal"
	case signalingStateOpSetRemote:
		return "SetRemote"
	default:
		return "unknown"
	}
}

// SignalingState is the offer/answer exchange state of a PeerConnection
// (spec §3). This module's restricted negotiation has no pranswer
// step, so the machine is the three-state loop described there:
// stable -> have-local-offer -> stable, stable -> have-remote-offer ->
// stable (a further remote offer keeps have-remote-offer), plus the
// closed terminal state reachable from anywhere.
type SignalingState int

const (
	SignalingStateStable SignalingState = iota + 1
	SignalingStateHaveLocalOffer
	SignalingStateHaveRemoteOffer
	SignalingStateClosed
)

func (s SignalingState) String() string {
	switch s {
	case SignalingStateStable:
		return "stable"
	case SignalingStateHaveLocalOffer:
		return "have-local-offer"
	case SignalingStateHaveRemoteOffer:
		return "have-remote-offer"
	case SignalingStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// checkNextSignalingState validates one offer/answer transition (spec
// §4.4, Testable Property 8). Rollback is not supported by this
// module's restricted negotiation (spec Non-goals), so there is no
// special case for it here, unlike the teacher's fuller version.
func checkNextSignalingState(cur SignalingState, op signalingStateOp, sdpType sdp.Type) (SignalingState, error) {
	switch cur {
	case SignalingStateStable:
		switch {
		case op == signalingStateOpSetLocal && sdpType == sdp.TypeOffer:
			return SignalingStateHaveLocalOffer, nil
		case op == signalingStateOpSetRemote && sdpType == sdp.TypeOffer:
			return SignalingStateHaveRemoteOffer, nil
		}
	case SignalingStateHaveLocalOffer:
		if op == signalingStateOpSetRemote && sdpType == sdp.TypeAnswer {
			return SignalingStateStable, nil
		}
	case SignalingStateHaveRemoteOffer:
		switch {
		case op == signalingStateOpSetLocal && sdpType == sdp.TypeAnswer:
			return SignalingStateStable, nil
		case op == signalingStateOpSetRemote && sdpType == sdp.TypeOffer:
			return SignalingStateHaveRemoteOffer, nil
		}
	}

	return cur, &rtcerr.InvalidStateError{
		Err: fmt.Errorf("invalid signaling transition %s -(%s %s)-> ?", cur, op, sdpType),
	}
}
