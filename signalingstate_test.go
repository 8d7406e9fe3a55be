package webrtc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webrtcore/webrtc/sdp"
)

func TestCheckNextSignalingStateValidTransitions(t *testing.T) {
	testCases := []struct {
		name string
		cur  SignalingState
		op   signalingStateOp
		typ  sdp.Type
		want SignalingState
	}{
		{"local offer from stable", SignalingStateStable, signalingStateOpSetLocal, sdp.TypeOffer, SignalingStateHaveLocalOffer},
		{"remote offer from stable", SignalingStateStable, signalingStateOpSetRemote, sdp.TypeOffer, SignalingStateHaveRemoteOffer},
		{"remote answer from have-local-offer", SignalingStateHaveLocalOffer, signalingStateOpSetRemote, sdp.TypeAnswer, SignalingStateStable},
		{"local answer from have-remote-offer", SignalingStateHaveRemoteOffer, signalingStateOpSetLocal, sdp.TypeAnswer, SignalingStateStable},
	}

	for _, tc := range testCases {
		got, err := checkNextSignalingState(tc.cur, tc.op, tc.typ)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, got, tc.name)
	}
}

func TestCheckNextSignalingStateInvalidTransitions(t *testing.T) {
	testCases := []struct {
		name string
		cur  SignalingState
		op   signalingStateOp
		typ  sdp.Type
	}{
		{"answer from stable", SignalingStateStable, signalingStateOpSetRemote, sdp.TypeAnswer},
		{"offer from have-local-offer", SignalingStateHaveLocalOffer, signalingStateOpSetRemote, sdp.TypeOffer},
		{"offer from have-remote-offer", SignalingStateHaveRemoteOffer, signalingStateOpSetLocal, sdp.TypeOffer},
		{"anything from closed", SignalingStateClosed, signalingStateOpSetLocal, sdp.TypeOffer},
	}

	for _, tc := range testCases {
		_, err := checkNextSignalingState(tc.cur, tc.op, tc.typ)
		require.Error(t, err, tc.name)
	}
}
