package webrtc

import "github.com/webrtcore/webrtc/sdp"

// RTPTransceiverDirection is the direction a Transceiver's sender and
// receiver offer (spec §4.3 "direction").
type RTPTransceiverDirection int

const (
	RTPTransceiverDirectionSendrecv RTPTransceiverDirection = iota + 1
	RTPTransceiverDirectionSendonly
	RTPTransceiverDirectionRecvonly
	RTPTransceiverDirectionInactive
)

func (d RTPTransceiverDirection) String() string {
	switch d {
	case RTPTransceiverDirectionSendrecv:
		return "sendrecv"
	case RTPTransceiverDirectionSendonly:
		return "sendonly"
	case RTPTransceiverDirectionRecvonly:
		return "recvonly"
	case RTPTransceiverDirectionInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

func directionToSDP(d RTPTransceiverDirection) sdp.Direction {
	switch d {
	case RTPTransceiverDirectionSendrecv:
		return sdp.DirectionSendrecv
	case RTPTransceiverDirectionSendonly:
		return sdp.DirectionSendonly
	case RTPTransceiverDirectionRecvonly:
		return sdp.DirectionRecvonly
	case RTPTransceiverDirectionInactive:
		return sdp.DirectionInactive
	default:
		return sdp.DirectionSendrecv
	}
}

func directionFromSDP(d sdp.Direction) RTPTransceiverDirection {
	switch d {
	case sdp.DirectionSendrecv:
		return RTPTransceiverDirectionSendrecv
	case sdp.DirectionSendonly:
		return RTPTransceiverDirectionSendonly
	case sdp.DirectionRecvonly:
		return RTPTransceiverDirectionRecvonly
	case sdp.DirectionInactive:
		return RTPTransceiverDirectionInactive
	default:
		return RTPTransceiverDirectionSendrecv
	}
}
