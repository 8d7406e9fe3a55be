// Package sdp implements the restricted SDP offer/answer subset this
// module needs to bootstrap DTLS-SRTP: fingerprints, setup role, ICE
// credentials and candidates, rtpmap/sctpmap, direction, and
// rtcp-mux. Full SDP grammar, BUNDLE, and simulcast are explicit
// spec non-goals; this is a hand-rolled line scanner rather than a
// wrap around a general-purpose SDP library (see DESIGN.md).
package sdp

// Type is the offer/answer/pranswer/rollback role of a
// SessionDescription.
type Type int

const (
	// TypeOffer marks a session description as an offer.
	TypeOffer Type = iota + 1
	// TypeAnswer marks a session description as a final answer.
	TypeAnswer
	// TypePranswer marks a session description as a provisional answer.
	TypePranswer
	// TypeRollback marks a rollback to the previous stable state.
	TypeRollback
)

func (t Type) String() string {
	switch t {
	case TypeOffer:
		return "offer"
	case TypeAnswer:
		return "answer"
	case TypePranswer:
		return "pranswer"
	case TypeRollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// ParseType maps the wire string back to a Type.
func ParseType(s string) (Type, bool) {
	switch s {
	case "offer":
		return TypeOffer, true
	case "answer":
		return TypeAnswer, true
	case "pranswer":
		return TypePranswer, true
	case "rollback":
		return TypeRollback, true
	default:
		return 0, false
	}
}

// Direction is an m-line's sendrecv/sendonly/recvonly/inactive attribute.
type Direction int

const (
	// DirectionSendrecv is the default direction when none is given.
	DirectionSendrecv Direction = iota + 1
	DirectionSendonly
	DirectionRecvonly
	DirectionInactive
)

func (d Direction) String() string {
	switch d {
	case DirectionSendrecv:
		return "sendrecv"
	case DirectionSendonly:
		return "sendonly"
	case DirectionRecvonly:
		return "recvonly"
	case DirectionInactive:
		return "inactive"
	default:
		return "sendrecv"
	}
}

// Setup is the DTLS "a=setup" role.
type Setup int

const (
	SetupActive Setup = iota + 1
	SetupPassive
	SetupActpass
)

func (s Setup) String() string {
	switch s {
	case SetupActive:
		return "active"
	case SetupPassive:
		return "passive"
	case SetupActpass:
		return "actpass"
	default:
		return ""
	}
}

// RTCPInfo is the parsed form of an "a=rtcp:<port> IN IP4 <host>" line.
type RTCPInfo struct {
	Port int
	Host string
	Mux  bool
}

// MediaDescription is one parsed m-line plus the attributes this
// module recognizes (spec §3).
type MediaDescription struct {
	Kind    string // "audio", "video", or "application"
	Port    int
	Profile string
	Fmt     []int // ordered payload types (or the SCTP port for "application")
	Host    string

	Direction Direction
	RTCP      RTCPInfo

	RTPMap   map[int]string // PT -> "name/rate[/channels]"
	SctpMap  map[int]string // fmt -> "proto maxmessagesize" or similar

	DtlsFingerprint string // hex, "sha-256" assumed
	DtlsSetup       Setup

	IceCandidates []string // raw "a=candidate:" values, in file order
	IceUfrag      string
	IcePwd        string
}

// SessionDescription is a parsed SDP document plus its wire text and
// offer/answer type.
type SessionDescription struct {
	Media []MediaDescription
	SDP   string
	Type  Type
}
