package mux

// MatchFunc allows custom logic for mapping packets to an Endpoint.
type MatchFunc func([]byte) bool

// MatchRange returns a MatchFunc that accepts packets whose first
// byte falls in [lower, upper].
func MatchRange(lower, upper byte) MatchFunc {
	return func(buf []byte) bool {
		if len(buf) < 1 {
			return false
		}
		b := buf[0]
		return b >= lower && b <= upper
	}
}

// The three-way split below is RFC 7983's demultiplexing scheme:
//
//	             +----------------+
//	             |      [0..3]   -+--> forward to STUN (handled by the ICE layer)
//	             |      [20..63] -+--> forward to DTLS
//	             |    [128..191] -+--> forward to SRTP/SRTCP
//	             +----------------+
//
// These ranges must never be reordered or widened: doing so would
// misroute datagrams the ICE layer is relying on seeing first.
var (
	// MatchDTLS accepts packets with first byte in [20..63].
	MatchDTLS = MatchRange(20, 63)

	// MatchSRTP accepts packets with first byte in [128..191]. It
	// does not distinguish RTP from RTCP; that split happens one
	// level up by inspecting the RTP header's payload-type field.
	MatchSRTP = MatchRange(128, 191)
)
