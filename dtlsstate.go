package webrtc

// DtlsSessionState is a DtlsSession's lifecycle state (spec §3):
// initial CLOSED, terminal CLOSED, monotone CLOSED->CONNECTING->CONNECTED->CLOSED.
type DtlsSessionState int

const (
	DtlsSessionStateClosed DtlsSessionState = iota + 1
	DtlsSessionStateConnecting
	DtlsSessionStateConnected
)

func (s DtlsSessionState) String() string {
	switch s {
	case DtlsSessionStateClosed:
		return "closed"
	case DtlsSessionStateConnecting:
		return "connecting"
	case DtlsSessionStateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
