package webrtc

// DtlsRole is which side of the DTLS handshake a DtlsSession plays.
// Per spec §3, the role is server iff the owning ICE connection is
// controlling; this maps to SDP setup:actpass (server/offerer) and
// setup:active (client/answerer).
type DtlsRole int

const (
	DtlsRoleClient DtlsRole = iota + 1
	DtlsRoleServer
)

func (r DtlsRole) String() string {
	switch r {
	case DtlsRoleClient:
		return "client"
	case DtlsRoleServer:
		return "server"
	default:
		return "unknown"
	}
}

// dtlsRoleForControlling implements spec §3's role derivation.
func dtlsRoleForControlling(controlling bool) DtlsRole {
	if controlling {
		return DtlsRoleServer
	}
	return DtlsRoleClient
}
