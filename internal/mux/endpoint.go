package mux

import (
	"net"
	"time"

	"github.com/pion/transport/v4/packetio"
)

// Endpoint implements net.Conn over one matched slice of a Mux's
// packet stream.
type Endpoint struct {
	mux    *Mux
	buffer *packetio.Buffer
}

// Close unregisters the endpoint from its Mux.
func (e *Endpoint) Close() error {
	if err := e.close(); err != nil {
		return err
	}
	e.mux.RemoveEndpoint(e)
	return nil
}

func (e *Endpoint) close() error {
	return e.buffer.Close()
}

// Read returns the next packet matched to this endpoint.
func (e *Endpoint) Read(p []byte) (int, error) {
	return e.buffer.Read(p)
}

// Write writes directly to the underlying Conn; outbound traffic is
// never classified, only inbound.
func (e *Endpoint) Write(p []byte) (int, error) {
	return e.mux.nextConn.Write(p)
}

// LocalAddr forwards to the underlying Conn.
func (e *Endpoint) LocalAddr() net.Addr {
	return e.mux.nextConn.LocalAddr()
}

// RemoteAddr forwards to the underlying Conn.
func (e *Endpoint) RemoteAddr() net.Addr {
	return e.mux.nextConn.RemoteAddr()
}

// SetDeadline is a stub; the underlying IceConnection has no deadline
// concept exposed through its opaque contract.
func (e *Endpoint) SetDeadline(time.Time) error { return nil }

// SetReadDeadline is a stub, see SetDeadline.
func (e *Endpoint) SetReadDeadline(time.Time) error { return nil }

// SetWriteDeadline is a stub, see SetDeadline.
func (e *Endpoint) SetWriteDeadline(time.Time) error { return nil }
