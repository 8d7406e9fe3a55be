// Package iceadapter adapts the module's opaque ice.Connection
// contract to net.Conn, the shape both github.com/pion/dtls/v3 and
// internal/mux expect of their underlying transport. This is the
// wiring the spec's "two memory buffers (read/write BIOs)" collapses
// into once a real net.Conn is available: pion/dtls owns
// fragmentation/retransmission itself instead of this module pumping
// bytes through BIOs by hand.
package iceadapter

import (
	"net"
	"time"

	"github.com/webrtcore/webrtc/ice"
)

// pipeAddr is returned from LocalAddr/RemoteAddr: the opaque
// ice.Connection contract carries no net.Addr, only candidate
// strings, so callers that need an address (dtls's logging, mostly)
// get a stable placeholder instead of nil.
type pipeAddr struct{ s string }

func (a pipeAddr) Network() string { return "ice" }
func (a pipeAddr) String() string  { return a.s }

// Conn wraps an ice.Connection as a net.Conn.
type Conn struct {
	ic ice.Connection
}

// Wrap returns a net.Conn backed by ic.
func Wrap(ic ice.Connection) *Conn {
	return &Conn{ic: ic}
}

// Read blocks for the next datagram and copies it into p. A datagram
// larger than len(p) is truncated, matching net.PacketConn semantics.
func (c *Conn) Read(p []byte) (int, error) {
	b, err := c.ic.Recv()
	if err != nil {
		return 0, err
	}
	return copy(p, b), nil
}

// Write sends p as a single datagram.
func (c *Conn) Write(p []byte) (int, error) {
	if err := c.ic.Send(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying ice.Connection.
func (c *Conn) Close() error { return c.ic.Close() }

// LocalAddr returns a placeholder address; see pipeAddr.
func (c *Conn) LocalAddr() net.Addr { return pipeAddr{"ice-local"} }

// RemoteAddr returns a placeholder address; see pipeAddr.
func (c *Conn) RemoteAddr() net.Addr { return pipeAddr{"ice-remote"} }

// SetDeadline is a no-op: the spec prescribes no handshake timeout at
// this layer (callers wrap with context.WithTimeout instead); it
// exists only to satisfy net.Conn.
func (c *Conn) SetDeadline(time.Time) error { return nil }

// SetReadDeadline is a no-op; see SetDeadline.
func (c *Conn) SetReadDeadline(time.Time) error { return nil }

// SetWriteDeadline is a no-op; see SetDeadline.
func (c *Conn) SetWriteDeadline(time.Time) error { return nil }
