package webrtc

import (
	"sync"

	"github.com/pion/logging"
	"github.com/webrtcore/webrtc/rtcerr"
)

// channelBufferSize bounds how many undelivered inbound payloads a
// duplex channel holds before the receive pump starts dropping new
// ones (spec §5: packet-level overflow is not a protocol error).
const channelBufferSize = 256

// duplexChannel is the "data" or "rtp" channel of a DtlsSession: a
// producer-only enqueue used by the receive pump, and a consumer-only
// Recv that races the buffered queue against a one-shot close signal
// (spec §4.2, §9 "Duplex channels"). It is not itself a send path —
// both data.send and rtp.send on DtlsSession go through the TLS
// engine or the SRTP context directly, never through this type.
type duplexChannel struct {
	queue     chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	log       logging.LeveledLogger
}

func newDuplexChannel(log logging.LeveledLogger) *duplexChannel {
	return &duplexChannel{
		queue:  make(chan []byte, channelBufferSize),
		closed: make(chan struct{}),
		log:    log,
	}
}

// enqueue buffers one inbound payload. If the buffer is full the
// payload is dropped and logged — never fatal (spec §4.2 "Close").
func (c *duplexChannel) enqueue(b []byte) {
	select {
	case c.queue <- b:
	default:
		c.log.Warn("channel buffer full, dropping inbound payload")
	}
}

// Recv races the buffered queue against the closed signal: whichever
// is ready first wins (spec §5). Once closed, it returns
// rtcerr.ErrConnectionClosed.
func (c *duplexChannel) Recv() ([]byte, error) {
	select {
	case b := <-c.queue:
		return b, nil
	case <-c.closed:
		return nil, rtcerr.ErrConnectionClosed
	}
}

// close is idempotent and wakes every blocked Recv.
func (c *duplexChannel) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
