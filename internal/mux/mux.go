// Package mux multiplexes DTLS and SRTP/SRTCP packets arriving on a
// single transport (RFC 7983), handing each class its own
// net.Conn-shaped Endpoint.
package mux

import (
	"errors"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/transport/v4/packetio"
)

// maxBufferSize bounds how much unread data an Endpoint holds before
// it starts dropping: SRTP and DTLS both drain continuously, so in
// practice this is never approached.
const maxBufferSize = 1000 * 1000

// Config collects the arguments to NewMux.
type Config struct {
	Conn          Conn
	BufferSize    int
	LoggerFactory logging.LoggerFactory
}

// Mux reads from a single underlying Conn and dispatches each
// datagram to whichever registered Endpoint's MatchFunc accepts it.
type Mux struct {
	lock       sync.RWMutex
	nextConn   Conn
	endpoints  map[*Endpoint]MatchFunc
	bufferSize int
	closedCh   chan struct{}

	log logging.LeveledLogger
}

// NewMux creates a Mux reading from conn and starts its read loop.
func NewMux(config Config) *Mux {
	bufferSize := config.BufferSize
	if bufferSize == 0 {
		bufferSize = 8192
	}

	m := &Mux{
		nextConn:   config.Conn,
		endpoints:  make(map[*Endpoint]MatchFunc),
		bufferSize: bufferSize,
		closedCh:   make(chan struct{}),
		log:        config.LoggerFactory.NewLogger("mux"),
	}

	go m.readLoop()

	return m
}

// NewEndpoint registers a new Endpoint matched by f.
func (m *Mux) NewEndpoint(f MatchFunc) *Endpoint {
	e := &Endpoint{
		mux:    m,
		buffer: packetio.NewBuffer(),
	}
	e.buffer.SetLimitSize(maxBufferSize)

	m.lock.Lock()
	m.endpoints[e] = f
	m.lock.Unlock()

	return e
}

// RemoveEndpoint unregisters e.
func (m *Mux) RemoveEndpoint(e *Endpoint) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.endpoints, e)
}

// Close closes every registered Endpoint and the underlying Conn, then
// waits for the read loop to exit.
func (m *Mux) Close() error {
	m.lock.Lock()
	for e := range m.endpoints {
		_ = e.close()
		delete(m.endpoints, e)
	}
	m.lock.Unlock()

	err := m.nextConn.Close()

	<-m.closedCh

	return err
}

func (m *Mux) readLoop() {
	defer close(m.closedCh)

	buf := make([]byte, m.bufferSize)
	for {
		n, err := m.nextConn.Read(buf)
		if err != nil {
			return
		}
		if err := m.dispatch(buf[:n]); err != nil {
			return
		}
	}
}

func (m *Mux) dispatch(buf []byte) error {
	var endpoint *Endpoint

	m.lock.Lock()
	for e, f := range m.endpoints {
		if f(buf) {
			endpoint = e
			break
		}
	}
	m.lock.Unlock()

	if endpoint == nil {
		if len(buf) > 0 {
			m.log.Warnf("mux: no endpoint for packet starting with %d", buf[0])
		} else {
			m.log.Warn("mux: no endpoint for zero length packet")
		}
		return nil
	}

	_, err := endpoint.buffer.Write(buf)
	if errors.Is(err, packetio.ErrFull) {
		m.log.Warn("mux: endpoint buffer is full, dropping packet")
		return nil
	}
	return err
}
