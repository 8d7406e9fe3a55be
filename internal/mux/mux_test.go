package mux

import (
	"net"
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/require"
)

const testBufferSize = 8192

func TestNoEndpoints(t *testing.T) {
	ca, cb := net.Pipe()
	require.NoError(t, cb.Close())

	m := NewMux(Config{
		Conn:          ca,
		BufferSize:    testBufferSize,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	require.NoError(t, m.dispatch(make([]byte, 1)))
	require.NoError(t, m.Close())
}

func TestDemuxByFirstByte(t *testing.T) {
	ca, cb := net.Pipe()
	defer func() { _ = cb.Close() }()

	m := NewMux(Config{
		Conn:          ca,
		BufferSize:    testBufferSize,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	defer func() { _ = m.Close() }()

	dtlsEP := m.NewEndpoint(MatchDTLS)
	srtpEP := m.NewEndpoint(MatchSRTP)

	go func() {
		_, _ = cb.Write([]byte{20, 1, 2, 3}) // DTLS record
		_, _ = cb.Write([]byte{128, 1, 2, 3}) // SRTP/SRTCP
		_, _ = cb.Write([]byte{5, 1, 2, 3})   // outside both ranges, unmatched by either
	}()

	buf := make([]byte, 1500)
	n, err := dtlsEP.Read(buf)
	require.NoError(t, err)
	require.Equal(t, byte(20), buf[0])
	require.Equal(t, 4, n)

	n, err = srtpEP.Read(buf)
	require.NoError(t, err)
	require.Equal(t, byte(128), buf[0])
	require.Equal(t, 4, n)
}

func TestNewEndpointRemovedOnClose(t *testing.T) {
	ca, cb := net.Pipe()
	defer func() { _ = cb.Close() }()

	m := NewMux(Config{
		Conn:          ca,
		BufferSize:    testBufferSize,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	defer func() { _ = m.Close() }()

	ep := m.NewEndpoint(MatchDTLS)
	require.Len(t, m.endpoints, 1)
	require.NoError(t, ep.Close())
	require.Len(t, m.endpoints, 0)
}
