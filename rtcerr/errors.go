// Package rtcerr implements the typed error hierarchy used across the
// webrtcore module. Each kind wraps an underlying error so callers can
// both pattern-match on the kind with errors.As and inspect the cause
// with errors.Unwrap.
package rtcerr

import "fmt"

// InvalidStateError indicates an API call was made while the
// signaling state or closed flag forbids it.
type InvalidStateError struct {
	Err error
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("InvalidStateError: %v", e.Err)
}

func (e *InvalidStateError) Unwrap() error {
	return e.Err
}

// InvalidAccessError indicates a duplicate or otherwise disallowed
// binding, such as a track already attached to a sender.
type InvalidAccessError struct {
	Err error
}

func (e *InvalidAccessError) Error() string {
	return fmt.Sprintf("InvalidAccessError: %v", e.Err)
}

func (e *InvalidAccessError) Unwrap() error {
	return e.Err
}

// InternalError indicates an unsupported kind, a caller-side logic
// error such as multiple tracks of one kind, or an offer with nothing
// to offer.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("InternalError: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// DtlsError indicates a handshake failure, a fingerprint mismatch, or
// a cryptographic primitive failure. Terminal for the session that
// raised it.
type DtlsError struct {
	Err error
}

func (e *DtlsError) Error() string {
	return fmt.Sprintf("DtlsError: %v", e.Err)
}

func (e *DtlsError) Unwrap() error {
	return e.Err
}

// ParseError indicates invalid SDP structure or a forbidden payload
// type in an m-line.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ParseError: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrConnectionClosed is the sentinel raised by a channel's recv after
// the owning session has been closed. It unwinds internal pumps; it
// must never be surfaced to a caller holding an already-closed handle.
var ErrConnectionClosed = &connectionClosedError{}

type connectionClosedError struct{}

func (*connectionClosedError) Error() string { return "rtcerr: connection closed" }
