package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for common session and server error conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrNotReady is returned by FrameReader.Next when the next unit of a
	// frame has not fully arrived. It is not a failure: feed more bytes and
	// call Next again.
	ErrNotReady = errors.New("server: frame not ready")

	// ErrUnknownOpcode is a ProtocolError cause: the length table does not
	// describe the decoded opcode.
	ErrUnknownOpcode = errors.New("server: unknown opcode")

	// ErrUnhandledFrame is a ProtocolError cause: no handler is registered
	// for the opcode.
	ErrUnhandledFrame = errors.New("server: unhandled frame")

	// ErrUnrecognizedInterface is a ProtocolError cause: a click frame
	// named an interface with no known container.
	ErrUnrecognizedInterface = errors.New("server: unrecognized interface")

	// ErrInvalidHandshake is returned when the login exchange fails.
	ErrInvalidHandshake = errors.New("server: invalid handshake")

	// ErrMaxSessionsReached is returned when the maximum number of sessions is reached.
	ErrMaxSessionsReached = errors.New("server: max sessions reached")

	// ErrReadTimeout is returned when a client sends nothing for the idle timeout.
	ErrReadTimeout = errors.New("server: read timeout")

	// ErrServerClosed is returned by Serve after Shutdown.
	ErrServerClosed = errors.New("server: closed")
)

// SessionError wraps an error with session context for debugging.
type SessionError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// TransportError reports an I/O failure or end of stream. The session is
// disconnected.
type TransportError struct {
	SessionID string
	Op        string // "read", "write" or "flush"
	Err       error
}

// Error returns the error message.
func (e *TransportError) Error() string {
	return fmt.Sprintf("server: transport %s failed in session %s: %v", e.Op, e.SessionID, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// CipherError reports a keystream that was used before the handshake seeded
// it. The session is disconnected.
type CipherError struct {
	SessionID string
	Err       error
}

// Error returns the error message.
func (e *CipherError) Error() string {
	return fmt.Sprintf("server: cipher error in session %s: %v", e.SessionID, e.Err)
}

// Unwrap returns the underlying error.
func (e *CipherError) Unwrap() error {
	return e.Err
}

// ProtocolError represents a frame the session could not make sense of.
// It is logged and the session carries on with the next frame.
type ProtocolError struct {
	SessionID string
	Opcode    uint8
	Err       error
	Message   string
}

// Error returns the error message.
func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("server: protocol error in session %s: opcode %d: %v", e.SessionID, e.Opcode, e.Err)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns the cause.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NewProtocolError creates a ProtocolError. The dispatcher fills in the
// session.
func NewProtocolError(opcode uint8, err error, message string) *ProtocolError {
	return &ProtocolError{
		Opcode:  opcode,
		Err:     err,
		Message: message,
	}
}

// HandlerError wraps a failure or panic in a frame handler together with
// the frame that triggered it.
type HandlerError struct {
	SessionID string
	Opcode    uint8
	Payload   []byte
	Err       error
	Panic     any
	Stack     []byte
}

// Error returns the error message.
func (e *HandlerError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("server: handler panic in session %s, opcode %d, payload %x: %v",
			e.SessionID, e.Opcode, e.Payload, e.Panic)
	}
	return fmt.Sprintf("server: handler failed in session %s, opcode %d, payload %x: %v",
		e.SessionID, e.Opcode, e.Payload, e.Err)
}

// Unwrap returns the handler's error, nil for panics.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
