package server

import (
	"sync/atomic"

	"github.com/vango-dev/runewire/pkg/isaac"
	"github.com/vango-dev/runewire/pkg/protocol"
)

// DecodeState is the position of a FrameReader within the current frame.
type DecodeState uint8

const (
	AwaitingHeader DecodeState = iota
	AwaitingLength
	AwaitingPayload
	Dispatching
	Disconnected
)

// String returns the string representation of the state.
func (s DecodeState) String() string {
	switch s {
	case AwaitingHeader:
		return "AwaitingHeader"
	case AwaitingLength:
		return "AwaitingLength"
	case AwaitingPayload:
		return "AwaitingPayload"
	case Dispatching:
		return "Dispatching"
	case Disconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Keystream yields the bytes that mask frame opcodes. *isaac.Cipher
// implements it.
type Keystream interface {
	NextByte() (byte, error)
}

// FrameReader turns an arbitrarily fragmented byte stream into frames.
//
// Bytes are pushed with Feed as they arrive and frames pulled with Next.
// When the next unit (header, length byte or payload) is incomplete Next
// returns ErrNotReady without consuming anything, and the decoded opcode
// and resolved length survive until the rest arrives. The keystream is
// consulted exactly once per header byte.
//
// A FrameReader is owned by one goroutine. State may be read from any
// goroutine.
type FrameReader struct {
	table  *protocol.LengthTable
	cipher Keystream
	buf    []byte
	state  atomic.Uint32
	opcode uint8
	length int
}

// NewFrameReader creates a reader using table to size frames and cipher to
// unmask opcodes.
func NewFrameReader(table *protocol.LengthTable, cipher Keystream) *FrameReader {
	if table == nil {
		table = protocol.DefaultLengthTable
	}
	return &FrameReader{
		table:  table,
		cipher: cipher,
	}
}

// State returns the current decode state.
func (r *FrameReader) State() DecodeState {
	return DecodeState(r.state.Load())
}

func (r *FrameReader) setState(st DecodeState) {
	r.state.Store(uint32(st))
}

// Buffered returns the number of fed bytes not yet consumed.
func (r *FrameReader) Buffered() int {
	return len(r.buf)
}

// Feed appends bytes received from the transport. Bytes fed after Close are
// dropped.
func (r *FrameReader) Feed(p []byte) {
	if r.State() == Disconnected {
		return
	}
	r.buf = append(r.buf, p...)
}

// Next returns the next complete frame.
//
// Errors:
//   - ErrNotReady: more bytes are needed
//   - *ProtocolError (ErrUnknownOpcode): the opcode is not in the table; the
//     reader is back at AwaitingHeader and Next may be called again
//   - *CipherError: the keystream is unseeded; the session must close
//   - ErrSessionClosed: the reader was closed
func (r *FrameReader) Next() (*protocol.Frame, error) {
	for {
		switch r.State() {
		case Disconnected:
			return nil, ErrSessionClosed

		case Dispatching:
			r.setState(AwaitingHeader)

		case AwaitingHeader:
			if len(r.buf) == 0 {
				return nil, ErrNotReady
			}
			if r.cipher == nil {
				return nil, &CipherError{Err: isaac.ErrUninitialized}
			}
			key, err := r.cipher.NextByte()
			if err != nil {
				return nil, &CipherError{Err: err}
			}
			r.opcode = r.buf[0] - key
			r.buf = r.buf[1:]
			r.setState(AwaitingLength)

		case AwaitingLength:
			switch n := r.table.Length(r.opcode); n {
			case protocol.Undefined:
				r.setState(AwaitingHeader)
				return nil, &ProtocolError{Opcode: r.opcode, Err: ErrUnknownOpcode}
			case protocol.VariableLength:
				if len(r.buf) == 0 {
					return nil, ErrNotReady
				}
				r.length = int(r.buf[0])
				r.buf = r.buf[1:]
			default:
				r.length = n
			}
			r.setState(AwaitingPayload)

		case AwaitingPayload:
			if len(r.buf) < r.length {
				return nil, ErrNotReady
			}
			payload := make([]byte, r.length)
			copy(payload, r.buf)
			r.buf = r.buf[r.length:]
			r.setState(Dispatching)
			return protocol.NewFrame(r.opcode, payload), nil
		}
	}
}

// Close moves the reader to Disconnected and discards any partial frame.
func (r *FrameReader) Close() {
	r.setState(Disconnected)
	r.buf = nil
	r.length = 0
}
