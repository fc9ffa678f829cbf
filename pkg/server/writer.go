package server

import (
	"bufio"
	"io"
	"sync"

	"github.com/vango-dev/runewire/pkg/isaac"
	"github.com/vango-dev/runewire/pkg/protocol"
)

// FrameWriter encodes outbound frames onto a buffered transport.
//
// Writes are serialized so the outbound keystream advances in the order
// frames hit the wire, whichever goroutine sends them.
type FrameWriter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	cipher Keystream
	buf    []byte
}

// NewFrameWriter creates a writer with a buffer of the given size. cipher
// may be nil until the handshake completes; only Raw frames can be written
// without one.
func NewFrameWriter(w io.Writer, cipher Keystream, size int) *FrameWriter {
	return &FrameWriter{
		w:      bufio.NewWriterSize(w, size),
		cipher: cipher,
		buf:    make([]byte, 0, 64),
	}
}

// SetCipher installs the outbound keystream.
func (fw *FrameWriter) SetCipher(c Keystream) {
	fw.mu.Lock()
	fw.cipher = c
	fw.mu.Unlock()
}

// Write encodes b into the buffer and returns the number of wire bytes.
// Nothing reaches the transport until Flush or the buffer fills.
func (fw *FrameWriter) Write(b *protocol.Builder) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	var key byte
	if b.Keyed() {
		if fw.cipher == nil {
			return 0, &CipherError{Err: isaac.ErrUninitialized}
		}
		k, err := fw.cipher.NextByte()
		if err != nil {
			return 0, &CipherError{Err: err}
		}
		key = k
	}

	fw.buf = b.AppendTo(fw.buf[:0], key)
	if _, err := fw.w.Write(fw.buf); err != nil {
		return 0, &TransportError{Op: "write", Err: err}
	}
	return len(fw.buf), nil
}

// Flush writes buffered frames to the transport.
func (fw *FrameWriter) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if err := fw.w.Flush(); err != nil {
		return &TransportError{Op: "flush", Err: err}
	}
	return nil
}

// Buffered returns the number of bytes waiting for Flush.
func (fw *FrameWriter) Buffered() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.w.Buffered()
}
