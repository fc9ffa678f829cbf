package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/runewire/pkg/isaac"
	"github.com/vango-dev/runewire/pkg/protocol"
)

// Transport is the byte stream a session runs over. net.Conn and
// WebSocketTransport implement it.
type Transport interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

// Flags holds client state reported through frames. Only handlers running
// on the session's goroutine may touch it.
type Flags struct {
	Focused    bool
	Idle       bool
	CameraRoll uint16
	CameraYaw  uint16
	LastClick  time.Time
}

// Session is one logged-in connection.
//
// Serve runs the read loop on the caller's goroutine: bytes are read from
// the transport, decoded into frames and dispatched one at a time. Frames
// queued by handlers are flushed once every decoded frame in a read has
// been dispatched.
type Session struct {
	// ID uniquely identifies the session.
	ID string

	// Login holds what the client sent during the handshake.
	Login HandshakeResult

	// Flags is client state maintained by frame handlers.
	Flags Flags

	conn       Transport
	config     *SessionConfig
	reader     *FrameReader
	writer     *FrameWriter
	dispatcher *Dispatcher
	submit     func(func()) error
	metrics    *Metrics
	logger     *slog.Logger

	last      *protocol.Frame
	createdAt time.Time
	framesIn  atomic.Int64
	closed    atomic.Bool
	done      chan struct{}
}

// NewSession creates a session over conn whose ciphers are seeded from the
// login result.
func NewSession(conn Transport, login HandshakeResult, table *protocol.LengthTable, d *Dispatcher, config *SessionConfig) *Session {
	config = config.withDefaults()
	decode, encode := isaac.NewPair(login.Key())

	s := &Session{
		ID:         uuid.NewString(),
		Login:      login,
		conn:       conn,
		config:     config,
		reader:     NewFrameReader(table, decode),
		writer:     NewFrameWriter(conn, encode, config.WriteBufferSize),
		dispatcher: d,
		createdAt:  time.Now(),
		done:       make(chan struct{}),
	}
	s.logger = slog.Default().With(
		"component", "session",
		"session", s.ID,
		"remote", remoteString(conn),
	)
	return s
}

func remoteString(conn Transport) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Serve runs the read loop until the transport fails, the client goes idle,
// ctx is cancelled or Close is called. The returned error is a
// *TransportError or *CipherError; it is nil when the session was closed
// locally.
func (s *Session) Serve(ctx context.Context) error {
	defer s.Close()
	defer s.reader.Close()

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	buf := make([]byte, s.config.ReadBufferSize)
	for {
		if s.config.IdleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.config.IdleTimeout))
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.metrics.received(n)
			s.reader.Feed(buf[:n])
			if derr := s.drain(ctx); derr != nil {
				if s.closed.Load() {
					return nil
				}
				s.logger.Error("session failed", "error", derr)
				return derr
			}
		}
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				err = ErrReadTimeout
			}
			terr := &TransportError{SessionID: s.ID, Op: "read", Err: err}
			if errors.Is(err, io.EOF) {
				s.logger.Debug("client disconnected")
			} else {
				s.logger.Info("transport closed", "error", err)
			}
			return terr
		}
	}
}

// drain dispatches every complete frame currently buffered, then flushes
// whatever the handlers queued.
func (s *Session) drain(ctx context.Context) error {
	for !s.closed.Load() {
		f, err := s.reader.Next()
		if err == nil {
			s.last = f
			s.framesIn.Add(1)
			_ = s.dispatcher.Dispatch(ctx, s, f)
			continue
		}

		var pe *ProtocolError
		var ce *CipherError
		switch {
		case errors.Is(err, ErrNotReady):
			return s.Flush()
		case errors.As(err, &pe):
			pe.SessionID = s.ID
			s.logger.Warn("protocol error", "opcode", pe.Opcode, "error", pe)
			s.metrics.protocolError(pe)
		case errors.As(err, &ce):
			ce.SessionID = s.ID
			return ce
		default:
			return err
		}
	}
	return nil
}

// Send queues a frame. It is written to the transport by the next Flush,
// which the read loop performs after each batch of frames.
func (s *Session) Send(b *protocol.Builder) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	n, err := s.writer.Write(b)
	if err != nil {
		return s.annotate(err)
	}
	s.metrics.sent(n)
	return nil
}

// SendNow writes a frame and flushes it immediately. Use it from goroutines
// other than the read loop.
func (s *Session) SendNow(b *protocol.Builder) error {
	if err := s.Send(b); err != nil {
		return err
	}
	return s.Flush()
}

// Flush writes queued frames to the transport.
func (s *Session) Flush() error {
	if s.writer.Buffered() == 0 {
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.annotate(s.writer.Flush())
}

func (s *Session) annotate(err error) error {
	var te *TransportError
	var ce *CipherError
	switch {
	case errors.As(err, &te):
		te.SessionID = s.ID
	case errors.As(err, &ce):
		ce.SessionID = s.ID
	}
	return err
}

// Go hands fn to the server's worker pool so the read loop is not held up.
// Without a pool fn runs on a new goroutine.
func (s *Session) Go(fn func()) error {
	if s.submit != nil {
		return s.submit(fn)
	}
	go fn()
	return nil
}

// Close disconnects the session. Any partially decoded frame is dropped.
// Safe to call from any goroutine and more than once.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	err := s.conn.Close()
	s.logger.Debug("session closed",
		"frames", s.framesIn.Load(),
		"duration", time.Since(s.createdAt))
	return err
}

// Closed reports whether the session is disconnected.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Done is closed when the session disconnects.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns Disconnected once the session is closed and the read loop's
// decode state otherwise. Safe to call from any goroutine.
func (s *Session) State() DecodeState {
	if s.closed.Load() {
		return Disconnected
	}
	return s.reader.State()
}

// LastFrame returns the most recently dispatched frame, for diagnostics.
func (s *Session) LastFrame() *protocol.Frame {
	return s.last
}

// FramesReceived returns the number of frames decoded so far.
func (s *Session) FramesReceived() int64 {
	return s.framesIn.Load()
}

// CreatedAt returns when the session was established.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// RemoteAddr returns the client address.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Logger returns the session's logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}
