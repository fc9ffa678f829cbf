package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/runewire/pkg/protocol"
)

// Server accepts game connections, runs the login handshake and serves a
// Session per client.
type Server struct {
	config     *ServerConfig
	dispatcher *Dispatcher
	sessions   *SessionManager
	metrics    *Metrics
	pool       *ants.Pool
	upgrader   websocket.Upgrader

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server

	conns  sync.WaitGroup
	closed atomic.Bool

	logger *slog.Logger
}

// New creates a Server that routes frames through d.
func New(config *ServerConfig, d *Dispatcher) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	} else {
		config = config.Clone()
	}
	config.fillDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if d == nil {
		d = NewDispatcher()
	}

	logger := slog.Default().With("component", "server")

	pool, err := ants.NewPool(config.WorkerPoolSize,
		ants.WithPanicHandler(func(p any) {
			logger.Error("worker panic", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("server: worker pool: %w", err)
	}

	s := &Server{
		config:     config,
		dispatcher: d,
		sessions:   NewSessionManager(config.MaxSessions, logger),
		metrics:    NewMetrics(WithRegistry(config.Registry)),
		pool:       pool,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.SessionConfig.ReadBufferSize,
			WriteBufferSize: config.SessionConfig.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}
	s.sessions.SetOnSessionClose(func(*Session) { s.metrics.sessionClosed() })
	return s, nil
}

// Serve accepts connections on ln until Shutdown is called or ctx is
// cancelled, and returns ErrServerClosed in either case. Cancelling ctx
// disconnects every session served from it.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.Info("game listener started", "address", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept failed", "error", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		if !s.track() {
			conn.Close()
			return ErrServerClosed
		}
		go func() {
			defer s.conns.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// track counts a new connection in conns. It reports false once Shutdown
// has started, after which conns may be waited on.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.conns.Add(1)
	return true
}

// ListenAndServe listens on the configured game address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// serveConn runs the handshake on conn and then the session read loop. It
// returns once the session is over and conn is closed.
func (s *Server) serveConn(ctx context.Context, conn Transport) {
	if s.config.MaxSessions > 0 && s.sessions.Count() >= s.config.MaxSessions {
		s.metrics.connectionRejected("full")
		s.logger.Warn("connection rejected", "remote", remoteString(conn), "error", ErrMaxSessionsReached)
		conn.Close()
		return
	}

	hctx, cancel := context.WithTimeout(ctx, s.config.HandshakeTimeout)
	login, err := s.config.Handshaker.Handshake(hctx, conn)
	cancel()
	if err != nil {
		s.metrics.connectionRejected("handshake")
		s.logger.Info("handshake failed", "remote", remoteString(conn), "error", err)
		conn.Close()
		return
	}

	session := NewSession(conn, login, s.config.LengthTable, s.dispatcher, s.config.SessionConfig)
	session.metrics = s.metrics
	session.submit = s.Submit

	if err := s.sessions.Add(session); err != nil {
		s.metrics.connectionRejected("full")
		s.logger.Warn("connection rejected", "remote", remoteString(conn), "error", err)
		session.Close()
		return
	}
	s.metrics.sessionOpened()
	defer s.sessions.Remove(session.ID)

	// Shutdown may have swept the manager while this login was in flight.
	if s.closed.Load() {
		return
	}

	session.Logger().Info("session started",
		"username", login.Username,
		"revision", login.Revision,
		"reconnecting", login.Reconnecting)

	if s.config.OnSessionStart != nil {
		s.config.OnSessionStart(ctx, session)
		if err := session.Flush(); err != nil {
			session.Logger().Info("initial flush failed", "error", err)
			return
		}
	}

	if err := session.Serve(ctx); err != nil {
		session.Logger().Debug("session ended", "error", err)
	}
}

// Run starts the game listener and, when configured, the admin listener,
// and blocks until SIGINT, SIGTERM, ctx cancellation or a listener failure.
// It then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Serve(gctx, ln); !errors.Is(err, ErrServerClosed) {
			return err
		}
		return nil
	})

	if s.config.AdminAddress != "" {
		srv := &http.Server{
			Addr:              s.config.AdminAddress,
			Handler:           s.AdminHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.mu.Lock()
		s.httpServer = srv
		s.mu.Unlock()

		g.Go(func() error {
			s.logger.Info("admin listener started", "address", s.config.AdminAddress)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown stops accepting connections, disconnects every session and waits
// for their read loops to finish, bounded by ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return nil
	}
	s.closed.Store(true)
	ln, srv := s.listener, s.httpServer
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if ln != nil {
		ln.Close()
	}
	s.sessions.Shutdown()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("admin shutdown error", "error", err)
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("server: waiting for sessions: %w", ctx.Err()))
	}

	if err := s.pool.ReleaseTimeout(time.Until(deadlineOr(ctx, time.Second))); err != nil {
		s.logger.Warn("worker pool release", "error", err)
	}

	s.logger.Info("server shutdown complete")
	return errors.Join(errs...)
}

func deadlineOr(ctx context.Context, fallback time.Duration) time.Time {
	if d, ok := ctx.Deadline(); ok && time.Until(d) > 0 {
		return d
	}
	return time.Now().Add(fallback)
}

// Submit runs fn on the server's worker pool.
func (s *Server) Submit(fn func()) error {
	return s.pool.Submit(fn)
}

// Broadcast sends the frame to every session from the worker pool and
// returns the number of sessions it was queued for. b must not be modified
// until the sends are done.
func (s *Server) Broadcast(b *protocol.Builder) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	n := 0
	for _, session := range s.sessions.Snapshot() {
		session := session
		err := s.pool.Submit(func() {
			if err := session.SendNow(b); err != nil && !errors.Is(err, ErrSessionClosed) {
				session.Logger().Warn("broadcast failed", "opcode", b.Opcode, "error", err)
			}
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Dispatcher returns the frame dispatcher.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// SetLogger sets the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}
