package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/runewire/pkg/protocol"
)

// SessionConfig holds configuration for individual sessions.
type SessionConfig struct {
	// IdleTimeout disconnects a session whose client sent nothing for this
	// long. The client heartbeats every few seconds, so a silent connection
	// is dead. Zero disables the timeout.
	// Default: 60 seconds.
	IdleTimeout time.Duration

	// WriteTimeout bounds each flush to the transport.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// ReadBufferSize is the size of each transport read.
	// Default: 4KB.
	ReadBufferSize int

	// WriteBufferSize is the size of the outbound frame buffer.
	// Default: 4KB.
	WriteBufferSize int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		IdleTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

// Clone returns a copy of the SessionConfig.
func (c *SessionConfig) Clone() *SessionConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

func (c *SessionConfig) withDefaults() *SessionConfig {
	defaults := DefaultSessionConfig()
	if c == nil {
		return defaults
	}
	out := c.Clone()
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize <= 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	return out
}

// ServerConfig holds configuration for the game server.
type ServerConfig struct {
	// Address is the TCP address the game listener binds to.
	// Default: ":43594".
	Address string

	// AdminAddress is the HTTP address for metrics, health and the
	// WebSocket endpoint. Empty disables the admin listener.
	// Default: "".
	AdminAddress string

	// WebSocketPath mounts the game protocol over WebSocket on the admin
	// router. Empty disables it.
	// Default: "".
	WebSocketPath string

	// CheckOrigin validates WebSocket upgrade origins.
	// Default: allow all (game clients do not send browser origins).
	CheckOrigin func(r *http.Request) bool

	// LengthTable sizes inbound frames.
	// Default: protocol.DefaultLengthTable.
	LengthTable *protocol.LengthTable

	// Handshaker runs the login exchange on new connections.
	// Default: &LoginHandshake{}.
	Handshaker Handshaker

	// SessionConfig is applied to every session.
	SessionConfig *SessionConfig

	// HandshakeTimeout bounds the login exchange.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// MaxSessions caps concurrent sessions. Zero means unlimited.
	// Default: 2000.
	MaxSessions int

	// WorkerPoolSize is the number of goroutines available for work
	// handlers hand off (broadcasts, slow game calls).
	// Default: 64.
	WorkerPoolSize int

	// Registry receives the server's collectors and backs /metrics.
	// Default: a new registry.
	Registry *prometheus.Registry

	// OnSessionStart is called once the login succeeded, before the read
	// loop starts. Frames sent here are flushed with the first batch.
	//
	// Example:
	//     OnSessionStart: func(ctx context.Context, s *Session) {
	//         s.Send(handlers.GameMessage("Welcome."))
	//     }
	OnSessionStart func(ctx context.Context, s *Session)
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:          ":43594",
		CheckOrigin:      func(*http.Request) bool { return true },
		LengthTable:      protocol.DefaultLengthTable,
		Handshaker:       &LoginHandshake{},
		SessionConfig:    DefaultSessionConfig(),
		HandshakeTimeout: 10 * time.Second,
		ShutdownTimeout:  10 * time.Second,
		MaxSessions:      2000,
		WorkerPoolSize:   64,
	}
}

// Clone returns a copy of the ServerConfig.
func (c *ServerConfig) Clone() *ServerConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.SessionConfig = c.SessionConfig.Clone()
	return &clone
}

// fillDefaults sets every unset field to its default.
func (c *ServerConfig) fillDefaults() {
	defaults := DefaultServerConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = defaults.CheckOrigin
	}
	if c.LengthTable == nil {
		c.LengthTable = defaults.LengthTable
	}
	if c.Handshaker == nil {
		c.Handshaker = defaults.Handshaker
	}
	c.SessionConfig = c.SessionConfig.withDefaults()
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = defaults.WorkerPoolSize
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
}

// Validate reports configuration values that cannot work.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.MaxSessions < 0 {
		errs = append(errs, errors.New("server: MaxSessions must not be negative"))
	}
	if c.WorkerPoolSize < 0 {
		errs = append(errs, errors.New("server: WorkerPoolSize must not be negative"))
	}
	if c.HandshakeTimeout < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server: timeouts must not be negative"))
	}
	if c.SessionConfig != nil && c.SessionConfig.IdleTimeout < 0 {
		errs = append(errs, errors.New("server: IdleTimeout must not be negative"))
	}
	if c.WebSocketPath != "" && c.AdminAddress == "" {
		errs = append(errs, errors.New("server: WebSocketPath requires AdminAddress"))
	}
	return errors.Join(errs...)
}
