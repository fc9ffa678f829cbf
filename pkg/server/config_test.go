package server

import (
	"testing"
	"time"

	"github.com/vango-dev/runewire/pkg/protocol"
)

func TestDefaultServerConfig(t *testing.T) {
	c := DefaultServerConfig()
	if c.Address != ":43594" {
		t.Errorf("Address = %q", c.Address)
	}
	if c.LengthTable != protocol.DefaultLengthTable {
		t.Error("LengthTable is not the default table")
	}
	if c.SessionConfig.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v", c.SessionConfig.IdleTimeout)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestServerConfigFillDefaults(t *testing.T) {
	c := &ServerConfig{MaxSessions: 5}
	c.fillDefaults()

	if c.Address == "" || c.Handshaker == nil || c.LengthTable == nil || c.Registry == nil {
		t.Fatalf("defaults not filled: %+v", c)
	}
	if c.MaxSessions != 5 {
		t.Errorf("MaxSessions = %d, want 5", c.MaxSessions)
	}
	if c.SessionConfig.ReadBufferSize != 4096 {
		t.Errorf("ReadBufferSize = %d", c.SessionConfig.ReadBufferSize)
	}
}

func TestServerConfigClone(t *testing.T) {
	c := DefaultServerConfig()
	clone := c.Clone()
	clone.SessionConfig.IdleTimeout = time.Second
	if c.SessionConfig.IdleTimeout == time.Second {
		t.Error("Clone shares SessionConfig")
	}
	var nilConfig *ServerConfig
	if nilConfig.Clone() != nil {
		t.Error("nil Clone should be nil")
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"negative sessions", func(c *ServerConfig) { c.MaxSessions = -1 }},
		{"negative pool", func(c *ServerConfig) { c.WorkerPoolSize = -1 }},
		{"negative timeout", func(c *ServerConfig) { c.HandshakeTimeout = -time.Second }},
		{"negative idle", func(c *ServerConfig) { c.SessionConfig.IdleTimeout = -time.Second }},
		{"websocket without admin", func(c *ServerConfig) { c.WebSocketPath = "/ws" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultServerConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestSessionConfigWithDefaults(t *testing.T) {
	var nilConfig *SessionConfig
	if got := nilConfig.withDefaults(); got.ReadBufferSize != 4096 {
		t.Errorf("nil withDefaults ReadBufferSize = %d", got.ReadBufferSize)
	}

	c := &SessionConfig{ReadBufferSize: 128}
	got := c.withDefaults()
	if got.ReadBufferSize != 128 || got.WriteBufferSize != 4096 || got.WriteTimeout != 10*time.Second {
		t.Errorf("withDefaults() = %+v", got)
	}
	if got.IdleTimeout != 0 {
		t.Errorf("IdleTimeout = %v, zero disables and must be kept", got.IdleTimeout)
	}
	if c.WriteBufferSize != 0 {
		t.Error("withDefaults modified the receiver")
	}
}
