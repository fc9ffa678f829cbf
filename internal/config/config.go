package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/runewire/internal/errors"
)

const (
	// ConfigFileName is the configuration file read when none is given.
	ConfigFileName = "runewire.toml"

	// DefaultAddress is the default game listener address.
	DefaultAddress = ":43594"

	// DefaultRevision is the client revision accepted at login.
	DefaultRevision = 317
)

// Environment variables that override file values.
const (
	EnvLogLevel = "RUNEWIRE_LOG_LEVEL"
	EnvAddress  = "RUNEWIRE_ADDRESS"
)

// Duration is a time.Duration written as a string ("60s", "1m30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config represents the complete runewire.toml configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Admin    AdminConfig    `toml:"admin"`
	Protocol ProtocolConfig `toml:"protocol"`
	Workers  WorkersConfig  `toml:"workers"`
	Log      LogConfig      `toml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains game listener settings.
type ServerConfig struct {
	// Address is the TCP address of the game listener.
	Address string `toml:"address"`

	// WebSocketPath serves the game protocol over WebSocket on the admin
	// listener when set.
	WebSocketPath string `toml:"websocket_path"`

	// IdleTimeout disconnects silent clients. Zero disables it.
	IdleTimeout Duration `toml:"idle_timeout"`

	// HandshakeTimeout bounds the login exchange.
	HandshakeTimeout Duration `toml:"handshake_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `toml:"shutdown_timeout"`

	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int `toml:"max_sessions"`

	// Rights is the privilege level sent to every client at login.
	Rights uint8 `toml:"rights"`
}

// AdminConfig contains the HTTP admin listener settings.
type AdminConfig struct {
	// Address serves /metrics, /healthz and /sessions. Empty disables it.
	Address string `toml:"address"`
}

// ProtocolConfig contains wire protocol settings.
type ProtocolConfig struct {
	// ClientRevision is the revision clients must report at login. Zero
	// accepts any revision.
	ClientRevision int `toml:"client_revision"`

	// LengthTable is a YAML length table, as a file path or an
	// s3://bucket/key URL. Empty uses the built-in table.
	LengthTable string `toml:"length_table"`

	// S3 configures the client used for s3:// length tables.
	S3 S3Config `toml:"s3"`
}

// S3Config contains S3 client settings.
type S3Config struct {
	// Region is the bucket's region.
	Region string `toml:"region"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `toml:"endpoint"`
}

// WorkersConfig contains worker pool settings.
type WorkersConfig struct {
	// PoolSize is the number of goroutines handlers can hand work to.
	PoolSize int `toml:"pool_size"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`

	// Format is text or json.
	Format string `toml:"format"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:          DefaultAddress,
			IdleTimeout:      Duration{60 * time.Second},
			HandshakeTimeout: Duration{10 * time.Second},
			ShutdownTimeout:  Duration{10 * time.Second},
			MaxSessions:      2000,
		},
		Protocol: ProtocolConfig{
			ClientRevision: DefaultRevision,
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Workers: WorkersConfig{
			PoolSize: 64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result. A missing file is an error unless path is
// empty, in which case the defaults are used.
func Load(path string) (*Config, error) {
	cfg := New()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return errors.New("R101").
				WithDetail("No configuration file at " + path).
				WithSuggestion("Run 'runewire config' to print a default configuration")
		}
		var pe toml.ParseError
		if stderrors.As(err, &pe) {
			return errors.New("R102").
				WithLocation(path, pe.Position.Line, 0).
				WithDetail(pe.Message).
				WithSuggestion("Durations are strings such as \"60s\"")
		}
		return errors.New("R102").Wrap(err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New("R104").
			WithDetail(fmt.Sprintf("%s sets %s, which runewire does not read.", path, strings.Join(keys, ", "))).
			WithSuggestion("Remove the key or check its section")
	}

	c.configPath = path
	return nil
}

// ApplyEnv overrides file values from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvAddress); ok && v != "" {
		c.Server.Address = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New("R103").WithDetail(detail)
	}

	if strings.TrimSpace(c.Server.Address) == "" {
		return invalid("server.address must not be empty")
	}
	if c.Server.WebSocketPath != "" {
		if c.Admin.Address == "" {
			return invalid("server.websocket_path needs admin.address, which serves it")
		}
		if !strings.HasPrefix(c.Server.WebSocketPath, "/") {
			return invalid("server.websocket_path must start with /")
		}
	}
	if c.Server.IdleTimeout.Duration < 0 {
		return invalid("server.idle_timeout must not be negative")
	}
	if c.Server.HandshakeTimeout.Duration <= 0 {
		return invalid("server.handshake_timeout must be positive")
	}
	if c.Server.ShutdownTimeout.Duration <= 0 {
		return invalid("server.shutdown_timeout must be positive")
	}
	if c.Server.MaxSessions < 0 {
		return invalid("server.max_sessions must not be negative")
	}
	if c.Protocol.ClientRevision < 0 || c.Protocol.ClientRevision > math.MaxUint16 {
		return invalid(fmt.Sprintf("protocol.client_revision %d is out of range", c.Protocol.ClientRevision))
	}
	if c.Workers.PoolSize <= 0 {
		return invalid("workers.pool_size must be positive")
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("R103").
			WithDetail(fmt.Sprintf("log.level %q is not a level", c.Log.Level)).
			WithSuggestion("Use debug, info, warn or error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("R103").
			WithDetail(fmt.Sprintf("log.format %q is not a format", c.Log.Format)).
			WithSuggestion("Use text or json")
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}
