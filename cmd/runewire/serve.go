package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"github.com/vango-dev/runewire/internal/config"
	"github.com/vango-dev/runewire/internal/errors"
	"github.com/vango-dev/runewire/internal/tables"
	"github.com/vango-dev/runewire/pkg/handlers"
	"github.com/vango-dev/runewire/pkg/protocol"
	"github.com/vango-dev/runewire/pkg/server"
)

const welcomeMessage = "Welcome to RuneScape."

func serveCmd(configPath *string) *cobra.Command {
	var (
		address      string
		adminAddress string
		table        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Long: `Run the game server until interrupted.

Every decoded frame is logged at debug level by the built-in game, which
answers commands and the logout button. Metrics, health and the session
list are served on the admin listener when admin.address is set.

Examples:
  runewire serve
  runewire serve --address=:43595 --admin=:9090
  runewire serve --table=s3://assets/tables/317.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if address != "" {
				cfg.Server.Address = address
			}
			if adminAddress != "" {
				cfg.Admin.Address = adminAddress
			}
			if table != "" {
				cfg.Protocol.LengthTable = table
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Game listener address (default from config)")
	cmd.Flags().StringVar(&adminAddress, "admin", "", "Admin HTTP address (default from config)")
	cmd.Flags().StringVarP(&table, "table", "t", "", "Length table file or s3:// URL (default from config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger(logOut, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	table, err := loadTable(ctx, cfg, logger)
	if err != nil {
		return err
	}

	d := server.NewDispatcher()
	handlers.Register(d, &handlers.LoggingGame{Level: slog.LevelDebug})

	srv, err := server.New(serverConfig(cfg, table), d)
	if err != nil {
		return errors.New("R103").Wrap(err)
	}

	logger.Info("runewire starting",
		"version", version,
		"address", cfg.Server.Address,
		"admin", cfg.Admin.Address,
		"revision", table.Revision(),
		"opcodes", len(d.Opcodes()),
	)

	if err := srv.Run(ctx); err != nil {
		var opErr *net.OpError
		if stderrors.As(err, &opErr) && opErr.Op == "listen" {
			return errors.New("R301").Wrap(err).
				WithDetail(fmt.Sprintf("Could not listen on %s", opErr.Addr))
		}
		return errors.New("R302").Wrap(err)
	}
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, errors.New("R103").Wrap(err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// newLoader returns a table loader, with an S3 client when source needs one.
func newLoader(ctx context.Context, cfg *config.Config, source string, logger *slog.Logger) (*tables.Loader, error) {
	loader := &tables.Loader{Logger: logger}
	if _, isS3, _ := tables.ParseS3URL(source); isS3 {
		client, err := tables.NewS3Client(ctx, tables.S3Options{
			Region:   cfg.Protocol.S3.Region,
			Endpoint: cfg.Protocol.S3.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		loader.S3 = client
	}
	return loader, nil
}

// loadTable loads the configured length table and checks it describes the
// configured client revision.
func loadTable(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*protocol.LengthTable, error) {
	source := cfg.Protocol.LengthTable
	loader, err := newLoader(ctx, cfg, source, logger)
	if err != nil {
		return nil, err
	}
	table, err := loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	if rev := cfg.Protocol.ClientRevision; rev != 0 && rev != table.Revision() {
		return nil, errors.New("R204").
			WithDetail(fmt.Sprintf("protocol.client_revision is %d but the length table describes revision %d", rev, table.Revision())).
			WithSuggestion("Point protocol.length_table at a table for your client, or set client_revision to 0")
	}
	return table, nil
}

func serverConfig(cfg *config.Config, table *protocol.LengthTable) *server.ServerConfig {
	sc := server.DefaultServerConfig()
	sc.Address = cfg.Server.Address
	sc.AdminAddress = cfg.Admin.Address
	sc.WebSocketPath = cfg.Server.WebSocketPath
	sc.LengthTable = table
	sc.Handshaker = &server.LoginHandshake{
		Revision: uint16(cfg.Protocol.ClientRevision),
		Rights:   cfg.Server.Rights,
	}
	sc.SessionConfig.IdleTimeout = cfg.Server.IdleTimeout.Duration
	sc.HandshakeTimeout = cfg.Server.HandshakeTimeout.Duration
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout.Duration
	sc.MaxSessions = cfg.Server.MaxSessions
	sc.WorkerPoolSize = cfg.Workers.PoolSize
	sc.OnSessionStart = welcome
	return sc
}

// welcome sets up the sidebar tabs and greets the player.
func welcome(ctx context.Context, s *server.Session) {
	if err := handlers.SendSidebars(s); err != nil {
		s.Logger().Warn("sidebar setup failed", "error", err)
	}
	if err := s.Send(handlers.GameMessage(welcomeMessage)); err != nil {
		s.Logger().Warn("welcome message failed", "error", err)
	}
}
