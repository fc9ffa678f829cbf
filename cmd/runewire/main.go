package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/runewire/internal/config"
	"github.com/vango-dev/runewire/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "runewire",
		Short: "Game server for the legacy 317 client protocol",
		Long: `Runewire speaks the legacy game client's binary protocol.

It accepts client logins, keys the ISAAC stream ciphers, splits the
inbound byte stream into frames using an opcode length table, and
routes each frame to a typed handler.

Configuration is read from runewire.toml in the working directory
when present, or from the file named by --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./"+config.ConfigFileName+" when present)")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		tableCmd(&configPath),
		configCmd(&configPath),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads path, or runewire.toml from the working directory when
// path is empty and that file exists.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.ConfigFileName); err == nil {
			path = config.ConfigFileName
		}
	}
	return config.Load(path)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
