package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/runewire/internal/config"
	"github.com/vango-dev/runewire/internal/errors"
	"github.com/vango-dev/runewire/internal/tables"
	"github.com/vango-dev/runewire/pkg/protocol"
	"github.com/vango-dev/runewire/pkg/server"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func codeOf(err error) string {
	var re *errors.RunewireError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return ""
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q", out)
	}
}

func TestTableExport(t *testing.T) {
	out, err := execute(t, "table", "export")
	if err != nil {
		t.Fatal(err)
	}
	table, err := tables.Parse("stdout", []byte(out))
	if err != nil {
		t.Fatalf("exported table does not parse: %v", err)
	}
	if table.Entries() != protocol.DefaultLengthTable.Entries() {
		t.Error("exported table differs from the built-in table")
	}
}

func TestTableValidateAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "317.yaml")
	if _, err := execute(t, "table", "export", "-o", path); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "table", "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "is valid") || !strings.Contains(out, "revision 317") {
		t.Errorf("validate output = %q", out)
	}

	out, err = execute(t, "table", "show", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"(revision 317)", "OPCODE", "VariableByte", "Fixed"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q", want)
		}
	}

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	os.WriteFile(broken, []byte("revision: 317\nlengths:\n  4: -7\n"), 0644)
	if _, err := execute(t, "table", "validate", broken); codeOf(err) != "R202" {
		t.Errorf("validate broken table error = %v, want R202", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runewire.toml")

	if _, err := execute(t, "config", "init", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := execute(t, "config", "init", path); err == nil {
		t.Error("init overwrote an existing file without --force")
	}
	if _, err := execute(t, "config", "init", "--force", path); err != nil {
		t.Errorf("init --force: %v", err)
	}

	out, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "# loaded from "+path) || !strings.Contains(out, "[server]") {
		t.Errorf("show output = %q", out)
	}

	if _, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.toml"), "config", "show"); codeOf(err) != "R101" {
		t.Errorf("missing config error = %v, want R101", err)
	}
}

func TestServerConfig(t *testing.T) {
	cfg := config.New()
	cfg.Server.Address = ":5555"
	cfg.Server.Rights = 2
	cfg.Server.MaxSessions = 10
	cfg.Server.IdleTimeout.Duration = 30 * time.Second
	cfg.Admin.Address = ":9090"
	cfg.Server.WebSocketPath = "/game"
	cfg.Protocol.ClientRevision = 317
	cfg.Workers.PoolSize = 8

	sc := serverConfig(cfg, protocol.DefaultLengthTable)
	if err := sc.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sc.Address != ":5555" || sc.AdminAddress != ":9090" || sc.WebSocketPath != "/game" {
		t.Errorf("addresses = %q %q %q", sc.Address, sc.AdminAddress, sc.WebSocketPath)
	}
	if sc.MaxSessions != 10 || sc.WorkerPoolSize != 8 || sc.SessionConfig.IdleTimeout != 30*time.Second {
		t.Errorf("limits = %d %d %v", sc.MaxSessions, sc.WorkerPoolSize, sc.SessionConfig.IdleTimeout)
	}
	login, ok := sc.Handshaker.(*server.LoginHandshake)
	if !ok || login.Revision != 317 || login.Rights != 2 {
		t.Errorf("Handshaker = %#v", sc.Handshaker)
	}
	if sc.OnSessionStart == nil {
		t.Error("OnSessionStart not set")
	}
}

func TestLoadTableRevisionMismatch(t *testing.T) {
	cfg := config.New()
	cfg.Protocol.ClientRevision = 289

	_, err := loadTable(context.Background(), cfg, discardLogger())
	if codeOf(err) != "R204" {
		t.Errorf("loadTable() error = %v, want R204", err)
	}

	cfg.Protocol.ClientRevision = 0
	if _, err := loadTable(context.Background(), cfg, discardLogger()); err != nil {
		t.Errorf("loadTable() with any revision: %v", err)
	}
}

func TestRunServeAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := config.New()
	cfg.Server.Address = ln.Addr().String()

	err = runServe(context.Background(), cfg, io.Discard)
	if codeOf(err) != "R301" {
		t.Errorf("runServe() error = %v, want R301", err)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	cfg := config.New()
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	logger, err := newLogger(&buf, cfg)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello", "opcode", 4)
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"opcode":4`) {
		t.Errorf("json log = %q", buf.String())
	}

	cfg.Log.Level = "warn"
	buf.Reset()
	logger, _ = newLogger(&buf, cfg)
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}
