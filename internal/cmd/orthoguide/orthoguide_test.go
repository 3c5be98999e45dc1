package orthoguide

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage"
)

func TestParseConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	fs := flag.NewFlagSet("orthoguide", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "data/test_data.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	want := []string{"http://localhost:8080", "http://localhost:5173", "http://localhost"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("expected %d origins, got %v", len(want), cfg.AllowedOrigins)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("origin %d = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("expected info/text logging, got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ORTHOGUIDE_HTTP_ADDR", ":9000")
	t.Setenv("ORTHOGUIDE_DB_PATH", "/tmp/env.db")
	t.Setenv("ORTHOGUIDE_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	fs := flag.NewFlagSet("orthoguide", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("expected env http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected trimmed env origins, got %v", cfg.AllowedOrigins)
	}
}

func TestParseConfigFlagOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ORTHOGUIDE_HTTP_ADDR", "env-addr")

	fs := flag.NewFlagSet("orthoguide", flag.ContinueOnError)
	args := []string{
		"-http-addr", "flag-addr",
		"-db-path", "flag.db",
		"-allowed-origins", "https://only.example",
		"-log-level", "debug",
		"-log-format", "json",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-addr" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "flag.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://only.example" {
		t.Fatalf("expected flag origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Fatalf("expected debug/json logging, got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestParseConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ORTHOGUIDE_DB_PATH=dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("ORTHOGUIDE_DB_PATH", "")
	os.Unsetenv("ORTHOGUIDE_DB_PATH")

	fs := flag.NewFlagSet("orthoguide", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "dotenv.db" {
		t.Fatalf("expected .env db path, got %q", cfg.DBPath)
	}
}

func TestParseConfigRejectsUnknownFlag(t *testing.T) {
	chdir(t, t.TempDir())
	fs := flag.NewFlagSet("orthoguide", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"-port", "1"}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}

func TestRunRejectsBadLogFormat(t *testing.T) {
	cfg := Config{HTTPAddr: "127.0.0.1:0", DBPath: filepath.Join(t.TempDir(), "db"), LogFormat: "xml"}
	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected log format error")
	}
}

func TestRunFailsOnSeedError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	t.Setenv("ORTHOGUIDE_OTEL_ENABLED", "false")
	cfg := Config{
		HTTPAddr:  "127.0.0.1:0",
		DBPath:    filepath.Join(blocker, "test_data.db"),
		LogLevel:  "error",
		LogFormat: "text",
	}
	err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected seed error")
	}
	if !errors.Is(err, storage.ErrSeedFailed) {
		t.Fatalf("expected ErrSeedFailed, got %v", err)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir for older toolchains).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}
