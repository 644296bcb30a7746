package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/reconcile/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Engine.MaxFlushPasses != DefaultMaxFlushPasses {
		t.Errorf("Engine.MaxFlushPasses = %d, want %d", cfg.Engine.MaxFlushPasses, DefaultMaxFlushPasses)
	}
	if cfg.Devtools.Addr != DefaultDevtoolsAddr {
		t.Errorf("Devtools.Addr = %q, want %q", cfg.Devtools.Addr, DefaultDevtoolsAddr)
	}
	opts := cfg.Engine.DiffOptions()
	if !opts.Keyed || !opts.LCS || opts.MatchGaps || opts.CoalesceMoves {
		t.Errorf("DiffOptions() = %+v", opts)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// No config file means defaults
	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q for defaults", cfg.Path())
	}

	configYAML := `engine:
  diff:
    keyed: false
    lcs: true
    coalesce_moves: true
  max_flush_passes: 20
  id_prefix: n
log:
  level: debug
  format: json
devtools:
  addr: ":9000"
`
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err = Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Engine.Diff.Keyed {
		t.Error("Engine.Diff.Keyed should be false")
	}
	if !cfg.Engine.Diff.CoalesceMoves {
		t.Error("Engine.Diff.CoalesceMoves should be true")
	}
	// Keys missing from the file keep their defaults
	if !cfg.Engine.Diff.LCS || cfg.Engine.Diff.MatchGaps || !cfg.Engine.Templates {
		t.Error("defaults were not kept for missing keys")
	}
	if cfg.Engine.MaxFlushPasses != 20 {
		t.Errorf("Engine.MaxFlushPasses = %d, want 20", cfg.Engine.MaxFlushPasses)
	}
	if cfg.Engine.IDPrefix != "n" {
		t.Errorf("Engine.IDPrefix = %q", cfg.Engine.IDPrefix)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}
	if cfg.Devtools.Addr != ":9000" {
		t.Errorf("Devtools.Addr = %q", cfg.Devtools.Addr)
	}
	if cfg.Path() != configPath {
		t.Errorf("Path() = %q, want %q", cfg.Path(), configPath)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configJSON := `{"engine": {"maxFlushPasses": 7, "diff": {"keyed": true}}, "log": {"level": "warn"}}`
	if err := os.WriteFile(filepath.Join(tmpDir, JSONConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Engine.MaxFlushPasses != 7 {
		t.Errorf("Engine.MaxFlushPasses = %d, want 7", cfg.Engine.MaxFlushPasses)
	}
	if cfg.LogLevel() != slog.LevelWarn {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel() != slog.LevelError {
		t.Errorf("LogLevel() = %v, want error", cfg.LogLevel())
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "engine: [unclosed"},
		{"negative passes", "engine:\n  max_flush_passes: -1\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), errors.CodeInvalidConfig) {
				t.Errorf("expected %s error, got: %v", errors.CodeInvalidConfig, err)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile() error = %v, want it to wrap os.ErrNotExist", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Engine.Diff.CoalesceMoves = true
	cfg.Log.Level = "debug"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if !loaded.Engine.Diff.CoalesceMoves || loaded.Log.Level != "debug" {
		t.Errorf("reloaded config = %+v", loaded)
	}
}

func TestLogger(t *testing.T) {
	cfg := New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("json output = %s", out)
	}
}
