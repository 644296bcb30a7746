package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reconcile.yaml"

	// JSONConfigFileName is looked up when ConfigFileName does not exist.
	JSONConfigFileName = "reconcile.json"

	// EnvLogLevel overrides Log.Level.
	EnvLogLevel = "RECONCILE_LOG_LEVEL"

	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "localhost:7331"

	// DefaultMaxFlushPasses mirrors reactive.DefaultMaxFlushPasses.
	DefaultMaxFlushPasses = 100
)

// Config represents reconcile.yaml.
type Config struct {
	// Engine tunes the differ, the scheduler and the applier.
	Engine Engine `yaml:"engine" json:"engine"`

	// Log configures the slog logger built by Logger.
	Log LogConfig `yaml:"log" json:"log"`

	// Devtools configures the inspector server.
	Devtools DevtoolsConfig `yaml:"devtools" json:"devtools"`

	// Metrics configures the Prometheus collectors.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// Engine tunes the reconciliation engine.
type Engine struct {
	Diff DiffConfig `yaml:"diff" json:"diff"`

	// MaxFlushPasses bounds effect re-scheduling within one flush.
	MaxFlushPasses int `yaml:"max_flush_passes" json:"maxFlushPasses"`

	// Templates enables the static subtree template cache.
	Templates bool `yaml:"templates" json:"templates"`

	// IDPrefix prefixes generated element IDs.
	IDPrefix string `yaml:"id_prefix" json:"idPrefix"`
}

// DiffConfig selects the child reconciliation strategies.
type DiffConfig struct {
	Keyed         bool `yaml:"keyed" json:"keyed"`
	LCS           bool `yaml:"lcs" json:"lcs"`
	MatchGaps     bool `yaml:"match_gaps" json:"matchGaps"`
	CoalesceMoves bool `yaml:"coalesce_moves" json:"coalesceMoves"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is text or json.
	Format string `yaml:"format" json:"format"`
}

// DevtoolsConfig configures the devtools server.
type DevtoolsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// MetricsConfig configures metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Engine: Engine{
			Diff: DiffConfig{
				Keyed: true,
				LCS:   true,
			},
			MaxFlushPasses: DefaultMaxFlushPasses,
			Templates:      true,
			IDPrefix:       "h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Devtools: DevtoolsConfig{
			Addr: DefaultDevtoolsAddr,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "reconcile",
		},
	}
}

// Load reads reconcile.yaml, or reconcile.json, from dir. Without either
// file it returns the defaults.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, JSONConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	cfg := New()
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads configuration from path. Files ending in .json are
// parsed as JSON, everything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidConfig).
			WithDetailf("cannot read %s", path).
			Wrap(err)
	}

	cfg := New()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeInvalidConfig).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration as YAML to path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(errors.CodeInvalidConfig).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeInvalidConfig).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyEnv() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine.MaxFlushPasses < 0 {
		return errors.New(errors.CodeInvalidConfig).
			WithDetail("engine.max_flush_passes must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New(errors.CodeInvalidConfig).WithDetail(err.Error())
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.New(errors.CodeInvalidConfig).
			WithDetailf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// DiffOptions converts the diff settings to vdom options.
func (e Engine) DiffOptions() vdom.Options {
	return vdom.Options{
		Keyed:         e.Diff.Keyed,
		LCS:           e.Diff.LCS,
		MatchGaps:     e.Diff.MatchGaps,
		CoalesceMoves: e.Diff.CoalesceMoves,
	}
}

// LogLevel returns the configured level, info when it is invalid.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Logger builds a slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
