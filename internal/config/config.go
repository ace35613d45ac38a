// Package config provides configuration types and defaults for plugtree.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/plugtree/internal/log"
)

// Config holds all configuration options for plugtree.
type Config struct {
	// PluginDirs are scanned for <dir>/<plugin>/plugin.yaml manifests, in order.
	// Relative paths are resolved against the directory of the config file.
	PluginDirs []string `mapstructure:"plugin_dirs"`

	// DisabledPlugins are plugin names the user turned off.
	DisabledPlugins []string `mapstructure:"disabled_plugins"`

	State   StateConfig     `mapstructure:"state"`
	Watch   WatchConfig     `mapstructure:"watch"`
	Cache   CacheConfig     `mapstructure:"cache"`
	Tracing TracingConfig   `mapstructure:"tracing"`
	Log     LogConfig       `mapstructure:"log"`
	Report  ReportConfig    `mapstructure:"report"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// StateConfig configures the SQLite state store used with the state-db flag.
type StateConfig struct {
	// Path of the database file.
	// Default: ~/.config/plugtree/state.db
	Path string `mapstructure:"path"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	// Debounce is how long manifest events are collected before a reload.
	// Default: 500ms
	Debounce time.Duration `mapstructure:"debounce"`
}

// CacheConfig configures the parsed manifest cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// TracingConfig holds tracing configuration for load, resolve and build operations.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/plugtree/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// LogConfig configures the debug log.
type LogConfig struct {
	Path  string `mapstructure:"path"`  // default: debug.log
	Level string `mapstructure:"level"` // debug (default), info, warn, error
}

// ReportConfig configures the markdown diagnostics report.
type ReportConfig struct {
	Style    string `mapstructure:"style"`     // auto (default), dark, light, notty
	WordWrap int    `mapstructure:"word_wrap"` // default: 100
}

// DefaultTracesFilePath returns ~/.config/plugtree/traces/traces.jsonl, or ""
// when the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "plugtree", "traces", "traces.jsonl")
}

// DefaultStatePath returns ~/.config/plugtree/state.db, or "" when the home
// directory is unavailable.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "plugtree", "state.db")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		PluginDirs: []string{"plugins"},
		State: StateConfig{
			Path: DefaultStatePath(),
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // derived from the config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Path:  "debug.log",
			Level: "debug",
		},
		Report: ReportConfig{
			Style:    "auto",
			WordWrap: 100,
		},
	}
}

// ResolvePluginDirs returns PluginDirs with relative entries joined to base
// and duplicates removed.
func (c Config) ResolvePluginDirs(base string) []string {
	seen := make(map[string]bool, len(c.PluginDirs))
	dirs := make([]string, 0, len(c.PluginDirs))
	for _, d := range c.PluginDirs {
		d = expandHome(strings.TrimSpace(d))
		if !filepath.IsAbs(d) && base != "" {
			d = filepath.Join(base, d)
		}
		d = filepath.Clean(d)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate checks the whole configuration and returns the first error found
// in each section, joined.
func Validate(c Config) error {
	return errors.Join(
		ValidatePluginDirs(c.PluginDirs),
		ValidateDisabledPlugins(c.DisabledPlugins),
		ValidateWatch(c.Watch),
		ValidateCache(c.Cache),
		ValidateTracing(c.Tracing),
		ValidateLog(c.Log),
		ValidateReport(c.Report),
	)
}

// ValidatePluginDirs requires at least one non-empty directory.
func ValidatePluginDirs(dirs []string) error {
	if len(dirs) == 0 {
		return fmt.Errorf("plugin_dirs must list at least one directory")
	}
	for i, d := range dirs {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("plugin_dirs[%d] is empty", i)
		}
	}
	return nil
}

// ValidateDisabledPlugins rejects empty names.
func ValidateDisabledPlugins(names []string) error {
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("disabled_plugins[%d] is empty", i)
		}
	}
	return nil
}

// ValidateWatch checks watch configuration for errors.
func ValidateWatch(w WatchConfig) error {
	if w.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", w.Debounce)
	}
	return nil
}

// ValidateCache checks cache configuration for errors.
func ValidateCache(c CacheConfig) error {
	if c.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.TTL)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// ValidateLog checks log configuration for errors.
func ValidateLog(l LogConfig) error {
	if _, err := log.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ValidateReport checks report configuration for errors.
func ValidateReport(r ReportConfig) error {
	switch r.Style {
	case "", "auto", "dark", "light", "notty":
	default:
		return fmt.Errorf("report.style must be \"auto\", \"dark\", \"light\", or \"notty\", got %q", r.Style)
	}
	if r.WordWrap < 0 {
		return fmt.Errorf("report.word_wrap must not be negative, got %d", r.WordWrap)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# plugtree configuration

# Directories holding one sub-directory per plugin, each with a plugin.yaml.
# Relative paths are resolved against the directory of this file.
plugin_dirs:
  - plugins

# Plugins turned off by the user (managed by 'plugtree plugins:disable').
disabled_plugins: []

# Parsed manifest cache
cache:
  enabled: true
  ttl: 10m

# Hot reload settings for 'plugtree watch'
watch:
  debounce: 500ms

# Diagnostics report rendering
report:
  style: auto      # auto, dark, light, notty
  word_wrap: 100

# Debug log (enable with --debug or PLUGTREE_DEBUG=1)
log:
  path: debug.log
  level: debug

# Feature flags
# flags:
#   state-db: true     # keep disabled plugins and resolution runs in SQLite
#   watch-diff: true   # 'plugtree watch' prints tree diffs instead of full trees

# SQLite state store (used with the state-db flag)
# state:
#   path: ~/.config/plugtree/state.db

# Tracing of load, resolve and build operations
# tracing:
#   enabled: false                 # default: false
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/plugtree/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # for the otlp exporter
#   sample_rate: 1.0               # 0.0-1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
