package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, []string{"plugins"}, cfg.PluginDirs)
	require.Empty(t, cfg.DisabledPlugins)
	require.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.Equal(t, "localhost:4317", cfg.Tracing.OTLPEndpoint)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "auto", cfg.Report.Style)
	require.NoError(t, Validate(cfg))
}

func TestValidatePluginDirs(t *testing.T) {
	require.NoError(t, ValidatePluginDirs([]string{"plugins", "/opt/plugtree"}))

	err := ValidatePluginDirs(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one")

	err = ValidatePluginDirs([]string{"plugins", "  "})
	require.Error(t, err)
	require.Contains(t, err.Error(), "plugin_dirs[1]")
}

func TestValidateDisabledPlugins(t *testing.T) {
	require.NoError(t, ValidateDisabledPlugins(nil))
	require.NoError(t, ValidateDisabledPlugins([]string{"theme"}))

	err := ValidateDisabledPlugins([]string{"theme", ""})
	require.Error(t, err)
	require.Contains(t, err.Error(), "disabled_plugins[1]")
}

func TestValidateWatchAndCache(t *testing.T) {
	require.NoError(t, ValidateWatch(WatchConfig{}))
	require.Error(t, ValidateWatch(WatchConfig{Debounce: -time.Second}))

	require.NoError(t, ValidateCache(CacheConfig{Enabled: true}))
	require.Error(t, ValidateCache(CacheConfig{TTL: -time.Minute}))
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr string
	}{
		{name: "empty uses defaults", cfg: TracingConfig{}},
		{name: "file exporter", cfg: TracingConfig{Enabled: true, Exporter: "file", SampleRate: 0.5}},
		{name: "sample rate too high", cfg: TracingConfig{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "sample rate negative", cfg: TracingConfig{SampleRate: -0.1}, wantErr: "sample_rate"},
		{name: "unknown exporter", cfg: TracingConfig{Exporter: "jaeger"}, wantErr: "tracing.exporter"},
		{name: "otlp without endpoint", cfg: TracingConfig{Enabled: true, Exporter: "otlp"}, wantErr: "otlp_endpoint"},
		{name: "otlp disabled without endpoint", cfg: TracingConfig{Exporter: "otlp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLog(t *testing.T) {
	require.NoError(t, ValidateLog(LogConfig{Level: "warn"}))
	err := ValidateLog(LogConfig{Level: "loud"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "log.level")
}

func TestValidateReport(t *testing.T) {
	require.NoError(t, ValidateReport(ReportConfig{}))
	require.NoError(t, ValidateReport(ReportConfig{Style: "notty", WordWrap: 80}))
	require.Error(t, ValidateReport(ReportConfig{Style: "neon"}))
	require.Error(t, ValidateReport(ReportConfig{WordWrap: -1}))
}

func TestValidate_JoinsSectionErrors(t *testing.T) {
	cfg := Defaults()
	cfg.PluginDirs = nil
	cfg.Tracing.SampleRate = 2

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "plugin_dirs")
	require.Contains(t, err.Error(), "sample_rate")
}

func TestResolvePluginDirs(t *testing.T) {
	cfg := Config{PluginDirs: []string{"plugins", "./plugins", "/opt/plugtree", " extra "}}

	dirs := cfg.ResolvePluginDirs("/home/me/project")

	require.Equal(t, []string{
		"/home/me/project/plugins",
		"/opt/plugtree",
		"/home/me/project/extra",
	}, dirs)
}

func TestResolvePluginDirs_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := Config{PluginDirs: []string{"~/plugtree"}}

	require.Equal(t, []string{filepath.Join(home, "plugtree")}, cfg.ResolvePluginDirs("/base"))
}

func TestDefaultConfigTemplate_Unmarshals(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))

	require.Equal(t, []string{"plugins"}, cfg.PluginDirs)
	require.Empty(t, cfg.DisabledPlugins)
	require.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.Equal(t, 100, cfg.Report.WordWrap)
	require.NoError(t, Validate(cfg))
}

func TestViperUnmarshal_FlagsAndTracing(t *testing.T) {
	yamlContent := `
plugin_dirs: [a, b]
disabled_plugins: [theme]
flags:
  state-db: true
  watch-diff: false
tracing:
  enabled: true
  exporter: stdout
  sample_rate: 0.25
`
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yamlContent)))

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))

	require.Equal(t, []string{"a", "b"}, cfg.PluginDirs)
	require.Equal(t, []string{"theme"}, cfg.DisabledPlugins)
	require.True(t, cfg.Flags["state-db"])
	require.False(t, cfg.Flags["watch-diff"])
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, "stdout", cfg.Tracing.Exporter)
	require.Equal(t, 0.25, cfg.Tracing.SampleRate)
	// Keys absent from the file keep their defaults.
	require.Equal(t, "localhost:4317", cfg.Tracing.OTLPEndpoint)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".plugtree.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
