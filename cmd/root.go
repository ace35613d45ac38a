package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/plugtree/internal/config"
	"github.com/zjrosen/plugtree/internal/log"
)

// defaultConfigPath is where a config file is created when none exists.
const defaultConfigPath = ".plugtree/config.yaml"

var (
	version    = "dev"
	cfgFile    string
	debug      bool
	cfg        config.Config
	configPath string
	closeLog   func()
)

var rootCmd = &cobra.Command{
	Use:   "plugtree",
	Short: "Load plugins and build their extension tree",
	Long: `plugtree loads plugin manifests, resolves their dependencies and
conflicts, and builds the extension tree the enabled plugins contribute to.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(*cobra.Command, []string) {
		if closeLog != nil {
			closeLog()
			closeLog = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .plugtree/config.yaml or ~/.config/plugtree/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"write a debug log (also enabled by PLUGTREE_DEBUG)")
	rootCmd.PersistentFlags().StringSlice("plugin-dir", nil,
		"plugin directory to scan, repeatable (overrides plugin_dirs)")
}

func initConfig() {
	_ = viper.BindPFlag("plugin_dirs", rootCmd.PersistentFlags().Lookup("plugin-dir"))

	defaults := config.Defaults()
	viper.SetDefault("plugin_dirs", defaults.PluginDirs)
	viper.SetDefault("state.path", defaults.State.Path)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("report.style", defaults.Report.Style)
	viper.SetDefault("report.word_wrap", defaults.Report.WordWrap)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .plugtree/config.yaml (current directory)
		// 2. ~/.config/plugtree/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			viper.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "plugtree"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .plugtree/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if writeErr := config.WriteDefaultConfig(defaultConfigPath); writeErr == nil {
				viper.SetConfigFile(defaultConfigPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	cfg = config.Defaults()
	_ = viper.Unmarshal(&cfg)

	configPath = viper.ConfigFileUsed()
	if configPath == "" {
		configPath = defaultConfigPath
	}
	if os.Getenv("PLUGTREE_DEBUG") != "" {
		debug = true
	}
}

// setupLogging validates the configuration and opens the debug log.
func setupLogging(*cobra.Command, []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	if !debug {
		return nil
	}

	cleanup, err := log.Init(cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	closeLog = cleanup
	level, _ := log.ParseLevel(cfg.Log.Level)
	log.SetMinLevel(level)
	log.Info(log.CatConfig, "Config loaded", "path", configPath, "plugin_dirs", cfg.PluginDirs)
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
