package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/plugtree/internal/config"
	"github.com/zjrosen/plugtree/internal/presentation"
	"github.com/zjrosen/plugtree/internal/templates"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file and sample plugins",
	Long: `Create the config file if it does not exist and write the sample plugins
into the first plugin directory. Existing plugins are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			if err := config.WriteDefaultConfig(configPath); err != nil {
				return err
			}
		}

		dirs := cfg.ResolvePluginDirs(filepath.Dir(configPath))
		if len(dirs) == 0 {
			return fmt.Errorf("no plugin directory configured")
		}
		written, err := templates.WriteSamplePlugins(dirs[0])
		if err != nil {
			return err
		}
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatResult(map[string]any{
			"config":     configPath,
			"plugin_dir": dirs[0],
			"written":    written,
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
