package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/presentation"
)

var listState string

var pluginsListCmd = &cobra.Command{
	Use:   "plugins:list",
	Short: "List plugins and their state",
	Long: `List every discovered plugin as JSON, in load order.

Disabled plugins carry the reason they were disabled.

Examples:
  # List all plugins
  plugtree plugins:list

  # Only disabled plugins
  plugtree plugins:list --state disabled

  # Names of enabled plugins
  plugtree plugins:list --state enabled | jq -r '.[].name'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *application) error {
			var descs []*plugin.Descriptor
			for _, d := range a.service.Plugins() {
				if listState == "" || d.State().String() == listState {
					descs = append(descs, d)
				}
			}
			formatter := presentation.NewFormatter(cmd.OutOrStdout())
			return formatter.FormatPlugins(presentation.FromDomainPlugins(descs))
		})
	},
}

var pluginsEnableCmd = &cobra.Command{
	Use:   "plugins:enable NAME",
	Short: "Enable a plugin",
	Long: `Enable a plugin and every plugin that was only waiting for it.

The choice is saved to the config file, or to the state database when the
state-db flag is on. Prints the plugins that became enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *application) error {
			activated, err := a.service.Enable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			formatter := presentation.NewFormatter(cmd.OutOrStdout())
			return formatter.FormatPlugins(presentation.FromDomainPlugins(activated))
		})
	},
}

var pluginsDisableCmd = &cobra.Command{
	Use:   "plugins:disable NAME",
	Short: "Disable a plugin",
	Long: `Disable a plugin. Plugins depending on it are disabled as well and
reported with the reason.

The choice is saved to the config file, or to the state database when the
state-db flag is on.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *application) error {
			cascade, err := a.service.Disable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			dtos := make([]presentation.DiagnosticDTO, 0, len(cascade))
			for _, d := range cascade {
				dtos = append(dtos, presentation.FromDomainDiagnostic(d))
			}
			return presentation.NewFormatter(cmd.OutOrStdout()).FormatResult(map[string]any{
				"disabled": args[0],
				"cascade":  dtos,
			})
		})
	},
}

func init() {
	pluginsListCmd.Flags().StringVarP(&listState, "state", "s", "", "Filter by state (enabled or disabled)")
	rootCmd.AddCommand(pluginsListCmd, pluginsEnableCmd, pluginsDisableCmd)
}
