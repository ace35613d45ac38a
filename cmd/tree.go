package cmd

import (
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/plugtree/internal/presentation"
)

var (
	treeJSON  bool
	treePlain bool
)

var treeCmd = &cobra.Command{
	Use:   "tree [PATH]",
	Short: "Show the extension tree",
	Long: `Show the extension tree below PATH (default: the root). Items are
listed in build order with their builder and owning plugin.

Paths are case-insensitive.

Examples:
  plugtree tree
  plugtree tree /home/menu
  plugtree tree /Views --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		return withApp(cmd.Context(), func(a *application) error {
			snap, err := a.service.Tree().Snapshot(path)
			if err != nil {
				return err
			}
			if treeJSON {
				return presentation.NewFormatter(cmd.OutOrStdout()).FormatNode(presentation.FromSnapshot(snap))
			}
			out := cmd.OutOrStdout()
			plain := treePlain || termenv.NewOutput(out).Profile == termenv.Ascii
			_, err = fmt.Fprintln(out, presentation.RenderTree(snap, plain))
			return err
		})
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Print the subtree as JSON")
	treeCmd.Flags().BoolVar(&treePlain, "plain", false, "Print without styling (implied when not writing to a terminal)")
	rootCmd.AddCommand(treeCmd)
}
