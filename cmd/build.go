package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/plugtree/internal/presentation"
)

var (
	buildID        string
	buildComposite bool
	buildCaller    string
)

var buildCmd = &cobra.Command{
	Use:   "build PATH",
	Short: "Build the items at a tree path",
	Long: `Build items of the extension tree and print the results as JSON.

Without flags every item at PATH is built in order. Items whose builder
returns nothing are skipped.

Examples:
  # Every item of the menu
  plugtree build /Home/Menu

  # A single item
  plugtree build /Home/Menu --id music

  # Parent items first, then the last segment as a child id
  plugtree build /Views/Main/sidebar --composite --caller shell`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *application) error {
			ctx := cmd.Context()
			var results []any
			switch {
			case buildComposite:
				var caller any
				if buildCaller != "" {
					caller = buildCaller
				}
				v, err := a.service.BuildComposite(ctx, args[0], caller)
				if err != nil {
					return err
				}
				results = appendBuilt(results, v)
			case buildID != "":
				v, err := a.service.BuildItem(ctx, args[0], buildID, true)
				if err != nil {
					return err
				}
				results = appendBuilt(results, v)
			default:
				items, err := a.service.BuildItems(ctx, args[0], true)
				if err != nil {
					return err
				}
				results = items
			}
			return presentation.NewFormatter(cmd.OutOrStdout()).FormatResult(presentation.FromBuilt(results))
		})
	},
}

func appendBuilt(results []any, v any) []any {
	if v == nil {
		return results
	}
	return append(results, v)
}

func init() {
	buildCmd.Flags().StringVar(&buildID, "id", "", "Build only the item with this id")
	buildCmd.Flags().BoolVar(&buildComposite, "composite", false, "Treat the last path segment as a child item id")
	buildCmd.Flags().StringVar(&buildCaller, "caller", "", "Caller name passed to builders with --composite")
	buildCmd.MarkFlagsMutuallyExclusive("id", "composite")
	rootCmd.AddCommand(buildCmd)
}
