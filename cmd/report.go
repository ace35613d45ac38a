package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/plugtree/internal/presentation"
)

var reportRaw bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Explain which plugins are disabled and why",
	Long: `Print a report of the last resolution: every plugin with its state and
one line per disabled plugin explaining why.

The report is markdown rendered for the terminal; --raw prints the markdown.
Style and width come from the report section of the config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *application) error {
			md := presentation.ReportMarkdown(a.service.Plugins(), a.service.Diagnostics(), a.service.LastRun())
			if reportRaw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			out, err := presentation.RenderMarkdown(md, cfg.Report.Style, cfg.Report.WordWrap)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		})
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "Print markdown without rendering")
	rootCmd.AddCommand(reportCmd)
}
