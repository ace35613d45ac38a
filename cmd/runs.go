package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/plugtree/internal/flags"
	"github.com/zjrosen/plugtree/internal/presentation"
)

var runsLastCmd = &cobra.Command{
	Use:   "runs:last",
	Short: "Show the last saved resolution run",
	Long: `Show the most recent resolution run saved in the state database,
without loading plugins. Requires the state-db flag.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if !a.flags.Enabled(flags.FlagStateDB) {
			return fmt.Errorf("runs:last needs the %s flag", flags.FlagStateDB)
		}
		run, err := a.db.StateRepository().LatestRun()
		if err != nil {
			return err
		}
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatResult(presentation.FromDomainRun(run))
	},
}

func init() {
	rootCmd.AddCommand(runsLastCmd)
}
