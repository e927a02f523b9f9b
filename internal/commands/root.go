package commands

import (
	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/buildinfo"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	dir string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "finanzas",
		Short:   "Personal finances: accounts, expenses, incomes, dollars and credits",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "data directory holding finanzas.yaml")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newAccountCommand(opts),
		newExpenseCommand(opts),
		newIncomeCommand(opts),
		newUSDCommand(opts),
		newCreditCommand(opts),
		newSummaryCommand(opts),
		newExportCommand(opts),
	)

	return rootCmd
}
