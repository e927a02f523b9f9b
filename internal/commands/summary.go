package commands

import (
	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/report"
)

func newSummaryCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show balances, pending expenses and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				sum, err := report.Build(cmd.Context(), s.repo)
				if err != nil {
					return err
				}
				return report.Write(cmd.OutOrStdout(), sum, s.cfg.Currency.Home, s.cfg.Currency.Foreign)
			})
		},
	}
}
