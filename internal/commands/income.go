package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/incomes"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/report"
)

func newIncomeCommand(root *rootOptions) *cobra.Command {
	incomeCmd := &cobra.Command{
		Use:   "income",
		Short: "Manage incomes",
	}
	incomeCmd.AddCommand(
		newIncomeAddCommand(root),
		newIncomeListCommand(root),
		newIncomeDeleteCommand(root),
	)
	return incomeCmd
}

func newIncomeAddCommand(root *rootOptions) *cobra.Command {
	var (
		account string
		date    string
	)

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record an income credited to --account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				acct, err := s.ledger.Find(cmd.Context(), account)
				if err != nil {
					return err
				}
				inc, err := s.incomes.Create(cmd.Context(), incomes.Input{
					Description: args[0],
					Amount:      amount,
					AccountID:   acct.ID,
					Date:        when,
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Income %s: %s to %s (%s)\n",
					inc.Description, report.Format(inc.Amount, s.cfg.Currency.Home), acct.Name, id.Short(inc.ID))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account credited")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (defaults to today)")
	return cmd
}

func newIncomeListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List incomes, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				all, err := s.incomes.List(cmd.Context())
				if err != nil {
					return err
				}
				names, err := accountNames(cmd, s)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tFECHA\tDESCRIPCIÓN\tCUENTA\tMONTO")
				for _, inc := range all {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id.Short(inc.ID), formatDate(inc.Date),
						inc.Description, names.of(inc.AccountID), report.Format(inc.Amount, s.cfg.Currency.Home))
				}
				return tw.Flush()
			})
		},
	}
}

func newIncomeDeleteCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <income>",
		Short: "Delete an income and debit it back from its account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				all, err := s.incomes.List(cmd.Context())
				if err != nil {
					return err
				}
				inc, err := resolveRef(args[0], all,
					func(i model.Income) string { return i.ID },
					func(i model.Income) string { return i.Description })
				if err != nil {
					return fmt.Errorf("income %q: %w", args[0], model.ErrIncomeNotFound)
				}
				if err := s.incomes.Delete(cmd.Context(), inc.ID); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted income %s (%s)\n", inc.Description, id.Short(inc.ID))
				return err
			})
		},
	}
}

// nameIndex maps account IDs to names for display. Deleted accounts show
// their short ID.
type nameIndex map[string]string

func (n nameIndex) of(accountID string) string {
	if accountID == "" {
		return "-"
	}
	if name, ok := n[accountID]; ok {
		return name
	}
	return id.Short(accountID)
}

func accountNames(cmd *cobra.Command, s *session) (nameIndex, error) {
	accts, err := s.ledger.All(cmd.Context())
	if err != nil {
		return nil, err
	}
	names := make(nameIndex, len(accts))
	for _, a := range accts {
		names[a.ID] = a.Name
	}
	return names, nil
}
