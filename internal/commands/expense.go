package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/expenses"
	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/report"
)

func newExpenseCommand(root *rootOptions) *cobra.Command {
	expenseCmd := &cobra.Command{
		Use:   "expense",
		Short: "Manage fixed and variable expenses",
	}
	expenseCmd.AddCommand(
		newExpenseAddCommand(root),
		newExpenseListCommand(root),
		newExpensePayCommand(root),
		newExpenseDeleteCommand(root),
		newExpenseDeleteAllCommand(root),
		newCategoryCommand(root),
	)
	return expenseCmd
}

func newExpenseAddCommand(root *rootOptions) *cobra.Command {
	var (
		fixed    bool
		account  string
		category string
		date     string
		due      string
	)

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record an expense; variable ones are paid from --account at once",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			in := expenses.Input{
				Description: args[0],
				Category:    category,
				Amount:      amount,
				Fixed:       fixed,
			}
			if in.Date, err = parseDate(date); err != nil {
				return err
			}
			if in.DueDate, err = parseDate(due); err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				if account != "" {
					acct, err := s.ledger.Find(cmd.Context(), account)
					if err != nil {
						return err
					}
					in.AccountID = acct.ID
				}
				e, err := s.expenses.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				printExpenses(cmd.OutOrStdout(), []model.Expense{e}, s.cfg.Currency.Home)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fixed, "fixed", false, "fixed expense, paid later in installments")
	cmd.Flags().StringVar(&account, "account", "", "account to pay from (required for variable expenses)")
	cmd.Flags().StringVar(&category, "category", "", "category name (see expense category list)")
	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (variable, defaults to today)")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD (required for fixed)")
	return cmd
}

func newExpenseListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expenses, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				all, err := s.expenses.List(cmd.Context())
				if err != nil {
					return err
				}
				printExpenses(cmd.OutOrStdout(), all, s.cfg.Currency.Home)
				return nil
			})
		},
	}
}

func newExpensePayCommand(root *rootOptions) *cobra.Command {
	var (
		account string
		date    string
	)

	cmd := &cobra.Command{
		Use:   "pay <expense> <amount>",
		Short: "Register a payment against a fixed expense",
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
				e, err := findExpense(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				acct, err := s.ledger.Find(cmd.Context(), account)
				if err != nil {
					return err
				}
				e, err = s.expenses.RegisterPayment(cmd.Context(), expenses.PaymentInput{
					ExpenseID: e.ID,
					Amount:    amount,
					AccountID: acct.ID,
					Date:      when,
				})
				if err != nil {
					return err
				}
				printExpenses(cmd.OutOrStdout(), []model.Expense{e}, s.cfg.Currency.Home)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account to pay from")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (defaults to today)")
	return cmd
}

func newExpenseDeleteCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <expense>",
		Short: "Delete an expense and return what was paid to its accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				e, err := findExpense(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				if err := s.expenses.Delete(cmd.Context(), e.ID); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %s (%s)\n", e.Description, id.Short(e.ID))
				return err
			})
		},
	}
}

func newExpenseDeleteAllCommand(root *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every expense, reversing variable ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete every expense without --yes")
			}
			return withSession(root, func(s *session) error {
				n, err := s.expenses.DeleteAll(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expenses\n", n)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every expense")
	return cmd
}

func findExpense(ctx context.Context, s *session, ref string) (model.Expense, error) {
	all, err := s.expenses.List(ctx)
	if err != nil {
		return model.Expense{}, err
	}
	e, err := resolveRef(ref, all,
		func(e model.Expense) string { return e.ID },
		func(e model.Expense) string { return e.Description })
	if err != nil {
		return model.Expense{}, fmt.Errorf("expense %q: %w", ref, model.ErrExpenseNotFound)
	}
	return e, nil
}

func printExpenses(w io.Writer, all []model.Expense, currency string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tFECHA\tDESCRIPCIÓN\tCATEGORÍA\tTIPO\tMONTO\tPAGADO\tESTADO")
	for _, e := range all {
		kind := "variable"
		if e.Fixed {
			kind = "fijo"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id.Short(e.ID), formatDate(e.EffectiveDate()), e.Description, e.Category, kind,
			report.Format(e.Amount, currency), report.Format(e.AmountPaid, currency), e.Status)
	}
	tw.Flush()
}
