package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/accounts"
	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/report"
)

func newAccountCommand(root *rootOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	accountCmd.AddCommand(
		newAccountListCommand(root),
		newAccountAddCommand(root),
		newAccountRenameCommand(root),
		newAccountDeleteCommand(root),
		newAccountTransferCommand(root),
		newAccountExportCommand(root),
		newAccountImportCommand(root),
	)
	return accountCmd
}

func newAccountListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				accts, err := s.ledger.All(cmd.Context())
				if err != nil {
					return err
				}
				printAccounts(cmd.OutOrStdout(), accts, s.cfg.Currency.Home)
				return nil
			})
		},
	}
}

func newAccountAddCommand(root *rootOptions) *cobra.Command {
	var balance, kind string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account, optionally with an opening balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opening, err := parseAmount(balance)
			if err != nil {
				return err
			}
			k, err := model.ParseAccountKind(kind)
			if err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				created, err := s.ledger.Import(cmd.Context(), []model.Account{{Name: args[0], Kind: k, Balance: opening}})
				if err != nil {
					return err
				}
				printAccounts(cmd.OutOrStdout(), created, s.cfg.Currency.Home)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")
	cmd.Flags().StringVar(&kind, "kind", "", "payment method: efectivo, debito or credito")
	return cmd
}

func newAccountRenameCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <account> <new-name>",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				acct, err := s.ledger.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renamed, err := s.incomes.RenameAccount(cmd.Context(), acct.ID, args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", acct.Name, renamed.Name)
				return err
			})
		},
	}
}

func newAccountDeleteCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account (records referencing it are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				acct, err := s.ledger.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := s.ledger.Delete(cmd.Context(), acct.ID); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", acct.Name)
				return err
			})
		},
	}
}

func newAccountTransferCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				from, err := s.ledger.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				to, err := s.ledger.Find(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				t, err := s.incomes.Transfer(cmd.Context(), from.ID, to.ID, amount)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Transferred %s from %s to %s (%s)\n",
					report.Format(t.Amount, s.cfg.Currency.Home), from.Name, to.Name, id.Short(t.ID))
				return err
			})
		},
	}
}

func newAccountExportCommand(root *rootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				accts, err := s.ledger.All(cmd.Context())
				if err != nil {
					return err
				}
				return writeTo(cmd, outPath, func(w io.Writer) error {
					return accounts.WriteAccounts(w, accts)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

func newAccountImportCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create accounts from a CSV with opening balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			rows, err := accounts.ReadAccounts(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			return withSession(root, func(s *session) error {
				created, err := s.ledger.Import(cmd.Context(), rows)
				if err != nil {
					return err
				}
				printAccounts(cmd.OutOrStdout(), created, s.cfg.Currency.Home)
				return nil
			})
		},
	}
}

func printAccounts(w io.Writer, accts []model.Account, currency string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCUENTA\tSALDO\tTIPO")
	for _, a := range accts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id.Short(a.ID), a.Name, report.Format(a.Balance, currency), a.Kind)
	}
	tw.Flush()
}

// writeTo runs write against the file at path, or the command's stdout when
// path is empty.
func writeTo(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}
