package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/amortization"
	"github.com/finanzas-dev/finanzas/internal/credits"
	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/report"
)

func newCreditCommand(root *rootOptions) *cobra.Command {
	creditCmd := &cobra.Command{
		Use:   "credit",
		Short: "Simulate, take and prepay installment credits",
	}
	creditCmd.AddCommand(
		newCreditSimulateCommand(root),
		newCreditAddCommand(root),
		newCreditListCommand(root),
		newCreditShowCommand(root),
		newCreditPrepayCommand(root),
	)
	return creditCmd
}

// creditFlags are the loan terms shared by simulate and add.
type creditFlags struct {
	entity string
	rate   string
	months int
	system string
}

func (f *creditFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rate, "rate", "0", "nominal annual rate in percent")
	cmd.Flags().IntVar(&f.months, "months", 12, "number of monthly installments")
	cmd.Flags().StringVar(&f.system, "system", "french", "amortization system: french, german or fixedRate")
}

func (f *creditFlags) input(principal string) (credits.Input, error) {
	p, err := parseAmount(principal)
	if err != nil {
		return credits.Input{}, err
	}
	rate, err := parseAmount(f.rate)
	if err != nil {
		return credits.Input{}, err
	}
	system, err := amortization.ParseSystem(f.system)
	if err != nil {
		return credits.Input{}, err
	}
	return credits.Input{
		Entity:     f.entity,
		Principal:  p,
		AnnualRate: rate,
		Months:     f.months,
		System:     system,
	}, nil
}

func newCreditSimulateCommand(root *rootOptions) *cobra.Command {
	var (
		flags creditFlags
		save  bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <principal>",
		Short: "Show the schedule of a credit without taking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(args[0])
			if err != nil {
				return err
			}
			in.Status = model.CreditSimulation
			return withSession(root, func(s *session) error {
				var c model.Credit
				if save {
					c, err = s.credits.Create(cmd.Context(), in)
				} else {
					c, err = s.credits.Simulate(in)
				}
				if err != nil {
					return err
				}
				return printCredit(cmd.OutOrStdout(), c, s.cfg.Currency.Home)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.entity, "entity", "Simulación", "lender name")
	cmd.Flags().BoolVar(&save, "save", false, "store the simulation")
	return cmd
}

func newCreditAddCommand(root *rootOptions) *cobra.Command {
	var (
		flags creditFlags
		date  string
	)

	cmd := &cobra.Command{
		Use:   "add <entity> <principal>",
		Short: "Take a credit; installments fall due monthly after --date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.entity = args[0]
			in, err := flags.input(args[1])
			if err != nil {
				return err
			}
			in.Status = model.CreditActive
			if in.RequestDate, err = parseDate(date); err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				if in.RequestDate.IsZero() {
					in.RequestDate = s.ledger.Now()
				}
				c, err := s.credits.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				return printCredit(cmd.OutOrStdout(), c, s.cfg.Currency.Home)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&date, "date", "", "request date YYYY-MM-DD (defaults to today)")
	return cmd
}

func newCreditListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List credits and simulations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				all, err := s.credits.List(cmd.Context())
				if err != nil {
					return err
				}
				home := s.cfg.Currency.Home
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tENTIDAD\tSISTEMA\tESTADO\tCAPITAL\tTNA\tCUOTAS\tPENDIENTE")
				for _, c := range all {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s%%\t%d\t%s\n",
						id.Short(c.ID), c.Entity, c.System, c.Status, report.Format(c.Principal, home),
						c.AnnualRate.String(), c.Months, report.Format(c.Outstanding(), home))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				total, err := s.credits.Outstanding(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Total pendiente (activos): %s\n", report.Format(total, home))
				return err
			})
		},
	}
}

func newCreditShowCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <credit>",
		Short: "Show a credit's schedule and prepayments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				c, err := findCredit(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				return printCredit(cmd.OutOrStdout(), c, s.cfg.Currency.Home)
			})
		},
	}
}

func newCreditPrepayCommand(root *rootOptions) *cobra.Command {
	var (
		account string
		date    string
	)

	cmd := &cobra.Command{
		Use:   "prepay <credit> <amount> <installment>...",
		Short: "Settle selected installments ahead of schedule",
		Long: "Settle selected installments ahead of schedule. The amount must match the\n" +
			"sum of their payments. Installments may be given as separate arguments or\n" +
			"comma-separated. With --account the amount is debited from that account.",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			numbers, err := parseNumbers(args[2:])
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				c, err := findCredit(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				in := credits.PrepaymentInput{
					CreditID:     c.ID,
					Amount:       amount,
					Installments: numbers,
					Date:         when,
				}
				if account != "" {
					acct, err := s.ledger.Find(cmd.Context(), account)
					if err != nil {
						return err
					}
					in.AccountID = acct.ID
				}
				c, err = s.credits.ApplyPrepayment(cmd.Context(), in)
				if err != nil {
					return err
				}
				return printCredit(cmd.OutOrStdout(), c, s.cfg.Currency.Home)
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account to debit (ledger untouched when empty)")
	cmd.Flags().StringVar(&date, "date", "", "prepayment date YYYY-MM-DD (defaults to today)")
	return cmd
}

func findCredit(ctx context.Context, s *session, ref string) (model.Credit, error) {
	all, err := s.credits.List(ctx)
	if err != nil {
		return model.Credit{}, err
	}
	c, err := resolveRef(ref, all,
		func(c model.Credit) string { return c.ID },
		func(c model.Credit) string { return c.Entity })
	if err != nil {
		return model.Credit{}, fmt.Errorf("credit %q: %w", ref, model.ErrCreditNotFound)
	}
	return c, nil
}

func printCredit(w io.Writer, c model.Credit, currency string) error {
	fmt.Fprintf(w, "%s %s (%s, %s) %s a %s%% en %d cuotas\n",
		id.Short(c.ID), c.Entity, c.System, c.Status,
		report.Format(c.Principal, currency), c.AnnualRate.String(), c.Months)

	tw := newTable(w)
	fmt.Fprintln(tw, "N°\tVENCIMIENTO\tCUOTA\tCAPITAL\tINTERÉS\tSALDO\tPAGADA")
	for _, inst := range c.Installments {
		paid := ""
		if inst.Paid {
			paid = "sí"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", inst.Number, formatDate(inst.DueDate),
			report.Format(inst.Payment, currency), report.Format(inst.Principal, currency),
			report.Format(inst.Interest, currency), report.Format(inst.Balance, currency), paid)
	}
	t := amortization.Sum(c.Installments)
	fmt.Fprintf(tw, "\t\t%s\t%s\t%s\t\t\n", report.Format(t.Payment, currency),
		report.Format(t.Principal, currency), report.Format(t.Interest, currency))
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range c.Prepayments {
		fmt.Fprintf(w, "Precancelación %s: %s cuotas %v\n", formatDate(p.Date), report.Format(p.Amount, currency), p.Installments)
	}
	_, err := fmt.Fprintf(w, "Pendiente: %s\n", report.Format(c.Outstanding(), currency))
	return err
}
