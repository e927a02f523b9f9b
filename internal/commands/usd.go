package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/report"
)

func newUSDCommand(root *rootOptions) *cobra.Command {
	usdCmd := &cobra.Command{
		Use:   "usd",
		Short: "Buy, sell and spend foreign currency",
	}
	usdCmd.AddCommand(
		newUSDTradeCommand(root, model.MovementBuy),
		newUSDTradeCommand(root, model.MovementSell),
		newUSDPayCommand(root),
		newUSDHistoryCommand(root),
	)
	return usdCmd
}

func newUSDTradeCommand(root *rootOptions, kind model.MovementKind) *cobra.Command {
	var account string

	use, short := "buy", "Buy dollars, debiting the quoted price from --account"
	if kind == model.MovementSell {
		use, short = "sell", "Sell dollars, crediting the quoted price to --account"
	}

	cmd := &cobra.Command{
		Use:   use + " <usd> <quotation>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			usd, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			quotation, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				acct, err := s.ledger.Find(cmd.Context(), account)
				if err != nil {
					return err
				}
				var m model.DollarMovement
				if kind == model.MovementBuy {
					m, err = s.dollars.Buy(cmd.Context(), usd, quotation, acct.ID)
				} else {
					m, err = s.dollars.Sell(cmd.Context(), usd, quotation, acct.ID)
				}
				if err != nil {
					return err
				}
				return printUSDResult(cmd, s, m)
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "home-currency account")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newUSDPayCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <usd> <description>",
		Short: "Spend dollars from the pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			usd, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				m, err := s.dollars.Pay(cmd.Context(), usd, args[1])
				if err != nil {
					return err
				}
				return printUSDResult(cmd, s, m)
			})
		},
	}
}

func newUSDHistoryCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the dollar balance and its movements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				bal, err := s.dollars.Balance(cmd.Context())
				if err != nil {
					return err
				}
				all, err := s.dollars.Movements(cmd.Context())
				if err != nil {
					return err
				}
				home, foreign := s.cfg.Currency.Home, s.cfg.Currency.Foreign
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "FECHA\tTIPO\tUSD\tCOTIZACIÓN\tPESOS\tDESCRIPCIÓN")
				for _, m := range all {
					quotation, amount := "-", "-"
					if m.Kind != model.MovementPay {
						quotation = report.Format(m.Quotation, home)
						amount = report.Format(m.HomeAmount, home)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", formatDate(m.Date), m.Kind,
						report.Format(m.USDAmount, foreign), quotation, amount, m.Description)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saldo: %s\n", report.Format(bal, foreign))
				return err
			})
		},
	}
}

func printUSDResult(cmd *cobra.Command, s *session, m model.DollarMovement) error {
	bal, err := s.dollars.Balance(cmd.Context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\nSaldo: %s\n", m.Description, report.Format(bal, s.cfg.Currency.Foreign))
	return err
}
