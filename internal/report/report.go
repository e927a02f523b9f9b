// Package report derives balances and totals from the stored documents.
package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

// AvailableBalance is the sum of all account balances minus what is still
// owed on every expense, fixed or variable.
func AvailableBalance(accounts []model.Account, expenses []model.Expense) decimal.Decimal {
	return TotalBalance(accounts).Sub(Pending(expenses))
}

// TotalBalance sums the account balances.
func TotalBalance(accounts []model.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// Pending sums Amount - AmountPaid over expenses.
func Pending(expenses []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Remaining())
	}
	return total
}

// Summary is a snapshot of the user's position.
type Summary struct {
	Accounts           []model.Account
	TotalBalance       decimal.Decimal
	PendingExpenses    decimal.Decimal
	AvailableBalance   decimal.Decimal
	ExpensesTotal      decimal.Decimal
	IncomesTotal       decimal.Decimal
	USD                decimal.Decimal
	CreditsOutstanding decimal.Decimal
	ActiveCredits      int
}

// Build loads everything from repo and computes a Summary.
func Build(ctx context.Context, repo *store.Repository) (Summary, error) {
	accts, err := repo.LoadAccounts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("loading accounts: %w", err)
	}
	expenses, err := repo.LoadExpenses(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("loading expenses: %w", err)
	}
	incomes, err := repo.LoadIncomes(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("loading incomes: %w", err)
	}
	credits, err := repo.LoadCredits(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("loading credits: %w", err)
	}
	usd, err := repo.LoadDollarBalance(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("loading USD balance: %w", err)
	}

	s := Summary{
		Accounts:           accts,
		TotalBalance:       TotalBalance(accts),
		PendingExpenses:    Pending(expenses),
		AvailableBalance:   AvailableBalance(accts, expenses),
		ExpensesTotal:      decimal.Zero,
		IncomesTotal:       decimal.Zero,
		USD:                usd.Amount,
		CreditsOutstanding: decimal.Zero,
	}
	for _, e := range expenses {
		s.ExpensesTotal = s.ExpensesTotal.Add(e.Amount)
	}
	for _, i := range incomes {
		s.IncomesTotal = s.IncomesTotal.Add(i.Amount)
	}
	for _, c := range credits {
		if c.Status != model.CreditActive {
			continue
		}
		s.ActiveCredits++
		s.CreditsOutstanding = s.CreditsOutstanding.Add(c.Outstanding())
	}
	return s, nil
}

// Write renders the summary as an aligned table.
func Write(w io.Writer, s Summary, home, foreign string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	line := func(label string, amount decimal.Decimal, currency string) {
		fmt.Fprintf(tw, "%s\t%s\t\n", label, Format(amount, currency))
	}
	for _, a := range s.Accounts {
		line(a.Name, a.Balance, home)
	}
	fmt.Fprintln(tw, "\t\t")
	line("Saldo total", s.TotalBalance, home)
	line("Gastos pendientes", s.PendingExpenses, home)
	line("Saldo disponible", s.AvailableBalance, home)
	line("Ingresos", s.IncomesTotal, home)
	line("Gastos", s.ExpensesTotal, home)
	line("Dólares", s.USD, foreign)
	line(fmt.Sprintf("Créditos activos (%d)", s.ActiveCredits), s.CreditsOutstanding, home)
	return tw.Flush()
}
