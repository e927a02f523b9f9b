// Package expenses manages fixed and variable expenses and their payments.
package expenses

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finanzas-dev/finanzas/internal/accounts"
	"github.com/finanzas-dev/finanzas/internal/categories"
	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/logger"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

// Input describes a new expense.
type Input struct {
	Description string
	Category    string
	Amount      decimal.Decimal
	Fixed       bool

	// AccountID is required for variable expenses, which are paid from it
	// on creation.
	AccountID string

	// Date is the transaction date of a variable expense; it defaults to now.
	Date time.Time

	// DueDate is required for fixed expenses.
	DueDate time.Time
}

// PaymentInput registers a payment against a fixed expense.
type PaymentInput struct {
	ExpenseID string
	Amount    decimal.Decimal
	AccountID string
	Date      time.Time // defaults to now
}

// Service creates, pays and deletes expenses through the ledger.
type Service struct {
	repo   *store.Repository
	ledger *accounts.Service
	log    zerolog.Logger
}

// NewService creates an expense Service.
func NewService(repo *store.Repository, ledger *accounts.Service) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		log:    logger.WithUserID(logger.WithComponent("expenses"), repo.UserID()),
	}
}

// Create records an expense. A variable expense debits its account and is
// stored as paid in the same grouped write; if the debit fails nothing is
// stored. A fixed expense is stored pending with no ledger effect.
func (s *Service) Create(ctx context.Context, in Input) (model.Expense, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return model.Expense{}, fmt.Errorf("expense description is required")
	}
	if !in.Amount.IsPositive() {
		return model.Expense{}, fmt.Errorf("expense amount %s: %w", in.Amount, model.ErrInvalidAmount)
	}
	if in.Fixed && in.DueDate.IsZero() {
		return model.Expense{}, fmt.Errorf("fixed expense %q: due date is required", in.Description)
	}
	if !in.Fixed && in.AccountID == "" {
		return model.Expense{}, fmt.Errorf("variable expense %q: account is required", in.Description)
	}
	category, err := s.category(ctx, in.Category)
	if err != nil {
		return model.Expense{}, fmt.Errorf("expense %q: %w", in.Description, err)
	}

	var e model.Expense
	err = s.ledger.Run(ctx, func(b *accounts.Batch) error {
		e = model.Expense{
			ID:          id.New(),
			Description: in.Description,
			Category:    category,
			Amount:      in.Amount,
			CreatedAt:   b.Now(),
			Fixed:       in.Fixed,
			Status:      model.StatusPending,
			AmountPaid:  decimal.Zero,
		}
		if in.Fixed {
			e.DueDate = in.DueDate
			e.AccountID = in.AccountID
			b.Add(store.Create(&e))
			return nil
		}

		if err := b.Debit(in.AccountID, in.Amount); err != nil {
			return err
		}
		date := in.Date
		if date.IsZero() {
			date = b.Now()
		}
		e.Date = date
		e.AccountID = in.AccountID
		e.AmountPaid = in.Amount
		e.Status = model.StatusPaid
		e.Payments = []model.ExpensePayment{{
			ID:        id.New(),
			Date:      date,
			Amount:    in.Amount,
			AccountID: in.AccountID,
		}}
		b.Add(store.Create(&e))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("description", in.Description).Msg("expense rejected")
		return model.Expense{}, fmt.Errorf("creating expense %q: %w", in.Description, err)
	}
	s.log.Info().
		Str("expense", e.ID).
		Bool("fixed", e.Fixed).
		Str("amount", e.Amount.StringFixed(2)).
		Msg("expense created")
	return e, nil
}

// category returns the stored spelling of the named category. An empty
// name leaves the expense uncategorized.
func (s *Service) category(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	all, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return "", err
	}
	c, ok := categories.Match(all, name)
	if !ok {
		return "", fmt.Errorf("category %q: %w", strings.TrimSpace(name), model.ErrCategoryNotFound)
	}
	return c.Name, nil
}

// RegisterPayment pays part or all of what is still owed on an expense from
// an account.
func (s *Service) RegisterPayment(ctx context.Context, in PaymentInput) (model.Expense, error) {
	if !in.Amount.IsPositive() {
		return model.Expense{}, fmt.Errorf("payment amount %s: %w", in.Amount, model.ErrInvalidAmount)
	}
	if in.AccountID == "" {
		return model.Expense{}, fmt.Errorf("payment account is required")
	}

	var e model.Expense
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		var err error
		e, err = s.load(ctx, in.ExpenseID)
		if err != nil {
			return err
		}
		if remaining := e.Remaining(); in.Amount.GreaterThan(remaining) {
			return fmt.Errorf("payment of %s exceeds remaining %s: %w",
				in.Amount.StringFixed(2), remaining.StringFixed(2), model.ErrInvalidAmount)
		}
		if err := b.Debit(in.AccountID, in.Amount); err != nil {
			return err
		}

		date := in.Date
		if date.IsZero() {
			date = b.Now()
		}
		e.AmountPaid = e.AmountPaid.Add(in.Amount)
		e.Status = model.StatusFor(e.Amount, e.AmountPaid)
		e.Payments = append(e.Payments, model.ExpensePayment{
			ID:        id.New(),
			Date:      date,
			Amount:    in.Amount,
			AccountID: in.AccountID,
		})
		if e.AccountID == "" {
			e.AccountID = in.AccountID
		}
		b.Add(store.Update(&e))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("expense", in.ExpenseID).Msg("payment rejected")
		return model.Expense{}, fmt.Errorf("registering payment on expense %s: %w", in.ExpenseID, err)
	}
	s.log.Info().
		Str("expense", e.ID).
		Str("amount", in.Amount.StringFixed(2)).
		Str("status", string(e.Status)).
		Msg("expense payment registered")
	return e, nil
}

// Delete removes an expense and credits what was paid on it back to the
// accounts it came from. A missing account fails the whole operation with
// a ReconciliationError.
func (s *Service) Delete(ctx context.Context, expenseID string) error {
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		e, err := s.load(ctx, expenseID)
		if err != nil {
			return err
		}
		for _, r := range reversals(e) {
			if err := b.Credit(r.accountID, r.amount); err != nil {
				return model.NewReconciliationError("delete expense", e.ID, r.accountID, err)
			}
		}
		b.Add(store.Delete(&e))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("expense", expenseID).Msg("delete rejected")
		return fmt.Errorf("deleting expense %s: %w", expenseID, err)
	}
	s.log.Info().Str("expense", expenseID).Msg("expense deleted")
	return nil
}

// DeleteAll removes every expense. The amounts paid on variable expenses are
// summed per account and credited back once per account, in the same
// grouped write as the deletions.
func (s *Service) DeleteAll(ctx context.Context) (int, error) {
	var n int
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		all, err := s.repo.LoadExpenses(ctx)
		if err != nil {
			return err
		}

		totals := make(map[string]decimal.Decimal)
		var order []string
		for _, e := range all {
			if e.Fixed || !e.AmountPaid.IsPositive() {
				continue
			}
			if _, ok := totals[e.AccountID]; !ok {
				order = append(order, e.AccountID)
				totals[e.AccountID] = decimal.Zero
			}
			totals[e.AccountID] = totals[e.AccountID].Add(e.AmountPaid)
		}
		for _, accountID := range order {
			if err := b.Credit(accountID, totals[accountID]); err != nil {
				return model.NewReconciliationError("delete all expenses", "*", accountID, err)
			}
		}

		for i := range all {
			b.Add(store.Delete(&all[i]))
		}
		n = len(all)
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("delete all rejected")
		return 0, fmt.Errorf("deleting all expenses: %w", err)
	}
	s.log.Info().Int("count", n).Msg("all expenses deleted")
	return n, nil
}

// Get returns one expense.
func (s *Service) Get(ctx context.Context, expenseID string) (model.Expense, error) {
	return s.load(ctx, expenseID)
}

// List returns every expense, most recent first.
func (s *Service) List(ctx context.Context) ([]model.Expense, error) {
	all, err := s.repo.LoadExpenses(ctx)
	if err != nil {
		return nil, err
	}
	SortByDate(all)
	return all, nil
}

// SortByDate orders expenses by effective date, most recent first.
func SortByDate(all []model.Expense) {
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].EffectiveDate().After(all[j].EffectiveDate())
	})
}

func (s *Service) load(ctx context.Context, expenseID string) (model.Expense, error) {
	e, err := s.repo.GetExpense(ctx, expenseID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Expense{}, fmt.Errorf("expense %s: %w", expenseID, model.ErrExpenseNotFound)
	}
	return e, err
}

type reversal struct {
	accountID string
	amount    decimal.Decimal
}

// reversals groups what was paid on e by the account it was paid from.
func reversals(e model.Expense) []reversal {
	if !e.AmountPaid.IsPositive() {
		return nil
	}
	if len(e.Payments) == 0 {
		return []reversal{{accountID: e.AccountID, amount: e.AmountPaid}}
	}
	var out []reversal
	idx := make(map[string]int)
	for _, p := range e.Payments {
		i, ok := idx[p.AccountID]
		if !ok {
			idx[p.AccountID] = len(out)
			out = append(out, reversal{accountID: p.AccountID, amount: p.Amount})
			continue
		}
		out[i].amount = out[i].amount.Add(p.Amount)
	}
	return out
}
