// Package credits creates installment credits and applies prepayments to
// selected installments.
package credits

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
	"github.com/finanzas-dev/finanzas/internal/amortization"
	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/logger"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

// DefaultTolerance is the largest accepted difference between a prepayment
// amount and the sum of the installments it settles.
var DefaultTolerance = decimal.RequireFromString("0.01")

// Input describes a credit to simulate or take.
type Input struct {
	Entity      string
	Principal   decimal.Decimal
	AnnualRate  decimal.Decimal // nominal, in percent
	Months      int
	System      model.AmortizationSystem
	Status      model.CreditStatus
	RequestDate time.Time // required for active credits
}

// PrepaymentInput settles the selected installments of an active credit.
type PrepaymentInput struct {
	CreditID     string
	Amount       decimal.Decimal
	Installments []int
	Date         time.Time // defaults to now

	// AccountID, when set, is debited by Amount in the same grouped write.
	// When empty the ledger is not touched.
	AccountID string
}

// Service manages credits.
type Service struct {
	repo      *store.Repository
	ledger    *accounts.Service
	tolerance decimal.Decimal
	log       zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTolerance overrides DefaultTolerance.
func WithTolerance(tol decimal.Decimal) Option {
	return func(s *Service) { s.tolerance = tol }
}

// NewService creates a credit Service.
func NewService(repo *store.Repository, ledger *accounts.Service, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		ledger:    ledger,
		tolerance: DefaultTolerance,
		log:       logger.WithUserID(logger.WithComponent("credits"), repo.UserID()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate builds a credit and its schedule without storing it.
func (s *Service) Simulate(in Input) (model.Credit, error) {
	if in.Status == "" {
		in.Status = model.CreditSimulation
	}
	return s.build(in)
}

// Create builds a credit and stores it. Simulations are stored too so they
// can be listed; they have no ledger effect.
func (s *Service) Create(ctx context.Context, in Input) (model.Credit, error) {
	c, err := s.build(in)
	if err != nil {
		return model.Credit{}, err
	}
	if err := s.repo.WriteGrouped(ctx, []store.Op{store.Create(&c)}); err != nil {
		return model.Credit{}, fmt.Errorf("storing credit: %w", err)
	}
	s.log.Info().
		Str("credit", c.ID).
		Str("status", string(c.Status)).
		Str("system", string(c.System)).
		Str("principal", c.Principal.StringFixed(2)).
		Int("months", c.Months).
		Msg("credit created")
	return c, nil
}

func (s *Service) build(in Input) (model.Credit, error) {
	in.Entity = strings.TrimSpace(in.Entity)
	switch {
	case in.Entity == "":
		return model.Credit{}, fmt.Errorf("credit entity is required")
	case !in.Principal.IsPositive():
		return model.Credit{}, fmt.Errorf("credit principal %s: %w", in.Principal, model.ErrInvalidAmount)
	case in.Months < 1:
		return model.Credit{}, fmt.Errorf("credit term of %d months: must be at least 1", in.Months)
	case in.AnnualRate.IsNegative():
		return model.Credit{}, fmt.Errorf("credit rate %s: must not be negative", in.AnnualRate)
	}
	if in.System == "" {
		in.System = model.SystemFrench
	}
	if in.Status == "" {
		in.Status = model.CreditActive
	}

	now := s.ledger.Now()
	start := now
	switch in.Status {
	case model.CreditActive:
		if in.RequestDate.IsZero() {
			return model.Credit{}, fmt.Errorf("active credit: request date is required")
		}
		start = in.RequestDate
	case model.CreditSimulation:
	default:
		return model.Credit{}, fmt.Errorf("unknown credit status %q", in.Status)
	}

	sched := amortization.Schedule(in.System, in.Principal, in.AnnualRate, in.Months, start)
	last := sched[len(sched)-1]
	c := model.Credit{
		ID:                  id.New(),
		Principal:           in.Principal,
		Entity:              in.Entity,
		AnnualRate:          in.AnnualRate,
		Months:              in.Months,
		System:              in.System,
		Status:              in.Status,
		Installments:        sched,
		RemainingBalance:    last.Balance,
		LastInstallmentDate: last.DueDate,
		RequestDate:         in.RequestDate,
		Prepayments:         []model.Prepayment{},
		CreatedAt:           now,
	}
	if err := c.Validate(); err != nil {
		return model.Credit{}, err
	}
	return c, nil
}

// ApplyPrepayment marks the selected installments paid and lowers the
// remaining balance by their total.
func (s *Service) ApplyPrepayment(ctx context.Context, in PrepaymentInput) (model.Credit, error) {
	var c model.Credit
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		var err error
		c, err = s.load(ctx, in.CreditID)
		if err != nil {
			return err
		}
		if c.Status != model.CreditActive {
			return fmt.Errorf("credit %s is a %s: %w", c.ID, c.Status, model.ErrCreditNotActive)
		}
		expected, err := selected(&c, in.Installments)
		if err != nil {
			return err
		}
		if in.Amount.Sub(expected).Abs().GreaterThan(s.tolerance) {
			return fmt.Errorf("amount %s, installments total %s: %w",
				in.Amount.StringFixed(2), expected.StringFixed(2), model.ErrAmountMismatch)
		}
		if in.AccountID != "" {
			if err := b.Debit(in.AccountID, in.Amount); err != nil {
				return err
			}
		}

		for _, n := range in.Installments {
			inst, _ := c.Installment(n)
			inst.Paid = true
		}
		date := in.Date
		if date.IsZero() {
			date = b.Now()
		}
		c.RemainingBalance = c.RemainingBalance.Sub(expected)
		c.Prepayments = append(c.Prepayments, model.Prepayment{
			ID:           id.New(),
			Date:         date,
			Amount:       in.Amount,
			Installments: append([]int(nil), in.Installments...),
			AccountID:    in.AccountID,
		})
		b.Add(store.Update(&c))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("credit", in.CreditID).Msg("prepayment rejected")
		return model.Credit{}, fmt.Errorf("prepaying credit %s: %w", in.CreditID, err)
	}
	s.log.Info().
		Str("credit", c.ID).
		Ints("installments", in.Installments).
		Str("amount", in.Amount.StringFixed(2)).
		Msg("prepayment applied")
	return c, nil
}

// selected checks that every number names a distinct unpaid installment
// and returns the sum of their payments.
func selected(c *model.Credit, numbers []int) (decimal.Decimal, error) {
	if len(numbers) == 0 {
		return decimal.Zero, fmt.Errorf("no installments selected: %w", model.ErrInvalidInstallments)
	}
	seen := make(map[int]bool, len(numbers))
	total := decimal.Zero
	for _, n := range numbers {
		if seen[n] {
			return decimal.Zero, fmt.Errorf("installment %d selected twice: %w", n, model.ErrInvalidInstallments)
		}
		seen[n] = true
		inst, ok := c.Installment(n)
		if !ok {
			return decimal.Zero, fmt.Errorf("installment %d does not exist: %w", n, model.ErrInvalidInstallments)
		}
		if inst.Paid {
			return decimal.Zero, fmt.Errorf("installment %d is already paid: %w", n, model.ErrInvalidInstallments)
		}
		total = total.Add(inst.Payment)
	}
	return total, nil
}

// Get returns one credit.
func (s *Service) Get(ctx context.Context, creditID string) (model.Credit, error) {
	return s.load(ctx, creditID)
}

// List returns every credit, newest first.
func (s *Service) List(ctx context.Context) ([]model.Credit, error) {
	all, err := s.repo.LoadCredits(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

// Outstanding sums the unpaid installments of every active credit.
func (s *Service) Outstanding(ctx context.Context) (decimal.Decimal, error) {
	all, err := s.repo.LoadCredits(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range all {
		if c.Status == model.CreditActive {
			total = total.Add(c.Outstanding())
		}
	}
	return total, nil
}

func (s *Service) load(ctx context.Context, creditID string) (model.Credit, error) {
	c, err := s.repo.GetCredit(ctx, creditID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Credit{}, fmt.Errorf("credit %s: %w", creditID, model.ErrCreditNotFound)
	}
	return c, err
}
