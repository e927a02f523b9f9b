// Package incomes records deposits into accounts and moves money between
// them.
package incomes

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
	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/logger"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

// Input describes a new income.
type Input struct {
	Description string
	Amount      decimal.Decimal
	AccountID   string
	Date        time.Time // defaults to now
}

// Service records incomes against the ledger.
type Service struct {
	repo   *store.Repository
	ledger *accounts.Service
	log    zerolog.Logger
}

// NewService creates an income Service.
func NewService(repo *store.Repository, ledger *accounts.Service) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		log:    logger.WithUserID(logger.WithComponent("incomes"), repo.UserID()),
	}
}

// Create credits the target account and stores the income.
func (s *Service) Create(ctx context.Context, in Input) (model.Income, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return model.Income{}, fmt.Errorf("income description is required")
	}
	if !in.Amount.IsPositive() {
		return model.Income{}, fmt.Errorf("income amount %s: %w", in.Amount, model.ErrInvalidAmount)
	}

	var inc model.Income
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		if err := b.Credit(in.AccountID, in.Amount); err != nil {
			return err
		}
		date := in.Date
		if date.IsZero() {
			date = b.Now()
		}
		inc = model.Income{
			ID:          id.New(),
			Description: in.Description,
			Amount:      in.Amount,
			Date:        date,
			AccountID:   in.AccountID,
			CreatedAt:   b.Now(),
		}
		b.Add(store.Create(&inc))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("account", in.AccountID).Msg("income rejected")
		return model.Income{}, fmt.Errorf("creating income %q: %w", in.Description, err)
	}
	s.log.Info().Str("income", inc.ID).Str("amount", inc.Amount.StringFixed(2)).Msg("income created")
	return inc, nil
}

// Delete debits the income back out of its account and removes it. If the
// account is gone or no longer holds the amount, nothing changes and a
// ReconciliationError is returned.
func (s *Service) Delete(ctx context.Context, incomeID string) error {
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		inc, err := s.repo.GetIncome(ctx, incomeID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("income %s: %w", incomeID, model.ErrIncomeNotFound)
		}
		if err != nil {
			return err
		}
		if err := b.Debit(inc.AccountID, inc.Amount); err != nil {
			return model.NewReconciliationError("delete income", inc.ID, inc.AccountID, err)
		}
		b.Add(store.Delete(&inc))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("income", incomeID).Msg("delete rejected")
		return fmt.Errorf("deleting income %s: %w", incomeID, err)
	}
	s.log.Info().Str("income", incomeID).Msg("income deleted")
	return nil
}

// Transfer moves money between two accounts.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (model.Transfer, error) {
	return s.ledger.Transfer(ctx, fromID, toID, amount)
}

// CreateAccount opens an account with a zero balance.
func (s *Service) CreateAccount(ctx context.Context, name string) (model.Account, error) {
	return s.ledger.Create(ctx, name)
}

// RenameAccount changes an account's name.
func (s *Service) RenameAccount(ctx context.Context, accountID, name string) (model.Account, error) {
	return s.ledger.Rename(ctx, accountID, name)
}

// List returns every income, most recent first.
func (s *Service) List(ctx context.Context) ([]model.Income, error) {
	all, err := s.repo.LoadIncomes(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	return all, nil
}

// Transfers returns the transfer log, most recent first.
func (s *Service) Transfers(ctx context.Context) ([]model.Transfer, error) {
	all, err := s.repo.LoadTransfers(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}
