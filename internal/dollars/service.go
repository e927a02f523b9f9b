// Package dollars manages the USD pool: buying and selling against home
// currency accounts and paying directly in USD.
package dollars

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finanzas-dev/finanzas/internal/accounts"
	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/logger"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

// Service runs USD operations inside the ledger's critical section so the
// USD balance, the account and the movement log commit together.
type Service struct {
	repo   *store.Repository
	ledger *accounts.Service
	log    zerolog.Logger
}

// NewService creates a USD Service.
func NewService(repo *store.Repository, ledger *accounts.Service) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		log:    logger.WithUserID(logger.WithComponent("dollars"), repo.UserID()),
	}
}

// Buy debits usd*quotation from an account and adds usd to the pool.
func (s *Service) Buy(ctx context.Context, usd, quotation decimal.Decimal, accountID string) (model.DollarMovement, error) {
	if err := checkAmounts(usd, quotation); err != nil {
		return model.DollarMovement{}, fmt.Errorf("buying USD: %w", err)
	}
	home := usd.Mul(quotation)

	var mv model.DollarMovement
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		bal, err := s.repo.LoadDollarBalance(ctx)
		if err != nil {
			return err
		}
		if err := b.Debit(accountID, home); err != nil {
			return err
		}
		bal.Amount = bal.Amount.Add(usd)
		mv = movement(b, model.MovementBuy, usd, quotation, home, accountID,
			fmt.Sprintf("Compra de USD %s a $%s", usd.StringFixed(2), quotation.StringFixed(2)))
		b.Add(balanceOp(&bal, b), store.Create(&mv))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("usd", usd.String()).Msg("buy rejected")
		return model.DollarMovement{}, fmt.Errorf("buying USD %s: %w", usd.StringFixed(2), err)
	}
	s.log.Info().Str("usd", usd.StringFixed(2)).Str("home", home.StringFixed(2)).Msg("USD bought")
	return mv, nil
}

// Sell takes usd out of the pool and credits usd*quotation to an account.
// It fails with model.ErrInsufficientUSD when the pool holds less than usd.
func (s *Service) Sell(ctx context.Context, usd, quotation decimal.Decimal, accountID string) (model.DollarMovement, error) {
	if err := checkAmounts(usd, quotation); err != nil {
		return model.DollarMovement{}, fmt.Errorf("selling USD: %w", err)
	}
	home := usd.Mul(quotation)

	var mv model.DollarMovement
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		bal, err := s.repo.LoadDollarBalance(ctx)
		if err != nil {
			return err
		}
		if err := withdraw(&bal, usd); err != nil {
			return err
		}
		if err := b.Credit(accountID, home); err != nil {
			return err
		}
		mv = movement(b, model.MovementSell, usd, quotation, home, accountID,
			fmt.Sprintf("Venta de USD %s a $%s", usd.StringFixed(2), quotation.StringFixed(2)))
		b.Add(balanceOp(&bal, b), store.Create(&mv))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("usd", usd.String()).Msg("sell rejected")
		return model.DollarMovement{}, fmt.Errorf("selling USD %s: %w", usd.StringFixed(2), err)
	}
	s.log.Info().Str("usd", usd.StringFixed(2)).Str("home", home.StringFixed(2)).Msg("USD sold")
	return mv, nil
}

// Pay spends usd straight from the pool. No account is touched.
func (s *Service) Pay(ctx context.Context, usd decimal.Decimal, description string) (model.DollarMovement, error) {
	if !usd.IsPositive() {
		return model.DollarMovement{}, fmt.Errorf("paying USD %s: %w", usd, model.ErrInvalidAmount)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return model.DollarMovement{}, fmt.Errorf("paying USD: description is required")
	}

	var mv model.DollarMovement
	err := s.ledger.Run(ctx, func(b *accounts.Batch) error {
		bal, err := s.repo.LoadDollarBalance(ctx)
		if err != nil {
			return err
		}
		if err := withdraw(&bal, usd); err != nil {
			return err
		}
		mv = movement(b, model.MovementPay, usd, decimal.Zero, decimal.Zero, "", description)
		b.Add(balanceOp(&bal, b), store.Create(&mv))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("usd", usd.String()).Msg("pay rejected")
		return model.DollarMovement{}, fmt.Errorf("paying USD %s: %w", usd.StringFixed(2), err)
	}
	s.log.Info().Str("usd", usd.StringFixed(2)).Str("description", description).Msg("USD paid")
	return mv, nil
}

// Balance returns the USD pool.
func (s *Service) Balance(ctx context.Context) (decimal.Decimal, error) {
	bal, err := s.repo.LoadDollarBalance(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return bal.Amount, nil
}

// Movements returns the movement log, most recent first.
func (s *Service) Movements(ctx context.Context) ([]model.DollarMovement, error) {
	all, err := s.repo.LoadDollarMovements(ctx)
	if err != nil {
		return nil, err
	}
	SortByDate(all)
	return all, nil
}

// SortByDate orders movements most recent first.
func SortByDate(all []model.DollarMovement) {
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
}

func checkAmounts(usd, quotation decimal.Decimal) error {
	if !usd.IsPositive() {
		return fmt.Errorf("USD amount %s: %w", usd, model.ErrInvalidAmount)
	}
	if !quotation.IsPositive() {
		return fmt.Errorf("quotation %s: %w", quotation, model.ErrInvalidAmount)
	}
	return nil
}

func withdraw(bal *model.DollarBalance, usd decimal.Decimal) error {
	if usd.GreaterThan(bal.Amount) {
		return fmt.Errorf("have USD %s, need %s: %w", bal.Amount.StringFixed(2), usd.StringFixed(2), model.ErrInsufficientUSD)
	}
	bal.Amount = bal.Amount.Sub(usd)
	return nil
}

// balanceOp writes the pool, creating it the first time.
func balanceOp(bal *model.DollarBalance, b *accounts.Batch) store.Op {
	bal.UpdatedAt = b.Now()
	if bal.Version == 0 {
		return store.Create(bal)
	}
	return store.Update(bal)
}

func movement(b *accounts.Batch, kind model.MovementKind, usd, quotation, home decimal.Decimal, accountID, description string) model.DollarMovement {
	return model.DollarMovement{
		ID:          id.New(),
		Kind:        kind,
		USDAmount:   usd,
		Quotation:   quotation,
		HomeAmount:  home,
		AccountID:   accountID,
		Description: description,
		Date:        b.Now(),
	}
}
