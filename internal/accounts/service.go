package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/logger"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

// Service is the account ledger. Every balance change in the module goes
// through Run, which serializes callers and commits one grouped write.
type Service struct {
	repo *store.Repository
	now  func() time.Time
	log  zerolog.Logger

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger over repo.
func NewService(repo *store.Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
		log:  logger.WithUserID(logger.WithComponent("accounts"), repo.UserID()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the ledger's current time.
func (s *Service) Now() time.Time { return s.now() }

// Run executes fn as a critical section. fn stages balance changes and
// extra store operations on the Batch; if it returns nil everything is
// committed in one grouped write, otherwise nothing is written. Accounts are
// written at the version they were read at, so a concurrent writer makes the
// commit fail with store.ErrConflict.
func (s *Service) Run(ctx context.Context, fn func(b *Batch) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	b := &Batch{
		ctx:      ctx,
		repo:     s.repo,
		now:      s.now(),
		accounts: make(map[string]*staged),
	}
	if err := fn(b); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ops := b.accountOps()
	ops = append(ops, b.ops...)
	if err := s.repo.WriteGrouped(ctx, ops); err != nil {
		return fmt.Errorf("committing ledger batch: %w", err)
	}
	s.log.Debug().Int("ops", len(ops)).Msg("batch committed")
	return nil
}

// Credit increases an account's balance.
func (s *Service) Credit(ctx context.Context, accountID string, amount decimal.Decimal) error {
	err := s.Run(ctx, func(b *Batch) error {
		return b.Credit(accountID, amount)
	})
	if err != nil {
		s.log.Debug().Err(err).Str("account", accountID).Msg("credit rejected")
		return err
	}
	s.log.Info().Str("account", accountID).Str("amount", amount.StringFixed(2)).Msg("credit")
	return nil
}

// Debit decreases an account's balance. It fails with
// model.ErrInsufficientFunds when the balance is lower than amount.
func (s *Service) Debit(ctx context.Context, accountID string, amount decimal.Decimal) error {
	err := s.Run(ctx, func(b *Batch) error {
		return b.Debit(accountID, amount)
	})
	if err != nil {
		s.log.Debug().Err(err).Str("account", accountID).Msg("debit rejected")
		return err
	}
	s.log.Info().Str("account", accountID).Str("amount", amount.StringFixed(2)).Msg("debit")
	return nil
}

// Transfer moves amount from one account to another and records the move.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (model.Transfer, error) {
	if fromID == toID {
		return model.Transfer{}, fmt.Errorf("transfer to the same account: %w", model.ErrInvalidTransfer)
	}
	if !amount.IsPositive() {
		return model.Transfer{}, fmt.Errorf("transfer amount %s: %w", amount, model.ErrInvalidTransfer)
	}

	var tr model.Transfer
	err := s.Run(ctx, func(b *Batch) error {
		if err := b.Debit(fromID, amount); err != nil {
			return err
		}
		if err := b.Credit(toID, amount); err != nil {
			return err
		}
		tr = model.Transfer{
			ID:        id.New(),
			FromID:    fromID,
			ToID:      toID,
			Amount:    amount,
			CreatedAt: b.Now(),
		}
		b.Add(store.Create(&tr))
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("from", fromID).Str("to", toID).Msg("transfer rejected")
		return model.Transfer{}, err
	}
	s.log.Info().Str("from", fromID).Str("to", toID).Str("amount", amount.StringFixed(2)).Msg("transfer")
	return tr, nil
}

// Create opens a new account with a zero balance.
func (s *Service) Create(ctx context.Context, name string) (model.Account, error) {
	var acct *model.Account
	err := s.Run(ctx, func(b *Batch) error {
		var err error
		acct, err = b.Open(name)
		return err
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("creating account %q: %w", name, err)
	}
	s.log.Info().Str("account", acct.ID).Str("name", acct.Name).Msg("account created")
	return *acct, nil
}

// Rename changes an account's display name. The balance is untouched.
func (s *Service) Rename(ctx context.Context, accountID, name string) (model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, fmt.Errorf("renaming account %s: name is required", accountID)
	}
	var acct model.Account
	err := s.Run(ctx, func(b *Batch) error {
		a, err := b.Account(accountID)
		if err != nil {
			return err
		}
		a.Name = name
		acct = *a
		return nil
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("renaming account %s: %w", accountID, err)
	}
	s.log.Info().Str("account", accountID).Str("name", name).Msg("account renamed")
	return acct, nil
}

// Delete removes an account. Records that reference it are kept; reversing
// them later fails with a reconciliation error.
func (s *Service) Delete(ctx context.Context, accountID string) error {
	err := s.Run(ctx, func(b *Batch) error {
		return b.Remove(accountID)
	})
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", accountID, err)
	}
	s.log.Info().Str("account", accountID).Msg("account deleted")
	return nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, accountID string) (model.Account, error) {
	a, err := s.repo.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, fmt.Errorf("account %s: %w", accountID, model.ErrAccountNotFound)
	}
	return a, err
}

// All returns every account ordered by name.
func (s *Service) All(ctx context.Context) ([]model.Account, error) {
	accts, err := s.repo.LoadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accts, func(i, j int) bool { return accts[i].Name < accts[j].Name })
	return accts, nil
}

// Find returns the account whose ID, ID prefix or name (case-insensitive)
// matches ref.
func (s *Service) Find(ctx context.Context, ref string) (model.Account, error) {
	accts, err := s.repo.LoadAccounts(ctx)
	if err != nil {
		return model.Account{}, err
	}
	ids := make([]string, len(accts))
	for i, a := range accts {
		if strings.EqualFold(a.Name, strings.TrimSpace(ref)) {
			return a, nil
		}
		ids[i] = a.ID
	}
	match, err := id.Resolve(ref, ids)
	if err != nil {
		return model.Account{}, fmt.Errorf("account %q: %w", ref, model.ErrAccountNotFound)
	}
	for _, a := range accts {
		if a.ID == match {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %q: %w", ref, model.ErrAccountNotFound)
}

// Seed creates the accounts in defaults whose names do not exist yet and
// returns the ones it created. Only Name and Kind are used.
func (s *Service) Seed(ctx context.Context, defaults []model.Account) ([]model.Account, error) {
	existing, err := s.repo.LoadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[strings.ToLower(a.Name)] = true
	}

	var created []*model.Account
	err = s.Run(ctx, func(b *Batch) error {
		for _, d := range defaults {
			if have[strings.ToLower(strings.TrimSpace(d.Name))] {
				continue
			}
			a, err := b.Open(d.Name)
			if err != nil {
				return err
			}
			a.Kind = d.Kind
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seeding accounts: %w", err)
	}
	out := make([]model.Account, len(created))
	for i, a := range created {
		out[i] = *a
	}
	if len(out) > 0 {
		s.log.Info().Int("count", len(out)).Msg("default accounts created")
	}
	return out, nil
}

// Import opens one account per row and credits its opening balance, all in
// one grouped write.
func (s *Service) Import(ctx context.Context, rows []model.Account) ([]model.Account, error) {
	var created []*model.Account
	err := s.Run(ctx, func(b *Batch) error {
		for _, row := range rows {
			a, err := b.open(row.ID, row.Name)
			if err != nil {
				return err
			}
			a.Kind = row.Kind
			if row.Balance.IsPositive() {
				if err := b.Credit(a.ID, row.Balance); err != nil {
					return err
				}
			}
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing accounts: %w", err)
	}
	out := make([]model.Account, len(created))
	for i, a := range created {
		out[i] = *a
	}
	s.log.Info().Int("count", len(out)).Msg("accounts imported")
	return out, nil
}
