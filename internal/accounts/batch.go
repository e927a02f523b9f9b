package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

type stagedState int

const (
	stagedRead stagedState = iota
	stagedNew
	stagedRemoved
)

type staged struct {
	acct  *model.Account
	state stagedState
}

// Batch stages the changes of one Run. Accounts are read fresh from the
// store the first time they are touched; later changes apply to the staged
// copy, so two debits in one batch see each other.
type Batch struct {
	ctx      context.Context
	repo     *store.Repository
	now      time.Time
	accounts map[string]*staged
	order    []string
	ops      []store.Op
}

// Context returns the context of the Run.
func (b *Batch) Context() context.Context { return b.ctx }

// Now returns the timestamp shared by every change in the batch.
func (b *Batch) Now() time.Time { return b.now }

// Add stages extra store operations to commit with the account changes.
func (b *Batch) Add(ops ...store.Op) {
	b.ops = append(b.ops, ops...)
}

// Account returns the staged copy of an account, reading it on first use.
// Changes made to the returned account are committed with the batch.
func (b *Batch) Account(accountID string) (*model.Account, error) {
	if s, ok := b.accounts[accountID]; ok {
		if s.state == stagedRemoved {
			return nil, fmt.Errorf("account %s: %w", accountID, model.ErrAccountNotFound)
		}
		return s.acct, nil
	}
	a, err := b.repo.GetAccount(b.ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("account %s: %w", accountID, model.ErrAccountNotFound)
	}
	if err != nil {
		return nil, err
	}
	b.accounts[accountID] = &staged{acct: &a, state: stagedRead}
	b.order = append(b.order, accountID)
	return &a, nil
}

// Credit increases the staged balance of an account.
func (b *Batch) Credit(accountID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("credit of %s: %w", amount, model.ErrInvalidAmount)
	}
	a, err := b.Account(accountID)
	if err != nil {
		return err
	}
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = b.now
	return nil
}

// Debit decreases the staged balance of an account, failing with
// model.ErrInsufficientFunds when it would go below zero.
func (b *Batch) Debit(accountID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("debit of %s: %w", amount, model.ErrInvalidAmount)
	}
	a, err := b.Account(accountID)
	if err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return fmt.Errorf("account %q has %s, needs %s: %w",
			a.Name, a.Balance.StringFixed(2), amount.StringFixed(2), model.ErrInsufficientFunds)
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = b.now
	return nil
}

// Open stages a new account with a zero balance.
func (b *Batch) Open(name string) (*model.Account, error) {
	return b.open("", name)
}

func (b *Batch) open(accountID, name string) (*model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}
	if accountID == "" {
		accountID = id.New()
	}
	if _, ok := b.accounts[accountID]; ok {
		return nil, fmt.Errorf("account %s staged twice", accountID)
	}
	a := &model.Account{
		ID:        accountID,
		Name:      name,
		Balance:   decimal.Zero,
		CreatedAt: b.now,
		UpdatedAt: b.now,
	}
	b.accounts[accountID] = &staged{acct: a, state: stagedNew}
	b.order = append(b.order, accountID)
	return a, nil
}

// Remove stages the deletion of an account.
func (b *Batch) Remove(accountID string) error {
	if _, err := b.Account(accountID); err != nil {
		return err
	}
	s := b.accounts[accountID]
	if s.state == stagedNew {
		delete(b.accounts, accountID)
		for i, staged := range b.order {
			if staged == accountID {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
		return nil
	}
	s.state = stagedRemoved
	return nil
}

func (b *Batch) accountOps() []store.Op {
	ops := make([]store.Op, 0, len(b.order))
	for _, accountID := range b.order {
		s := b.accounts[accountID]
		switch s.state {
		case stagedNew:
			ops = append(ops, store.Create(s.acct))
		case stagedRemoved:
			ops = append(ops, store.Delete(s.acct))
		default:
			ops = append(ops, store.Update(s.acct))
		}
	}
	return ops
}
