package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/finanzas-dev/finanzas/internal/model"
)

// Change describes a committed grouped write.
type Change struct {
	UserID string
	Ops    []Op
	At     time.Time
}

// Repository is the typed, per-user view of a Backend. Every document read
// through it has been decoded and validated; every document written through
// it is validated first.
type Repository struct {
	backend Backend
	userID  string

	mu          sync.Mutex
	subscribers []func(Change)
}

// New creates a Repository for userID on backend.
func New(backend Backend, userID string) *Repository {
	return &Repository{backend: backend, userID: userID}
}

// UserID returns the user the repository reads and writes for.
func (r *Repository) UserID() string { return r.userID }

// Close releases the backend.
func (r *Repository) Close() error { return r.backend.Close() }

// Subscribe registers fn to be called after every successful grouped write.
// It returns a function that removes the subscription.
func (r *Repository) Subscribe(fn func(Change)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
	idx := len(r.subscribers) - 1
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.subscribers[idx] = nil
	}
}

// WriteGrouped validates and applies ops as one unit. On success the
// versions of the written documents are advanced in place.
func (r *Repository) WriteGrouped(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	muts := make([]Mutation, len(ops))
	for i, op := range ops {
		if op.Doc == nil {
			return fmt.Errorf("op %d: missing document", i)
		}
		m := Mutation{
			Kind:       op.Kind,
			Collection: op.Doc.Collection(),
			ID:         op.Doc.DocID(),
			Version:    op.Doc.DocVersion(),
		}
		switch op.Kind {
		case OpCreate, OpUpdate:
			if err := op.Doc.Validate(); err != nil {
				return fmt.Errorf("op %d (%s %s): %w", i, op.Kind, m.Collection, err)
			}
			body, err := json.Marshal(op.Doc)
			if err != nil {
				return fmt.Errorf("encoding %s %s: %w", m.Collection, m.ID, err)
			}
			m.Body = body
		case OpDelete:
		default:
			return fmt.Errorf("op %d: unknown kind %s", i, op.Kind)
		}
		muts[i] = m
	}

	if err := r.backend.Apply(ctx, r.userID, muts); err != nil {
		return fmt.Errorf("grouped write: %w", err)
	}

	for _, op := range ops {
		switch op.Kind {
		case OpCreate:
			op.Doc.SetVersion(1)
		case OpUpdate:
			op.Doc.SetVersion(op.Doc.DocVersion() + 1)
		}
	}
	r.notify(Change{UserID: r.userID, Ops: ops, At: time.Now().UTC()})
	return nil
}

func (r *Repository) notify(c Change) {
	r.mu.Lock()
	subs := make([]func(Change), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		if fn != nil {
			subs = append(subs, fn)
		}
	}
	r.mu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

// LoadAccounts returns all accounts.
func (r *Repository) LoadAccounts(ctx context.Context) ([]model.Account, error) {
	return list[model.Account](ctx, r, model.CollectionAccounts)
}

// LoadExpenses returns all expenses.
func (r *Repository) LoadExpenses(ctx context.Context) ([]model.Expense, error) {
	return list[model.Expense](ctx, r, model.CollectionExpenses)
}

// LoadIncomes returns all incomes.
func (r *Repository) LoadIncomes(ctx context.Context) ([]model.Income, error) {
	return list[model.Income](ctx, r, model.CollectionIncomes)
}

// LoadTransfers returns the transfer audit log.
func (r *Repository) LoadTransfers(ctx context.Context) ([]model.Transfer, error) {
	return list[model.Transfer](ctx, r, model.CollectionTransfers)
}

// LoadCredits returns all credits.
func (r *Repository) LoadCredits(ctx context.Context) ([]model.Credit, error) {
	return list[model.Credit](ctx, r, model.CollectionCredits)
}

// LoadDollarMovements returns the USD movement log.
func (r *Repository) LoadDollarMovements(ctx context.Context) ([]model.DollarMovement, error) {
	return list[model.DollarMovement](ctx, r, model.CollectionDollarMovements)
}

// LoadCategories returns all expense categories.
func (r *Repository) LoadCategories(ctx context.Context) ([]model.Category, error) {
	return list[model.Category](ctx, r, model.CollectionCategories)
}

// LoadDollarBalance returns the USD balance. A user that never held USD
// gets a zero balance at version 0, which must be written with Create.
func (r *Repository) LoadDollarBalance(ctx context.Context) (model.DollarBalance, error) {
	b, err := get[model.DollarBalance](ctx, r, model.CollectionDollarBalance, model.DollarBalanceID)
	if errors.Is(err, ErrNotFound) {
		return model.DollarBalance{}, nil
	}
	return b, err
}

// GetAccount returns one account or ErrNotFound.
func (r *Repository) GetAccount(ctx context.Context, id string) (model.Account, error) {
	return get[model.Account](ctx, r, model.CollectionAccounts, id)
}

// GetExpense returns one expense or ErrNotFound.
func (r *Repository) GetExpense(ctx context.Context, id string) (model.Expense, error) {
	return get[model.Expense](ctx, r, model.CollectionExpenses, id)
}

// GetIncome returns one income or ErrNotFound.
func (r *Repository) GetIncome(ctx context.Context, id string) (model.Income, error) {
	return get[model.Income](ctx, r, model.CollectionIncomes, id)
}

// GetCredit returns one credit or ErrNotFound.
func (r *Repository) GetCredit(ctx context.Context, id string) (model.Credit, error) {
	return get[model.Credit](ctx, r, model.CollectionCredits, id)
}

// GetCategory returns one category or ErrNotFound.
func (r *Repository) GetCategory(ctx context.Context, id string) (model.Category, error) {
	return get[model.Category](ctx, r, model.CollectionCategories, id)
}

type storedDoc[T any] interface {
	*T
	model.Document
}

func get[T any, PT storedDoc[T]](ctx context.Context, r *Repository, coll model.Collection, id string) (T, error) {
	var zero T
	rec, err := r.backend.Get(ctx, r.userID, coll, id)
	if err != nil {
		return zero, fmt.Errorf("getting %s %s: %w", coll, id, err)
	}
	return decode[T, PT](rec)
}

func list[T any, PT storedDoc[T]](ctx context.Context, r *Repository, coll model.Collection) ([]T, error) {
	recs, err := r.backend.List(ctx, r.userID, coll)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", coll, err)
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := decode[T, PT](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decode[T any, PT storedDoc[T]](rec Record) (T, error) {
	var v T
	if err := json.Unmarshal(rec.Body, PT(&v)); err != nil {
		return v, fmt.Errorf("decoding %s %s: %w", rec.Collection, rec.ID, err)
	}
	PT(&v).SetVersion(rec.Version)
	if err := PT(&v).Validate(); err != nil {
		return v, fmt.Errorf("loading %s %s: %w", rec.Collection, rec.ID, err)
	}
	return v, nil
}
