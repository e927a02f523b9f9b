package model

import (
	"errors"
	"fmt"
)

// Error kinds raised by the ledger, expense, income, exchange and credit
// services. Callers match them with errors.Is.
var (
	// ErrInsufficientFunds is returned when a debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientUSD is returned when the USD pool cannot cover a sell or pay.
	// It also matches ErrInsufficientFunds.
	ErrInsufficientUSD = fmt.Errorf("%w: USD balance too low", ErrInsufficientFunds)

	// ErrInvalidAmount is returned for non-positive amounts and payments that
	// exceed what is still owed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidTransfer is returned for same-account or non-positive transfers.
	ErrInvalidTransfer = errors.New("invalid transfer")

	ErrAccountNotFound = errors.New("account not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrIncomeNotFound  = errors.New("income not found")
	ErrCreditNotFound  = errors.New("credit not found")

	// ErrCategoryNotFound is also returned when an expense names a category
	// the user does not have.
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")

	// ErrCreditNotActive is returned when prepaying a simulated credit.
	ErrCreditNotActive = errors.New("credit is not active")

	// ErrInvalidInstallments is returned when a prepayment selects an
	// installment that does not exist or is already paid.
	ErrInvalidInstallments = errors.New("invalid installments")

	// ErrAmountMismatch is returned when a prepayment amount does not match
	// the selected installments.
	ErrAmountMismatch = errors.New("amount does not match selected installments")

	// ErrReconciliation marks a reversal that could not be applied because the
	// account state no longer agrees with history.
	ErrReconciliation = errors.New("reconciliation error")
)

// ReconciliationError reports a failed reversal. It is fatal for the
// operation and must be shown to the user.
type ReconciliationError struct {
	// Op is the operation that attempted the reversal (e.g. "delete expense").
	Op string

	// Entity is the ID of the record being reversed.
	Entity string

	// AccountID is the account the reversal targeted.
	AccountID string

	// Err is the underlying cause.
	Err error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation: %s %s against account %s: %v", e.Op, e.Entity, e.AccountID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// Is matches ErrReconciliation in addition to the wrapped cause.
func (e *ReconciliationError) Is(target error) bool {
	return target == ErrReconciliation
}

// NewReconciliationError creates a ReconciliationError.
func NewReconciliationError(op, entity, accountID string, err error) *ReconciliationError {
	return &ReconciliationError{Op: op, Entity: entity, AccountID: accountID, Err: err}
}

// ValidationError describes a record that failed boundary validation.
type ValidationError struct {
	Kind    string
	ID      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s: %s %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %s: %s %s", e.Kind, e.ID, e.Field, e.Message)
}

func invalid(kind, id, field, msg string) error {
	return &ValidationError{Kind: kind, ID: id, Field: field, Message: msg}
}
