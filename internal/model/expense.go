package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks how much of an expense has been settled.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
)

// Expense is a fixed (recurring, settled incrementally) or variable
// (settled in full at creation) expense.
type Expense struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Category    string           `json:"category,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	CreatedAt   time.Time        `json:"created_at"`
	Date        time.Time        `json:"date,omitzero"`     // variable: transaction date
	DueDate     time.Time        `json:"due_date,omitzero"` // fixed: billing date
	Fixed       bool             `json:"fixed"`
	Status      PaymentStatus    `json:"status"`
	AmountPaid  decimal.Decimal  `json:"amount_paid"`
	AccountID   string           `json:"account_id,omitempty"`
	Payments    []ExpensePayment `json:"payments,omitempty"`
	Version     int64            `json:"-"`
}

// ExpensePayment records one payment registered against an expense.
type ExpensePayment struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID string          `json:"account_id"`
}

func (e *Expense) Collection() Collection { return CollectionExpenses }
func (e *Expense) DocID() string          { return e.ID }
func (e *Expense) DocVersion() int64      { return e.Version }
func (e *Expense) SetVersion(v int64)     { e.Version = v }

// Remaining returns what is still owed.
func (e *Expense) Remaining() decimal.Decimal {
	return e.Amount.Sub(e.AmountPaid)
}

// EffectiveDate is the date used for ordering and export: the due date for
// fixed expenses, the transaction date otherwise, falling back to creation.
func (e *Expense) EffectiveDate() time.Time {
	if e.Fixed && !e.DueDate.IsZero() {
		return e.DueDate
	}
	if !e.Date.IsZero() {
		return e.Date
	}
	return e.CreatedAt
}

// StatusFor derives the payment status from the amount paid.
func StatusFor(amount, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

// Validate checks the expense invariants.
func (e *Expense) Validate() error {
	if e.ID == "" {
		return invalid("expense", "", "id", "is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		return invalid("expense", e.ID, "description", "is required")
	}
	if !e.Amount.IsPositive() {
		return invalid("expense", e.ID, "amount", "must be positive")
	}
	if e.AmountPaid.IsNegative() {
		return invalid("expense", e.ID, "amount_paid", "is negative")
	}
	if e.AmountPaid.GreaterThan(e.Amount) {
		return invalid("expense", e.ID, "amount_paid", "exceeds amount")
	}
	if e.Status != StatusFor(e.Amount, e.AmountPaid) {
		return invalid("expense", e.ID, "status", "does not match amount paid")
	}
	if !e.Fixed && e.AccountID == "" {
		return invalid("expense", e.ID, "account_id", "is required for variable expenses")
	}
	paid := decimal.Zero
	for _, p := range e.Payments {
		if !p.Amount.IsPositive() {
			return invalid("expense", e.ID, "payments", "contain a non-positive amount")
		}
		if p.AccountID == "" {
			return invalid("expense", e.ID, "payments", "contain a payment without account")
		}
		paid = paid.Add(p.Amount)
	}
	if len(e.Payments) > 0 && !paid.Equal(e.AmountPaid) {
		return invalid("expense", e.ID, "payments", "do not add up to amount paid")
	}
	return nil
}
