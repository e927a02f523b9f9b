package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		amount, paid string
		want         PaymentStatus
	}{
		{"100", "0", StatusPending},
		{"100", "0.01", StatusPartial},
		{"100", "99.99", StatusPartial},
		{"100", "100", StatusPaid},
		{"100", "100.00", StatusPaid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(dec(tt.amount), dec(tt.paid)), "amount %s paid %s", tt.amount, tt.paid)
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := func() *Expense {
		return &Expense{
			ID:          "e1",
			Description: "Groceries",
			Amount:      dec("150"),
			AmountPaid:  dec("150"),
			Status:      StatusPaid,
			AccountID:   "cash",
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(e *Expense)
		field  string
	}{
		{"missing description", func(e *Expense) { e.Description = " " }, "description"},
		{"zero amount", func(e *Expense) { e.Amount = decimal.Zero }, "amount"},
		{"overpaid", func(e *Expense) { e.AmountPaid = dec("151") }, "amount_paid"},
		{"status mismatch", func(e *Expense) { e.Status = StatusPartial }, "status"},
		{"variable without account", func(e *Expense) { e.AccountID = "" }, "account_id"},
		{"payments do not add up", func(e *Expense) {
			e.Payments = []ExpensePayment{{ID: "p1", Amount: dec("10"), AccountID: "cash"}}
		}, "payments"},
	}
	for _, tt := range tests {
		e := valid()
		tt.mutate(e)
		err := e.Validate()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tt.name)
		assert.Equal(t, tt.field, verr.Field, tt.name)
	}
}

func TestExpenseEffectiveDate(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	fixed := Expense{Fixed: true, DueDate: due, CreatedAt: created}
	assert.Equal(t, due, fixed.EffectiveDate())

	variable := Expense{CreatedAt: created}
	assert.Equal(t, created, variable.EffectiveDate())
}

func TestDollarMovementValidate(t *testing.T) {
	buy := &DollarMovement{ID: "m1", Kind: MovementBuy, USDAmount: dec("100"), Quotation: dec("1000"), AccountID: "cash"}
	require.NoError(t, buy.Validate())

	buy.Quotation = decimal.Zero
	assert.Error(t, buy.Validate())

	pay := &DollarMovement{ID: "m2", Kind: MovementPay, USDAmount: dec("10")}
	assert.Error(t, pay.Validate(), "pay needs a description")
	pay.Description = "Netflix"
	assert.NoError(t, pay.Validate())

	unknown := &DollarMovement{ID: "m3", Kind: "swap", USDAmount: dec("1")}
	assert.Error(t, unknown.Validate())
}

func TestCreditValidate(t *testing.T) {
	c := &Credit{
		ID:         "c1",
		Entity:     "Banco",
		Principal:  dec("1000"),
		AnnualRate: dec("12"),
		Months:     2,
		System:     SystemFrench,
		Status:     CreditActive,
		Installments: []Installment{
			{Number: 1, Payment: dec("510")},
			{Number: 2, Payment: dec("505")},
		},
	}
	err := c.Validate()
	require.Error(t, err, "active credit requires a request date")

	c.RequestDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Validate())

	c.Prepayments = []Prepayment{{ID: "p", Installments: []int{2}}}
	assert.Error(t, c.Validate(), "prepayment must reference a paid installment")

	c.Installments[1].Paid = true
	assert.NoError(t, c.Validate())
	assert.True(t, dec("510").Equal(c.Outstanding()))
}

func TestReconciliationErrorMatching(t *testing.T) {
	err := NewReconciliationError("delete income", "i1", "cash", ErrInsufficientFunds)

	assert.ErrorIs(t, err, ErrReconciliation)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Contains(t, err.Error(), "delete income")

	var rerr *ReconciliationError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "cash", rerr.AccountID)
}

func TestInsufficientUSDMatchesInsufficientFunds(t *testing.T) {
	assert.ErrorIs(t, ErrInsufficientUSD, ErrInsufficientFunds)
	assert.NotErrorIs(t, ErrInsufficientFunds, ErrInsufficientUSD)
}

func TestAccountKind(t *testing.T) {
	k, err := ParseAccountKind(" Debito ")
	require.NoError(t, err)
	assert.Equal(t, AccountDebit, k)

	k, err = ParseAccountKind("")
	require.NoError(t, err)
	assert.Empty(t, k)

	_, err = ParseAccountKind("cheque")
	assert.Error(t, err)

	a := &Account{ID: "a1", Name: "Visa", Kind: AccountCredit}
	require.NoError(t, a.Validate())
	a.Kind = "Credito"
	var verr *ValidationError
	require.ErrorAs(t, a.Validate(), &verr)
	assert.Equal(t, "kind", verr.Field)
}

func TestCategoryValidate(t *testing.T) {
	require.NoError(t, (&Category{ID: "c1", Name: "Nafta"}).Validate())
	assert.Error(t, (&Category{Name: "Nafta"}).Validate())
	assert.Error(t, (&Category{ID: "c1", Name: "  "}).Validate())
}
