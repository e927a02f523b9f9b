package credits

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanzas-dev/finanzas/internal/accounts"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var fixedNow = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func newTestServices(t *testing.T, opts ...Option) (*Service, *accounts.Service) {
	t.Helper()
	repo := store.New(store.NewMemoryBackend(), "u1")
	ledger := accounts.NewService(repo, accounts.WithClock(func() time.Time { return fixedNow }))
	return NewService(repo, ledger, opts...), ledger
}

// flatCredit has twelve installments of exactly 1000.
func flatCredit() Input {
	return Input{
		Entity:      "Banco Nación",
		Principal:   dec("12000"),
		AnnualRate:  decimal.Zero,
		Months:      12,
		System:      model.SystemFrench,
		Status:      model.CreditActive,
		RequestDate: date(2025, 1, 31),
	}
}

func TestCreateActiveCredit(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{
		Entity:      "Banco",
		Principal:   dec("120000"),
		AnnualRate:  dec("60"),
		Months:      12,
		System:      model.SystemFrench,
		Status:      model.CreditActive,
		RequestDate: date(2025, 1, 31),
	})
	require.NoError(t, err)

	require.Len(t, c.Installments, 12)
	assert.Equal(t, "6000.00", c.Installments[0].Interest.StringFixed(2))
	assert.Equal(t, "13539.05", c.Installments[0].Payment.StringFixed(2))
	assert.True(t, c.RemainingBalance.IsZero())
	assert.Equal(t, date(2025, 2, 28), c.Installments[0].DueDate)
	assert.Equal(t, date(2026, 1, 31), c.LastInstallmentDate)
	assert.Empty(t, c.Prepayments)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Installments[5].Payment.String(), got.Installments[5].Payment.String())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"zero principal", func(in *Input) { in.Principal = decimal.Zero }},
		{"zero months", func(in *Input) { in.Months = 0 }},
		{"negative rate", func(in *Input) { in.AnnualRate = dec("-1") }},
		{"missing entity", func(in *Input) { in.Entity = " " }},
		{"active without request date", func(in *Input) { in.RequestDate = time.Time{} }},
		{"unknown status", func(in *Input) { in.Status = "pending" }},
	}
	for _, tt := range tests {
		in := flatCredit()
		tt.mutate(&in)
		_, err := svc.Create(ctx, in)
		assert.Error(t, err, tt.name)
	}

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSimulateStartsNowAndStoresNothing(t *testing.T) {
	svc, _ := newTestServices(t)
	in := flatCredit()
	in.Status = ""
	in.RequestDate = time.Time{}

	c, err := svc.Simulate(in)
	require.NoError(t, err)
	assert.Equal(t, model.CreditSimulation, c.Status)
	assert.Equal(t, date(2025, 5, 1), c.Installments[0].DueDate.Truncate(24*time.Hour))

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestApplyPrepayment(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, flatCredit())
	require.NoError(t, err)
	before := c.RemainingBalance

	c, err = svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: c.ID, Amount: dec("2000"), Installments: []int{3, 4}})
	require.NoError(t, err)

	assert.True(t, c.Installments[2].Paid)
	assert.True(t, c.Installments[3].Paid)
	assert.False(t, c.Installments[4].Paid)
	assert.Equal(t, before.Sub(dec("2000")).String(), c.RemainingBalance.String())
	assert.Equal(t, "-2000", c.RemainingBalance.String(), "the running balance goes below zero")
	assert.Equal(t, "10000.00", c.Outstanding().StringFixed(2), "what is owed comes from unpaid installments")
	require.Len(t, c.Prepayments, 1)
	assert.Equal(t, []int{3, 4}, c.Prepayments[0].Installments)
	assert.Equal(t, fixedNow, c.Prepayments[0].Date)

	_, err = svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: c.ID, Amount: dec("2000"), Installments: []int{3, 4}})
	require.ErrorIs(t, err, model.ErrInvalidInstallments)

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Prepayments, 1)
}

func TestApplyPrepaymentRejections(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, flatCredit())
	require.NoError(t, err)

	tests := []struct {
		name    string
		numbers []int
		amount  string
		want    error
	}{
		{"empty selection", nil, "0", model.ErrInvalidInstallments},
		{"nonexistent installment", []int{13}, "1000", model.ErrInvalidInstallments},
		{"zero installment", []int{0}, "1000", model.ErrInvalidInstallments},
		{"duplicate installment", []int{2, 2}, "2000", model.ErrInvalidInstallments},
		{"amount too low", []int{1, 2}, "1999.98", model.ErrAmountMismatch},
		{"amount too high", []int{1}, "1000.02", model.ErrAmountMismatch},
	}
	for _, tt := range tests {
		_, err := svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: c.ID, Amount: dec(tt.amount), Installments: tt.numbers})
		assert.ErrorIs(t, err, tt.want, tt.name)
	}

	_, err = svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: c.ID, Amount: dec("999.99"), Installments: []int{1}})
	require.NoError(t, err, "within tolerance")

	_, err = svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: "missing", Amount: dec("1"), Installments: []int{1}})
	assert.ErrorIs(t, err, model.ErrCreditNotFound)
}

func TestCustomTolerance(t *testing.T) {
	svc, _ := newTestServices(t, WithTolerance(dec("5")))
	ctx := context.Background()
	c, err := svc.Create(ctx, flatCredit())
	require.NoError(t, err)

	_, err = svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: c.ID, Amount: dec("996"), Installments: []int{1}})
	assert.NoError(t, err)
}

func TestPrepaymentOnSimulationFails(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	in := flatCredit()
	in.Status = model.CreditSimulation
	c, err := svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: c.ID, Amount: dec("1000"), Installments: []int{1}})
	assert.ErrorIs(t, err, model.ErrCreditNotActive)
}

func TestPrepaymentFromAccount(t *testing.T) {
	svc, ledger := newTestServices(t)
	ctx := context.Background()
	cash, err := ledger.Create(ctx, "Cash")
	require.NoError(t, err)
	require.NoError(t, ledger.Credit(ctx, cash.ID, dec("1500")))

	c, err := svc.Create(ctx, flatCredit())
	require.NoError(t, err)

	_, err = svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: c.ID, Amount: dec("2000"), Installments: []int{1, 2}, AccountID: cash.ID})
	require.ErrorIs(t, err, model.ErrInsufficientFunds)
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Installments[0].Paid, "nothing is marked when the debit fails")

	_, err = svc.ApplyPrepayment(ctx, PrepaymentInput{CreditID: c.ID, Amount: dec("1000"), Installments: []int{1}, AccountID: cash.ID})
	require.NoError(t, err)
	acct, err := ledger.Get(ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", acct.Balance.StringFixed(2))
}

func TestOutstandingCountsActiveCreditsOnly(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, flatCredit())
	require.NoError(t, err)
	sim := flatCredit()
	sim.Status = model.CreditSimulation
	_, err = svc.Create(ctx, sim)
	require.NoError(t, err)

	total, err := svc.Outstanding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12000.00", total.StringFixed(2))
}
