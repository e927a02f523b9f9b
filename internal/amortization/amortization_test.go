package amortization

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanzas-dev/finanzas/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, dec(want).String(), got.String(), msgAndArgs...)
}

func TestFrenchSchedule(t *testing.T) {
	sched := Schedule(model.SystemFrench, dec("120000"), dec("60"), 12, date(2025, 1, 15))
	require.Len(t, sched, 12)

	first := sched[0]
	assert.Equal(t, 1, first.Number)
	assertDec(t, "6000", first.Interest)
	assertDec(t, "13539.05", first.Payment)
	assertDec(t, "7539.05", first.Principal)
	assertDec(t, "112460.95", first.Balance)
	assert.Equal(t, date(2025, 2, 15), first.DueDate)

	last := sched[11]
	assert.Equal(t, 12, last.Number)
	assertDec(t, "0", last.Balance)
	assertDec(t, "644.72", last.Interest)
	assert.Equal(t, date(2026, 1, 15), last.DueDate)

	for _, inst := range sched {
		assertDec(t, "13539.05", inst.Payment, "installment %d", inst.Number)
	}
}

func TestFrenchInterestInvariant(t *testing.T) {
	tests := []struct {
		principal, rate string
		months          int
	}{
		{"120000", "60", 12},
		{"1000", "12", 3},
		{"250000", "97.5", 36},
		{"5000", "0", 10},
	}
	for _, tt := range tests {
		sched := Schedule(model.SystemFrench, dec(tt.principal), dec(tt.rate), tt.months, date(2025, 1, 1))
		totals := Sum(sched)

		diff := totals.Payment.Sub(dec(tt.principal)).Sub(totals.Interest).Abs()
		tolerance := dec("0.01").Mul(decimal.NewFromInt(int64(tt.months)))
		assert.True(t, diff.LessThanOrEqual(tolerance), "%s at %s%%: payments - principal - interest = %s", tt.principal, tt.rate, diff)

		principalDiff := totals.Principal.Sub(dec(tt.principal)).Abs()
		assert.True(t, principalDiff.LessThanOrEqual(tolerance), "principal components add up to %s", totals.Principal)
		assertDec(t, "0", sched[len(sched)-1].Balance)
	}
}

func TestFrenchWithoutInterest(t *testing.T) {
	sched := Schedule(model.SystemFrench, dec("1200"), decimal.Zero, 12, date(2025, 1, 1))
	for _, inst := range sched {
		assertDec(t, "100", inst.Payment)
		assertDec(t, "0", inst.Interest)
	}
	assertDec(t, "0", sched[11].Balance)
}

func TestGermanSchedule(t *testing.T) {
	sched := Schedule(model.SystemGerman, dec("1200"), dec("12"), 12, date(2025, 3, 1))
	require.Len(t, sched, 12)

	assertDec(t, "100", sched[0].Principal)
	assertDec(t, "12", sched[0].Interest)
	assertDec(t, "112", sched[0].Payment)
	assertDec(t, "1100", sched[0].Balance)
	assertDec(t, "101", sched[11].Payment)
	assertDec(t, "0", sched[11].Balance)

	for i := 1; i < len(sched); i++ {
		assert.True(t, sched[i].Payment.LessThanOrEqual(sched[i-1].Payment),
			"payment %d (%s) greater than payment %d (%s)", i+1, sched[i].Payment, i, sched[i-1].Payment)
		assertDec(t, "100", sched[i].Principal)
	}
}

func TestFixedRateSchedule(t *testing.T) {
	sched := Schedule(model.SystemFixedRate, dec("10000"), dec("24"), 6, date(2025, 1, 1))
	require.Len(t, sched, 6)

	for _, inst := range sched[:5] {
		assertDec(t, "0", inst.Principal, "installment %d", inst.Number)
		assertDec(t, "200", inst.Interest)
		assertDec(t, "200", inst.Payment)
		assertDec(t, "10000", inst.Balance)
	}
	last := sched[5]
	assertDec(t, "10000", last.Principal)
	assertDec(t, "10200", last.Payment)
	assertDec(t, "0", last.Balance)
}

func TestSingleMonth(t *testing.T) {
	for _, system := range []model.AmortizationSystem{model.SystemFrench, model.SystemGerman, model.SystemFixedRate} {
		sched := Schedule(system, dec("1000"), dec("12"), 1, date(2025, 1, 1))
		require.Len(t, sched, 1, system)
		assertDec(t, "1010", sched[0].Payment, system)
		assertDec(t, "1000", sched[0].Principal, system)
		assertDec(t, "0", sched[0].Balance, system)
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		start time.Time
		n     int
		want  time.Time
	}{
		{date(2025, 1, 15), 1, date(2025, 2, 15)},
		{date(2025, 1, 31), 1, date(2025, 2, 28)},
		{date(2024, 1, 31), 1, date(2024, 2, 29)},
		{date(2025, 3, 31), 1, date(2025, 4, 30)},
		{date(2025, 1, 31), 2, date(2025, 3, 31)},
		{date(2025, 11, 30), 3, date(2026, 2, 28)},
		{date(2025, 6, 10), 0, date(2025, 6, 10)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddMonths(tt.start, tt.n), "%s + %d", tt.start.Format("2006-01-02"), tt.n)
	}
}

func TestParseSystem(t *testing.T) {
	tests := []struct {
		in   string
		want model.AmortizationSystem
	}{
		{"french", model.SystemFrench},
		{"frances", model.SystemFrench},
		{"German", model.SystemGerman},
		{"aleman", model.SystemGerman},
		{"fixedRate", model.SystemFixedRate},
		{"tasaFija", model.SystemFixedRate},
	}
	for _, tt := range tests {
		got, err := ParseSystem(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseSystem("american")
	assert.Error(t, err)
}
