// Package amortization computes installment schedules for credits under the
// French, German and fixed-rate (bullet) systems.
package amortization

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finanzas-dev/finanzas/internal/model"
)

// workPlaces is the precision intermediate values are rounded to. Stored
// components are rounded to cents.
const workPlaces = 30

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

// MonthlyRate converts an annual nominal percentage to a monthly fraction.
func MonthlyRate(annualPercent decimal.Decimal) decimal.Decimal {
	return annualPercent.DivRound(twelve, workPlaces).DivRound(hundred, workPlaces)
}

// Schedule returns the installments of a credit of principal at
// annualPercent over months, with period i due i months after start.
// Inputs must already be validated: principal > 0, months >= 1, rate >= 0.
func Schedule(system model.AmortizationSystem, principal, annualPercent decimal.Decimal, months int, start time.Time) []model.Installment {
	r := MonthlyRate(annualPercent)
	switch system {
	case model.SystemGerman:
		return german(principal, r, months, start)
	case model.SystemFixedRate:
		return fixedRate(principal, r, months, start)
	default:
		return french(principal, r, months, start)
	}
}

// FrenchPayment is the constant payment of the French system:
// P*r*(1+r)^n / ((1+r)^n - 1), or P/n without interest.
func FrenchPayment(principal, r decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	if r.IsZero() {
		return principal.DivRound(n, workPlaces)
	}
	f := pow(one.Add(r), months)
	return principal.Mul(r).Mul(f).DivRound(f.Sub(one), workPlaces)
}

func french(principal, r decimal.Decimal, months int, start time.Time) []model.Installment {
	payment := FrenchPayment(principal, r, months)
	balance := principal
	out := make([]model.Installment, 0, months)
	for i := 1; i <= months; i++ {
		interest := balance.Mul(r).Round(workPlaces)
		amort := payment.Sub(interest)
		balance = balance.Sub(amort)
		if i == months || balance.IsNegative() {
			balance = decimal.Zero
		}
		out = append(out, installment(i, start, payment, amort, interest, balance))
	}
	return out
}

func german(principal, r decimal.Decimal, months int, start time.Time) []model.Installment {
	amort := principal.DivRound(decimal.NewFromInt(int64(months)), workPlaces)
	balance := principal
	out := make([]model.Installment, 0, months)
	for i := 1; i <= months; i++ {
		interest := balance.Mul(r).Round(workPlaces)
		balance = balance.Sub(amort)
		if i == months || balance.IsNegative() {
			balance = decimal.Zero
		}
		out = append(out, installment(i, start, amort.Add(interest), amort, interest, balance))
	}
	return out
}

func fixedRate(principal, r decimal.Decimal, months int, start time.Time) []model.Installment {
	interest := principal.Mul(r).Round(workPlaces)
	out := make([]model.Installment, 0, months)
	for i := 1; i <= months; i++ {
		if i == months {
			out = append(out, installment(i, start, interest.Add(principal), principal, interest, decimal.Zero))
			continue
		}
		out = append(out, installment(i, start, interest, decimal.Zero, interest, principal))
	}
	return out
}

func installment(number int, start time.Time, payment, amort, interest, balance decimal.Decimal) model.Installment {
	return model.Installment{
		Number:    number,
		DueDate:   AddMonths(start, number),
		Payment:   payment.Round(2),
		Principal: amort.Round(2),
		Interest:  interest.Round(2),
		Balance:   balance.Round(2),
	}
}

// pow raises base to a non-negative integer exponent by squaring.
func pow(base decimal.Decimal, exp int) decimal.Decimal {
	result := one
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).Round(workPlaces)
		}
		base = base.Mul(base).Round(workPlaces)
		exp >>= 1
	}
	return result
}

// AddMonths adds n calendar months to t. When the target month is shorter
// the day is clamped to its last day, so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// Totals sums the payments, interest and principal of a schedule.
type Totals struct {
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
}

// Sum returns the totals of installments.
func Sum(installments []model.Installment) Totals {
	t := Totals{Payment: decimal.Zero, Interest: decimal.Zero, Principal: decimal.Zero}
	for _, inst := range installments {
		t.Payment = t.Payment.Add(inst.Payment)
		t.Interest = t.Interest.Add(inst.Interest)
		t.Principal = t.Principal.Add(inst.Principal)
	}
	return t
}

// ParseSystem accepts the canonical system names and their Spanish
// equivalents (frances, aleman, tasaFija).
func ParseSystem(s string) (model.AmortizationSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "french", "frances", "francés":
		return model.SystemFrench, nil
	case "german", "aleman", "alemán":
		return model.SystemGerman, nil
	case "fixedrate", "fixed-rate", "fixed", "tasafija", "tasa-fija":
		return model.SystemFixedRate, nil
	default:
		return "", fmt.Errorf("unknown amortization system %q", s)
	}
}
