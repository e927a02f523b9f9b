package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Format renders amount in the given ISO currency with its symbol and
// separators, e.g. "$1,234.50" for USD. Unknown codes fall back to the
// plain amount followed by the code.
func Format(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	if minor.IsNegative() {
		return "-" + cur.Formatter().Format(minor.Neg().IntPart())
	}
	return cur.Formatter().Format(minor.IntPart())
}
