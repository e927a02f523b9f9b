package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finanzas-dev/finanzas/internal/id"
)

const dateLayout = "2006-01-02"

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// parseDate parses YYYY-MM-DD; an empty string yields the zero time so the
// service picks its own default.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

func parseNumbers(args []string) ([]int, error) {
	var out []int
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("parsing installment number %q: %w", part, err)
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// resolveRef finds the item whose name matches ref case-insensitively, as
// long as exactly one does, or else whose ID or unique ID prefix does.
func resolveRef[T any](ref string, items []T, idOf, nameOf func(T) string) (T, error) {
	var zero T
	var named []T
	for _, it := range items {
		if strings.EqualFold(nameOf(it), strings.TrimSpace(ref)) {
			named = append(named, it)
		}
	}
	if len(named) == 1 {
		return named[0], nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = idOf(it)
	}
	match, err := id.Resolve(ref, ids)
	if err != nil {
		return zero, err
	}
	for _, it := range items {
		if idOf(it) == match {
			return it, nil
		}
	}
	return zero, fmt.Errorf("no ID matches %q", ref)
}
