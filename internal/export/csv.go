// Package export writes expenses and USD movements as CSV for spreadsheets.
package export

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/finanzas-dev/finanzas/internal/model"
)

// ExpensesHeader is the header row of the expenses export.
const ExpensesHeader = "Fecha,Descripción,Monto,Estado,Tipo,Pagado"

// MovementsHeader is the header row of the USD movements export.
const MovementsHeader = "Fecha,Tipo,USD,Cotización,Pesos,Descripción"

const dateFormat = "02/01/2006"

var statusLabels = map[model.PaymentStatus]string{
	model.StatusPending: "pendiente",
	model.StatusPartial: "parcial",
	model.StatusPaid:    "pagado",
}

var kindLabels = map[model.MovementKind]string{
	model.MovementBuy:  "compra",
	model.MovementSell: "venta",
	model.MovementPay:  "pago",
}

// WriteExpenses writes expenses most recent first. The header is bare and
// every data cell is quoted.
func WriteExpenses(w io.Writer, expenses []model.Expense) error {
	sorted := append([]model.Expense(nil), expenses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveDate().After(sorted[j].EffectiveDate())
	})

	rows := make([][]string, len(sorted))
	for i, e := range sorted {
		rows[i] = MarshalExpense(e)
	}
	return write(w, ExpensesHeader, rows)
}

// MarshalExpense converts an Expense to an export row.
func MarshalExpense(e model.Expense) []string {
	kind := "Variable"
	if e.Fixed {
		kind = "Fijo"
	}
	return []string{
		formatDate(e.EffectiveDate()),
		e.Description,
		e.Amount.StringFixed(2),
		statusLabels[e.Status],
		kind,
		e.AmountPaid.StringFixed(2),
	}
}

// WriteMovements writes USD movements most recent first.
func WriteMovements(w io.Writer, movements []model.DollarMovement) error {
	sorted := append([]model.DollarMovement(nil), movements...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	rows := make([][]string, len(sorted))
	for i, m := range sorted {
		rows[i] = MarshalMovement(m)
	}
	return write(w, MovementsHeader, rows)
}

// MarshalMovement converts a DollarMovement to an export row. Quotation
// and home amount are empty for payments.
func MarshalMovement(m model.DollarMovement) []string {
	row := []string{
		formatDate(m.Date),
		kindLabels[m.Kind],
		m.USDAmount.StringFixed(2),
		"",
		"",
		m.Description,
	}
	if m.Kind != model.MovementPay {
		row[3] = m.Quotation.StringFixed(2)
		row[4] = m.HomeAmount.StringFixed(2)
	}
	return row
}

// FileName returns the download name for an export, e.g.
// gastos_2025-05-20.csv.
func FileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("2006-01-02"))
}

func write(w io.Writer, header string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = quote(c)
		}
		if _, err := bw.WriteString("\n" + strings.Join(cells, ",")); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateFormat)
}
