package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationSystem governs how a credit's payments split between
// interest and principal.
type AmortizationSystem string

const (
	SystemFrench    AmortizationSystem = "french"
	SystemGerman    AmortizationSystem = "german"
	SystemFixedRate AmortizationSystem = "fixedRate"
)

// CreditStatus distinguishes simulations from credits actually taken.
type CreditStatus string

const (
	CreditSimulation CreditStatus = "simulation"
	CreditActive     CreditStatus = "active"
)

// Credit is an installment loan and its generated schedule.
type Credit struct {
	ID           string             `json:"id"`
	Principal    decimal.Decimal    `json:"principal"`
	Entity       string             `json:"entity"`
	AnnualRate   decimal.Decimal    `json:"annual_rate"`
	Months       int                `json:"months"`
	System       AmortizationSystem `json:"system"`
	Status       CreditStatus       `json:"status"`
	Installments []Installment      `json:"installments"`

	// RemainingBalance starts at the last installment's closing balance
	// (zero) and drops by each prepayment, so it goes negative once anything
	// is prepaid. Use Outstanding for what is still owed.
	RemainingBalance decimal.Decimal `json:"remaining_balance"`

	LastInstallmentDate time.Time    `json:"last_installment_date"`
	RequestDate         time.Time    `json:"request_date,omitzero"`
	Prepayments         []Prepayment `json:"prepayments"`
	CreatedAt           time.Time    `json:"created_at"`
	Version             int64        `json:"-"`
}

// Installment is one scheduled payment of a credit.
type Installment struct {
	Number    int             `json:"number"`
	DueDate   time.Time       `json:"due_date"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
	Paid      bool            `json:"paid"`
}

// Prepayment settles selected installments ahead of schedule.
type Prepayment struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Installments []int           `json:"installments"`
	AccountID    string          `json:"account_id,omitempty"`
}

func (c *Credit) Collection() Collection { return CollectionCredits }
func (c *Credit) DocID() string          { return c.ID }
func (c *Credit) DocVersion() int64      { return c.Version }
func (c *Credit) SetVersion(v int64)     { c.Version = v }

// Installment returns the installment with the given 1-based number.
func (c *Credit) Installment(number int) (*Installment, bool) {
	if number < 1 || number > len(c.Installments) {
		return nil, false
	}
	return &c.Installments[number-1], true
}

// Outstanding is the sum of the payments of installments not yet paid.
func (c *Credit) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range c.Installments {
		if !inst.Paid {
			total = total.Add(inst.Payment)
		}
	}
	return total
}

// Validate checks the credit and its schedule.
func (c *Credit) Validate() error {
	if c.ID == "" {
		return invalid("credit", "", "id", "is required")
	}
	if strings.TrimSpace(c.Entity) == "" {
		return invalid("credit", c.ID, "entity", "is required")
	}
	if !c.Principal.IsPositive() {
		return invalid("credit", c.ID, "principal", "must be positive")
	}
	if c.AnnualRate.IsNegative() {
		return invalid("credit", c.ID, "annual_rate", "is negative")
	}
	if c.Months < 1 {
		return invalid("credit", c.ID, "months", "must be at least 1")
	}
	switch c.System {
	case SystemFrench, SystemGerman, SystemFixedRate:
	default:
		return invalid("credit", c.ID, "system", "is unknown: "+string(c.System))
	}
	switch c.Status {
	case CreditSimulation:
	case CreditActive:
		if c.RequestDate.IsZero() {
			return invalid("credit", c.ID, "request_date", "is required for active credits")
		}
	default:
		return invalid("credit", c.ID, "status", "is unknown: "+string(c.Status))
	}
	if len(c.Installments) != c.Months {
		return invalid("credit", c.ID, "installments", fmt.Sprintf("has %d entries, want %d", len(c.Installments), c.Months))
	}
	for i, inst := range c.Installments {
		if inst.Number != i+1 {
			return invalid("credit", c.ID, "installments", fmt.Sprintf("number %d at position %d", inst.Number, i+1))
		}
	}
	for _, p := range c.Prepayments {
		for _, n := range p.Installments {
			inst, ok := c.Installment(n)
			if !ok || !inst.Paid {
				return invalid("credit", c.ID, "prepayments", fmt.Sprintf("reference unpaid installment %d", n))
			}
		}
	}
	return nil
}
