package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind classifies a USD movement.
type MovementKind string

const (
	MovementBuy  MovementKind = "buy"
	MovementSell MovementKind = "sell"
	MovementPay  MovementKind = "pay"
)

// DollarBalanceID is the document ID of the per-user USD balance.
const DollarBalanceID = "usd"

// DollarBalance is the single USD scalar held by the user.
type DollarBalance struct {
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int64           `json:"-"`
}

func (b *DollarBalance) Collection() Collection { return CollectionDollarBalance }
func (b *DollarBalance) DocID() string          { return DollarBalanceID }
func (b *DollarBalance) DocVersion() int64      { return b.Version }
func (b *DollarBalance) SetVersion(v int64)     { b.Version = v }

// Validate rejects a negative USD balance.
func (b *DollarBalance) Validate() error {
	if b.Amount.IsNegative() {
		return invalid("dollar balance", DollarBalanceID, "amount", "is negative")
	}
	return nil
}

// DollarMovement is one append-only entry of the USD movement log.
// Quotation, HomeAmount and AccountID are set for buy and sell only.
type DollarMovement struct {
	ID          string          `json:"id"`
	Kind        MovementKind    `json:"kind"`
	USDAmount   decimal.Decimal `json:"usd_amount"`
	Quotation   decimal.Decimal `json:"quotation,omitzero"`
	HomeAmount  decimal.Decimal `json:"home_amount,omitzero"`
	AccountID   string          `json:"account_id,omitempty"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Version     int64           `json:"-"`
}

func (m *DollarMovement) Collection() Collection { return CollectionDollarMovements }
func (m *DollarMovement) DocID() string          { return m.ID }
func (m *DollarMovement) DocVersion() int64      { return m.Version }
func (m *DollarMovement) SetVersion(v int64)     { m.Version = v }

// Validate checks the movement against its kind.
func (m *DollarMovement) Validate() error {
	if m.ID == "" {
		return invalid("dollar movement", "", "id", "is required")
	}
	if !m.USDAmount.IsPositive() {
		return invalid("dollar movement", m.ID, "usd_amount", "must be positive")
	}
	switch m.Kind {
	case MovementBuy, MovementSell:
		if !m.Quotation.IsPositive() {
			return invalid("dollar movement", m.ID, "quotation", "must be positive")
		}
		if m.AccountID == "" {
			return invalid("dollar movement", m.ID, "account_id", "is required")
		}
	case MovementPay:
		if strings.TrimSpace(m.Description) == "" {
			return invalid("dollar movement", m.ID, "description", "is required")
		}
	default:
		return invalid("dollar movement", m.ID, "kind", "is unknown: "+string(m.Kind))
	}
	return nil
}
