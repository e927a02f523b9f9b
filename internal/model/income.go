package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Income is a deposit into an account.
type Income struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	AccountID   string          `json:"account_id"`
	CreatedAt   time.Time       `json:"created_at"`
	Version     int64           `json:"-"`
}

func (i *Income) Collection() Collection { return CollectionIncomes }
func (i *Income) DocID() string          { return i.ID }
func (i *Income) DocVersion() int64      { return i.Version }
func (i *Income) SetVersion(v int64)     { i.Version = v }

// Validate checks the income shape.
func (i *Income) Validate() error {
	if i.ID == "" {
		return invalid("income", "", "id", "is required")
	}
	if strings.TrimSpace(i.Description) == "" {
		return invalid("income", i.ID, "description", "is required")
	}
	if !i.Amount.IsPositive() {
		return invalid("income", i.ID, "amount", "must be positive")
	}
	if i.AccountID == "" {
		return invalid("income", i.ID, "account_id", "is required")
	}
	return nil
}

// Transfer is the immutable audit record of a move between two accounts.
type Transfer struct {
	ID        string          `json:"id"`
	FromID    string          `json:"from_id"`
	ToID      string          `json:"to_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	Version   int64           `json:"-"`
}

func (t *Transfer) Collection() Collection { return CollectionTransfers }
func (t *Transfer) DocID() string          { return t.ID }
func (t *Transfer) DocVersion() int64      { return t.Version }
func (t *Transfer) SetVersion(v int64)     { t.Version = v }

// Validate checks the transfer shape.
func (t *Transfer) Validate() error {
	if t.ID == "" {
		return invalid("transfer", "", "id", "is required")
	}
	if t.FromID == "" || t.ToID == "" {
		return invalid("transfer", t.ID, "accounts", "are required")
	}
	if t.FromID == t.ToID {
		return invalid("transfer", t.ID, "accounts", "must differ")
	}
	if !t.Amount.IsPositive() {
		return invalid("transfer", t.ID, "amount", "must be positive")
	}
	return nil
}
