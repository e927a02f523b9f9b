package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind is the payment method an account stands for.
type AccountKind string

const (
	AccountCash   AccountKind = "efectivo"
	AccountDebit  AccountKind = "debito"
	AccountCredit AccountKind = "credito"
)

// ParseAccountKind accepts the stored values. Empty means unspecified.
func ParseAccountKind(s string) (AccountKind, error) {
	switch k := AccountKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", AccountCash, AccountDebit, AccountCredit:
		return k, nil
	default:
		return "", fmt.Errorf("unknown account kind %q (want efectivo, debito or credito)", s)
	}
}

// Account is a named pool of home-currency funds.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      AccountKind     `json:"kind,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int64           `json:"-"`
}

func (a *Account) Collection() Collection { return CollectionAccounts }
func (a *Account) DocID() string          { return a.ID }
func (a *Account) DocVersion() int64      { return a.Version }
func (a *Account) SetVersion(v int64)     { a.Version = v }

// Validate checks the account shape. A negative balance is rejected: no
// ledger operation can produce one.
func (a *Account) Validate() error {
	if a.ID == "" {
		return invalid("account", "", "id", "is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return invalid("account", a.ID, "name", "is required")
	}
	switch a.Kind {
	case "", AccountCash, AccountDebit, AccountCredit:
	default:
		return invalid("account", a.ID, "kind", fmt.Sprintf("%q is unknown", a.Kind))
	}
	if a.Balance.IsNegative() {
		return invalid("account", a.ID, "balance", "is negative")
	}
	return nil
}
