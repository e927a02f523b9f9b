package accounts

import "github.com/finanzas-dev/finanzas/internal/model"

// Defaults returns the accounts a new user starts with, one per payment
// method.
func Defaults() []model.Account {
	return []model.Account{
		{Name: "Efectivo", Kind: model.AccountCash},
		{Name: "Débito Visa", Kind: model.AccountDebit},
		{Name: "Crédito Visa", Kind: model.AccountCredit},
	}
}
