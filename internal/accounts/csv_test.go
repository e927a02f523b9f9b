package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanzas-dev/finanzas/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: "cash", Name: "Efectivo", Balance: dec("1500.5")},
		{ID: "visa", Name: "Débito, Visa", Balance: dec("0")},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "account_id,name,balance\n"))
	assert.Contains(t, buf.String(), "cash,Efectivo,1500.50\n")

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "cash", got[0].ID)
	assert.Equal(t, "1500.50", got[0].Balance.StringFixed(2))
	assert.Equal(t, "Débito, Visa", got[1].Name)
}

func TestReadAccountsOptionalFields(t *testing.T) {
	in := "account_id,name,balance\n,Ahorros,\n"
	got, err := ReadAccounts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ID)
	assert.True(t, got[0].Balance.IsZero())
}

func TestReadAccountsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad balance", "account_id,name,balance\na,Cash,abc\n"},
		{"negative balance", "account_id,name,balance\na,Cash,-1\n"},
		{"missing name", "account_id,name,balance\na, ,1\n"},
		{"wrong field count", "account_id,name,balance\na,Cash\n"},
	}
	for _, tt := range tests {
		_, err := ReadAccounts(strings.NewReader(tt.in))
		assert.Error(t, err, tt.name)
	}
}

func TestReadAccountsEmpty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDefaults(t *testing.T) {
	var names []string
	var kinds []model.AccountKind
	for _, a := range Defaults() {
		names = append(names, a.Name)
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, []string{"Efectivo", "Débito Visa", "Crédito Visa"}, names)
	assert.Equal(t, []model.AccountKind{model.AccountCash, model.AccountDebit, model.AccountCredit}, kinds)
}
