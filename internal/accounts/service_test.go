package accounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Repository, *store.MemoryBackend) {
	t.Helper()
	backend := store.NewMemoryBackend()
	repo := store.New(backend, "u1")
	return NewService(repo, WithClock(func() time.Time { return fixedNow })), repo, backend
}

// openAccount creates an account and credits its opening balance.
func openAccount(t *testing.T, svc *Service, name, balance string) model.Account {
	t.Helper()
	ctx := context.Background()
	a, err := svc.Create(ctx, name)
	require.NoError(t, err)
	if b := dec(balance); b.IsPositive() {
		require.NoError(t, svc.Credit(ctx, a.ID, b))
	}
	a, err = svc.Get(ctx, a.ID)
	require.NoError(t, err)
	return a
}

func balance(t *testing.T, svc *Service, accountID string) string {
	t.Helper()
	a, err := svc.Get(context.Background(), accountID)
	require.NoError(t, err)
	return a.Balance.StringFixed(2)
}

func TestCreateStartsAtZero(t *testing.T) {
	svc, _, _ := newTestService(t)
	a, err := svc.Create(context.Background(), " Efectivo ")
	require.NoError(t, err)

	assert.Equal(t, "Efectivo", a.Name)
	assert.True(t, a.Balance.IsZero())
	assert.Equal(t, fixedNow, a.CreatedAt)
	assert.Equal(t, int64(1), a.Version)

	_, err = svc.Create(context.Background(), "  ")
	assert.Error(t, err)
}

func TestCreditDebit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	cash := openAccount(t, svc, "Cash", "1000")

	require.NoError(t, svc.Debit(ctx, cash.ID, dec("150")))
	assert.Equal(t, "850.00", balance(t, svc, cash.ID))

	require.NoError(t, svc.Credit(ctx, cash.ID, dec("0.50")))
	assert.Equal(t, "850.50", balance(t, svc, cash.ID))

	assert.ErrorIs(t, svc.Credit(ctx, cash.ID, decimal.Zero), model.ErrInvalidAmount)
	assert.ErrorIs(t, svc.Debit(ctx, cash.ID, dec("-1")), model.ErrInvalidAmount)
	assert.ErrorIs(t, svc.Credit(ctx, "missing", dec("1")), model.ErrAccountNotFound)
}

func TestDebitNeverGoesNegative(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	cash := openAccount(t, svc, "Cash", "100")

	steps := []struct {
		amount string
		ok     bool
		want   string
	}{
		{"60", true, "40.00"},
		{"40.01", false, "40.00"},
		{"40", true, "0.00"},
		{"0.01", false, "0.00"},
	}
	for _, st := range steps {
		err := svc.Debit(ctx, cash.ID, dec(st.amount))
		if st.ok {
			require.NoError(t, err, "debit %s", st.amount)
		} else {
			require.ErrorIs(t, err, model.ErrInsufficientFunds, "debit %s", st.amount)
		}
		assert.Equal(t, st.want, balance(t, svc, cash.ID), "after debit %s", st.amount)
	}
}

func TestTransfer(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	cash := openAccount(t, svc, "Cash", "300")
	savings := openAccount(t, svc, "Savings", "0")

	_, err := svc.Transfer(ctx, cash.ID, cash.ID, dec("200"))
	require.ErrorIs(t, err, model.ErrInvalidTransfer)
	_, err = svc.Transfer(ctx, cash.ID, savings.ID, decimal.Zero)
	require.ErrorIs(t, err, model.ErrInvalidTransfer)
	assert.Equal(t, "300.00", balance(t, svc, cash.ID))

	tr, err := svc.Transfer(ctx, cash.ID, savings.ID, dec("200"))
	require.NoError(t, err)
	assert.Equal(t, "100.00", balance(t, svc, cash.ID))
	assert.Equal(t, "200.00", balance(t, svc, savings.ID))

	transfers, err := repo.LoadTransfers(ctx)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, tr.ID, transfers[0].ID)
	assert.Equal(t, fixedNow, transfers[0].CreatedAt)
}

func TestTransferConservesMoney(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := openAccount(t, svc, "A", "500")
	b := openAccount(t, svc, "B", "125.25")

	amounts := []string{"10", "490", "0.75", "600", "124.50", "1000"}
	for i, m := range amounts {
		from, to := a.ID, b.ID
		if i%2 == 1 {
			from, to = b.ID, a.ID
		}
		_, _ = svc.Transfer(ctx, from, to, dec(m))

		total := dec(balance(t, svc, a.ID)).Add(dec(balance(t, svc, b.ID)))
		assert.Equal(t, "625.25", total.StringFixed(2), "after transfer %d", i)
	}
}

func TestTransferInsufficientLeavesBothUntouched(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	cash := openAccount(t, svc, "Cash", "50")
	savings := openAccount(t, svc, "Savings", "10")

	_, err := svc.Transfer(ctx, cash.ID, savings.ID, dec("50.01"))
	require.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.Equal(t, "50.00", balance(t, svc, cash.ID))
	assert.Equal(t, "10.00", balance(t, svc, savings.ID))

	_, err = svc.Transfer(ctx, cash.ID, "missing", dec("5"))
	require.ErrorIs(t, err, model.ErrAccountNotFound)
	assert.Equal(t, "50.00", balance(t, svc, cash.ID), "debit is not committed when the credit fails")

	transfers, err := repo.LoadTransfers(ctx)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestRunFailsClosedOnConcurrentWrite(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	cash := openAccount(t, svc, "Cash", "100")

	err := svc.Run(ctx, func(b *Batch) error {
		if err := b.Debit(cash.ID, dec("80")); err != nil {
			return err
		}
		// Another device spends from the same account meanwhile.
		other, err := repo.GetAccount(ctx, cash.ID)
		require.NoError(t, err)
		other.Balance = dec("30")
		return repo.WriteGrouped(ctx, []store.Op{store.Update(&other)})
	})
	require.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, "30.00", balance(t, svc, cash.ID))
}

func TestRunWritesNothingWhenFnFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	cash := openAccount(t, svc, "Cash", "100")

	err := svc.Run(ctx, func(b *Batch) error {
		require.NoError(t, b.Debit(cash.ID, dec("60")))
		return b.Debit(cash.ID, dec("60"))
	})
	require.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.Equal(t, "100.00", balance(t, svc, cash.ID))
}

func TestRunHonorsCancellation(t *testing.T) {
	svc, _, _ := newTestService(t)
	cash := openAccount(t, svc, "Cash", "100")

	ctx, cancel := context.WithCancel(context.Background())
	err := svc.Run(ctx, func(b *Batch) error {
		cancel()
		return b.Debit(cash.ID, dec("10"))
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "100.00", balance(t, svc, cash.ID))
}

func TestRunSurfacesRetryableStoreErrors(t *testing.T) {
	svc, _, backend := newTestService(t)
	cash := openAccount(t, svc, "Cash", "100")

	backend.FailNext(store.ErrUnavailable)
	err := svc.Debit(context.Background(), cash.ID, dec("10"))
	require.Error(t, err)
	assert.True(t, store.IsRetryable(err))
	assert.Equal(t, "100.00", balance(t, svc, cash.ID))
}

func TestConcurrentDebitsAreSerialized(t *testing.T) {
	svc, _, _ := newTestService(t)
	cash := openAccount(t, svc, "Cash", "100")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Debit(context.Background(), cash.ID, dec("10"))
		}()
	}
	wg.Wait()
	close(errs)

	var ok, short int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, model.ErrInsufficientFunds)
			short++
		}
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, short)
	assert.Equal(t, "0.00", balance(t, svc, cash.ID))
}

func TestRenameAndDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	cash := openAccount(t, svc, "Cash", "42")

	renamed, err := svc.Rename(ctx, cash.ID, "Billetera")
	require.NoError(t, err)
	assert.Equal(t, "Billetera", renamed.Name)
	assert.Equal(t, "42.00", balance(t, svc, cash.ID))

	_, err = svc.Rename(ctx, "missing", "x")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)

	require.NoError(t, svc.Delete(ctx, cash.ID))
	_, err = svc.Get(ctx, cash.ID)
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, cash.ID), model.ErrAccountNotFound)
}

func TestFind(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	cash := openAccount(t, svc, "Efectivo", "0")
	openAccount(t, svc, "Débito Visa", "0")

	got, err := svc.Find(ctx, "efectivo")
	require.NoError(t, err)
	assert.Equal(t, cash.ID, got.ID)

	got, err = svc.Find(ctx, cash.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, cash.ID, got.ID)

	_, err = svc.Find(ctx, "Ahorros")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	openAccount(t, svc, "efectivo", "0")

	created, err := svc.Seed(ctx, Defaults())
	require.NoError(t, err)
	assert.Len(t, created, 2, "existing names are skipped case-insensitively")

	created, err = svc.Seed(ctx, Defaults())
	require.NoError(t, err)
	assert.Empty(t, created)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Crédito Visa", all[0].Name, "ordered by name")
	assert.Equal(t, model.AccountCredit, all[0].Kind)
	assert.Empty(t, all[2].Kind, "an existing account keeps its kind")
}

func TestImport(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Import(ctx, []model.Account{
		{ID: "cash", Name: "Efectivo", Balance: dec("1500.50"), Kind: model.AccountCash},
		{Name: "Ahorros"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	stored, err := svc.Get(ctx, "cash")
	require.NoError(t, err)
	assert.Equal(t, model.AccountCash, stored.Kind)
	assert.Equal(t, "1500.50", balance(t, svc, "cash"))
	assert.NotEmpty(t, created[1].ID)

	_, err = svc.Import(ctx, []model.Account{{ID: "new", Name: "Nueva", Balance: dec("1")}, {ID: "cash", Name: "Dup"}})
	require.ErrorIs(t, err, store.ErrConflict)
	_, err = svc.Get(ctx, "new")
	assert.ErrorIs(t, err, model.ErrAccountNotFound, "import is all or nothing")
}
