package categories

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

var defaultTitles = []string{"Food", "Clothing", "Transportation", "Household bills", "Health", "Entertainment"}

func newFixture(t *testing.T) (*Service, *storage.Store, int64) {
	t.Helper()

	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	account, err := store.CreateAccount(context.Background(), "nikos", decimal.Zero, model.CurrencyEUR)
	require.NoError(t, err)

	return NewService(store, defaultTitles), store, account.ID
}

func TestCreate(t *testing.T) {
	svc, _, accountID := newFixture(t)

	cat, err := svc.Create(context.Background(), accountID, "Travel")
	require.NoError(t, err)
	assert.Equal(t, "Travel", cat.Title)
	assert.Equal(t, accountID, cat.AccountID)
}

func TestCreate_DuplicateTitle(t *testing.T) {
	svc, _, accountID := newFixture(t)

	_, err := svc.Create(context.Background(), accountID, "Travel")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), accountID, "travel")
	assert.ErrorContains(t, err, "this category already exists for this account")
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestSeed(t *testing.T) {
	svc, store, accountID := newFixture(t)

	require.NoError(t, svc.Seed(context.Background(), accountID))

	cats, err := store.ListCategories(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, cats, len(defaultTitles))
	for _, c := range cats {
		assert.Contains(t, defaultTitles, c.Title)
	}
}

func TestSeed_SkipsExistingTitles(t *testing.T) {
	svc, store, accountID := newFixture(t)

	_, err := svc.Create(context.Background(), accountID, "Food")
	require.NoError(t, err)

	require.NoError(t, svc.Seed(context.Background(), accountID))
	cats, err := store.ListCategories(context.Background(), accountID)
	require.NoError(t, err)
	assert.Len(t, cats, len(defaultTitles))
}
