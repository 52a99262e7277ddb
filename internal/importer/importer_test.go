package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikosGkoutzas/finance-ledger/internal/currency"
	"github.com/NikosGkoutzas/finance-ledger/internal/debts"
	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
	"github.com/NikosGkoutzas/finance-ledger/internal/transactions"
)

const statementHeader = "type,method,amount,currency,category,card_number,card_cvv,card_expiry\n"

func newFixture(t *testing.T) (*Service, *storage.Store, int64) {
	t.Helper()

	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	conv, err := currency.NewConverter(model.CurrencyEUR, map[model.Currency]decimal.Decimal{
		model.CurrencyEUR: decimal.NewFromFloat(1.00),
		model.CurrencyUSD: decimal.NewFromFloat(1.16),
	})
	require.NoError(t, err)

	ctx := context.Background()
	account, err := store.CreateAccount(ctx, "nikos", decimal.NewFromInt(100), model.CurrencyEUR)
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, account.ID, "Food")
	require.NoError(t, err)

	txns := transactions.NewService(store, conv, debts.NewService(store, 5*time.Minute), transactions.Limits{
		CreditLimit:    decimal.NewFromInt(1000),
		CashMax:        decimal.NewFromInt(10000),
		CardBalanceMax: decimal.NewFromInt(100000),
		AmountMax:      decimal.NewFromInt(10000),
	})
	return NewService(store, txns), store, account.ID
}

func TestImport(t *testing.T) {
	svc, store, accountID := newFixture(t)

	statement := statementHeader +
		"Expense,Cash,30,EUR,Food,,,\n" +
		"Income,Cash,58,USD,Food,,,\n"

	results, err := svc.Import(context.Background(), accountID, strings.NewReader(statement))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.NotEmpty(t, r.Transaction.ID)
	}

	// 100 - 30 + 50 (58 USD converted).
	account, err := store.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, "120", account.Cash.String())
}

func TestImport_RejectedRowDoesNotAbortBatch(t *testing.T) {
	svc, store, accountID := newFixture(t)

	statement := statementHeader +
		"Expense,Cash,30,EUR,Travel,,,\n" + // unknown category
		"Expense,Cash,-5,EUR,Food,,,\n" + // invalid amount
		"Expense,Wire,10,EUR,Food,,,\n" + // unknown method
		"Expense,Cash,10,EUR,Food,,,\n"

	results, err := svc.Import(context.Background(), accountID, strings.NewReader(statement))
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.ErrorContains(t, results[0].Err, `row 2: unknown category "Travel"`)
	assert.ErrorContains(t, results[1].Err, "amount must be positive")
	assert.ErrorContains(t, results[2].Err, `unknown payment method "Wire"`)
	assert.NoError(t, results[3].Err)

	account, err := store.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, "90", account.Cash.String())
}

func TestImport_CardRow(t *testing.T) {
	svc, store, accountID := newFixture(t)

	_, err := store.CreateCard(context.Background(), model.Card{
		AccountID: accountID,
		Type:      model.CardTypeDebit,
		Number:    "4539876512340001",
		CVV:       "123",
		Expiry:    "12/27",
		Balance:   decimal.NewFromInt(200),
		Currency:  model.CurrencyEUR,
	})
	require.NoError(t, err)

	statement := statementHeader +
		"Expense,Card,25,EUR,Food,4539876512340001,123,12/27\n"
	results, err := svc.Import(context.Background(), accountID, strings.NewReader(statement))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}

func TestImport_EmptyStatement(t *testing.T) {
	svc, _, accountID := newFixture(t)

	results, err := svc.Import(context.Background(), accountID, strings.NewReader(statementHeader))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestImport_MalformedCSV(t *testing.T) {
	svc, _, accountID := newFixture(t)

	_, err := svc.Import(context.Background(), accountID, strings.NewReader(statementHeader+"only,three,fields\n"))
	assert.ErrorContains(t, err, "reading statement")
}
