package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikosGkoutzas/finance-ledger/internal/currency"
	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

const (
	eurCardNumber = "4539876512340001"
	usdCardNumber = "4539876512340002"
)

var (
	reportFrom = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	reportTo   = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc       *Service
	store     *storage.Store
	accountID int64
}

// newFixture seeds an account holding 100 EUR cash, a 200 EUR card and a
// 116 USD card (worth 100 EUR), plus a mix of January transactions.
func newFixture(t *testing.T) *fixture {
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
	category, err := store.CreateCategory(ctx, account.ID, "Entertainment")
	require.NoError(t, err)

	addCard := func(number, balance string, cur model.Currency) {
		_, err := store.CreateCard(ctx, model.Card{
			AccountID: account.ID,
			Type:      model.CardTypeDebit,
			Number:    number,
			CVV:       "123",
			Expiry:    "12/27",
			Balance:   decimal.RequireFromString(balance),
			Currency:  cur,
		})
		require.NoError(t, err)
	}
	addCard(eurCardNumber, "200", model.CurrencyEUR)
	addCard(usdCardNumber, "116", model.CurrencyUSD)

	addTxn := func(typ model.TransactionType, method model.PaymentMethod, cardNumber, amount string, recurring bool) {
		require.NoError(t, store.CreateTransaction(ctx, model.Transaction{
			ID:         uuid.NewString(),
			AccountID:  account.ID,
			Method:     method,
			CardNumber: cardNumber,
			Amount:     decimal.RequireFromString(amount),
			Currency:   model.CurrencyEUR,
			Type:       typ,
			CategoryID: category.ID,
			Date:       time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			Recurring:  recurring,
		}))
	}
	addTxn(model.TypeIncome, model.MethodCash, "", "50", false)
	addTxn(model.TypeExpense, model.MethodCash, "", "30", false)
	addTxn(model.TypeExpense, model.MethodCard, eurCardNumber, "20", false)
	addTxn(model.TypeExpense, model.MethodCard, eurCardNumber, "10", true)
	// A transaction whose card has since been forfeited.
	addTxn(model.TypeExpense, model.MethodCard, "1111222233334444", "99", false)

	return &fixture{svc: NewService(store, conv), store: store, accountID: account.ID}
}

func request(scope Scope) Request {
	return Request{
		Scope:    scope,
		From:     reportFrom,
		To:       reportTo,
		Currency: model.CurrencyEUR,
	}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func TestCompute_All(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Compute(context.Background(), f.accountID, request(ScopeAll))
	require.NoError(t, err)

	assertAmount(t, "100", r.TotalCash)
	assertAmount(t, "300", r.TotalCardBalance) // 200 EUR + 116 USD
	assertAmount(t, "50", r.IncomeCash)
	assertAmount(t, "30", r.ExpenseCash)
	// Transactions on forfeited cards are excluded from card totals.
	assertAmount(t, "30", r.ExpenseCard)
	assertAmount(t, "10", r.SubscriptionExpense)

	assert.Contains(t, r.Lines, "Total assets: 400.00 EUR")
	assert.Contains(t, r.Lines, "Total cash: 100.00 EUR")
	assert.Contains(t, r.Lines, "Total expenses in card: 30.00 EUR")
	assert.Contains(t, r.Lines, "Debit - ************0002  ->  100.00 EUR")
}

func TestCompute_AllInUSD(t *testing.T) {
	f := newFixture(t)

	req := request(ScopeAll)
	req.Currency = model.CurrencyUSD
	r, err := f.svc.Compute(context.Background(), f.accountID, req)
	require.NoError(t, err)

	assertAmount(t, "116", r.TotalCash)
	assert.Contains(t, r.Lines, "Total cash: 116.00 USD")
}

func TestCompute_Cash(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Compute(context.Background(), f.accountID, request(ScopeCash))
	require.NoError(t, err)

	assertAmount(t, "100", r.TotalCash)
	assertAmount(t, "50", r.IncomeCash)
	assertAmount(t, "30", r.ExpenseCash)
	assert.True(t, r.TotalCardBalance.IsZero())

	// Without flags both totals are shown.
	assert.Contains(t, r.Lines, "Total incomes in cash: 50.00 EUR")
	assert.Contains(t, r.Lines, "Total expenses in cash: 30.00 EUR")
}

func TestCompute_CashIncomeFlagOnly(t *testing.T) {
	f := newFixture(t)

	req := request(ScopeCash)
	req.IncludeIncome = true
	r, err := f.svc.Compute(context.Background(), f.accountID, req)
	require.NoError(t, err)

	assert.Contains(t, r.Lines, "Total incomes in cash: 50.00 EUR")
	assert.NotContains(t, r.Lines, "Total expenses in cash: 30.00 EUR")
}

func TestCompute_Card(t *testing.T) {
	f := newFixture(t)

	req := request(ScopeCard)
	req.CardNumber = eurCardNumber
	r, err := f.svc.Compute(context.Background(), f.accountID, req)
	require.NoError(t, err)

	assertAmount(t, "300", r.TotalCardBalance)
	assertAmount(t, "30", r.ExpenseCard)
	assertAmount(t, "10", r.SubscriptionExpense)
	assert.Contains(t, r.Lines, `Total expenses with "************0001": 30.00 EUR`)
	assert.Contains(t, r.Lines, `Total expenses subscriptions with "************0001": 10.00 EUR`)
}

func TestCompute_CardUnknownNumber(t *testing.T) {
	f := newFixture(t)

	req := request(ScopeCard)
	req.CardNumber = "9999888877776666"
	_, err := f.svc.Compute(context.Background(), f.accountID, req)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCompute_DateWindowFiltersTransactions(t *testing.T) {
	f := newFixture(t)

	req := request(ScopeCash)
	req.From = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	req.To = time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	r, err := f.svc.Compute(context.Background(), f.accountID, req)
	require.NoError(t, err)

	assert.True(t, r.IncomeCash.IsZero())
	assert.True(t, r.ExpenseCash.IsZero())
}

func TestCompute_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr string
	}{
		{
			name:    "missing dates",
			mutate:  func(r *Request) { r.From = time.Time{} },
			wantErr: "both report dates are required",
		},
		{
			name: "end before start",
			mutate: func(r *Request) {
				r.From, r.To = r.To, r.From
			},
			wantErr: "must not precede the start date",
		},
		{
			name:    "unknown scope",
			mutate:  func(r *Request) { r.Scope = Scope("everything") },
			wantErr: `unknown report scope "everything"`,
		},
		{
			name:    "card scope without number",
			mutate:  func(r *Request) { r.Scope = ScopeCard },
			wantErr: "requires a card number",
		},
		{
			name:    "currency outside the rate table",
			mutate:  func(r *Request) { r.Currency = model.CurrencyJPY },
			wantErr: "unsupported report currency JPY",
		},
		{
			name:    "not a real currency",
			mutate:  func(r *Request) { r.Currency = model.Currency("ZZZ") },
			wantErr: "unsupported report currency ZZZ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(ScopeAll)
			tt.mutate(&req)
			_, err := f.svc.Compute(context.Background(), f.accountID, req)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
