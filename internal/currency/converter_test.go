package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

func testRates() map[model.Currency]decimal.Decimal {
	return map[model.Currency]decimal.Decimal{
		model.CurrencyEUR: decimal.NewFromFloat(1.00),
		model.CurrencyUSD: decimal.NewFromFloat(1.16),
		model.CurrencyGBP: decimal.NewFromFloat(0.85),
		model.CurrencyJPY: decimal.NewFromFloat(171.00),
		model.CurrencySEK: decimal.NewFromFloat(11.56),
		model.CurrencyCHF: decimal.NewFromFloat(1.09),
	}
}

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	c, err := NewConverter(model.CurrencyEUR, testRates())
	require.NoError(t, err)
	return c
}

func TestConvert_SameCurrencyUnchanged(t *testing.T) {
	c := newTestConverter(t)

	in := decimal.RequireFromString("123.456") // deliberately beyond ledger scale
	out, err := c.Convert(in, model.CurrencyEUR, model.CurrencyEUR)
	require.NoError(t, err)
	assert.True(t, in.Equal(out), "same-currency conversion must not touch the amount")
}

func TestConvert_ViaBase(t *testing.T) {
	c := newTestConverter(t)

	out, err := c.Convert(decimal.RequireFromString("116.00"), model.CurrencyUSD, model.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, "100.00", RoundLedger(out).StringFixed(2))

	out, err = c.Convert(decimal.RequireFromString("100.00"), model.CurrencyEUR, model.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, "116.00", RoundLedger(out).StringFixed(2))
}

func TestConvert_RoundTrip(t *testing.T) {
	c := newTestConverter(t)
	codes := []model.Currency{
		model.CurrencyEUR, model.CurrencyUSD, model.CurrencyGBP,
		model.CurrencyJPY, model.CurrencySEK, model.CurrencyCHF,
	}
	amount := decimal.RequireFromString("250.37")

	for _, from := range codes {
		for _, to := range codes {
			there, err := c.Convert(amount, from, to)
			require.NoError(t, err)
			back, err := c.Convert(there, to, from)
			require.NoError(t, err)
			assert.True(t, RoundLedger(back).Equal(amount),
				"%s -> %s -> %s: got %s", from, to, from, back)
		}
	}
}

func TestConvert_UnsupportedCurrency(t *testing.T) {
	c := newTestConverter(t)

	_, err := c.Convert(decimal.NewFromInt(10), "AUD", model.CurrencyEUR)
	assert.ErrorContains(t, err, "unsupported currency AUD")

	_, err = c.Convert(decimal.NewFromInt(10), model.CurrencyEUR, "AUD")
	assert.ErrorContains(t, err, "unsupported currency AUD")
}

func TestNewConverter_Validation(t *testing.T) {
	_, err := NewConverter(model.CurrencyEUR, map[model.Currency]decimal.Decimal{
		model.CurrencyUSD: decimal.NewFromFloat(1.16),
	})
	assert.ErrorContains(t, err, "missing the base currency")

	_, err = NewConverter(model.CurrencyEUR, map[model.Currency]decimal.Decimal{
		model.CurrencyEUR: decimal.NewFromInt(2),
	})
	assert.ErrorContains(t, err, "must have rate 1")

	_, err = NewConverter(model.CurrencyEUR, map[model.Currency]decimal.Decimal{
		model.CurrencyEUR: decimal.NewFromInt(1),
		model.CurrencyJPY: decimal.Zero,
	})
	assert.ErrorContains(t, err, "must be positive")
}

func TestRoundLedger(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.004", "10.00"},
		{"10.005", "10.01"},
		{"10", "10.00"},
		{"-3.339", "-3.34"},
	}
	for _, tt := range tests {
		got := RoundLedger(decimal.RequireFromString(tt.in))
		assert.Equal(t, tt.want, got.StringFixed(2), "RoundLedger(%s)", tt.in)
	}
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "€", Symbol(model.CurrencyEUR))
	assert.Equal(t, "$", Symbol(model.CurrencyUSD))
	assert.Equal(t, "XXX?", Symbol(model.Currency("XXX?")))
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(model.CurrencyEUR))
	assert.True(t, Known(model.CurrencySEK))
	assert.False(t, Known(model.Currency("NOPE")))
}
