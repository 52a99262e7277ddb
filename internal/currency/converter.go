// Package currency converts monetary amounts between the ledger's supported
// currencies using a fixed rate table relative to a base currency.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

// Scale is the ledger's fixed number of fractional digits.
const Scale = 2

// Converter performs rate-table conversion. The table is loaded once at
// startup and never mutated afterwards.
type Converter struct {
	base  model.Currency
	rates map[model.Currency]decimal.Decimal
}

// NewConverter builds a Converter from rates expressed relative to base.
// The base currency must be present in the table with rate 1.
func NewConverter(base model.Currency, rates map[model.Currency]decimal.Decimal) (*Converter, error) {
	baseRate, ok := rates[base]
	if !ok {
		return nil, fmt.Errorf("rate table is missing the base currency %s", base)
	}
	if !baseRate.Equal(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("base currency %s must have rate 1, got %s", base, baseRate)
	}
	table := make(map[model.Currency]decimal.Decimal, len(rates))
	for code, rate := range rates {
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive, got %s", code, rate)
		}
		table[code] = rate
	}
	return &Converter{base: base, rates: table}, nil
}

// Supported reports whether the converter knows the given currency.
func (c *Converter) Supported(code model.Currency) bool {
	_, ok := c.rates[code]
	return ok
}

// Convert converts amount from one currency to another via the base
// currency. Same-currency conversion returns the input unchanged, with no
// rounding pass. The result keeps full decimal precision; callers round at
// the point a balance is mutated or a figure is formatted.
func (c *Converter) Convert(amount decimal.Decimal, from, to model.Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate, ok := c.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency %s", from)
	}
	toRate, ok := c.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency %s", to)
	}
	return amount.Div(fromRate).Mul(toRate), nil
}

// RoundLedger rounds an amount to the ledger scale.
func RoundLedger(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}
