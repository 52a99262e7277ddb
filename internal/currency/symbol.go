package currency

import (
	"github.com/Rhymond/go-money"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

// Known reports whether code is a real ISO 4217 currency.
func Known(code model.Currency) bool {
	return money.GetCurrency(string(code)) != nil
}

// Symbol returns the display symbol for a currency code ("EUR" -> "€").
// Unknown codes are returned as-is.
func Symbol(code model.Currency) string {
	cur := money.GetCurrency(string(code))
	if cur == nil {
		return string(code)
	}
	return cur.Grapheme
}
