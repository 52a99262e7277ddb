package model

// Currency is an ISO 4217 currency code supported by the ledger.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencySEK Currency = "SEK"
	CurrencyCHF Currency = "CHF"
)
