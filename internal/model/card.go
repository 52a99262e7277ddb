package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CardType classifies payment cards.
type CardType string

const (
	CardTypeCredit  CardType = "Credit"
	CardTypeDebit   CardType = "Debit"
	CardTypePrepaid CardType = "Prepaid"
	CardTypeVirtual CardType = "Virtual"
)

// Card is a payment card owned by exactly one account.
type Card struct {
	ID        int64
	AccountID int64
	Type      CardType
	Number    string // 16 digits
	CVV       string // 3 digits
	Expiry    string // "MM/YY"
	Balance   decimal.Decimal
	Currency  Currency
	Version   int64
}

// MaskedNumber renders the card number with all but the last 4 digits hidden.
// "1234567890123456" -> "************3456"
func (c Card) MaskedNumber() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return strings.Repeat("*", len(c.Number)-4) + c.Number[len(c.Number)-4:]
}
