package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds one user's cash balance and outstanding debt.
type Account struct {
	ID           int64
	Username     string
	Cash         decimal.Decimal
	Debt         decimal.Decimal
	DebtDeadline *time.Time // set when a debt-covering card has been detected
	Currency     Currency
	Version      int64
}

// HasDebt reports whether the account carries outstanding debt.
func (a Account) HasDebt() bool {
	return a.Debt.IsPositive()
}
