package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the funding source kind of a transaction.
type PaymentMethod string

const (
	MethodCash PaymentMethod = "Cash"
	MethodCard PaymentMethod = "Card"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "Income"
	TypeExpense TransactionType = "Expense"
)

// Recurrence is the period of a recurring transaction.
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "Daily"
	RecurrenceWeekly  Recurrence = "Weekly"
	RecurrenceMonthly Recurrence = "Monthly"
	RecurrenceYearly  Recurrence = "Yearly"
)

// Transaction is a committed ledger entry. Once persisted it is immutable
// except for NextDue and LastApplied (advanced by the subscription
// scheduler) and Message.
type Transaction struct {
	ID         string // uuid
	AccountID  int64
	Method     PaymentMethod
	CardNumber string // set iff Method == MethodCard
	CardCVV    string
	CardExpiry string
	Amount     decimal.Decimal
	Currency   Currency
	Type       TransactionType
	CategoryID int64
	Date       time.Time // creation date

	Recurring   bool
	StartDate   time.Time
	EndDate     time.Time
	Recurrence  Recurrence
	NextDue     time.Time
	LastApplied time.Time // most recent due date whose effect was applied

	Message string
}

// Unit returns the singular period name for a recurrence ("day", "week"...).
func (r Recurrence) Unit() string {
	switch r {
	case RecurrenceWeekly:
		return "week"
	case RecurrenceMonthly:
		return "month"
	case RecurrenceYearly:
		return "year"
	default:
		return "day"
	}
}
