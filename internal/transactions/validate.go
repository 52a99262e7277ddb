package transactions

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

// Intent is a proposed transaction before validation and processing.
type Intent struct {
	Method     model.PaymentMethod
	CardNumber string
	CardCVV    string
	CardExpiry string
	Amount     decimal.Decimal
	Currency   model.Currency
	Type       model.TransactionType
	CategoryID int64
	Recurring  bool
	StartDate  time.Time
	EndDate    time.Time
	Recurrence model.Recurrence
}

var (
	digits16  = regexp.MustCompile(`^[0-9]{16}$`)
	digits3   = regexp.MustCompile(`^[0-9]{3}$`)
	expiryPat = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

// Validate checks an intent against the business constraints, in a fixed
// order, returning the first violated rule. categories are the acting
// account's categories. It has no side effects.
func Validate(intent Intent, categories []model.Category, amountMax decimal.Decimal, now time.Time) error {
	// Recurring payments are only permitted via card.
	if intent.Recurring && intent.Method != model.MethodCard {
		return &ValidationError{Field: "recurring", Reason: "recurring payments are only permitted via card"}
	}

	if intent.Recurring {
		if err := validateSchedule(intent, now); err != nil {
			return err
		}
	}

	if intent.Method == model.MethodCard {
		if err := validateCardShape(intent, now); err != nil {
			return err
		}
	}

	if !intent.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "amount must be positive"}
	}
	if intent.Amount.GreaterThan(amountMax) {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("amount must not exceed %s", amountMax)}
	}
	if intent.Amount.Exponent() < -2 {
		return &ValidationError{Field: "amount", Reason: "amount has more than 2 decimal places"}
	}

	for _, c := range categories {
		if c.ID == intent.CategoryID {
			return nil
		}
	}
	return &NotFoundError{Reason: fmt.Sprintf("category %d does not belong to this account", intent.CategoryID)}
}

func validateSchedule(intent Intent, now time.Time) error {
	today := dateOf(now)
	start := dateOf(intent.StartDate)
	end := dateOf(intent.EndDate)

	if intent.StartDate.IsZero() || !start.After(today) {
		return &ValidationError{Field: "start_date", Reason: "provide a valid future date for the subscription start date"}
	}
	if intent.EndDate.IsZero() || !end.After(start) {
		return &ValidationError{Field: "end_date", Reason: "the subscription end date must strictly follow the subscription start date"}
	}

	years, months, days := calendarDelta(start, end)
	switch intent.Recurrence {
	case model.RecurrenceWeekly:
		if int(end.Sub(start).Hours()/24)%7 != 0 {
			return &ValidationError{Field: "end_date", Reason: "subscription duration must be a multiple of whole weeks"}
		}
	case model.RecurrenceMonthly:
		if years != 0 || days != 0 || months <= 0 {
			return &ValidationError{Field: "end_date", Reason: "subscription duration must be a whole number of months within a year"}
		}
	case model.RecurrenceYearly:
		if days != 0 || months != 0 || years <= 0 {
			return &ValidationError{Field: "end_date", Reason: "subscription duration must be a multiple of whole years"}
		}
	case model.RecurrenceDaily:
		// Any whole number of days qualifies.
	default:
		return &ValidationError{Field: "recurrence", Reason: "provide a valid recurrence period"}
	}
	return nil
}

func validateCardShape(intent Intent, now time.Time) error {
	if !digits16.MatchString(intent.CardNumber) {
		return &ValidationError{Field: "card_number", Reason: "card number must contain exactly 16 digits"}
	}
	if !digits3.MatchString(intent.CardCVV) {
		return &ValidationError{Field: "cvv", Reason: "CVV must contain exactly 3 digits"}
	}
	if !expiryPat.MatchString(intent.CardExpiry) {
		return &ValidationError{Field: "expiration_date", Reason: "expiration date must match MM/YY"}
	}

	month, _ := strconv.Atoi(intent.CardExpiry[:2])
	year, _ := strconv.Atoi(intent.CardExpiry[3:])
	year += 2000

	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return &ValidationError{Field: "expiration_date", Reason: "card expired"}
	}
	return nil
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// calendarDelta returns the whole-calendar difference between two dates as
// (years, months, days), the way humans count months: 2025-01-15 to
// 2025-03-15 is exactly 2 months, 0 days.
func calendarDelta(from, to time.Time) (years, months, days int) {
	years = to.Year() - from.Year()
	months = int(to.Month()) - int(from.Month())
	days = to.Day() - from.Day()

	if days < 0 {
		months--
		prev := time.Date(to.Year(), to.Month(), 0, 0, 0, 0, 0, time.UTC)
		days += prev.Day()
	}
	if months < 0 {
		years--
		months += 12
	}
	return years, months, days
}
