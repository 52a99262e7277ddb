// Package subscriptions advances recurring card transactions: on each tick,
// every subscription due today has one period's effect applied to its card
// and its next due date moved forward by one recurrence unit.
package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/NikosGkoutzas/finance-ledger/internal/currency"
	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

// Service is the subscription scheduler. It is safe to run the tick
// repeatedly: applying a period is idempotent per (transaction, due date).
type Service struct {
	store     *storage.Store
	converter *currency.Converter
	now       func() time.Time
}

// NewService creates a scheduler Service.
func NewService(store *storage.Store, converter *currency.Converter) *Service {
	return &Service{store: store, converter: converter, now: time.Now}
}

// Tick processes all of the account's recurring card transactions that are
// due today. It returns how many periods were applied. A subscription whose
// card cannot cover an expense period keeps its due date so the next tick
// retries it; such failures are joined into the returned error.
//
// A subscription whose next due date has reached its end date is not applied:
// the final occurrence never fires.
func (s *Service) Tick(ctx context.Context, accountID int64) (int, error) {
	applied := 0
	var failures []error

	err := s.store.WithAccountLock(accountID, func() error {
		recurring := true
		txns, err := s.store.ListTransactions(ctx, accountID, storage.TransactionFilter{
			Method:    model.MethodCard,
			Recurring: &recurring,
		})
		if err != nil {
			return err
		}

		today := dateOf(s.now())
		for _, txn := range txns {
			ok, err := s.applyOne(ctx, txn, today)
			if err != nil {
				var rule *insufficientBalanceError
				if errors.As(err, &rule) {
					failures = append(failures, err)
					continue
				}
				return err
			}
			if ok {
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return applied, err
	}
	return applied, errors.Join(failures...)
}

// applyOne applies one period of a single subscription if it is due today.
// The card debit/credit and the due-date advance are committed atomically.
func (s *Service) applyOne(ctx context.Context, txn model.Transaction, today time.Time) (bool, error) {
	if !txn.NextDue.Equal(today) || txn.NextDue.Equal(txn.EndDate) {
		return false, nil
	}
	// Already processed for this due date on an earlier tick.
	if txn.LastApplied.Equal(txn.NextDue) {
		return false, nil
	}

	card, err := s.store.FindCard(ctx, txn.AccountID, txn.CardNumber, txn.CardCVV, txn.CardExpiry)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("subscription card no longer exists, skipping",
			"account", txn.AccountID, "transaction", txn.ID)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	converted, err := s.converter.Convert(txn.Amount, txn.Currency, card.Currency)
	if err != nil {
		return false, err
	}
	converted = currency.RoundLedger(converted)

	switch txn.Type {
	case model.TypeExpense:
		if card.Balance.LessThan(converted) {
			return false, &insufficientBalanceError{txnID: txn.ID, card: card.MaskedNumber()}
		}
		card.Balance = card.Balance.Sub(converted)
	case model.TypeIncome:
		card.Balance = card.Balance.Add(converted)
	default:
		return false, fmt.Errorf("unknown transaction type %q", txn.Type)
	}

	next := Advance(txn.NextDue, txn.Recurrence)
	if err := s.store.ApplySubscriptionPeriod(ctx, txn.ID, next, txn.NextDue, &card); err != nil {
		return false, err
	}

	slog.Info("subscription period applied",
		"account", txn.AccountID, "transaction", txn.ID, "due", txn.NextDue.Format("2006-01-02"),
		"amount", converted.StringFixed(2), "currency", card.Currency, "next_due", next.Format("2006-01-02"))
	return true, nil
}

// insufficientBalanceError marks a subscription expense whose card could not
// cover the period. The due date is left unadvanced for retry.
type insufficientBalanceError struct {
	txnID string
	card  string
}

func (e *insufficientBalanceError) Error() string {
	return fmt.Sprintf("subscription %s declined: balance of card %s is too low", e.txnID, e.card)
}

// Advance moves a due date forward by one recurrence unit. Monthly and
// yearly advancement clamps to the last day of the target month, so a
// subscription due on the 31st stays at month's end rather than spilling
// into the next month.
func Advance(due time.Time, r model.Recurrence) time.Time {
	switch r {
	case model.RecurrenceWeekly:
		return due.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		return addMonths(due, 1)
	case model.RecurrenceYearly:
		return addMonths(due, 12)
	default:
		return due.AddDate(0, 0, 1)
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
