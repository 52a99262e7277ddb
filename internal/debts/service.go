// Package debts owns debt-forfeiture: once an account's debt is coverable by
// one of its cards, the owner gets a grace window to settle before that card
// is forfeited.
package debts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

// State is the outcome of a debt status check.
type State string

const (
	// StateClear means no action is pending. A grace deadline may have just
	// been recorded, but nothing is blocked yet.
	StateClear State = "clear"
	// StateWarning means a covering card exists and the grace deadline has
	// not yet passed.
	StateWarning State = "warning"
	// StateForfeited means the grace deadline passed and the covering card
	// has been deleted.
	StateForfeited State = "forfeited"
)

// Status describes the result of a debt check.
type Status struct {
	State    State
	Deadline *time.Time // set for StateWarning
	CardID   int64      // set for StateForfeited
	Message  string     // human-readable notice for warning/forfeiture
}

// Service evaluates and enforces the debt-forfeiture protocol.
type Service struct {
	store *storage.Store
	grace time.Duration
	now   func() time.Time
}

// NewService creates a debt Service with the given grace window.
func NewService(store *storage.Store, grace time.Duration) *Service {
	return &Service{store: store, grace: grace, now: time.Now}
}

// Check evaluates the account's debt status and applies any due side effect:
// stamping a fresh grace deadline or forfeiting the covering card. It runs
// under the account's mutation lock.
func (s *Service) Check(ctx context.Context, accountID int64) (Status, error) {
	var status Status
	err := s.store.WithAccountLock(accountID, func() error {
		var err error
		status, err = s.check(ctx, accountID)
		return err
	})
	return status, err
}

func (s *Service) check(ctx context.Context, accountID int64) (Status, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return Status{}, err
	}
	if !account.HasDebt() {
		return Status{State: StateClear}, nil
	}

	card, err := s.store.FindCoveringCard(ctx, accountID, account.Debt)
	if errors.Is(err, storage.ErrNotFound) {
		return Status{State: StateClear}, nil
	}
	if err != nil {
		return Status{}, err
	}

	now := s.now()

	// First detection: start the grace window, take no action yet.
	if account.DebtDeadline == nil {
		deadline := now.Add(s.grace).UTC()
		account.DebtDeadline = &deadline
		if err := s.store.UpdateAccount(ctx, account); err != nil {
			return Status{}, err
		}
		slog.Info("debt grace window started",
			"account", accountID, "debt", account.Debt.StringFixed(2), "deadline", deadline)
		return Status{State: StateClear}, nil
	}

	if now.Before(*account.DebtDeadline) {
		return Status{
			State:    StateWarning,
			Deadline: account.DebtDeadline,
			Message: fmt.Sprintf("a card was found that can cover your debt; it will be deactivated at %s",
				account.DebtDeadline.Format("02-01-2006, 15:04:05")),
		}, nil
	}

	// Grace expired: forfeit the covering card and clear the deadline.
	if err := s.store.DeleteCard(ctx, card.ID); err != nil {
		return Status{}, err
	}
	account.DebtDeadline = nil
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return Status{}, err
	}
	slog.Warn("card forfeited for unsettled debt",
		"account", accountID, "card", card.MaskedNumber(), "debt", account.Debt.StringFixed(2))

	return Status{
		State:  StateForfeited,
		CardID: card.ID,
		Message: fmt.Sprintf("card %q deactivated; debt was not settled within the required timeframe",
			card.MaskedNumber()),
	}, nil
}
