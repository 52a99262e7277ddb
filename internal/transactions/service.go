// Package transactions validates proposed transactions and applies their
// balance effects: funding resolution, credit limits, debt accrual and
// settlement, and the persisted outcome record.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/currency"
	"github.com/NikosGkoutzas/finance-ledger/internal/debts"
	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

// Limits holds the ledger's monetary bounds.
type Limits struct {
	CreditLimit    decimal.Decimal
	CashMax        decimal.Decimal
	CardBalanceMax decimal.Decimal
	AmountMax      decimal.Decimal
}

// Service processes transactions against an account.
type Service struct {
	store     *storage.Store
	converter *currency.Converter
	debts     *debts.Service
	limits    Limits
	now       func() time.Time
}

// NewService creates a transaction Service.
func NewService(store *storage.Store, converter *currency.Converter, debtSvc *debts.Service, limits Limits) *Service {
	return &Service{
		store:     store,
		converter: converter,
		debts:     debtSvc,
		limits:    limits,
		now:       time.Now,
	}
}

// Create validates an intent and commits it against the account. On success
// the returned transaction carries its persisted outcome message. Rejections
// return a ValidationError, NotFoundError or RuleError; a RuleError for an
// insufficient-funds expense has already imposed the shortfall as debt.
//
// The whole funding-resolution-through-persist sequence runs under the
// account's mutation lock.
func (s *Service) Create(ctx context.Context, accountID int64, intent Intent) (model.Transaction, error) {
	var committed model.Transaction
	err := s.store.WithAccountLock(accountID, func() error {
		account, err := s.store.GetAccount(ctx, accountID)
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Reason: fmt.Sprintf("account %d not found", accountID)}
		}
		if err != nil {
			return err
		}

		categories, err := s.store.ListCategories(ctx, accountID)
		if err != nil {
			return err
		}
		if err := Validate(intent, categories, s.limits.AmountMax, s.now()); err != nil {
			return err
		}
		if !s.converter.Supported(intent.Currency) {
			return &ValidationError{Field: "currency", Reason: fmt.Sprintf("unsupported currency %s", intent.Currency)}
		}

		category := categoryByID(categories, intent.CategoryID)

		if intent.Method == model.MethodCard {
			committed, err = s.createWithCard(ctx, account, category, intent)
		} else {
			committed, err = s.createWithCash(ctx, account, category, intent)
		}
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}

	slog.Info("transaction committed",
		"account", accountID, "transaction", committed.ID,
		"type", committed.Type, "method", committed.Method,
		"amount", committed.Amount.StringFixed(2), "currency", committed.Currency)
	return committed, nil
}

// List returns the account's transactions, gated by the debt status check: an
// active warning or forfeiture short-circuits the listing.
func (s *Service) List(ctx context.Context, accountID int64, filter storage.TransactionFilter) ([]model.Transaction, debts.Status, error) {
	status, err := s.debts.Check(ctx, accountID)
	if err != nil {
		return nil, debts.Status{}, err
	}
	if status.State != debts.StateClear {
		return nil, status, nil
	}

	txns, err := s.store.ListTransactions(ctx, accountID, filter)
	if err != nil {
		return nil, debts.Status{}, err
	}
	return txns, status, nil
}

func (s *Service) createWithCard(ctx context.Context, account model.Account, category model.Category, intent Intent) (model.Transaction, error) {
	card, err := s.store.FindCard(ctx, account.ID, intent.CardNumber, intent.CardCVV, intent.CardExpiry)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Transaction{}, &NotFoundError{
			Reason: fmt.Sprintf("card %q not found", maskNumber(intent.CardNumber)),
		}
	}
	if err != nil {
		return model.Transaction{}, err
	}

	// Credit-limit rule: ordinary expenses on a credit card are capped before
	// anything else is considered.
	if card.Type == model.CardTypeCredit && intent.Type == model.TypeExpense && !category.IsDebt() &&
		intent.Amount.GreaterThan(s.limits.CreditLimit) {
		return model.Transaction{}, &RuleError{
			Reason: fmt.Sprintf("transaction declined: credit limit of %s %s exceeded",
				s.limits.CreditLimit, card.Currency),
		}
	}

	if intent.Recurring {
		return s.commitRecurring(ctx, account, intent, card.Currency)
	}

	switch intent.Type {
	case model.TypeIncome:
		converted, err := s.convertRounded(intent.Amount, intent.Currency, card.Currency)
		if err != nil {
			return model.Transaction{}, err
		}
		card.Balance = card.Balance.Add(converted)
		if card.Balance.GreaterThan(s.limits.CardBalanceMax) {
			return model.Transaction{}, &RuleError{
				Reason: fmt.Sprintf("transaction declined: card balance limit of %s exceeded", s.limits.CardBalanceMax),
			}
		}
		if err := s.store.UpdateCardBalance(ctx, card); err != nil {
			return model.Transaction{}, err
		}
		return s.commit(ctx, account, intent, "Transaction completed successfully.")

	case model.TypeExpense:
		if category.IsDebt() {
			msg, err := s.settleDebt(ctx, account, intent, card.Balance, card.Currency)
			if err != nil {
				return model.Transaction{}, err
			}
			return s.commit(ctx, account, intent, msg)
		}

		if err := s.debtGate(ctx, account); err != nil {
			return model.Transaction{}, err
		}

		converted, err := s.convertRounded(intent.Amount, intent.Currency, card.Currency)
		if err != nil {
			return model.Transaction{}, err
		}
		if card.Balance.LessThan(converted) {
			return model.Transaction{}, s.imposeShortfall(ctx, account, converted.Sub(card.Balance), "card balance", card.Currency)
		}
		card.Balance = card.Balance.Sub(converted)
		if err := s.store.UpdateCardBalance(ctx, card); err != nil {
			return model.Transaction{}, err
		}
		return s.commit(ctx, account, intent, "Transaction completed successfully.")
	}

	return model.Transaction{}, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", intent.Type)}
}

func (s *Service) createWithCash(ctx context.Context, account model.Account, category model.Category, intent Intent) (model.Transaction, error) {
	switch intent.Type {
	case model.TypeIncome:
		converted, err := s.convertRounded(intent.Amount, intent.Currency, account.Currency)
		if err != nil {
			return model.Transaction{}, err
		}
		account.Cash = account.Cash.Add(converted)
		if account.Cash.GreaterThan(s.limits.CashMax) {
			return model.Transaction{}, &RuleError{
				Reason: fmt.Sprintf("transaction declined: cash limit of %s exceeded", s.limits.CashMax),
			}
		}
		if err := s.store.UpdateAccount(ctx, account); err != nil {
			return model.Transaction{}, err
		}
		return s.commit(ctx, account, intent, "Transaction completed successfully.")

	case model.TypeExpense:
		if category.IsDebt() {
			msg, err := s.settleDebt(ctx, account, intent, account.Cash, account.Currency)
			if err != nil {
				return model.Transaction{}, err
			}
			return s.commit(ctx, account, intent, msg)
		}

		if err := s.debtGate(ctx, account); err != nil {
			return model.Transaction{}, err
		}

		converted, err := s.convertRounded(intent.Amount, intent.Currency, account.Currency)
		if err != nil {
			return model.Transaction{}, err
		}
		if account.Cash.LessThan(converted) {
			return model.Transaction{}, s.imposeShortfall(ctx, account, converted.Sub(account.Cash), "cash", account.Currency)
		}
		account.Cash = account.Cash.Sub(converted)
		if err := s.store.UpdateAccount(ctx, account); err != nil {
			return model.Transaction{}, err
		}
		return s.commit(ctx, account, intent, "Transaction completed successfully.")
	}

	return model.Transaction{}, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", intent.Type)}
}

// settleDebt handles a debt-category expense: a settlement, not a spend. The
// funding balance must cover the amount but is not debited; the converted
// amount reduces the account's outstanding debt instead. Overpayment rejects
// the transaction with no mutation at all.
func (s *Service) settleDebt(ctx context.Context, account model.Account, intent Intent, fundingBalance decimal.Decimal, fundingCur model.Currency) (string, error) {
	converted, err := s.convertRounded(intent.Amount, intent.Currency, fundingCur)
	if err != nil {
		return "", err
	}
	if fundingBalance.LessThan(converted) {
		return "", &RuleError{Reason: "transaction declined: balance is too low"}
	}

	newDebt := account.Debt.Sub(converted)
	if newDebt.IsNegative() {
		return "", &RuleError{
			Reason: fmt.Sprintf("your amount exceeds the debt you must pay; debt is %s %s",
				account.Debt.StringFixed(2), account.Currency),
		}
	}

	account.Debt = newDebt
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return "", err
	}
	return fmt.Sprintf("Transaction completed successfully. Debt is %s %s.", newDebt.StringFixed(2), fundingCur), nil
}

// debtGate blocks ordinary expenses outright while the account's debt is
// coverable by one of its cards, regardless of this expense's funding source.
func (s *Service) debtGate(ctx context.Context, account model.Account) error {
	if !account.HasDebt() {
		return nil
	}
	_, err := s.store.FindCoveringCard(ctx, account.ID, account.Debt)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &RuleError{Reason: "new transactions cannot be processed until debt is cleared"}
}

// imposeShortfall commits the shortfall as new debt on the account and
// returns the rejection. The account mutation stands even though the
// transaction itself is not persisted.
func (s *Service) imposeShortfall(ctx context.Context, account model.Account, shortfall decimal.Decimal, fundingName string, cur model.Currency) error {
	account.Debt = account.Debt.Add(shortfall)
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return err
	}
	slog.Warn("shortfall imposed as debt",
		"account", account.ID, "shortfall", shortfall.StringFixed(2), "currency", cur)
	return &RuleError{
		Reason: fmt.Sprintf("transaction declined: %s is too low; a debt of %s %s has been imposed",
			fundingName, shortfall.StringFixed(2), cur),
	}
}

// commitRecurring persists a subscription without touching any balance; the
// scheduler applies the periodic effect later. The next due date starts at
// the subscription start date.
func (s *Service) commitRecurring(ctx context.Context, account model.Account, intent Intent, cardCur model.Currency) (model.Transaction, error) {
	direction := "credited to"
	if intent.Type == model.TypeExpense {
		direction = "credited from"
	}
	msg := fmt.Sprintf("Subscription period: %s / %s. Every %s %s %s will be %s the user's card.",
		intent.StartDate.Format("2006-01-02"), intent.EndDate.Format("2006-01-02"),
		intent.Recurrence.Unit(), intent.Amount.StringFixed(2), cardCur, direction)

	txn := s.newRecord(account, intent, msg)
	txn.NextDue = dateOf(intent.StartDate)
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func (s *Service) commit(ctx context.Context, account model.Account, intent Intent, msg string) (model.Transaction, error) {
	txn := s.newRecord(account, intent, msg)
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func (s *Service) newRecord(account model.Account, intent Intent, msg string) model.Transaction {
	txn := model.Transaction{
		ID:         uuid.NewString(),
		AccountID:  account.ID,
		Method:     intent.Method,
		Amount:     intent.Amount,
		Currency:   intent.Currency,
		Type:       intent.Type,
		CategoryID: intent.CategoryID,
		Date:       dateOf(s.now()),
		Message:    msg,
	}
	if intent.Method == model.MethodCard {
		txn.CardNumber = intent.CardNumber
		txn.CardCVV = intent.CardCVV
		txn.CardExpiry = intent.CardExpiry
	}
	if intent.Recurring {
		txn.Recurring = true
		txn.StartDate = dateOf(intent.StartDate)
		txn.EndDate = dateOf(intent.EndDate)
		txn.Recurrence = intent.Recurrence
	}
	return txn
}

func (s *Service) convertRounded(amount decimal.Decimal, from, to model.Currency) (decimal.Decimal, error) {
	converted, err := s.converter.Convert(amount, from, to)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "currency", Reason: err.Error()}
	}
	return currency.RoundLedger(converted), nil
}

func categoryByID(categories []model.Category, id int64) model.Category {
	for _, c := range categories {
		if c.ID == id {
			return c
		}
	}
	return model.Category{}
}

// maskNumber hides all but the last 4 digits of a card number.
func maskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
