// Package analytics aggregates committed transactions and balances into a
// read-only report over a date range and asset scope.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/currency"
	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

// Scope selects which assets a report covers.
type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeCash Scope = "cash"
	ScopeCard Scope = "card"
)

// Request describes one analytics computation.
type Request struct {
	Scope      Scope
	CardNumber string // required for ScopeCard
	From       time.Time
	To         time.Time
	Currency   model.Currency // target currency for all reported figures

	IncludeIncome        bool
	IncludeExpense       bool
	IncludeSubscriptions bool
}

// CardBalance is one card's balance converted to the report currency.
type CardBalance struct {
	Card    model.Card
	Balance decimal.Decimal
}

// Report holds the computed totals. Amounts keep full precision; rounding to
// the ledger scale happens only in Lines.
type Report struct {
	Currency model.Currency

	TotalCash        decimal.Decimal
	TotalCardBalance decimal.Decimal
	CardBalances     []CardBalance

	IncomeCash  decimal.Decimal
	IncomeCard  decimal.Decimal
	ExpenseCash decimal.Decimal
	ExpenseCard decimal.Decimal

	SubscriptionIncome  decimal.Decimal
	SubscriptionExpense decimal.Decimal

	Lines []string
}

// Service computes analytics reports. It never mutates account or
// transaction state.
type Service struct {
	store     *storage.Store
	converter *currency.Converter
}

// NewService creates an analytics Service.
func NewService(store *storage.Store, converter *currency.Converter) *Service {
	return &Service{store: store, converter: converter}
}

// Compute builds the report for one account.
func (s *Service) Compute(ctx context.Context, accountID int64, req Request) (Report, error) {
	if err := s.validate(req); err != nil {
		return Report{}, err
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return Report{}, err
	}
	cards, err := s.store.ListCards(ctx, accountID)
	if err != nil {
		return Report{}, err
	}
	txns, err := s.store.ListTransactions(ctx, accountID, storage.TransactionFilter{
		From: &req.From,
		To:   &req.To,
	})
	if err != nil {
		return Report{}, err
	}

	r := Report{Currency: req.Currency}

	switch req.Scope {
	case ScopeAll:
		if err := s.computeAll(&r, req, account, cards, txns); err != nil {
			return Report{}, err
		}
	case ScopeCash:
		if err := s.computeCash(&r, req, account, txns); err != nil {
			return Report{}, err
		}
	case ScopeCard:
		if err := s.computeCard(&r, req, cards, txns); err != nil {
			return Report{}, err
		}
	}
	return r, nil
}

func (s *Service) validate(req Request) error {
	if req.From.IsZero() || req.To.IsZero() {
		return fmt.Errorf("both report dates are required")
	}
	if req.To.Before(req.From) {
		return fmt.Errorf("the report end date must not precede the start date")
	}
	switch req.Scope {
	case ScopeAll, ScopeCash:
	case ScopeCard:
		if req.CardNumber == "" {
			return fmt.Errorf("the card scope requires a card number")
		}
	default:
		return fmt.Errorf("unknown report scope %q", req.Scope)
	}
	if !currency.Known(req.Currency) || !s.converter.Supported(req.Currency) {
		return fmt.Errorf("unsupported report currency %s", req.Currency)
	}
	return nil
}

func (s *Service) computeAll(r *Report, req Request, account model.Account, cards []model.Card, txns []model.Transaction) error {
	var err error
	if r.TotalCash, err = s.converter.Convert(account.Cash, account.Currency, req.Currency); err != nil {
		return err
	}
	if err := s.cardBalances(r, req, cards); err != nil {
		return err
	}

	byNumber := cardsByNumber(cards)
	for _, t := range txns {
		v, err := s.converter.Convert(t.Amount, t.Currency, req.Currency)
		if err != nil {
			return err
		}
		_, cardExists := byNumber[t.CardNumber]

		switch t.Type {
		case model.TypeIncome:
			if t.Method == model.MethodCash {
				r.IncomeCash = r.IncomeCash.Add(v)
			}
			if t.Method == model.MethodCard && cardExists {
				r.IncomeCard = r.IncomeCard.Add(v)
			}
			if t.Recurring {
				r.SubscriptionIncome = r.SubscriptionIncome.Add(v)
			}
		case model.TypeExpense:
			if t.Method == model.MethodCash {
				r.ExpenseCash = r.ExpenseCash.Add(v)
			}
			if t.Method == model.MethodCard && cardExists {
				r.ExpenseCard = r.ExpenseCard.Add(v)
			}
			if t.Recurring {
				r.SubscriptionExpense = r.SubscriptionExpense.Add(v)
			}
		}
	}

	cur := req.Currency
	r.Lines = append(r.Lines,
		line("Total assets", r.TotalCash.Add(r.TotalCardBalance), cur),
		line("Total cash", r.TotalCash, cur),
		line("Total card balance", r.TotalCardBalance, cur))
	r.Lines = append(r.Lines, cardLines(r.CardBalances, cur)...)
	r.Lines = append(r.Lines,
		line("Total incomes in cash", r.IncomeCash, cur),
		line("Total incomes in card", r.IncomeCard, cur),
		line("Total expenses in cash", r.ExpenseCash, cur),
		line("Total expenses in card", r.ExpenseCard, cur),
		line("Total incomes subscriptions", r.SubscriptionIncome, cur),
		line("Total expenses subscriptions", r.SubscriptionExpense, cur))
	return nil
}

func (s *Service) computeCash(r *Report, req Request, account model.Account, txns []model.Transaction) error {
	var err error
	if r.TotalCash, err = s.converter.Convert(account.Cash, account.Currency, req.Currency); err != nil {
		return err
	}

	for _, t := range txns {
		if t.Method != model.MethodCash {
			continue
		}
		v, err := s.converter.Convert(t.Amount, t.Currency, req.Currency)
		if err != nil {
			return err
		}
		switch t.Type {
		case model.TypeIncome:
			r.IncomeCash = r.IncomeCash.Add(v)
		case model.TypeExpense:
			r.ExpenseCash = r.ExpenseCash.Add(v)
		}
	}

	cur := req.Currency
	r.Lines = append(r.Lines, line("Total cash", r.TotalCash, cur))
	showBoth := !req.IncludeIncome && !req.IncludeExpense
	if req.IncludeIncome || showBoth {
		r.Lines = append(r.Lines, line("Total incomes in cash", r.IncomeCash, cur))
	}
	if req.IncludeExpense || showBoth {
		r.Lines = append(r.Lines, line("Total expenses in cash", r.ExpenseCash, cur))
	}
	return nil
}

func (s *Service) computeCard(r *Report, req Request, cards []model.Card, txns []model.Transaction) error {
	if err := s.cardBalances(r, req, cards); err != nil {
		return err
	}
	if _, ok := cardsByNumber(cards)[req.CardNumber]; !ok {
		return fmt.Errorf("card %q: %w", maskNumber(req.CardNumber), storage.ErrNotFound)
	}

	for _, t := range txns {
		if t.CardNumber != req.CardNumber {
			continue
		}
		v, err := s.converter.Convert(t.Amount, t.Currency, req.Currency)
		if err != nil {
			return err
		}
		switch t.Type {
		case model.TypeIncome:
			r.IncomeCard = r.IncomeCard.Add(v)
			if t.Recurring {
				r.SubscriptionIncome = r.SubscriptionIncome.Add(v)
			}
		case model.TypeExpense:
			r.ExpenseCard = r.ExpenseCard.Add(v)
			if t.Recurring {
				r.SubscriptionExpense = r.SubscriptionExpense.Add(v)
			}
		}
	}

	cur := req.Currency
	masked := maskNumber(req.CardNumber)
	r.Lines = append(r.Lines, line("Total card balance", r.TotalCardBalance, cur))
	r.Lines = append(r.Lines, cardLines(r.CardBalances, cur)...)

	none := !req.IncludeIncome && !req.IncludeExpense && !req.IncludeSubscriptions
	if req.IncludeIncome || none {
		r.Lines = append(r.Lines, line(fmt.Sprintf("Total incomes with %q", masked), r.IncomeCard, cur))
	}
	if req.IncludeExpense || none {
		r.Lines = append(r.Lines, line(fmt.Sprintf("Total expenses with %q", masked), r.ExpenseCard, cur))
	}
	if req.IncludeSubscriptions || none {
		r.Lines = append(r.Lines,
			line(fmt.Sprintf("Total incomes subscriptions with %q", masked), r.SubscriptionIncome, cur),
			line(fmt.Sprintf("Total expenses subscriptions with %q", masked), r.SubscriptionExpense, cur))
	}
	return nil
}

// cardBalances fills the per-card balances and their total, converted.
func (s *Service) cardBalances(r *Report, req Request, cards []model.Card) error {
	for _, c := range cards {
		v, err := s.converter.Convert(c.Balance, c.Currency, req.Currency)
		if err != nil {
			return err
		}
		r.CardBalances = append(r.CardBalances, CardBalance{Card: c, Balance: v})
		r.TotalCardBalance = r.TotalCardBalance.Add(v)
	}
	return nil
}

func cardLines(balances []CardBalance, cur model.Currency) []string {
	lines := make([]string, 0, len(balances))
	for _, cb := range balances {
		lines = append(lines, fmt.Sprintf("%s - %s  ->  %s %s",
			cb.Card.Type, cb.Card.MaskedNumber(), cb.Balance.StringFixed(2), cur))
	}
	return lines
}

func line(label string, v decimal.Decimal, cur model.Currency) string {
	return fmt.Sprintf("%s: %s %s", label, v.StringFixed(2), cur)
}

func cardsByNumber(cards []model.Card) map[string]model.Card {
	m := make(map[string]model.Card, len(cards))
	for _, c := range cards {
		m[c.Number] = c
	}
	return m
}

func maskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	masked := make([]byte, len(number))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(number)-4:], number[len(number)-4:])
	return string(masked)
}
