package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

const transactionColumns = `id, account_id, method, card_number, card_cvv, card_expiry,
	amount, currency, type, category_id, date, recurring,
	start_date, end_date, recurrence, next_due, last_applied, message`

// TransactionFilter narrows ListTransactions. Nil pointer fields and empty
// string fields match everything.
type TransactionFilter struct {
	From      *time.Time
	To        *time.Time
	Type      model.TransactionType
	Method    model.PaymentMethod
	Recurring *bool
}

// CreateTransaction persists a committed transaction record.
func (s *Store) CreateTransaction(ctx context.Context, t model.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, string(t.Method), t.CardNumber, t.CardCVV, t.CardExpiry,
		t.Amount.String(), string(t.Currency), string(t.Type), t.CategoryID,
		t.Date.UTC(), t.Recurring,
		nullTime(t.StartDate), nullTime(t.EndDate), string(t.Recurrence),
		nullTime(t.NextDue), nullTime(t.LastApplied), t.Message)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// GetTransaction returns one transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return t, err
}

// ListTransactions returns an account's transactions matching the filter,
// oldest first.
func (s *Store) ListTransactions(ctx context.Context, accountID int64, f TransactionFilter) ([]model.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE account_id = ?"
	args := []any{accountID}

	if f.From != nil {
		query += " AND date >= ?"
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		query += " AND date <= ?"
		args = append(args, f.To.UTC())
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if f.Method != "" {
		query += " AND method = ?"
		args = append(args, string(f.Method))
	}
	if f.Recurring != nil {
		query += " AND recurring = ?"
		args = append(args, *f.Recurring)
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return txns, nil
}

// ApplySubscriptionPeriod advances a recurring transaction's schedule and, if
// card is non-nil, writes the card's new balance in the same database
// transaction, so a period can never be charged without its due date moving.
func (s *Store) ApplySubscriptionPeriod(ctx context.Context, txnID string, nextDue, lastApplied time.Time, card *model.Card) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning subscription update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions SET next_due = ?, last_applied = ?
		WHERE id = ?`,
		nextDue.UTC(), nullTime(lastApplied), txnID)
	if err != nil {
		return fmt.Errorf("advancing subscription %s: %w", txnID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking subscription update: %w", err)
	} else if n == 0 {
		return fmt.Errorf("transaction %s: %w", txnID, ErrNotFound)
	}

	if card != nil {
		res, err = tx.ExecContext(ctx, `
			UPDATE cards SET balance = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			card.Balance.String(), card.ID, card.Version)
		if err != nil {
			return fmt.Errorf("updating card %d: %w", card.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("checking card update: %w", err)
		} else if n == 0 {
			return fmt.Errorf("card %d: %w", card.ID, ErrConflict)
		}
	}

	return tx.Commit()
}

type transactionScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row transactionScanner) (model.Transaction, error) {
	var (
		t           model.Transaction
		method      string
		cardNumber  sql.NullString
		cardCVV     sql.NullString
		cardExpiry  sql.NullString
		amount      string
		cur         string
		typ         string
		recurrence  sql.NullString
		startDate   sql.NullTime
		endDate     sql.NullTime
		nextDue     sql.NullTime
		lastApplied sql.NullTime
		message     sql.NullString
	)
	err := row.Scan(&t.ID, &t.AccountID, &method, &cardNumber, &cardCVV, &cardExpiry,
		&amount, &cur, &typ, &t.CategoryID, &t.Date, &t.Recurring,
		&startDate, &endDate, &recurrence, &nextDue, &lastApplied, &message)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Transaction{}, err
		}
		return model.Transaction{}, fmt.Errorf("scanning transaction: %w", err)
	}

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	t.Method = model.PaymentMethod(method)
	t.CardNumber = cardNumber.String
	t.CardCVV = cardCVV.String
	t.CardExpiry = cardExpiry.String
	t.Currency = model.Currency(cur)
	t.Type = model.TransactionType(typ)
	t.Recurrence = model.Recurrence(recurrence.String)
	t.Date = t.Date.UTC()
	if startDate.Valid {
		t.StartDate = startDate.Time.UTC()
	}
	if endDate.Valid {
		t.EndDate = endDate.Time.UTC()
	}
	if nextDue.Valid {
		t.NextDue = nextDue.Time.UTC()
	}
	if lastApplied.Valid {
		t.LastApplied = lastApplied.Time.UTC()
	}
	t.Message = message.String
	return t, nil
}
