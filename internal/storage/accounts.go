package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

// CreateAccount inserts a new account and returns it with its assigned ID.
func (s *Store) CreateAccount(ctx context.Context, username string, cash decimal.Decimal, cur model.Currency) (model.Account, error) {
	if strings.TrimSpace(username) == "" {
		return model.Account{}, fmt.Errorf("username cannot be empty")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (username, cash, debt, currency)
		VALUES (?, ?, '0', ?)`,
		username, cash.String(), string(cur))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, fmt.Errorf("account %q: %w", username, ErrDuplicate)
		}
		return model.Account{}, fmt.Errorf("inserting account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Account{}, fmt.Errorf("reading account id: %w", err)
	}
	return s.GetAccount(ctx, id)
}

// ListAccountIDs returns the IDs of all accounts, oldest first.
func (s *Store) ListAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning account id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return ids, nil
}

// GetAccount returns the account with the given ID.
func (s *Store) GetAccount(ctx context.Context, id int64) (model.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, cash, debt, debt_deadline, currency, version
		FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// UpdateAccount persists cash, debt and the debt deadline. The update is
// guarded by the account's version; a stale version returns ErrConflict.
func (s *Store) UpdateAccount(ctx context.Context, a model.Account) error {
	var deadline any
	if a.DebtDeadline != nil {
		deadline = a.DebtDeadline.UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET cash = ?, debt = ?, debt_deadline = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		a.Cash.String(), a.Debt.String(), deadline, a.ID, a.Version)
	if err != nil {
		return fmt.Errorf("updating account %d: %w", a.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking account update: %w", err)
	}
	if n == 0 {
		if _, getErr := s.GetAccount(ctx, a.ID); errors.Is(getErr, ErrNotFound) {
			return fmt.Errorf("account %d: %w", a.ID, ErrNotFound)
		}
		return fmt.Errorf("account %d: %w", a.ID, ErrConflict)
	}
	return nil
}

func scanAccount(row *sql.Row) (model.Account, error) {
	var (
		a        model.Account
		cash     string
		debt     string
		deadline sql.NullTime
		cur      string
	)
	err := row.Scan(&a.ID, &a.Username, &cash, &debt, &deadline, &cur, &a.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account: %w", ErrNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("scanning account: %w", err)
	}

	if a.Cash, err = decimal.NewFromString(cash); err != nil {
		return model.Account{}, fmt.Errorf("parsing cash %q: %w", cash, err)
	}
	if a.Debt, err = decimal.NewFromString(debt); err != nil {
		return model.Account{}, fmt.Errorf("parsing debt %q: %w", debt, err)
	}
	if deadline.Valid {
		t := deadline.Time.UTC()
		a.DebtDeadline = &t
	}
	a.Currency = model.Currency(cur)
	return a, nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullTime converts a possibly-zero time for storage.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
