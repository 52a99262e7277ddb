package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

const cardColumns = "id, account_id, card_type, number, cvv, expiry, balance, currency, version"

// CreateCard inserts a new card for an account.
func (s *Store) CreateCard(ctx context.Context, c model.Card) (model.Card, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (account_id, card_type, number, cvv, expiry, balance, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.AccountID, string(c.Type), c.Number, c.CVV, c.Expiry, c.Balance.String(), string(c.Currency))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Card{}, fmt.Errorf("card number: %w", ErrDuplicate)
		}
		return model.Card{}, fmt.Errorf("inserting card: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Card{}, fmt.Errorf("reading card id: %w", err)
	}
	return s.GetCard(ctx, id)
}

// GetCard returns the card with the given ID.
func (s *Store) GetCard(ctx context.Context, id int64) (model.Card, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	return scanCard(row)
}

// FindCard matches a card within an account by number, CVV and expiry.
func (s *Store) FindCard(ctx context.Context, accountID int64, number, cvv, expiry string) (model.Card, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE account_id = ? AND number = ? AND cvv = ? AND expiry = ?",
		accountID, number, cvv, expiry)
	return scanCard(row)
}

// ListCards returns all cards owned by an account, oldest first.
func (s *Store) ListCards(ctx context.Context, accountID int64) ([]model.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE account_id = ? ORDER BY id", accountID)
	if err != nil {
		return nil, fmt.Errorf("querying cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		c, err := scanCardRows(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cards: %w", err)
	}
	return cards, nil
}

// FindCoveringCard returns the first card of the account whose balance is at
// least the given amount, or ErrNotFound.
func (s *Store) FindCoveringCard(ctx context.Context, accountID int64, amount decimal.Decimal) (model.Card, error) {
	cards, err := s.ListCards(ctx, accountID)
	if err != nil {
		return model.Card{}, err
	}
	for _, c := range cards {
		if c.Balance.GreaterThanOrEqual(amount) {
			return c, nil
		}
	}
	return model.Card{}, fmt.Errorf("covering card: %w", ErrNotFound)
}

// UpdateCardBalance persists a card's balance, guarded by its version.
func (s *Store) UpdateCardBalance(ctx context.Context, c model.Card) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards SET balance = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		c.Balance.String(), c.ID, c.Version)
	if err != nil {
		return fmt.Errorf("updating card %d: %w", c.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking card update: %w", err)
	}
	if n == 0 {
		if _, getErr := s.GetCard(ctx, c.ID); errors.Is(getErr, ErrNotFound) {
			return fmt.Errorf("card %d: %w", c.ID, ErrNotFound)
		}
		return fmt.Errorf("card %d: %w", c.ID, ErrConflict)
	}
	return nil
}

// DeleteCard removes a card. Used by the debt manager on forfeiture.
func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting card %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking card delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("card %d: %w", id, ErrNotFound)
	}
	return nil
}

// CardNumberExists reports whether any card, on any account, uses the number.
func (s *Store) CardNumberExists(ctx context.Context, number string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM cards WHERE number = ?", number).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking card number: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row *sql.Row) (model.Card, error) {
	c, err := scanCardFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Card{}, fmt.Errorf("card: %w", ErrNotFound)
	}
	return c, err
}

func scanCardRows(rows *sql.Rows) (model.Card, error) {
	return scanCardFrom(rows)
}

func scanCardFrom(row rowScanner) (model.Card, error) {
	var (
		c       model.Card
		typ     string
		balance string
		cur     string
	)
	err := row.Scan(&c.ID, &c.AccountID, &typ, &c.Number, &c.CVV, &c.Expiry, &balance, &cur, &c.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Card{}, err
		}
		return model.Card{}, fmt.Errorf("scanning card: %w", err)
	}

	if c.Balance, err = decimal.NewFromString(balance); err != nil {
		return model.Card{}, fmt.Errorf("parsing balance %q: %w", balance, err)
	}
	c.Type = model.CardType(typ)
	c.Currency = model.Currency(cur)
	return c, nil
}
