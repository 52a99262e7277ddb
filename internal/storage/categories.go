package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

// CreateCategory inserts a category for an account. Titles are unique per
// account case-insensitively; a clash returns ErrDuplicate.
func (s *Store) CreateCategory(ctx context.Context, accountID int64, title string) (model.Category, error) {
	if strings.TrimSpace(title) == "" {
		return model.Category{}, fmt.Errorf("category title cannot be empty")
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (account_id, title) VALUES (?, ?)", accountID, title)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Category{}, fmt.Errorf("category %q: %w", title, ErrDuplicate)
		}
		return model.Category{}, fmt.Errorf("inserting category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, fmt.Errorf("reading category id: %w", err)
	}
	return model.Category{ID: id, AccountID: accountID, Title: title}, nil
}

// GetCategory returns one category of an account by ID.
func (s *Store) GetCategory(ctx context.Context, accountID, id int64) (model.Category, error) {
	var c model.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, title FROM categories WHERE id = ? AND account_id = ?", id, accountID).
		Scan(&c.ID, &c.AccountID, &c.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, fmt.Errorf("category: %w", ErrNotFound)
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("scanning category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories of an account ordered by title.
func (s *Store) ListCategories(ctx context.Context, accountID int64) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account_id, title FROM categories WHERE account_id = ? ORDER BY title", accountID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Title); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, nil
}
