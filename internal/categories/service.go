// Package categories creates transaction categories, enforcing per-account
// title uniqueness, and seeds the defaults for new accounts.
package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

// Service manages an account's categories.
type Service struct {
	store    *storage.Store
	defaults []string
}

// NewService creates a category Service. defaults are the titles seeded for
// every new account.
func NewService(store *storage.Store, defaults []string) *Service {
	return &Service{store: store, defaults: defaults}
}

// Create adds a category. Titles clash case-insensitively per account.
func (s *Service) Create(ctx context.Context, accountID int64, title string) (model.Category, error) {
	cat, err := s.store.CreateCategory(ctx, accountID, title)
	if errors.Is(err, storage.ErrDuplicate) {
		return model.Category{}, fmt.Errorf("this category already exists for this account: %w", err)
	}
	return cat, err
}

// Seed creates the default categories for a freshly created account. It is
// an explicit step in the account-creation workflow, not an implicit hook;
// titles that already exist are left alone.
func (s *Service) Seed(ctx context.Context, accountID int64) error {
	for _, title := range s.defaults {
		if _, err := s.store.CreateCategory(ctx, accountID, title); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("seeding category %q: %w", title, err)
		}
	}
	return nil
}
