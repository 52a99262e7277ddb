// Package cards issues payment cards: the number, CVV and expiry are
// generated here, with the card number retried against the store's
// uniqueness check.
package cards

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
)

// maxNumberAttempts bounds the retry loop for a unique card number. With 10^16
// candidate numbers, hitting this bound means something is badly wrong.
const maxNumberAttempts = 100

// Service issues cards for accounts.
type Service struct {
	store *storage.Store
	rand  *rand.Rand
	now   func() time.Time
}

// NewService creates a card issuing Service.
func NewService(store *storage.Store) *Service {
	return &Service{
		store: store,
		rand:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:   time.Now,
	}
}

// Issue creates a card for the account with a freshly generated number, CVV
// and expiry, and the given opening balance.
func (s *Service) Issue(ctx context.Context, accountID int64, cardType model.CardType, balance decimal.Decimal, cur model.Currency) (model.Card, error) {
	if balance.IsNegative() {
		return model.Card{}, fmt.Errorf("opening balance must not be negative")
	}

	number, err := s.uniqueNumber(ctx)
	if err != nil {
		return model.Card{}, err
	}

	card := model.Card{
		AccountID: accountID,
		Type:      cardType,
		Number:    number,
		CVV:       s.randomDigits(3),
		Expiry:    s.randomExpiry(),
		Balance:   balance,
		Currency:  cur,
	}
	return s.store.CreateCard(ctx, card)
}

// uniqueNumber generates a 16-digit card number not yet used by any card,
// giving up after a bounded number of attempts.
func (s *Service) uniqueNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := s.randomDigits(16)
		exists, err := s.store.CardNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique card number after %d attempts", maxNumberAttempts)
}

func (s *Service) randomDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + s.rand.IntN(10))
	}
	return string(b)
}

// randomExpiry picks a random month and a year 1 to 7 years out, as "MM/YY".
func (s *Service) randomExpiry() string {
	month := 1 + s.rand.IntN(12)
	year := s.now().AddDate(1+s.rand.IntN(7), 0, 0).Year() % 100
	return fmt.Sprintf("%02d/%02d", month, year)
}
