// Package importer loads a CSV statement of transaction intents and runs
// each row through the regular transaction pipeline, so imported rows obey
// the same validation and balance rules as interactive ones.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
	"github.com/NikosGkoutzas/finance-ledger/internal/transactions"
)

// Statement CSV layout. The first row is a header and is skipped.
// Card columns are left empty for cash rows. Recurring transactions
// cannot be imported.
const (
	numFields     = 8
	colType       = 0
	colMethod     = 1
	colAmount     = 2
	colCurrency   = 3
	colCategory   = 4
	colCardNumber = 5
	colCardCVV    = 6
	colCardExpiry = 7
)

// Result is the outcome of one statement row: the committed transaction, or
// the error that rejected it.
type Result struct {
	Line        int
	Transaction model.Transaction
	Err         error
}

// Service applies CSV statements through the transaction pipeline.
type Service struct {
	store *storage.Store
	txns  *transactions.Service
}

// NewService creates a statement import Service.
func NewService(store *storage.Store, txns *transactions.Service) *Service {
	return &Service{store: store, txns: txns}
}

// Import reads a statement and creates one transaction per row. A rejected
// row does not abort the batch; every row's outcome is reported in its
// Result. Only a malformed CSV aborts the whole import.
func (s *Service) Import(ctx context.Context, accountID int64, r io.Reader) ([]Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	categories, err := s.store.ListCategories(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var results []Result
	for i, rec := range records[1:] {
		line := i + 2
		intent, err := parseRow(rec, categories)
		if err != nil {
			results = append(results, Result{Line: line, Err: fmt.Errorf("row %d: %w", line, err)})
			continue
		}
		txn, err := s.txns.Create(ctx, accountID, intent)
		if err != nil {
			err = fmt.Errorf("row %d: %w", line, err)
		}
		results = append(results, Result{Line: line, Transaction: txn, Err: err})
	}
	return results, nil
}

func parseRow(rec []string, categories []model.Category) (transactions.Intent, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[colAmount]))
	if err != nil {
		return transactions.Intent{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}

	category, err := categoryByTitle(categories, rec[colCategory])
	if err != nil {
		return transactions.Intent{}, err
	}

	method := model.PaymentMethod(strings.TrimSpace(rec[colMethod]))
	if method != model.MethodCash && method != model.MethodCard {
		return transactions.Intent{}, fmt.Errorf("unknown payment method %q", rec[colMethod])
	}

	return transactions.Intent{
		Type:       model.TransactionType(strings.TrimSpace(rec[colType])),
		Method:     method,
		Amount:     amount,
		Currency:   model.Currency(strings.TrimSpace(rec[colCurrency])),
		CategoryID: category.ID,
		CardNumber: strings.TrimSpace(rec[colCardNumber]),
		CardCVV:    strings.TrimSpace(rec[colCardCVV]),
		CardExpiry: strings.TrimSpace(rec[colCardExpiry]),
	}, nil
}

func categoryByTitle(categories []model.Category, title string) (model.Category, error) {
	title = strings.TrimSpace(title)
	for _, c := range categories {
		if strings.EqualFold(c.Title, title) {
			return c, nil
		}
	}
	return model.Category{}, fmt.Errorf("unknown category %q", title)
}
