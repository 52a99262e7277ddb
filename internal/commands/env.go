package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/NikosGkoutzas/finance-ledger/internal/analytics"
	"github.com/NikosGkoutzas/finance-ledger/internal/cards"
	"github.com/NikosGkoutzas/finance-ledger/internal/categories"
	"github.com/NikosGkoutzas/finance-ledger/internal/config"
	"github.com/NikosGkoutzas/finance-ledger/internal/currency"
	"github.com/NikosGkoutzas/finance-ledger/internal/debts"
	"github.com/NikosGkoutzas/finance-ledger/internal/importer"
	"github.com/NikosGkoutzas/finance-ledger/internal/logging"
	"github.com/NikosGkoutzas/finance-ledger/internal/model"
	"github.com/NikosGkoutzas/finance-ledger/internal/storage"
	"github.com/NikosGkoutzas/finance-ledger/internal/subscriptions"
	"github.com/NikosGkoutzas/finance-ledger/internal/transactions"
)

// env bundles the configured services a command operates on.
type env struct {
	cfg           *config.Config
	store         *storage.Store
	converter     *currency.Converter
	transactions  *transactions.Service
	subscriptions *subscriptions.Service
	debts         *debts.Service
	analytics     *analytics.Service
	cards         *cards.Service
	categories    *categories.Service
	importer      *importer.Service
}

// openEnv loads the configuration referenced by the command's --config flag
// and wires up storage and services. The caller must Close the env.
func openEnv(cmd *cobra.Command) (*env, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	converter, err := currency.NewConverter(model.Currency(cfg.Currency.Base), cfg.Rates())
	if err != nil {
		return nil, fmt.Errorf("building currency converter: %w", err)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	debtSvc := debts.NewService(store, cfg.GraceWindow())
	limits := transactions.Limits{
		CreditLimit:    decimal.NewFromFloat(cfg.Limits.CreditLimit),
		CashMax:        decimal.NewFromFloat(cfg.Limits.CashMax),
		CardBalanceMax: decimal.NewFromFloat(cfg.Limits.CardBalanceMax),
		AmountMax:      decimal.NewFromFloat(cfg.Limits.AmountMax),
	}

	txnSvc := transactions.NewService(store, converter, debtSvc, limits)
	return &env{
		cfg:           cfg,
		store:         store,
		converter:     converter,
		transactions:  txnSvc,
		subscriptions: subscriptions.NewService(store, converter),
		debts:         debtSvc,
		analytics:     analytics.NewService(store, converter),
		cards:         cards.NewService(store),
		categories:    categories.NewService(store, cfg.Categories.Defaults),
		importer:      importer.NewService(store, txnSvc),
	}, nil
}

// Close releases the env's resources.
func (e *env) Close() error {
	return e.store.Close()
}
