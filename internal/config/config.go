package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/NikosGkoutzas/finance-ledger/internal/model"
)

// Config represents the top-level ledger.yaml configuration.
type Config struct {
	Database   DatabaseConfig `yaml:"database"`
	Currency   CurrencyConfig `yaml:"currency"`
	Limits     LimitsConfig   `yaml:"limits"`
	Debt       DebtConfig     `yaml:"debt"`
	Categories CategoryConfig `yaml:"categories"`
	Log        LogConfig      `yaml:"log"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CurrencyConfig holds the rate table, expressed relative to the base currency.
type CurrencyConfig struct {
	Base  string             `yaml:"base"`
	Rates map[string]float64 `yaml:"rates"`
}

// LimitsConfig holds the ledger's monetary bounds.
type LimitsConfig struct {
	CreditLimit    float64 `yaml:"credit_limit"`
	CashMax        float64 `yaml:"cash_max"`
	CardBalanceMax float64 `yaml:"card_balance_max"`
	AmountMax      float64 `yaml:"amount_max"`
}

// DebtConfig controls the debt-forfeiture grace window.
type DebtConfig struct {
	GraceMinutes int `yaml:"grace_minutes"`
}

// CategoryConfig lists the categories seeded for every new account.
type CategoryConfig struct {
	Defaults []string `yaml:"defaults"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Load reads a ledger.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the ledger's standard rates and bounds.
func Default(dbPath string) *Config {
	return &Config{
		Database: DatabaseConfig{Path: dbPath},
		Currency: CurrencyConfig{
			Base: "EUR",
			Rates: map[string]float64{
				"EUR": 1.00,
				"USD": 1.16,
				"GBP": 0.85,
				"JPY": 171.00,
				"SEK": 11.56,
				"CHF": 1.09,
			},
		},
		Limits: LimitsConfig{
			CreditLimit:    1000,
			CashMax:        10000,
			CardBalanceMax: 100000,
			AmountMax:      10000,
		},
		Debt: DebtConfig{GraceMinutes: 5},
		Categories: CategoryConfig{
			Defaults: []string{"Food", "Clothing", "Transportation", "Household bills", "Health", "Entertainment"},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Rates converts the configured rate table to decimals keyed by currency.
func (c *Config) Rates() map[model.Currency]decimal.Decimal {
	rates := make(map[model.Currency]decimal.Decimal, len(c.Currency.Rates))
	for code, rate := range c.Currency.Rates {
		rates[model.Currency(code)] = decimal.NewFromFloat(rate)
	}
	return rates
}

// GraceWindow returns the configured debt grace window as a duration.
func (c *Config) GraceWindow() time.Duration {
	return time.Duration(c.Debt.GraceMinutes) * time.Minute
}
