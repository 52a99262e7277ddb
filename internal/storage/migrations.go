package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one versioned schema change.
type migration struct {
	up          func(*sql.Tx) error
	description string
	version     int
}

var migrations = []migration{
	{
		version:     1,
		description: "initial schema",
		up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT UNIQUE NOT NULL,
					cash TEXT NOT NULL DEFAULT '0',
					debt TEXT NOT NULL DEFAULT '0',
					debt_deadline DATETIME,
					currency TEXT NOT NULL,
					version INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS cards (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id INTEGER NOT NULL,
					card_type TEXT NOT NULL,
					number TEXT UNIQUE NOT NULL,
					cvv TEXT NOT NULL,
					expiry TEXT NOT NULL,
					balance TEXT NOT NULL DEFAULT '0',
					currency TEXT NOT NULL,
					version INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_cards_account ON cards(account_id)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id INTEGER NOT NULL,
					title TEXT NOT NULL,
					FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
					UNIQUE (account_id, title COLLATE NOCASE)
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					account_id INTEGER NOT NULL,
					method TEXT NOT NULL,
					card_number TEXT,
					card_cvv TEXT,
					card_expiry TEXT,
					amount TEXT NOT NULL,
					currency TEXT NOT NULL,
					type TEXT NOT NULL,
					category_id INTEGER NOT NULL,
					date DATETIME NOT NULL,
					recurring INTEGER NOT NULL DEFAULT 0,
					start_date DATETIME,
					end_date DATETIME,
					recurrence TEXT,
					next_due DATETIME,
					last_applied DATETIME,
					message TEXT,
					FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,
				`CREATE INDEX idx_transactions_account ON transactions(account_id)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_recurring ON transactions(account_id, recurring)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("executing migration query: %w", err)
				}
			}
			return nil
		},
	},
}

// migrate brings the schema up to the latest version using PRAGMA
// user_version as the migration cursor.
func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.version, err)
		}
		if err := m.up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}

		slog.Debug("applied migration", "version", m.version, "description", m.description)
	}
	return nil
}
