// Package storage persists accounts, cards, categories and transactions in
// SQLite. Monetary amounts are stored as decimal strings so no precision is
// lost crossing the database boundary.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Sentinel errors returned by the store.
var (
	// ErrNotFound reports that the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate reports a uniqueness violation (card number, category title).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrConflict reports that a concurrent writer updated the row first;
	// callers should re-read and retry.
	ErrConflict = errors.New("concurrent update conflict")
)

// Store is the SQLite-backed persistence layer.
type Store struct {
	db    *sql.DB
	locks *accountLocks
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite does not benefit from multiple connections, and a single
	// connection keeps in-memory databases coherent across goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, locks: newAccountLocks()}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithAccountLock runs fn while holding the mutation lock for the given
// account. Every read-decide-mutate sequence against an account or its cards
// must run under this lock.
func (s *Store) WithAccountLock(accountID int64, fn func() error) error {
	unlock := s.locks.lock(accountID)
	defer unlock()
	return fn()
}
