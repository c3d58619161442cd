// Package storage is the SQLite-backed ledger store: sales, expenses and
// the daily cash register rows, with schema managed by embedded
// migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
	*Queries
}

// Open opens (creating if needed) the SQLite database at dbPath and runs
// pending migrations.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Single logical writer: serializing connections avoids SQLITE_BUSY
	// between the ledger transaction and concurrent readers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, Queries: New(db)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Tx exposes the full query set bound to one open transaction. It is the
// handle the reconciliation engine works through, so a ledger write and
// its balance adjustment always commit or roll back together.
type Tx struct {
	*Queries
}

// WithTx runs fn inside a transaction, committing on nil and rolling back
// on error or panic.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{Queries: New(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
