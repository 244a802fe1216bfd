// Package sqlstore provides a database/sql implementation of the storage.Store
// interface for SQLite (modernc.org/sqlite, no CGO) and PostgreSQL (lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure SQLStore implements storage.Store
var _ storage.Store = (*SQLStore)(nil)

// sqliteParams are appended to every SQLite path. Transactions take the write lock
// up front so two settlements never deadlock upgrading a read lock.
const sqliteParams = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

// SQLStore implements storage.Store on top of database/sql.
type SQLStore struct {
	conn
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs dialect-rebound queries against a querier. Read helpers are defined on
// conn so they work identically inside and outside a unit of work.
type conn struct {
	q       querier
	dialect dialect
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.q.ExecContext(ctx, c.dialect.rebind(query), args...)
	if err != nil {
		return nil, c.dialect.classify(err)
	}
	return res, nil
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.q.QueryContext(ctx, c.dialect.rebind(query), args...)
	if err != nil {
		return nil, c.dialect.classify(err)
	}
	return rows, nil
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.dialect.rebind(query), args...)
}

// OpenSQLite creates a new SQLStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection serializes units of work
	// instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	return open(ctx, db, sqliteDialect)
}

// OpenPostgres creates a new SQLStore connected to the given PostgreSQL DSN.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return open(ctx, db, postgresDialect)
}

func open(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if err := runMigrations(ctx, db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLStore{conn: conn{q: db, dialect: d}, db: db}, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// WithinTx runs fn inside one database transaction. The transaction commits only if
// fn returns nil.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return s.withinTx(ctx, func(ctx context.Context, t *txStore) error {
		return fn(ctx, t)
	})
}

func (s *SQLStore) withinTx(ctx context.Context, fn func(ctx context.Context, t *txStore) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", s.dialect.classify(err))
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, &txStore{conn: conn{q: sqlTx, dialect: s.dialect}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", s.dialect.classify(err))
	}
	return nil
}

// txStore implements storage.Tx on an open database transaction.
type txStore struct {
	conn
}

var _ storage.Tx = (*txStore)(nil)

// nullString maps "" to NULL for optional references.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func limitClause(p storage.Page) string {
	if p.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Limit, max(p.Offset, 0))
}
