package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"crowdfund/internal/apperr"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Store runs queries against either the pool or an open transaction.
// Queries are written with ? placeholders and rebound for the driver.
type Store struct {
	q querier
}

// Database represents a connection pool to the configured SQL database
type Database struct {
	*Store
	db *sqlx.DB
}

// New opens the database, verifies the connection and applies migrations.
func New(driver, dsn string) (*Database, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY on upgrade
		db.SetMaxOpenConns(1)
	}

	if err := migrateUp(db.DB, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating database: %v", err)
	}

	return &Database{Store: &Store{q: db}, db: db}, nil
}

// NewWithDB wraps an already-open, already-migrated connection.
func NewWithDB(db *sqlx.DB) *Database {
	return &Database{Store: &Store{q: db}, db: db}
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) DB() *sqlx.DB {
	return d.db
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
// fn must only use the Store it is handed.
func (d *Database) WithTx(ctx context.Context, fn func(*Store) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, apperr.CodeDatabase, "database.WithTx", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("database.WithTx", apperr.CodeDatabase, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.q.GetContext(ctx, dest, s.q.Rebind(query), args...)
}

func (s *Store) list(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.q.SelectContext(ctx, dest, s.q.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.q.ExecContext(ctx, s.q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// insert runs an INSERT ... RETURNING id statement.
func (s *Store) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := s.get(ctx, &id, query+" RETURNING id", args...); err != nil {
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func isCheckViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23514"
	}
	return false
}

// classify maps driver errors onto the application taxonomy. Unique
// violations become AlreadyExists with the caller's code.
func classify(op string, uniqueCode apperr.Code, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.Wrap(apperr.NotFound, uniqueCode, op, err)
	case isUniqueViolation(err):
		return apperr.Wrap(apperr.AlreadyExists, uniqueCode, op, err)
	case isCheckViolation(err):
		return apperr.Wrap(apperr.InvalidState, uniqueCode, op, err)
	default:
		return apperr.Wrap(apperr.Internal, apperr.CodeDatabase, op, err)
	}
}

// hashTaken maps a unique violation on a tx hash column to InvalidState,
// since the hash already settles another record. Other errors go through classify.
func hashTaken(op string, code apperr.Code, err error) error {
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.InvalidState, apperr.CodeTxReplayed, op, err)
	}
	return classify(op, code, err)
}

// notFound maps sql.ErrNoRows to NotFound with code, anything else to Internal.
func notFound(op string, code apperr.Code, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, code, op, err)
	}
	return apperr.Wrap(apperr.Internal, apperr.CodeDatabase, op, err)
}

func internal(op string, err error) error {
	return apperr.Wrap(apperr.Internal, apperr.CodeDatabase, op, err)
}
