// Package repository provides PostgreSQL persistence for users, owned
// resources and their share-sets, activity, feedback and site settings.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of *sql.DB and *sql.Tx used by the repositories.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Transactor runs functions inside a database transaction. Repositories
// called with the context passed to fn join that transaction.
type Transactor struct {
	// DB is the database handle transactions are started on.
	DB *sql.DB
}

// NewTransactor creates a Transactor for db.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{DB: db}
}

// InTx calls fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. Nested calls reuse the outer transaction.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
