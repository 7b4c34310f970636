package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/k1networth/orderflow/internal/shared/errs"
)

// WithTx runs fn inside one transaction. It commits when fn returns nil and rolls back
// otherwise, including on panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Wrap("db.begin", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return Wrap("db.commit", err)
	}
	return nil
}

// Wrap classifies a database error. Errors that already carry a kind are returned as is.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.E(errs.ErrNotFound, op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) == 5 {
		switch pgErr.Code[:2] {
		// 22 data exception, 23 integrity constraint violation
		case "22", "23":
			return errs.E(errs.ErrValidation, op, err)
		}
	}
	return errs.E(errs.ErrPersistence, op, err)
}
