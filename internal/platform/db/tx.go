package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// Queryable is the subset of pgx operations shared by pools and transactions.
// Repositories accept whichever the context carries.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// ConnFromContext retrieves an in-flight transaction from the context, if any.
func ConnFromContext(ctx context.Context) Queryable {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	if tx == nil {
		return nil
	}
	return tx
}

// WithSerializableTx runs fn inside a serializable transaction. The transaction
// is placed in the context so repositories resolve it via ConnFromContext and
// all reads and writes within fn see a consistent snapshot. A serialization
// failure (SQLSTATE 40001) or unique violation (23505) surfaces to the caller,
// who decides whether to retry.
func WithSerializableTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// IsSerializationFailure reports whether err is a serialization conflict or a
// unique constraint violation, i.e. this writer lost a race to a concurrent
// one and the operation may be retried against fresh state.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "23505"
}
