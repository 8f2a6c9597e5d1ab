package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrStaleState is returned when a guarded update matched no row because the
// record moved to another state concurrently.
var ErrStaleState = errors.New("record changed state concurrently")

// Advisory lock namespaces (first key of pg_advisory_xact_lock(int, int)).
const (
	lockNamespaceAssignment int32 = 1001
	lockNamespaceAttempt    int32 = 1002
)

// dbtx is satisfied by *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func advisoryLock(ctx context.Context, q dbtx, namespace int32, key int32) error {
	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, namespace, key)
	return err
}
