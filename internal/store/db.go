package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the database handle used by SQL stores. It is satisfied by
// both *sql.DB and *sql.Tx regardless of the driver behind them.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
