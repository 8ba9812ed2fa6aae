package database

import (
	"context"
	"database/sql"
)

type Database interface {
	GetDB() *sql.DB

	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}
