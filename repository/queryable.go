package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Queryable is satisfied by both pgx.Tx and *pgxpool.Pool, so repositories run inside or outside a unit of work
type Queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// rowScanner covers pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a unique constraint violation, optionally on a specific constraint
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// numeric converts a NUMERIC column selected as TEXT. Postgres always renders NUMERIC as a valid decimal.
func numeric(text string) decimal.Decimal {
	d, _ := decimal.NewFromString(text)
	return d
}

func scanDecimal(row pgx.Row) (decimal.Decimal, error) {
	var text string
	if err := row.Scan(&text); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(text)
}
