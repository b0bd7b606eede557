package store

import (
	"context"
	"fmt"
	"strings"

	"carelink/internal/db"
	"carelink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so every repository
// can run standalone or inside a unit of work.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

// writeError wraps a failed insert or update. Rows rejected by a CHECK
// constraint are the caller's input, not a server fault.
func writeError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if db.IsCheckViolation(err) {
		return types.WrapError(types.CodeValidation, err, msg+": value outside the accepted range")
	}
	return fmt.Errorf("%s: %w", msg, err)
}
