package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestSQLStateClassification(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("failed to update schedule: %w", &pgconn.PgError{Code: code})
	}

	assert.True(t, IsRetryable(wrap("40001")))
	assert.True(t, IsRetryable(wrap("40P01")))
	assert.False(t, IsRetryable(wrap("23505")))
	assert.False(t, IsRetryable(errors.New("connection reset")))
	assert.False(t, IsRetryable(nil))

	assert.True(t, IsUniqueViolation(wrap("23505")))
	assert.True(t, IsForeignKeyViolation(wrap("23503")))
	assert.True(t, IsCheckViolation(wrap("23514")))
	assert.False(t, IsCheckViolation(wrap("23505")))
}
