package db

import (
	"context"
	"fmt"
	"time"

	"carelink/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

const (
	maxTxAttempts = 3
	retryInterval = 25 * time.Millisecond
)

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxRunner executes units of work inside a transaction, retrying the whole
// unit a bounded number of times on serialization failures and deadlocks.
type TxRunner struct {
	pool     beginner
	attempts uint
	logger   logrus.FieldLogger
	onRetry  func()
}

func NewTxRunner(pool *pgxpool.Pool, attempts uint, logger logrus.FieldLogger) *TxRunner {
	return newTxRunner(pool, attempts, logger)
}

func newTxRunner(pool beginner, attempts uint, logger logrus.FieldLogger) *TxRunner {
	if attempts == 0 || attempts > maxTxAttempts {
		attempts = maxTxAttempts
	}
	return &TxRunner{pool: pool, attempts: attempts, logger: logger}
}

// OnRetry registers a hook invoked once per retried attempt.
func (t *TxRunner) OnRetry(fn func()) {
	t.onRetry = fn
}

func (t *TxRunner) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	backoff := retry.WithMaxRetries(uint64(t.attempts-1), retry.NewConstant(retryInterval))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := t.runOnce(ctx, fn)
		if IsRetryable(err) {
			t.logger.WithError(err).WithField("attempt", attempt).Warn("transaction collided, retrying")
			if t.onRetry != nil && attempt < int(t.attempts) {
				t.onRetry()
			}
			return retry.RetryableError(err)
		}
		return err
	})
	if IsRetryable(err) {
		return types.NewTransient(err)
	}

	return err
}

func (t *TxRunner) runOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
