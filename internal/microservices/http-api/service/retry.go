package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookhub/internal/microservices/http-api/repository"
	"bookhub/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a transaction that lost a race is re-run.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// DefaultRetryPolicy is used when a zero policy is supplied.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, InitialInterval: 10 * time.Millisecond}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	return p
}

// inTx runs fn in a store transaction, re-running the whole transaction on
// repository.ErrConflict. Any other error stops immediately. Exhausted
// retries surface as ErrTransient.
func inTx(ctx context.Context, store repository.Store, policy RetryPolicy, m *metrics.Recorder, op string, fn func(tx repository.Store) error) error {
	policy = policy.normalized()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = 50 * policy.InitialInterval
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := store.WithinTx(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrConflict) {
			m.TxConflict()
			slog.Debug("tx_conflict", "op", op, "attempt", attempts)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1)), ctx))

	if errors.Is(err, repository.ErrConflict) {
		m.TxExhausted()
		slog.Warn("tx_retries_exhausted", "op", op, "attempts", attempts)
		return fmt.Errorf("%s: %w after %d attempts", op, ErrTransient, attempts)
	}
	return err
}
