package k8s

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy controls how reads are retried after a ConnectionError.
// Mutations are never retried.
type RetryPolicy struct {
	Backoff  time.Duration
	Attempts uint
}

// DefaultRetryPolicy retries a read once after DefaultReadRetryBackoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Backoff:  DefaultReadRetryBackoff,
		Attempts: DefaultReadAttempts,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Backoff <= 0 {
		p.Backoff = DefaultReadRetryBackoff
	}
	if p.Attempts == 0 {
		p.Attempts = DefaultReadAttempts
	}
	return p
}

// retryRead runs op until it succeeds, fails with a kind other than
// ConnectionError, or the policy's attempts are used up. onRetry is called
// before every retry.
func retryRead[T any](ctx context.Context, policy RetryPolicy, onRetry func(error), op func(context.Context) (T, error)) (T, error) {
	var lastErr error

	operation := func() (T, error) {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !errors.Is(err, ErrConnection) || ctx.Err() != nil {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	notify := func(err error, _ time.Duration) {
		if onRetry != nil {
			onRetry(err)
		}
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Backoff)),
		backoff.WithMaxTries(policy.Attempts),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return result, nil
	}

	// backoff returns the context cause when cancelled while waiting.
	if lastErr != nil {
		return result, lastErr
	}
	return result, err
}
