package service

import (
	"context"
	"time"

	"mafiainsight/internal/syncerr"
)

// RetryOperation runs op up to maxRetries times with pure exponential backoff
// (baseDelay, 2*baseDelay, 4*baseDelay, ...). Permanent errors are returned
// on the first occurrence without burning retry budget; the sleep is
// context-aware so a cancelled sync does not linger in backoff.
func RetryOperation[T any](ctx context.Context, op func(context.Context) (T, error), maxRetries int, baseDelay time.Duration) (T, error) {
	var zero T
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if syncerr.IsPermanent(err) {
			return zero, err
		}
		lastErr = err

		if attempt < maxRetries-1 {
			delay := baseDelay << attempt
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, lastErr
}
