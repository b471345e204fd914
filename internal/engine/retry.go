package engine

import (
	"context"
	"errors"
	"time"

	"github.com/hubenschmidt/speechbench/internal/metrics"
	"github.com/hubenschmidt/speechbench/internal/vendor"
)

// withRetry runs fn, retrying up to maxRetries additional times when fn
// returns a *vendor.VendorError or *vendor.TimeoutError with Retryable=true,
// backing off exponentially starting at 200ms. Any other error, or a
// non-retryable one of those two, returns immediately.
func withRetry(ctx context.Context, maxRetries int, vendorName, capability string, fn func() error) error {
	backoff := 200 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) || attempt == maxRetries {
			return lastErr
		}

		metrics.RetriesTotal.WithLabelValues(vendorName, capability).Inc()

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return lastErr
}

func isRetryable(err error) bool {
	var vErr *vendor.VendorError
	if errors.As(err, &vErr) {
		return vErr.Retryable
	}
	var tErr *vendor.TimeoutError
	if errors.As(err, &tErr) {
		return tErr.Retryable
	}
	return false
}
