package state

import (
	"context"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

const (
	retryMaxAttempts = 3
	retryBaseDelay   = 50 * time.Millisecond
)

// withRetry runs op, retrying transient failures with exponential
// backoff. The caller observes only the terminal error.
func withRetry(ctx context.Context, op func() error) error {
	var lastErr error
	delay := retryBaseDelay

	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) || attempt == retryMaxAttempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return lastErr
}

// isTransient reports whether a storage failure is worth retrying.
// SQLite reports write contention as busy or locked errors.
func isTransient(err error) bool {
	if core.IsRetryable(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "busy")
}
