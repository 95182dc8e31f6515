// Package retry holds the backoff schedule shared by the startup connectors.
package retry

import (
	"context"
	"time"
)

// Backoff returns the delay before retry number attempt: 1s, 2s, 4s, capped at 16s.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		return 16 * time.Second
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
