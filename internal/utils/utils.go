package utils

import (
	"context"
	"time"
)

// WaitFor pauses for d or until ctx is done, whichever comes first.
// A non-positive d returns immediately, even for a cancelled ctx.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
