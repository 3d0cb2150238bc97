package util

import (
	"context"
	"time"
)

// RunPeriodically calls fn every interval until ctx is done.
func RunPeriodically(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
