package utils

import (
	"context"
	"time"
)

// StartFlagPruner periodically drops expired in-memory flags until ctx is done.
// Redis-backed flags expire on their own; this only bounds the fallback maps.
func StartFlagPruner(ctx context.Context, interval time.Duration, stores ...*FlagStore) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range stores {
					s.Prune()
				}
			}
		}
	}()
}
