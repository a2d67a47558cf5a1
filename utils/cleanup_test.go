package utils

import (
	"context"
	"testing"
	"time"
)

// TestStartFlagPruner drops expired entries in the background.
func TestStartFlagPruner(t *testing.T) {
	s := NewFlagStore(nil, "p:")
	s.Set(context.Background(), "old", time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartFlagPruner(ctx, 5*time.Millisecond, s)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		n := len(s.mem)
		s.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expired flag was not pruned")
}
