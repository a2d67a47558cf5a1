package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FlagStore keeps short-lived boolean markers (revoked tokens, one-shot
// session flags). Redis is preferred; the in-memory map serves single-instance
// deployments and any Redis outage.
type FlagStore struct {
	rc     *redis.Client
	prefix string

	mu  sync.Mutex
	mem map[string]time.Time
	now func() time.Time
}

// NewFlagStore creates a store namespaced by prefix. rc may be nil.
func NewFlagStore(rc *redis.Client, prefix string) *FlagStore {
	return &FlagStore{
		rc:     rc,
		prefix: prefix,
		mem:    map[string]time.Time{},
		now:    time.Now,
	}
}

func (s *FlagStore) key(name string) string {
	return s.prefix + name
}

// Set raises the flag for ttl. A non-positive ttl is a no-op.
func (s *FlagStore) Set(ctx context.Context, name string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := s.rc.Set(ctx, s.key(name), "1", ttl).Err()
		if err == nil {
			return
		}
		Sugar.Warnf("flag set failed key=%s err=%v", s.key(name), err)
	}
	s.mu.Lock()
	s.mem[s.key(name)] = s.now().Add(ttl)
	s.mu.Unlock()
}

// IsSet reports whether the flag is raised and not expired.
func (s *FlagStore) IsSet(ctx context.Context, name string) bool {
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := s.rc.Exists(ctx, s.key(name)).Result()
		if err == nil {
			if n > 0 {
				return true
			}
		} else {
			Sugar.Warnf("flag lookup failed key=%s err=%v", s.key(name), err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.mem[s.key(name)]
	if !ok {
		return false
	}
	if !s.now().Before(exp) {
		delete(s.mem, s.key(name))
		return false
	}
	return true
}

// Clear lowers the flag. It reports whether the flag was raised.
func (s *FlagStore) Clear(ctx context.Context, name string) bool {
	cleared := false
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if n, err := s.rc.Del(ctx, s.key(name)).Result(); err == nil {
			cleared = n > 0
		} else {
			Sugar.Warnf("flag clear failed key=%s err=%v", s.key(name), err)
		}
	}
	s.mu.Lock()
	if exp, ok := s.mem[s.key(name)]; ok {
		delete(s.mem, s.key(name))
		cleared = cleared || s.now().Before(exp)
	}
	s.mu.Unlock()
	return cleared
}

// Prune drops expired in-memory entries.
func (s *FlagStore) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.mem {
		if !now.Before(exp) {
			delete(s.mem, k)
		}
	}
}
