package cache

import (
	"context"
	"sync"
	"time"
)

// Item represents a cached value with an expiration time.
type Item[V any] struct {
	Value      V
	Expiration int64
}

// Store is a thread-safe TTL cache.
type Store[V any] struct {
	items map[string]Item[V]
	mu    sync.RWMutex
	now   func() time.Time
}

func New[V any]() *Store[V] {
	return &Store[V]{
		items: make(map[string]Item[V]),
		now:   time.Now,
	}
}

// Set adds a value to the cache with a specific TTL.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = Item[V]{
		Value:      value,
		Expiration: s.now().Add(ttl).UnixNano(),
	}
}

// Get retrieves a value. Returns false if the item is missing or expired.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	item, found := s.items[key]
	if !found {
		return zero, false
	}

	if s.now().UnixNano() > item.Expiration {
		return zero, false
	}

	return item.Value, true
}

// Len returns the number of stored items, expired or not.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Cleanup removes expired items and returns how many were dropped.
func (s *Store[V]) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UnixNano()
	removed := 0
	for k, v := range s.items {
		if now > v.Expiration {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is cancelled. It
// blocks, so callers run it on its own goroutine.
func (s *Store[V]) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-ctx.Done():
			return nil
		}
	}
}
