package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the cache backend: get, set-with-expiry, delete, and scope
// deletion. Scopes are named groups of keys (e.g. every cached appointment
// list for one provider) that writes invalidate as a unit.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, scopes []string) error
	Delete(ctx context.Context, keys ...string) error
	DeleteScope(ctx context.Context, scope string) error
}

// entry holds a cached value and its expiration time.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a thread-safe in-memory Store with lazy expiration. It is
// the default backend when no redis URL is configured, and the backend tests
// run against.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	scopes  map[string]map[string]struct{} // scope -> set of member keys
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		scopes:  make(map[string]map[string]struct{}),
	}
}

// Get retrieves a value. Performs lazy expiration: deletes the entry and
// returns a miss if it has expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a value with the given TTL and registers it under each scope.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, scopes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{data: value, expiresAt: time.Now().Add(ttl)}
	for _, scope := range scopes {
		if s.scopes[scope] == nil {
			s.scopes[scope] = make(map[string]struct{})
		}
		s.scopes[scope][key] = struct{}{}
	}
	return nil
}

// Delete removes the given keys.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// DeleteScope removes every key registered under the scope, and the scope
// index itself.
func (s *MemoryStore) DeleteScope(_ context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.scopes[scope] {
		delete(s.entries, k)
	}
	delete(s.scopes, scope)
	return nil
}

// StartCleanup runs a background goroutine that periodically removes expired
// entries. It stops when the context is cancelled.
func (s *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				now := time.Now()
				for k, e := range s.entries {
					if now.After(e.expiresAt) {
						delete(s.entries, k)
					}
				}
				s.mu.Unlock()
			}
		}
	}()
}
