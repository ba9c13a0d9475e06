// Package cache is a typed read-through cache for upstream reads. Keys are
// derived explicitly per resource and operation, writes invalidate declared
// scopes rather than ad hoc wildcards, and concurrent misses for one key are
// collapsed into a single upstream fetch.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Per-endpoint TTL tiers. Reads choose a tier; nothing else sets TTLs.
const (
	TTLShort  = 2 * time.Minute // volatile lists (today's schedule, upcoming)
	TTLMedium = 1 * time.Hour   // single records between edits
	TTLLong   = 24 * time.Hour  // reference data (providers, FHIR metadata)
)

// Key derives a cache key from a resource, an operation, and its parameters.
// Parameters are "name=value" pairs; they are sorted so equivalent calls
// derive identical keys regardless of argument order.
func Key(resource, op string, params ...string) string {
	if len(params) == 0 {
		return resource + ":" + op
	}
	sorted := make([]string, len(params))
	copy(sorted, params)
	sort.Strings(sorted)
	return resource + ":" + op + ":" + strings.Join(sorted, ":")
}

// Scope names an invalidation group: every cached entry registered under a
// scope is dropped together when a write touches the resource it covers.
func Scope(resource string, qualifiers ...string) string {
	if len(qualifiers) == 0 {
		return resource
	}
	return resource + ":" + strings.Join(qualifiers, ":")
}

// Loader fetches the value on a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// call tracks one in-flight load so concurrent misses share its result.
type call struct {
	wg   sync.WaitGroup
	data []byte
	err  error
}

// Cache wraps a Store with read-through loading and per-key single-flight.
type Cache struct {
	store  Store
	logger zerolog.Logger

	mu     sync.Mutex
	flight map[string]*call
}

// New creates a Cache over the given store.
func New(store Store, logger zerolog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.With().Str("component", "cache").Logger(),
		flight: make(map[string]*call),
	}
}

// GetJSON returns the cached bytes for key, loading and storing them on a
// miss. The returned bytes are exactly what the loader produced, so a hit is
// byte-identical to the miss that populated it. The bool reports whether the
// value came from the cache.
//
// Concurrent callers that miss on the same key share one loader invocation;
// only the winner writes to the store.
func (c *Cache) GetJSON(ctx context.Context, key string, ttl time.Duration, scopes []string, load Loader) ([]byte, bool, error) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		// A broken store degrades to a pass-through, not an outage.
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, loading direct")
		data, err := load(ctx)
		return data, false, err
	}
	if ok {
		c.logger.Debug().Str("key", key).Msg("cache hit")
		return data, true, nil
	}

	c.mu.Lock()
	if inflight, ok := c.flight[key]; ok {
		c.mu.Unlock()
		inflight.wg.Wait()
		return inflight.data, false, inflight.err
	}
	cl := &call{}
	cl.wg.Add(1)
	c.flight[key] = cl
	c.mu.Unlock()

	cl.data, cl.err = load(ctx)
	if cl.err == nil {
		if serr := c.store.Set(ctx, key, cl.data, ttl, scopes); serr != nil {
			c.logger.Warn().Err(serr).Str("key", key).Msg("cache write failed")
		}
	}

	c.mu.Lock()
	delete(c.flight, key)
	c.mu.Unlock()
	cl.wg.Done()

	c.logger.Debug().Str("key", key).Msg("cache miss")
	return cl.data, false, cl.err
}

// Invalidate drops specific keys. Store failures are logged, not returned: a
// write that already succeeded upstream must not be reported as failed
// because its cache cleanup failed.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate failed")
	}
}

// InvalidateScope drops every entry registered under each scope.
func (c *Cache) InvalidateScope(ctx context.Context, scopes ...string) {
	for _, scope := range scopes {
		if err := c.store.DeleteScope(ctx, scope); err != nil {
			c.logger.Warn().Err(err).Str("scope", scope).Msg("cache scope invalidate failed")
		}
	}
}
