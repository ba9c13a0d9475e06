package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scopeIndexTTL bounds how long a scope member index outlives its entries.
// Entries expire on their own TTLs; the index only needs to survive the
// longest per-endpoint TTL in use (24h).
const scopeIndexTTL = 24 * time.Hour

// RedisStore is a Store backed by a shared redis instance, so cache entries
// and invalidations are visible across portal replicas. Scope membership is
// tracked in a redis set per scope.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis using a redis:// URL and verifies the
// connection with a ping.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }

func scopeIndexKey(scope string) string { return "scope:" + scope }

// Get retrieves a value; redis.Nil is a miss, not an error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores a value with the given TTL and adds the key to each scope's
// member set in the same pipeline.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, scopes []string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, value, ttl)
	for _, scope := range scopes {
		idx := scopeIndexKey(scope)
		pipe.SAdd(ctx, idx, key)
		pipe.Expire(ctx, idx, scopeIndexTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteScope removes every member key of the scope and the member set.
func (s *RedisStore) DeleteScope(ctx context.Context, scope string) error {
	idx := scopeIndexKey(scope)
	members, err := s.client.SMembers(ctx, idx).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis smembers %s: %w", idx, err)
	}
	keys := append(members, idx)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del scope %s: %w", scope, err)
	}
	return nil
}
