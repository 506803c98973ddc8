// Package cache provides read-through caching over a pluggable byte store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ikkim/scanreview-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Store is the minimal key/value surface a cache backend needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type entry[T any] struct {
	Value    T         `json:"value"`
	CachedAt time.Time `json:"cached_at"`
}

// GetOrRefresh returns the cached value for key, calling load and storing
// its result on a miss. Store failures degrade to calling load directly.
func GetOrRefresh[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if raw, ok, err := store.Get(ctx, key); err != nil {
		logger.Warn("Cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	} else if ok {
		var cached entry[T]
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached.Value, nil
		}
		logger.Warn("Discarding undecodable cache entry", map[string]interface{}{
			"key": key,
		})
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	raw, err := json.Marshal(entry[T]{Value: value, CachedAt: time.Now().UTC()})
	if err != nil {
		return value, nil
	}
	if err := store.Set(ctx, key, raw, ttl); err != nil {
		logger.Warn("Cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return value, nil
}

// RedisStore keeps entries in Redis under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(c *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: c, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// NopStore never holds anything; every lookup is a miss.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopStore) Delete(context.Context, string) error                     { return nil }
