package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/scanreview-backend/config"
	"github.com/ikkim/scanreview-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return nil
}

// GetClient returns the Redis client instance, nil before Init.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out short-lived SET NX locks.
type Locker struct {
	client *redis.Client
	prefix string
}

func NewLocker(c *redis.Client, prefix string) *Locker {
	return &Locker{client: c, prefix: prefix}
}

// Acquire tries to take the lock on key for ttl. When acquired is false the
// returned release func is a no-op.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	return func() {
		// The caller's context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil && err != redis.Nil {
			logger.Warn("Failed to release lock", map[string]interface{}{
				"key":   fullKey,
				"error": err.Error(),
			})
		}
	}, true, nil
}

// WindowCounter counts hits per key over a fixed window.
type WindowCounter struct {
	client *redis.Client
	prefix string
}

func NewWindowCounter(c *redis.Client, prefix string) *WindowCounter {
	return &WindowCounter{client: c, prefix: prefix}
}

// Hit increments the counter for key and returns the count in the current
// window. The window starts at the first hit.
func (w *WindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := w.prefix + key

	pipe := w.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", fullKey, err)
	}
	return incr.Val(), nil
}
