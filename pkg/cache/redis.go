package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	herrors "github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/httputil"
)

// RedisConfig configures a [RedisCache].
type RedisConfig struct {
	// Addr is host:port of the Redis server.
	Addr string `toml:"addr"`

	// Password is optional.
	Password string `toml:"password"`

	// DB selects the Redis database.
	DB int `toml:"db"`

	// DialTimeout bounds the initial connection. Defaults to 5s.
	DialTimeout time.Duration `toml:"dial_timeout"`
}

// RedisCache stores entries in Redis. It is shared by every API instance.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and checks the connection with PING.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (Cache, error) {
	if cfg.Addr == "" {
		return nil, herrors.New(herrors.ErrCodeInvalidInput, "redis address is required")
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, herrors.Wrap(herrors.ErrCodeNetwork, err, "connect to redis at %s", cfg.Addr)
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) Cache {
	return &RedisCache{client: client}
}

// Attempts and initial backoff for Redis calls that fail at the connection
// level.
const (
	redisAttempts = 3
	redisBackoff  = 100 * time.Millisecond
)

// transient marks connection-level failures for [httputil.Retry]. Misses
// and cancellations are final.
func transient(err error) error {
	if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return httputil.Transient(err)
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := httputil.Retry(ctx, redisAttempts, redisBackoff, func() error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		return transient(err)
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, herrors.Wrap(herrors.ErrCodeNetwork, err, "redis get %s", key)
	}
	return data, true, nil
}

// Set stores a value in Redis.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := httputil.Retry(ctx, redisAttempts, redisBackoff, func() error {
		return transient(c.client.Set(ctx, key, data, ttl).Err())
	})
	if err != nil {
		return herrors.Wrap(herrors.ErrCodeNetwork, err, "redis set %s", key)
	}
	return nil
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return herrors.Wrap(herrors.ErrCodeNetwork, err, "redis del %s", key)
	}
	return nil
}

// Close closes the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
