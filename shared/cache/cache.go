// Package cache memoizes expensive responses for a short time. Backends are
// best-effort: callers are expected to treat any error as a miss.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheMiss indicates that the key was not found or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidConfig indicates that the cache configuration is invalid.
	ErrInvalidConfig = errors.New("invalid cache configuration")
)

// Cache is a key/value store with a fixed per-entry time-to-live.
type Cache interface {
	// Get returns ErrCacheMiss if the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects and sizes a cache backend.
type Config struct {
	Driver   string        `env:"DRIVER"   envDefault:"memory"`
	Capacity int           `env:"CAPACITY" envDefault:"100"`
	TTL      time.Duration `env:"TTL"      envDefault:"5m"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"ai-tutor:"`
}

// New creates the backend named by cfg.Driver.
func New(cfg Config) (Cache, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidConfig)
	}

	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemoryCache(cfg.Capacity, cfg.TTL)
	case DriverRedis:
		return NewRedisCache(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
	}
}

// Key builds the composite cache key for a requester and a normalized payload.
func Key(namespace, requester, payload string) string {
	return namespace + ":" + requester + ":" + payload
}
