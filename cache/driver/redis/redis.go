package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gobeaver/beaver-social/cache/driver"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis. GetAndDelete uses GETDEL, so a login
// state can be consumed by exactly one caller across instances.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// Config holds Redis specific configuration
type Config struct {
	Host     string
	Port     string
	Password string
	Database int

	// URL overrides the fields above; rediss:// enables TLS.
	URL string

	// Pool settings
	MaxRetries      int
	PoolSize        int
	MinIdleConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Common
	KeyPrefix string
	Namespace string
}

// New connects to Redis and pings it once.
func New(cfg Config) (*RedisCache, error) {
	opts := &redis.UniversalOptions{
		Addrs:    []string{buildAddr(cfg)},
		Password: cfg.Password,
		DB:       cfg.Database,
	}

	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opts = &redis.UniversalOptions{
			Addrs:     []string{opt.Addr},
			Username:  opt.Username,
			Password:  opt.Password,
			DB:        opt.DB,
			TLSConfig: opt.TLSConfig,
		}
	}

	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.MaxIdleConns > 0 {
		opts.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.ConnMaxLifetime > 0 {
		opts.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		opts.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client. Only KeyPrefix and Namespace are
// read from cfg.
func NewWithClient(client redis.UniversalClient, cfg Config) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: driver.JoinPrefix(cfg.Namespace, cfg.KeyPrefix),
	}
}

// Get retrieves a value by key
func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	fullKey := rc.keyPrefix + key
	val, err := rc.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, driver.ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

// GetAndDelete retrieves and removes a value with GETDEL (Redis >= 6.2).
func (rc *RedisCache) GetAndDelete(ctx context.Context, key string) ([]byte, error) {
	val, err := rc.client.GetDel(ctx, rc.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, driver.ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

// Set stores a value with optional TTL
func (rc *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	fullKey := rc.keyPrefix + key
	return rc.client.Set(ctx, fullKey, value, ttl).Err()
}

// Delete removes a key
func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	fullKey := rc.keyPrefix + key
	return rc.client.Del(ctx, fullKey).Err()
}

// Exists checks if a key exists
func (rc *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	fullKey := rc.keyPrefix + key
	n, err := rc.client.Exists(ctx, fullKey).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes all keys with the prefix
func (rc *RedisCache) Clear(ctx context.Context) error {
	if rc.keyPrefix == "" {
		return errors.New("cannot clear all keys without a prefix")
	}

	iter := rc.client.Scan(ctx, 0, rc.keyPrefix+"*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())

		if len(keys) >= 1000 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return rc.client.Del(ctx, keys...).Err()
	}

	return nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Ping checks if Redis is reachable
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// buildAddr builds Redis address from config
func buildAddr(cfg Config) string {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "6379"
	}
	return fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
}
