package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/gobeaver/beaver-social/cache"
)

// StateStore holds server-side login state. Implementations must be safe for
// concurrent use.
type StateStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) error
}

// StateTaker is implemented by stores that can read and delete atomically.
type StateTaker interface {
	Take(ctx context.Context, key string) (value string, found bool, err error)
}

// CacheStateStore adapts a cache.Cache (memory, redis or database driver).
type CacheStateStore struct {
	cache cache.Cache
}

// NewCacheStateStore wraps c.
func NewCacheStateStore(c cache.Cache) *CacheStateStore {
	return &CacheStateStore{cache: c}
}

// Put implements StateStore.
func (s *CacheStateStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.cache.Set(ctx, key, []byte(value), ttl)
}

// Get implements StateStore.
func (s *CacheStateStore) Get(ctx context.Context, key string) (string, bool, error) {
	return found(s.cache.Get(ctx, key))
}

// Delete implements StateStore.
func (s *CacheStateStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}

// Take implements StateTaker.
func (s *CacheStateStore) Take(ctx context.Context, key string) (string, bool, error) {
	return found(s.cache.GetAndDelete(ctx, key))
}

// Ping reports whether the backing cache is reachable.
func (s *CacheStateStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func found(value []byte, err error) (string, bool, error) {
	if errors.Is(err, cache.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(value), true, nil
}
