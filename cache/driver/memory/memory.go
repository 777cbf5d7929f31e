package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/beaver-social/cache/driver"
)

var (
	errMaxKeys = errors.New("max keys limit reached")
	errMaxSize = errors.New("max size limit reached")
)

// item represents a cached item with expiration
type item struct {
	value      []byte
	expiration int64
	size       int64
}

func (it *item) expired(now int64) bool {
	return it.expiration > 0 && now > it.expiration
}

// MemoryCache implements an in-memory cache
type MemoryCache struct {
	mu              sync.RWMutex
	items           map[string]*item
	maxSize         int64
	currentSize     int64
	maxKeys         int
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	keyPrefix       string
}

// Config holds memory cache specific configuration
type Config struct {
	MaxSize         int64
	MaxKeys         int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	KeyPrefix       string
	Namespace       string
}

// New creates a new memory cache instance
func New(cfg Config) (*MemoryCache, error) {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 1 * time.Minute
	}

	mc := &MemoryCache{
		items:           make(map[string]*item),
		maxSize:         cfg.MaxSize,
		maxKeys:         cfg.MaxKeys,
		defaultTTL:      cfg.DefaultTTL,
		cleanupInterval: cfg.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		keyPrefix:       driver.JoinPrefix(cfg.Namespace, cfg.KeyPrefix),
	}

	go mc.cleanupExpired()

	return mc, nil
}

// Get retrieves a value by key
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	it, exists := mc.items[mc.keyPrefix+key]
	if !exists || it.expired(time.Now().UnixNano()) {
		return nil, driver.ErrKeyNotFound
	}

	return it.value, nil
}

// Set stores a value with optional TTL
func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	fullKey := mc.keyPrefix + key
	size := int64(len(value))
	old, replacing := mc.items[fullKey]

	if mc.maxKeys > 0 && !replacing && len(mc.items) >= mc.maxKeys {
		return errMaxKeys
	}

	if mc.maxSize > 0 {
		current := mc.currentSize
		if replacing {
			current -= old.size
		}
		if current+size > mc.maxSize {
			return errMaxSize
		}
	}

	if ttl == 0 {
		ttl = mc.defaultTTL
	}

	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}

	if replacing {
		mc.currentSize -= old.size
	}
	mc.items[fullKey] = &item{
		value:      value,
		expiration: expiration,
		size:       size,
	}
	mc.currentSize += size

	return nil
}

// GetAndDelete retrieves and removes a value under a single write lock.
func (mc *MemoryCache) GetAndDelete(ctx context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	fullKey := mc.keyPrefix + key
	it, exists := mc.items[fullKey]
	if !exists {
		return nil, driver.ErrKeyNotFound
	}

	mc.currentSize -= it.size
	delete(mc.items, fullKey)

	if it.expired(time.Now().UnixNano()) {
		return nil, driver.ErrKeyNotFound
	}
	return it.value, nil
}

// Delete removes a key
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	fullKey := mc.keyPrefix + key
	if it, exists := mc.items[fullKey]; exists {
		mc.currentSize -= it.size
		delete(mc.items, fullKey)
	}

	return nil
}

// Exists checks if a key exists
func (mc *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	it, exists := mc.items[mc.keyPrefix+key]
	if !exists || it.expired(time.Now().UnixNano()) {
		return false, nil
	}

	return true, nil
}

// Clear removes all keys
func (mc *MemoryCache) Clear(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	// Only clear items with our prefix
	if mc.keyPrefix == "" {
		mc.items = make(map[string]*item)
		mc.currentSize = 0
		return nil
	}

	for key, it := range mc.items {
		if strings.HasPrefix(key, mc.keyPrefix) {
			mc.currentSize -= it.size
			delete(mc.items, key)
		}
	}

	return nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		close(mc.stopCleanup)
	})
	return nil
}

// Ping checks if cache is operational
func (mc *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// cleanupExpired removes expired items periodically
func (mc *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(mc.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.removeExpired()
		case <-mc.stopCleanup:
			return
		}
	}
}

// removeExpired removes all expired items
func (mc *MemoryCache) removeExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now().UnixNano()
	for key, it := range mc.items {
		if it.expired(now) {
			mc.currentSize -= it.size
			delete(mc.items, key)
		}
	}
}
