package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gobeaver/beaver-social/cache"
	"github.com/gobeaver/beaver-social/config"
	"github.com/gobeaver/beaver-social/database"
)

func TestCacheService(t *testing.T) {
	t.Run("MemoryDriver", func(t *testing.T) {
		cfg := cache.Config{
			Driver:     "memory",
			MaxKeys:    100,
			MaxSize:    1024 * 1024, // 1MB
			DefaultTTL: "5m",
		}

		c, err := cache.New(cfg)
		if err != nil {
			t.Fatalf("Failed to create memory cache: %v", err)
		}
		defer c.Close()

		testCacheOperations(t, c, nil)
	})

	t.Run("RedisDriver", func(t *testing.T) {
		mr := miniredis.RunT(t)

		cfg := cache.Config{
			Driver:    "redis",
			Host:      mr.Host(),
			Port:      mr.Port(),
			KeyPrefix: "test:",
		}

		c, err := cache.New(cfg)
		if err != nil {
			t.Fatalf("Failed to create redis cache: %v", err)
		}
		defer c.Close()

		testCacheOperations(t, c, mr.FastForward)
	})

	t.Run("DatabaseDriver", func(t *testing.T) {
		db, err := database.Open(database.Config{
			Driver:       "sqlite",
			Database:     ":memory:",
			MaxOpenConns: 1,
		})
		if err != nil {
			t.Skipf("sqlite not available: %v", err)
		}
		sqlDB, _ := db.DB()
		defer sqlDB.Close()

		cfg := cache.Config{
			Driver:      "database",
			Table:       "cache_entries",
			AutoMigrate: true,
			Namespace:   "test",
		}

		c, err := cache.New(cfg, cache.WithGORM(db))
		if err != nil {
			t.Fatalf("Failed to create database cache: %v", err)
		}
		defer c.Close()

		testCacheOperations(t, c, nil)
	})
}

// testCacheOperations runs the shared driver contract. advance moves the
// backend clock forward; nil means real sleeping.
func testCacheOperations(t *testing.T, c cache.Cache, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	key := "test-key"
	value := []byte("test-value")

	if err := c.Set(ctx, key, value, 1*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Get returned wrong value: got %s, want %s", got, value)
	}

	// Overwrite keeps a single entry
	if err := c.Set(ctx, key, []byte("second"), 1*time.Minute); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	got, err = c.Get(ctx, key)
	if err != nil || string(got) != "second" {
		t.Errorf("Get after overwrite = %q, %v; want second", got, err)
	}

	exists, err := c.Exists(ctx, key)
	if err != nil {
		t.Errorf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Key should exist")
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}

	exists, err = c.Exists(ctx, key)
	if err != nil {
		t.Errorf("Exists after delete failed: %v", err)
	}
	if exists {
		t.Error("Key should not exist after delete")
	}

	if _, err := c.Get(ctx, key); !errors.Is(err, cache.ErrKeyNotFound) {
		t.Errorf("Get after delete error = %v, want ErrKeyNotFound", err)
	}

	// GetAndDelete hands the value out exactly once
	if err := c.Set(ctx, "once", []byte("verifier"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err = c.GetAndDelete(ctx, "once")
	if err != nil || string(got) != "verifier" {
		t.Fatalf("GetAndDelete = %q, %v; want verifier", got, err)
	}
	if _, err := c.GetAndDelete(ctx, "once"); !errors.Is(err, cache.ErrKeyNotFound) {
		t.Errorf("second GetAndDelete error = %v, want ErrKeyNotFound", err)
	}

	// TTL expiration
	ttl := time.Second
	if err := c.Set(ctx, "ttl-key", []byte("ttl-value"), ttl); err != nil {
		t.Errorf("Set with TTL failed: %v", err)
	}
	if advance != nil {
		advance(2 * ttl)
	} else {
		time.Sleep(ttl + 200*time.Millisecond)
	}
	if _, err := c.Get(ctx, "ttl-key"); err == nil {
		t.Error("Key should have expired")
	}
	if _, err := c.GetAndDelete(ctx, "ttl-key"); err == nil {
		t.Error("GetAndDelete should not return an expired key")
	}

	// Clear
	c.Set(ctx, "key1", []byte("value1"), 0)
	c.Set(ctx, "key2", []byte("value2"), 0)

	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear failed: %v", err)
	}

	exists, _ = c.Exists(ctx, "key1")
	if exists {
		t.Error("Key1 should not exist after clear")
	}

	exists, _ = c.Exists(ctx, "key2")
	if exists {
		t.Error("Key2 should not exist after clear")
	}

	if err := c.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestGetAndDeleteConcurrent(t *testing.T) {
	c, err := cache.New(cache.Config{Driver: "memory"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "pkce:abc", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetAndDelete(ctx, "pkce:abc"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("GetAndDelete winners = %d, want 1", got)
	}
}

func TestNewInvalidDriver(t *testing.T) {
	_, err := cache.New(cache.Config{Driver: "memcached"})
	if !errors.Is(err, cache.ErrInvalidDriver) {
		t.Errorf("New() error = %v, want ErrInvalidDriver", err)
	}
}

func TestNewDatabaseDriverRequiresDB(t *testing.T) {
	_, err := cache.New(cache.Config{Driver: "database"})
	if !errors.Is(err, cache.ErrMissingDB) {
		t.Errorf("New() error = %v, want ErrMissingDB", err)
	}
}

func TestGetConfig(t *testing.T) {
	t.Setenv("WALINE_CACHE_DRIVER", "Redis")
	t.Setenv("WALINE_CACHE_PORT", "6380")

	cfg, err := cache.GetConfig(config.LoadOptions{Prefix: "WALINE_"})
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg.Driver != "redis" {
		t.Errorf("Driver = %q, want redis", cfg.Driver)
	}
	if cfg.Port != "6380" {
		t.Errorf("Port = %q, want 6380", cfg.Port)
	}
	if cfg.Table != "cache_entries" {
		t.Errorf("Table = %q, want cache_entries", cfg.Table)
	}
	if got := cfg.ParsedCleanupInterval(); got != time.Minute {
		t.Errorf("ParsedCleanupInterval() = %v, want 1m", got)
	}
}

func TestRedisDriverFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Select(2)

	c, err := cache.New(cache.Config{
		Driver:    "redis",
		URL:       "redis://" + mr.Addr() + "/2",
		Namespace: "waline",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "pkce:abc", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !mr.Exists("waline:pkce:abc") {
		t.Errorf("key not written to db 2 under the namespace; keys = %v", mr.Keys())
	}
}

func TestRedisDriverBadURL(t *testing.T) {
	_, err := cache.New(cache.Config{Driver: "redis", URL: "http://not-redis"})
	if err == nil {
		t.Fatal("New() with a non-redis URL succeeded")
	}
}
