// Package database implements the cache on top of a SQL table through GORM.
// Any dialect GORM supports works; keys live in a single table.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gobeaver/beaver-social/cache/driver"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one cached row.
type Entry struct {
	Key       string     `gorm:"column:cache_key;primaryKey;size:255"`
	Value     []byte     `gorm:"column:value"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
}

func (e *Entry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// Config holds database cache specific configuration
type Config struct {
	Table           string
	AutoMigrate     bool
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	KeyPrefix       string
	Namespace       string
}

// DatabaseCache implements cache using a SQL table
type DatabaseCache struct {
	db          *gorm.DB
	table       string
	keyPrefix   string
	defaultTTL  time.Duration
	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New creates a cache over db. The connection is owned by the caller and is
// not closed by Close.
func New(db *gorm.DB, cfg Config) (*DatabaseCache, error) {
	if db == nil {
		return nil, errors.New("database cache: nil *gorm.DB")
	}
	if cfg.Table == "" {
		cfg.Table = "cache_entries"
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	dc := &DatabaseCache{
		db:          db,
		table:       cfg.Table,
		keyPrefix:   driver.JoinPrefix(cfg.Namespace, cfg.KeyPrefix),
		defaultTTL:  cfg.DefaultTTL,
		stopCleanup: make(chan struct{}),
	}

	if cfg.AutoMigrate {
		if err := db.Table(cfg.Table).AutoMigrate(&Entry{}); err != nil {
			return nil, fmt.Errorf("failed to migrate cache table %q: %w", cfg.Table, err)
		}
	}

	go dc.cleanupExpired(cfg.CleanupInterval)

	return dc, nil
}

func (dc *DatabaseCache) scope(ctx context.Context) *gorm.DB {
	return dc.db.WithContext(ctx).Table(dc.table)
}

// Get retrieves a value by key
func (dc *DatabaseCache) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := dc.scope(ctx).Where("cache_key = ?", dc.keyPrefix+key).Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, driver.ErrKeyNotFound
		}
		return nil, err
	}
	if e.expired(time.Now()) {
		return nil, driver.ErrKeyNotFound
	}
	return e.Value, nil
}

// Set stores a value with optional TTL
func (dc *DatabaseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = dc.defaultTTL
	}

	e := Entry{Key: dc.keyPrefix + key, Value: value}
	if ttl > 0 {
		exp := time.Now().Add(ttl).UTC()
		e.ExpiresAt = &exp
	}

	return dc.scope(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&e).Error
}

// GetAndDelete reads the row and deletes it in one transaction. The caller
// whose DELETE affects the row wins; every other caller sees ErrKeyNotFound.
func (dc *DatabaseCache) GetAndDelete(ctx context.Context, key string) ([]byte, error) {
	fullKey := dc.keyPrefix + key
	var value []byte

	err := dc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e Entry
		if err := tx.Table(dc.table).Where("cache_key = ?", fullKey).Take(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return driver.ErrKeyNotFound
			}
			return err
		}

		res := tx.Table(dc.table).Where("cache_key = ?", fullKey).Delete(&Entry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || e.expired(time.Now()) {
			return driver.ErrKeyNotFound
		}

		value = e.Value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes a key
func (dc *DatabaseCache) Delete(ctx context.Context, key string) error {
	return dc.scope(ctx).Where("cache_key = ?", dc.keyPrefix+key).Delete(&Entry{}).Error
}

// Exists checks if a key exists
func (dc *DatabaseCache) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := dc.scope(ctx).
		Where("cache_key = ?", dc.keyPrefix+key).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Clear removes all keys with the prefix, or the whole table without one.
func (dc *DatabaseCache) Clear(ctx context.Context) error {
	if dc.keyPrefix == "" {
		return dc.scope(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{}).Error
	}
	return dc.scope(ctx).Where("cache_key LIKE ?", dc.keyPrefix+"%").Delete(&Entry{}).Error
}

// Close stops the cleanup goroutine.
func (dc *DatabaseCache) Close() error {
	dc.closeOnce.Do(func() {
		close(dc.stopCleanup)
	})
	return nil
}

// Ping checks if the database is reachable
func (dc *DatabaseCache) Ping(ctx context.Context) error {
	sqlDB, err := dc.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PurgeExpired deletes every expired row and reports how many went.
func (dc *DatabaseCache) PurgeExpired(ctx context.Context) (int64, error) {
	res := dc.scope(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now().UTC()).Delete(&Entry{})
	return res.RowsAffected, res.Error
}

func (dc *DatabaseCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_, _ = dc.PurgeExpired(ctx)
			cancel()
		case <-dc.stopCleanup:
			return
		}
	}
}
