package cache

import (
	"errors"

	"github.com/gobeaver/beaver-social/cache/driver"
	"gorm.io/gorm"
)

// Common errors
var (
	ErrInvalidDriver = errors.New("invalid cache driver")
	ErrMissingDB     = errors.New("database cache driver requires a *gorm.DB (use cache.WithGORM)")

	// ErrKeyNotFound is returned by every driver for missing or expired keys.
	ErrKeyNotFound = driver.ErrKeyNotFound
)

// Option customizes New.
type Option func(*options)

type options struct {
	gormDB *gorm.DB
}

// WithGORM supplies the connection used by the "database" driver.
func WithGORM(db *gorm.DB) Option {
	return func(o *options) {
		o.gormDB = db
	}
}

// New creates a new cache instance with given config
func New(cfg Config, opts ...Option) (Cache, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Set defaults
	if cfg.Driver == "" {
		cfg.Driver = "memory"
	}

	// Select driver based on config
	switch cfg.Driver {
	case "memory", "builtin":
		return memoryRegister(cfg)
	case "redis":
		return redisRegister(cfg)
	case "database", "sql":
		return databaseRegister(cfg, o)
	default:
		return nil, ErrInvalidDriver
	}
}

