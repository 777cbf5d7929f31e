package cache

import (
	"strings"
	"time"

	"github.com/gobeaver/beaver-social/config"
)

// Config holds cache configuration
type Config struct {
	// Driver specifies cache backend: "memory", "redis" or "database"
	Driver string `env:"CACHE_DRIVER,default:memory"`

	// Redis specific settings
	Host     string `env:"CACHE_HOST,default:localhost"`
	Port     string `env:"CACHE_PORT,default:6379"`
	Password string `env:"CACHE_PASSWORD"`
	Database int    `env:"CACHE_DATABASE,default:0"`

	// Connection URL (overrides host/port/password); rediss:// enables TLS
	URL string `env:"CACHE_URL"`

	// Connection pool settings
	MaxRetries      int `env:"CACHE_MAX_RETRIES,default:3"`
	PoolSize        int `env:"CACHE_POOL_SIZE,default:10"`
	MinIdleConns    int `env:"CACHE_MIN_IDLE_CONNS,default:2"`
	MaxIdleConns    int `env:"CACHE_MAX_IDLE_CONNS,default:5"`
	ConnMaxLifetime int `env:"CACHE_CONN_MAX_LIFETIME,default:0"`  // seconds
	ConnMaxIdleTime int `env:"CACHE_CONN_MAX_IDLE_TIME,default:0"` // seconds

	// Memory cache specific
	MaxSize         int64  `env:"CACHE_MAX_SIZE,default:0"`          // max memory in bytes
	MaxKeys         int    `env:"CACHE_MAX_KEYS,default:0"`          // max number of keys
	DefaultTTL      string `env:"CACHE_DEFAULT_TTL,default:0"`       // default TTL as duration string
	CleanupInterval string `env:"CACHE_CLEANUP_INTERVAL,default:1m"` // cleanup interval as duration string

	// Database driver specific
	Table       string `env:"CACHE_TABLE,default:cache_entries"`
	AutoMigrate bool   `env:"CACHE_AUTO_MIGRATE,default:true"`

	// Common settings
	KeyPrefix string `env:"CACHE_KEY_PREFIX"` // prefix for all keys
	Namespace string `env:"CACHE_NAMESPACE"`  // namespace for isolation
}

// GetConfig loads configuration from environment variables
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}

	// Normalize driver
	cfg.Driver = strings.ToLower(cfg.Driver)

	return cfg, nil
}

// ParsedDefaultTTL returns the default TTL as a time.Duration
func (c Config) ParsedDefaultTTL() time.Duration {
	if c.DefaultTTL == "" {
		return 0
	}
	if d, err := time.ParseDuration(c.DefaultTTL); err == nil {
		return d
	}
	return 0
}

// ParsedCleanupInterval returns the cleanup interval as a time.Duration
func (c Config) ParsedCleanupInterval() time.Duration {
	if c.CleanupInterval == "" {
		return time.Minute
	}
	if d, err := time.ParseDuration(c.CleanupInterval); err == nil && d > 0 {
		return d
	}
	return time.Minute
}
