package cache

import (
	"time"

	"github.com/gobeaver/beaver-social/cache/driver/database"
	"github.com/gobeaver/beaver-social/cache/driver/memory"
	"github.com/gobeaver/beaver-social/cache/driver/redis"
)

// Driver registration functions

func memoryRegister(cfg Config) (Cache, error) {
	memCfg := memory.Config{
		MaxSize:         cfg.MaxSize,
		MaxKeys:         cfg.MaxKeys,
		DefaultTTL:      cfg.ParsedDefaultTTL(),
		CleanupInterval: cfg.ParsedCleanupInterval(),
		KeyPrefix:       cfg.KeyPrefix,
		Namespace:       cfg.Namespace,
	}

	return memory.New(memCfg)
}

func redisRegister(cfg Config) (Cache, error) {
	redisCfg := redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: cfg.Database,
		URL:      cfg.URL,

		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTime) * time.Second,

		KeyPrefix: cfg.KeyPrefix,
		Namespace: cfg.Namespace,
	}

	return redis.New(redisCfg)
}

func databaseRegister(cfg Config, o options) (Cache, error) {
	if o.gormDB == nil {
		return nil, ErrMissingDB
	}

	dbCfg := database.Config{
		Table:           cfg.Table,
		AutoMigrate:     cfg.AutoMigrate,
		DefaultTTL:      cfg.ParsedDefaultTTL(),
		CleanupInterval: cfg.ParsedCleanupInterval(),
		KeyPrefix:       cfg.KeyPrefix,
		Namespace:       cfg.Namespace,
	}

	return database.New(o.gormDB, dbCfg)
}
