// Command beaver-social serves the Huawei, QQ and X social logins of a
// comment backend.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gobeaver/beaver-social/cache"
	"github.com/gobeaver/beaver-social/database"
	"github.com/gobeaver/beaver-social/internal/server"
	"github.com/gobeaver/beaver-social/oauth"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context) error {
	srvCfg, err := server.GetConfig()
	if err != nil {
		return err
	}
	logger := newLogger(srvCfg.LogLevel, srvCfg.LogFormat)
	slog.SetDefault(logger)

	oauthCfg, err := oauth.GetConfig()
	if err != nil {
		return err
	}

	var (
		store  oauth.StateStore
		health server.Pinger
	)
	if oauthCfg.StateStrategy == oauth.StateStrategyStore {
		c, err := newStateCache()
		if err != nil {
			return err
		}
		defer c.Close()

		s := oauth.NewCacheStateStore(c)
		store, health = s, s
	}

	states, err := oauthCfg.StateManager(store)
	if err != nil {
		return err
	}
	logger.Info("oauth state strategy", "strategy", oauthCfg.StateStrategy, "ttl", oauthCfg.StateTTL)

	registry := oauth.NewRegistry(*oauthCfg,
		oauth.WithStateManager(states),
		oauth.WithLogger(logger),
	)
	if len(registry.Names()) == 0 {
		logger.Warn("no oauth provider configured, set HUAWEI_ID/HUAWEI_SECRET, QQ_ID/QQ_SECRET or TWITTER_ID/TWITTER_SECRET")
	}

	opts := []server.Option{server.WithLogger(logger)}
	if health != nil {
		opts = append(opts, server.WithHealthCheck(health))
	}
	if oauthCfg.CallbackBaseURL != "" {
		opts = append(opts, server.WithCallbackBase(oauthCfg.CallbackBaseURL))
	}

	return server.New(*srvCfg, registry, opts...).Run(ctx)
}

// newStateCache opens the cache that holds server-side login state. The
// database driver gets its connection from the database package.
func newStateCache() (cache.Cache, error) {
	cfg, err := cache.GetConfig()
	if err != nil {
		return nil, err
	}

	var opts []cache.Option
	if cfg.Driver == "database" || cfg.Driver == "sql" {
		dbCfg, err := database.GetConfig()
		if err != nil {
			return nil, err
		}
		db, err := database.Open(*dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		opts = append(opts, cache.WithGORM(db))
	}

	c, err := cache.New(*cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create state cache: %w", err)
	}
	return c, nil
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
