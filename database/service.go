// Package database opens SQL connections for the state store. It uses pure
// Go drivers only so builds stay CGO-free.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	// Database drivers - pure Go implementations for CGO-free builds
	_ "github.com/go-sql-driver/mysql"                   // MySQL - already pure Go
	_ "github.com/jackc/pgx/v5/stdlib"                   // PostgreSQL - pure Go, performant
	_ "github.com/tursodatabase/libsql-client-go/libsql" // LibSQL/Turso - pure Go
	_ "modernc.org/sqlite"                               // SQLite - pure Go alternative to go-sqlite3

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Common errors
var (
	ErrInvalidDriver = errors.New("invalid database driver")
	ErrInvalidConfig = errors.New("invalid database configuration")
)

// Open connects with NewSQL and wraps the connection in GORM.
func Open(cfg Config) (*gorm.DB, error) {
	sqlDB, err := NewSQL(cfg)
	if err != nil {
		return nil, err
	}

	gormDB, err := NewGORM(cfg, sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return gormDB, nil
}

// NewSQL creates a new SQL database connection with given config
func NewSQL(cfg Config) (*sql.DB, error) {
	cfg = resolveDriver(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var dsn string
	var driverName string

	switch cfg.Driver {
	case "mysql":
		driverName = "mysql"
		dsn = buildMySQLDSN(cfg)

	case "postgres", "postgresql":
		driverName = "pgx"
		dsn = buildPostgresDSN(cfg)

	case "sqlite", "sqlite3":
		driverName = "sqlite"
		dsn = cfg.Database
		if dsn == "" {
			dsn = "file:sqlite.db?cache=shared&mode=rwc"
		}

	case "libsql", "turso":
		driverName = "libsql"
		dsn = cfg.URL
		if cfg.AuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", cfg.URL, cfg.AuthToken)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidDriver, cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewGORM creates a GORM instance from an existing SQL connection
func NewGORM(cfg Config, sqlDB *sql.DB) (*gorm.DB, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql.DB instance is required for GORM")
	}

	cfg = resolveDriver(cfg)

	var dialector gorm.Dialector

	switch cfg.Driver {
	case "mysql":
		dialector = mysql.New(mysql.Config{
			Conn: sqlDB,
		})

	case "postgres", "postgresql":
		dialector = postgres.New(postgres.Config{
			Conn: sqlDB,
		})

	case "sqlite", "sqlite3", "libsql", "turso":
		dialector = sqlite.Dialector{
			Conn: sqlDB,
		}

	default:
		return nil, fmt.Errorf("unsupported driver for GORM: %s", cfg.Driver)
	}

	gormCfg := &gorm.Config{}
	if cfg.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	return gorm.Open(dialector, gormCfg)
}

// Helper functions

// resolveDriver lets a recognised URL scheme pick the driver and rewrites
// the URL into the form that driver expects.
func resolveDriver(cfg Config) Config {
	if cfg.URL == "" {
		return cfg
	}

	driverName, dsn := parseURLForDriver(cfg.URL)
	switch driverName {
	case "pgx":
		cfg.Driver = "postgres"
		cfg.URL = dsn
	case "mysql":
		cfg.Driver = "mysql"
		cfg.URL = dsn
	case "sqlite":
		cfg.Driver = "sqlite"
		cfg.Database = dsn
		cfg.URL = ""
	case "libsql":
		cfg.Driver = "libsql"
	}
	return cfg
}

// parseURLForDriver maps a connection URL to a database/sql driver name and
// the DSN that driver accepts. Unknown schemes return an empty driver.
func parseURLForDriver(databaseURL string) (string, string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "pgx", databaseURL

	case strings.HasPrefix(databaseURL, "mysql://"):
		u, err := url.Parse(databaseURL)
		if err != nil {
			return "mysql", strings.TrimPrefix(databaseURL, "mysql://")
		}
		host := u.Host
		if u.Port() == "" {
			host += ":3306"
		}
		var userinfo string
		if u.User != nil {
			userinfo = u.User.Username()
			if pass, ok := u.User.Password(); ok {
				userinfo += ":" + pass
			}
			userinfo += "@"
		}
		dsn := fmt.Sprintf("%stcp(%s)/%s", userinfo, host, strings.TrimPrefix(u.Path, "/"))
		if u.RawQuery != "" {
			dsn += "?" + u.RawQuery
		}
		return "mysql", dsn

	case strings.HasPrefix(databaseURL, "sqlite://"):
		return "sqlite", strings.TrimPrefix(databaseURL, "sqlite://")

	case strings.HasPrefix(databaseURL, "file:"):
		return "sqlite", databaseURL

	case strings.HasPrefix(databaseURL, "libsql://"):
		return "libsql", databaseURL
	}

	return "", databaseURL
}

func validateConfig(cfg Config) error {
	if cfg.Driver == "" {
		return errors.New("database driver required")
	}

	switch cfg.Driver {
	case "libsql", "turso":
		if cfg.URL == "" {
			return errors.New("turso requires URL to be set")
		}
	case "sqlite", "sqlite3":
	default:
		if cfg.URL == "" && (cfg.Host == "" || cfg.Database == "") {
			return errors.New("database connection details required")
		}
	}

	return nil
}

func buildMySQLDSN(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	port := cfg.Port
	if port == "" {
		port = "3306"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		cfg.Username, cfg.Password, cfg.Host, port, cfg.Database)

	params := []string{
		"charset=utf8mb4",
		"parseTime=True",
		"loc=Local",
	}

	if cfg.Params != "" {
		params = append(params, cfg.Params)
	}

	return dsn + "?" + strings.Join(params, "&")
}

func buildPostgresDSN(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	port := cfg.Port
	if port == "" {
		port = "5432"
	}

	parts := []string{
		fmt.Sprintf("host=%s", cfg.Host),
		fmt.Sprintf("port=%s", port),
		fmt.Sprintf("user=%s", cfg.Username),
		fmt.Sprintf("password=%s", cfg.Password),
		fmt.Sprintf("dbname=%s", cfg.Database),
		fmt.Sprintf("sslmode=%s", cfg.SSLMode),
	}

	if cfg.Params != "" {
		parts = append(parts, cfg.Params)
	}

	return strings.Join(parts, " ")
}
