package server

import (
	"fmt"
	"time"

	"github.com/gobeaver/beaver-social/config"
)

// Config holds the host's HTTP and token settings.
type Config struct {
	Addr              string        `env:"SERVER_ADDR,default::8360"`
	RoutePrefix       string        `env:"SERVER_ROUTE_PREFIX,default:/api/oauth"`
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT,default:1m"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default:10s"`

	// JWTKey signs the identity token handed back after login. Without it
	// the identity itself is returned.
	JWTKey string        `env:"JWT_TOKEN"`
	JWTTTL time.Duration `env:"JWT_TTL,default:720h"`

	LogLevel  string `env:"LOG_LEVEL,default:info"`
	LogFormat string `env:"LOG_FORMAT,default:text"`
}

// GetConfig returns config loaded from environment with optional LoadOptions
func GetConfig(opts ...config.LoadOptions) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	return cfg, nil
}
