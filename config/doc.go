// Package config loads configuration structs from environment variables,
// with optional name prefixes and .env file support.
//
// # Basic Usage
//
// Define a configuration struct with environment variable tags:
//
//	type Config struct {
//	    TwitterID     string        `env:"TWITTER_ID"`
//	    TwitterSecret string        `env:"TWITTER_SECRET"`
//	    StateTTL      time.Duration `env:"OAUTH_STATE_TTL,default:10m"`
//	    Addr          string        `env:"ADDR,default::8080"`
//	    JWTKey        string        `env:"JWT_TOKEN,required"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// # Custom Prefixes
//
// Use custom prefixes to avoid environment variable conflicts:
//
//	// Will look for MYAPP_TWITTER_ID, MYAPP_OAUTH_STATE_TTL, etc.
//	err := config.Load(&cfg, config.LoadOptions{Prefix: "MYAPP_"})
//
// Packages in this module expose GetConfig(opts ...config.LoadOptions) so the
// host can pick a prefix per concern.
//
// # Supported Types
//
//   - string
//   - int, int64
//   - bool ("true", "false", "1", "0", ...)
//   - time.Duration ("1h30m", "45s", ...)
//   - []string (comma-separated, blanks dropped)
//
// # Field Tags
//
//   - `env:"VAR_NAME"`: environment variable name
//   - `env:"VAR_NAME,default:value"`: value used when the variable is unset or empty
//   - `env:"VAR_NAME,required"`: Load fails with ErrMissingRequired when nothing resolves
//
// # Environment File Support
//
// A .env file in the working directory (or the files named in
// LoadOptions.EnvFile) is loaded first; variables already set in the process
// environment take precedence.
//
// # Debug Mode
//
// Set BEAVER_CONFIG_DEBUG=true or LoadOptions.Debug to print every resolved
// variable. Values of names containing SECRET, PASSWORD, TOKEN or KEY are masked.
package config
