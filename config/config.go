package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingRequired is returned when a field tagged `required` has no value.
var ErrMissingRequired = errors.New("missing required environment variable")

// LoadOptions defines options for loading configuration from environment variables.
type LoadOptions struct {
	Prefix  string   // Prefix to prepend to environment variable names (default: none)
	Debug   bool     // Print every resolved variable; secrets are masked
	EnvFile []string // .env files to load before reading the environment (default: ".env")
}

// Load populates a struct from .env files and environment variables using reflection.
//
// The function uses struct field tags to determine environment variable names:
//   - `env:"VAR_NAME"`: Maps the field to the specified environment variable
//   - `env:"VAR_NAME,default:value"`: Provides a default value if env var is not set
//   - `env:"VAR_NAME,required"`: Fails with ErrMissingRequired when no value resolves
//
// Variables already present in the process environment win over .env values.
//
// Example:
//
//	type Config struct {
//	    QQID     string        `env:"QQ_ID"`
//	    StateTTL time.Duration `env:"OAUTH_STATE_TTL,default:10m"`
//	}
//
//	var cfg Config
//	err := config.Load(&cfg, config.LoadOptions{Prefix: "WALINE_"})
//	// Will look for WALINE_QQ_ID, WALINE_OAUTH_STATE_TTL
func Load(cfg interface{}, opts ...LoadOptions) error {
	var options LoadOptions
	if len(opts) > 0 {
		options = opts[0]
	}

	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: expected pointer to struct, got %T", cfg)
	}

	// Silently try to load .env files, ignore if not found
	if len(options.EnvFile) > 0 {
		_ = godotenv.Load(options.EnvFile...)
	} else {
		_ = godotenv.Load()
	}

	v := rv.Elem()
	t := v.Type()
	printDebug := options.Debug || os.Getenv("BEAVER_CONFIG_DEBUG") == "true"

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" || !field.IsExported() {
			continue
		}

		parts := strings.Split(envTag, ",")
		envName := parts[0]
		defaultValue := ""
		required := false

		for _, part := range parts[1:] {
			switch {
			case strings.HasPrefix(part, "default:"):
				defaultValue = strings.TrimPrefix(part, "default:")
			case part == "required":
				required = true
			}
		}

		fullEnvName := options.Prefix + envName
		value, ok := os.LookupEnv(fullEnvName)
		if !ok || value == "" {
			value = defaultValue
		}
		if printDebug {
			fmt.Printf("[BEAVER] %s=%s\n", fullEnvName, mask(envName, value))
		}

		if value == "" {
			if required {
				return fmt.Errorf("%w: %s", ErrMissingRequired, fullEnvName)
			}
			continue
		}
		if err := setFieldValue(v.Field(i), value); err != nil {
			return fmt.Errorf("config: %s: %w", fullEnvName, err)
		}
	}

	return nil
}

// setFieldValue converts the string value of an environment variable into the
// field's type. Unsupported kinds are skipped silently.
func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		items := strings.Split(value, ",")
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		field.Set(reflect.ValueOf(out))
	default:
		return nil
	}
	return nil
}

func mask(name, value string) string {
	upper := strings.ToUpper(name)
	if value == "" {
		return value
	}
	for _, s := range []string{"SECRET", "PASSWORD", "TOKEN", "KEY"} {
		if strings.Contains(upper, s) {
			return "****"
		}
	}
	return value
}
