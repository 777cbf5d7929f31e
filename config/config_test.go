package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// Test struct with various field types
type TestConfig struct {
	StringField   string        `env:"TEST_STRING"`
	IntField      int           `env:"TEST_INT"`
	Int64Field    int64         `env:"TEST_INT64"`
	BoolField     bool          `env:"TEST_BOOL"`
	DurationField time.Duration `env:"TEST_DURATION,default:5m"`
	ListField     []string      `env:"TEST_LIST"`
	DefaultField  string        `env:"TEST_DEFAULT,default:defaultValue"`
	NoTagField    string        // Field without env tag
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected TestConfig
		wantErr  bool
	}{
		{
			name: "all fields set from environment",
			envVars: map[string]string{
				"TEST_STRING":   "hello",
				"TEST_INT":      "42",
				"TEST_INT64":    "9223372036854775807",
				"TEST_BOOL":     "true",
				"TEST_DURATION": "30s",
				"TEST_LIST":     "tweet.read, users.read,,offline.access",
			},
			expected: TestConfig{
				StringField:   "hello",
				IntField:      42,
				Int64Field:    9223372036854775807,
				BoolField:     true,
				DurationField: 30 * time.Second,
				ListField:     []string{"tweet.read", "users.read", "offline.access"},
				DefaultField:  "defaultValue",
			},
		},
		{
			name: "override default value",
			envVars: map[string]string{
				"TEST_STRING":  "test",
				"TEST_DEFAULT": "overridden",
			},
			expected: TestConfig{
				StringField:   "test",
				DurationField: 5 * time.Minute,
				DefaultField:  "overridden",
			},
		},
		{
			name: "invalid int value",
			envVars: map[string]string{
				"TEST_INT": "not-a-number",
			},
			wantErr: true,
		},
		{
			name: "invalid duration value",
			envVars: map[string]string{
				"TEST_DURATION": "soon",
			},
			wantErr: true,
		},
		{
			name:    "empty environment leaves zero values",
			envVars: map[string]string{},
			expected: TestConfig{
				DurationField: 5 * time.Minute,
				DefaultField:  "defaultValue",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"TEST_STRING", "TEST_INT", "TEST_INT64", "TEST_BOOL", "TEST_DURATION", "TEST_LIST", "TEST_DEFAULT"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := &TestConfig{}
			err := Load(cfg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(*cfg, tt.expected) {
				t.Errorf("Load() = %+v, want %+v", *cfg, tt.expected)
			}
		})
	}
}

func TestLoadWithPrefix(t *testing.T) {
	t.Setenv("WALINE_QQ_ID", "app-id")
	t.Setenv("QQ_ID", "unprefixed")

	var cfg struct {
		QQID string `env:"QQ_ID"`
	}
	if err := Load(&cfg, LoadOptions{Prefix: "WALINE_"}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QQID != "app-id" {
		t.Errorf("QQID = %q, want app-id", cfg.QQID)
	}
}

func TestLoadRequired(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "")

	var cfg struct {
		Key string `env:"TEST_REQUIRED,required"`
	}
	err := Load(&cfg)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("Load() error = %v, want ErrMissingRequired", err)
	}

	t.Setenv("TEST_REQUIRED", "present")
	if err := Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Key != "present" {
		t.Errorf("Key = %q, want present", cfg.Key)
	}
}

func TestLoadRejectsNonPointer(t *testing.T) {
	var cfg TestConfig
	if err := Load(cfg); err == nil {
		t.Error("Load() with non-pointer should fail")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	if err := os.WriteFile(file, []byte("TEST_ENVFILE_ONLY=from-file\nTEST_ENVFILE_BOTH=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_ENVFILE_BOTH", "from-env")
	t.Cleanup(func() { os.Unsetenv("TEST_ENVFILE_ONLY") })

	var cfg struct {
		Only string `env:"TEST_ENVFILE_ONLY"`
		Both string `env:"TEST_ENVFILE_BOTH"`
	}
	if err := Load(&cfg, LoadOptions{EnvFile: []string{file}}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Only != "from-file" {
		t.Errorf("Only = %q, want from-file", cfg.Only)
	}
	if cfg.Both != "from-env" {
		t.Errorf("Both = %q, want from-env (process env wins)", cfg.Both)
	}
}

func TestSetFieldValue(t *testing.T) {
	tests := []struct {
		name      string
		fieldType string
		value     string
		wantErr   bool
	}{
		{name: "valid string", fieldType: "string", value: "test"},
		{name: "valid int", fieldType: "int", value: "123"},
		{name: "valid int64", fieldType: "int64", value: "9223372036854775807"},
		{name: "valid bool 1", fieldType: "bool", value: "1"},
		{name: "valid duration", fieldType: "duration", value: "1h30m"},
		{name: "invalid int", fieldType: "int", value: "abc", wantErr: true},
		{name: "invalid bool", fieldType: "bool", value: "yes", wantErr: true},
		{name: "invalid duration", fieldType: "duration", value: "90", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg interface{}
			switch tt.fieldType {
			case "string":
				cfg = &struct{ Field string }{}
			case "int":
				cfg = &struct{ Field int }{}
			case "int64":
				cfg = &struct{ Field int64 }{}
			case "bool":
				cfg = &struct{ Field bool }{}
			case "duration":
				cfg = &struct{ Field time.Duration }{}
			}

			field := reflect.ValueOf(cfg).Elem().Field(0)
			err := setFieldValue(field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("setFieldValue() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnsupportedFieldType(t *testing.T) {
	type UnsupportedConfig struct {
		FloatField float64 `env:"TEST_FLOAT"`
	}

	t.Setenv("TEST_FLOAT", "3.14")

	cfg := &UnsupportedConfig{}
	if err := Load(cfg); err != nil {
		t.Errorf("Load() should not error for unsupported types, got: %v", err)
	}
	if cfg.FloatField != 0 {
		t.Errorf("FloatField = %v, want %v", cfg.FloatField, 0)
	}
}

func TestMask(t *testing.T) {
	if got := mask("QQ_SECRET", "s3cr3t"); got != "****" {
		t.Errorf("mask(QQ_SECRET) = %q", got)
	}
	if got := mask("QQ_ID", "101"); got != "101" {
		t.Errorf("mask(QQ_ID) = %q", got)
	}
}
