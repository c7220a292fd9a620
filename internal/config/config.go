// ABOUTME: Configuration loading and parsing for student-portal
// ABOUTME: Supports YAML or TOML files with environment variable expansion and validation

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied to fields left empty in the config file.
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultDriver          = "sqlite"
	DefaultCodePrefix      = "56X00"
	DefaultDateLayout      = "1/2/2006, 3:04:05 PM"
	DefaultEntryPage       = "/CassScoreEntry.html"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultIdempotencyTTL  = 10 * time.Minute
)

// Config represents the complete student-portal configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Database   DatabaseConfig   `yaml:"database" toml:"database"`
	Enrollment EnrollmentConfig `yaml:"enrollment" toml:"enrollment"`
	CASS       CASSConfig       `yaml:"cass" toml:"cass"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the local HTTP surface configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr" toml:"http_addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`
	IdempotencyTTL  time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	IdempotencyTTLRaw  string `yaml:"idempotency_ttl" toml:"idempotency_ttl"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path   string `yaml:"path" toml:"path" validate:"required"`
	Driver string `yaml:"driver" toml:"driver" validate:"required,oneof=sqlite sqlite3"`
}

// EnrollmentConfig holds the rules applied when a student is added
type EnrollmentConfig struct {
	CodePrefix string `yaml:"code_prefix" toml:"code_prefix" validate:"required,max=16"`
	DateLayout string `yaml:"date_layout" toml:"date_layout" validate:"required"`
}

// CASSConfig holds score-entry navigation configuration
type CASSConfig struct {
	EntryPage string `yaml:"entry_page" toml:"entry_page" validate:"required"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns a configuration with every default filled in and the
// database under dataDir.
func Default(dataDir string) *Config {
	cfg := &Config{
		Database: DatabaseConfig{Path: filepath.Join(dataDir, "students.db")},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Write saves the configuration as YAML, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out := *c
	if out.Server.ShutdownTimeoutRaw == "" && out.Server.ShutdownTimeout > 0 {
		out.Server.ShutdownTimeoutRaw = out.Server.ShutdownTimeout.String()
	}
	if out.Server.IdempotencyTTLRaw == "" && out.Server.IdempotencyTTL > 0 {
		out.Server.IdempotencyTTLRaw = out.Server.IdempotencyTTL.String()
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.IdempotencyTTL == 0 {
		c.Server.IdempotencyTTL = DefaultIdempotencyTTL
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Enrollment.CodePrefix == "" {
		c.Enrollment.CodePrefix = DefaultCodePrefix
	}
	if c.Enrollment.DateLayout == "" {
		c.Enrollment.DateLayout = DefaultDateLayout
	}
	if c.CASS.EntryPage == "" {
		c.CASS.EntryPage = DefaultEntryPage
	}
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config file keys
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "hostname_port":
		return fmt.Errorf("%s must be host:port, got %q", field, fe.Value())
	default:
		return fmt.Errorf("%s failed %s validation", field, fe.Tag())
	}
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Server.ShutdownTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	if cfg.Server.IdempotencyTTLRaw != "" {
		d, err := time.ParseDuration(cfg.Server.IdempotencyTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing idempotency_ttl %q: %w", cfg.Server.IdempotencyTTLRaw, err)
		}
		cfg.Server.IdempotencyTTL = d
	}
	return nil
}
