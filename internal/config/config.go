// ABOUTME: Configuration loading and parsing for erpdesk
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/erpdesk/internal/store"
)

// Defaults applied when a field is left empty.
const (
	DefaultHTTPAddr          = "127.0.0.1:7420"
	DefaultDriver            = string(store.DriverSQLite)
	DefaultBusyTimeout       = store.DefaultBusyTimeout
	DefaultCacheSize         = store.DefaultCacheSize
	DefaultSessionTTL        = 24 * time.Hour
	DefaultBcryptCost        = 10
	DefaultBootstrapEmail    = store.DefaultBootstrapEmail
	DefaultBootstrapPassword = store.DefaultBootstrapPassword
	DefaultBootstrapName     = store.DefaultBootstrapName
	DefaultOrgLegalName      = store.DefaultOrgLegalName
	DefaultOrgTradeName      = store.DefaultOrgTradeName
	DefaultOrgTaxID          = store.DefaultOrgTaxID
	DefaultMetricsPath       = "/metrics"
)

// DefaultAllowedOrigins are the desktop webview origins allowed to call the
// command transport.
var DefaultAllowedOrigins = []string{"tauri://localhost", "http://tauri.localhost", "http://localhost:*"}

// Config represents the complete erpdesk configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Bootstrap BootstrapConfig `yaml:"bootstrap" toml:"bootstrap"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds the command transport listener
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	// AllowedOrigins lists the browser origins allowed by CORS. Omitted
	// means the defaults; an explicit empty list disables CORS.
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// DatabaseConfig holds store location and engine tuning
type DatabaseConfig struct {
	// Path overrides the per-installation data directory. Empty means the
	// host's application data directory plus the default file name.
	Path   string `yaml:"path" toml:"path"`
	Driver string `yaml:"driver" toml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)

	CacheSize   int           `yaml:"cache_size" toml:"cache_size"`
	BusyTimeout time.Duration `yaml:"-" toml:"-"`

	BusyTimeoutRaw string `yaml:"busy_timeout" toml:"busy_timeout"`
}

// AuthConfig holds session and password hashing settings
type AuthConfig struct {
	SessionTTL time.Duration `yaml:"-" toml:"-"`
	BcryptCost int           `yaml:"bcrypt_cost" toml:"bcrypt_cost"`

	SessionTTLRaw string `yaml:"session_ttl" toml:"session_ttl"`
}

// BootstrapConfig describes the records seeded into an empty store
type BootstrapConfig struct {
	Email        string             `yaml:"email" toml:"email"`
	Password     string             `yaml:"password" toml:"password"`
	Name         string             `yaml:"name" toml:"name"`
	Organization OrganizationConfig `yaml:"organization" toml:"organization"`
}

// OrganizationConfig is the default organization record
type OrganizationConfig struct {
	LegalName string `yaml:"legal_name" toml:"legal_name"`
	TradeName string `yaml:"trade_name" toml:"trade_name"`
	TaxID     string `yaml:"tax_id" toml:"tax_id"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

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

// LoadOrDefault behaves like Load but returns the default configuration
// when no file exists at path.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = append([]string(nil), DefaultAllowedOrigins...)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = DefaultBusyTimeout
	}
	if c.Database.CacheSize == 0 {
		c.Database.CacheSize = DefaultCacheSize
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = DefaultSessionTTL
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = DefaultBcryptCost
	}
	if c.Bootstrap.Email == "" {
		c.Bootstrap.Email = DefaultBootstrapEmail
	}
	if c.Bootstrap.Password == "" {
		c.Bootstrap.Password = DefaultBootstrapPassword
	}
	if c.Bootstrap.Name == "" {
		c.Bootstrap.Name = DefaultBootstrapName
	}
	if c.Bootstrap.Organization.LegalName == "" {
		c.Bootstrap.Organization.LegalName = DefaultOrgLegalName
		c.Bootstrap.Organization.TradeName = DefaultOrgTradeName
		c.Bootstrap.Organization.TaxID = DefaultOrgTaxID
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// Validate checks that all configuration fields are valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be sqlite or sqlite3, got %q", c.Database.Driver)
	}

	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout must not be negative")
	}

	if c.Auth.SessionTTL < time.Second {
		return fmt.Errorf("auth.session_ttl must be at least 1s, got %s", c.Auth.SessionTTL)
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	if !strings.Contains(c.Bootstrap.Email, "@") {
		return fmt.Errorf("bootstrap.email %q is not an email address", c.Bootstrap.Email)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Database.BusyTimeoutRaw != "" {
		cfg.Database.BusyTimeout, err = time.ParseDuration(cfg.Database.BusyTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing busy_timeout %q: %w", cfg.Database.BusyTimeoutRaw, err)
		}
	}

	if cfg.Auth.SessionTTLRaw != "" {
		cfg.Auth.SessionTTL, err = time.ParseDuration(cfg.Auth.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.Auth.SessionTTLRaw, err)
		}
	}

	return nil
}
