package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Pool policies for the database gateway.
const (
	PoolPerRequest = "per-request"
	PoolShared     = "shared"
)

// Config holds all application configuration.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	Database DatabaseConfig

	RabbitMQURL    string // empty disables order events
	TemplatesDir   string
	StaticDir      string
	LoginRateLimit int // login attempts per minute per client IP
}

// DatabaseConfig contains store connection settings.
type DatabaseConfig struct {
	URL          string
	PoolPolicy   string
	MaxOpenConns int
	QueryTimeout time.Duration
}

// Load reads configuration from an optional .env file and the environment.
// DATABASE_URL has no default: credentials never live in the source tree.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_POOL_POLICY", PoolPerRequest)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_QUERY_TIMEOUT", "5s")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("TEMPLATES_DIR", "templates")
	v.SetDefault("STATIC_DIR", "static")
	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.AutomaticEnv()

	cfg := &Config{
		AppEnv:   v.GetString("APP_ENV"),
		Port:     v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			URL:          strings.TrimSpace(v.GetString("DATABASE_URL")),
			PoolPolicy:   strings.ToLower(v.GetString("DB_POOL_POLICY")),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			QueryTimeout: v.GetDuration("DB_QUERY_TIMEOUT"),
		},
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		TemplatesDir:   v.GetString("TEMPLATES_DIR"),
		StaticDir:      v.GetString("STATIC_DIR"),
		LoginRateLimit: v.GetInt("LOGIN_RATE_LIMIT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	switch c.Database.PoolPolicy {
	case PoolPerRequest, PoolShared:
	default:
		return fmt.Errorf("invalid DB_POOL_POLICY %q (supported: %s, %s)", c.Database.PoolPolicy, PoolPerRequest, PoolShared)
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", c.Database.MaxOpenConns)
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive, got %s", c.Database.QueryTimeout)
	}
	if !strings.HasPrefix(c.Port, ":") && !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	if c.LoginRateLimit < 1 {
		c.LoginRateLimit = 10
	}
	return nil
}

// IsProduction reports whether the app runs with production defaults.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "production", "prod":
		return true
	}
	return false
}

// String returns a representation of the config with credentials masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{env: %s, port: %s, db: %s, pool: %s/%d, timeout: %s, rabbitmq: %s}",
		c.AppEnv, c.Port, MaskDSN(c.Database.URL), c.Database.PoolPolicy, c.Database.MaxOpenConns,
		c.Database.QueryTimeout, MaskDSN(c.RabbitMQURL))
}

var keywordPassword = regexp.MustCompile(`(?i)(password=)\S+`)

// MaskDSN hides the password of a URL style or keyword/value connection string.
func MaskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
			return strings.Replace(u.String(), "%2A%2A%2A", "***", 1)
		}
		return u.String()
	}
	return keywordPassword.ReplaceAllString(dsn, "${1}***")
}
