package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/logging"
)

// Config holds runtime settings for the hbd CLI.
//
// Units: intervals and timeouts are time.Duration; RateLimit is requests
// per second, RateBurst the bucket size.
type Config struct {
	ServerURL           string        `env:"SERVER_URL"`
	AuthScheme          string        `env:"AUTH_SCHEME"`
	DatabasePath        string        `env:"DB_PATH"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT"`
	RateLimit           float64       `env:"RATE_LIMIT"`
	RateBurst           int           `env:"RATE_BURST"`
	DefaultBotAPIKey    string        `env:"DEFAULT_BOT_API_KEY"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8417"
	c.AuthScheme = string(models.SchemeKey)
	c.DatabasePath = "hbd.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.RateLimit = 1
	c.RateBurst = 5
	c.LogLevel = "info"
}

// Scheme returns the configured auth scheme. Call after Validate.
func (c *Config) Scheme() models.Scheme {
	return models.Scheme(c.AuthScheme)
}

// Validate normalizes the scheme and rejects values the client cannot run
// with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", c.ServerURL)
	}

	scheme, err := models.ParseScheme(c.AuthScheme)
	if err != nil {
		return err
	}
	c.AuthScheme = string(scheme)

	if c.DatabasePath == "" {
		return errors.New("empty database path")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	if c.RequestTimeout < 0 || c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("timeout and rate limits must not be negative")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadConfig constructs a Config from defaults, then overlays the
// environment (including a .env file in the working directory), a JSON
// file (if given with -c) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
