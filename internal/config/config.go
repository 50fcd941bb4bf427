// Package config handles loading and validating the application
// configuration from YAML files with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Ebay        EbayConfig        `yaml:"ebay"`
	Credentials CredentialsConfig `yaml:"credentials"`
	// Accounts lists the account suffixes the refresh daemon manages.
	// An empty string entry is the default (unsuffixed) account.
	Accounts []string       `yaml:"accounts"`
	Server   ServerConfig   `yaml:"server"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EbayConfig defines eBay API settings.
type EbayConfig struct {
	TokenURL    string          `yaml:"token_url"`
	BrowseURL   string          `yaml:"browse_url"`
	AuthURL     string          `yaml:"auth_url"`
	Marketplace string          `yaml:"marketplace"`
	// RedirectURI is the RuName configured in the eBay developer account,
	// used only by the one-time authorization bootstrap.
	RedirectURI string          `yaml:"redirect_uri"`
	MaxRetries  int             `yaml:"max_retries"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines local API rate limiting settings.
type RateLimitConfig struct {
	Enabled    bool    `yaml:"enabled"`
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// CredentialsConfig selects the credential store backend.
type CredentialsConfig struct {
	Backend string `yaml:"backend"` // env, sqlite
	Path    string `yaml:"path"`
}

// ServerConfig defines the refresh daemon's HTTP listener.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ScheduleConfig defines the refresh daemon cadence.
type ScheduleConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment
// variable substitution and validation. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	e := &cfg.Ebay
	if e.TokenURL == "" {
		e.TokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	}
	if e.BrowseURL == "" {
		e.BrowseURL = "https://api.ebay.com/buy/browse/v1"
	}
	if e.AuthURL == "" {
		e.AuthURL = "https://auth.ebay.com/oauth2/authorize"
	}
	if e.Marketplace == "" {
		e.Marketplace = "EBAY_US"
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = 3
	}
	if e.RateLimit.PerSecond == 0 {
		e.RateLimit.PerSecond = 5.0
	}
	if e.RateLimit.Burst == 0 {
		e.RateLimit.Burst = 10
	}
	if e.RateLimit.DailyLimit == 0 {
		e.RateLimit.DailyLimit = 5000
	}

	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = "env"
	}
	if cfg.Credentials.Path == "" {
		if cfg.Credentials.Backend == "sqlite" {
			cfg.Credentials.Path = "credentials.db"
		} else {
			cfg.Credentials.Path = ".env"
		}
	}

	if len(cfg.Accounts) == 0 {
		cfg.Accounts = []string{""}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Schedule.RefreshInterval == 0 {
		cfg.Schedule.RefreshInterval = 30 * time.Minute
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func validate(cfg *Config) error {
	switch cfg.Credentials.Backend {
	case "env", "sqlite":
	default:
		return fmt.Errorf("credentials.backend must be env or sqlite, got %q", cfg.Credentials.Backend)
	}
	if cfg.Ebay.MaxRetries < 1 {
		return fmt.Errorf("ebay.max_retries must be >= 1, got %d", cfg.Ebay.MaxRetries)
	}
	if cfg.Schedule.RefreshInterval < time.Minute {
		return fmt.Errorf("schedule.refresh_interval must be >= 1m, got %s", cfg.Schedule.RefreshInterval)
	}
	return nil
}
