// Package config provides configuration loading for the backlog client.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the complete client configuration.
type Config struct {
	API   APIConfig   `koanf:"api"`
	Store StoreConfig `koanf:"store"`
	Log   LogConfig   `koanf:"log"`
	UI    UIConfig    `koanf:"ui"`
}

// APIConfig configures the backend HTTP client.
type APIConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxAttempts int           `koanf:"max_attempts"`
	Backoff     time.Duration `koanf:"backoff"`
	RateLimit   float64       `koanf:"rate_limit"` // requests per second, 0 disables pacing
}

// StoreConfig locates the local key/value store.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// LogConfig controls the log file. The terminal belongs to the UI, so logs never go to stdout.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

type UIConfig struct {
	Theme string `koanf:"theme"`
}

// DataDir is ~/.backlog.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".backlog"), nil
}

// Default returns the configuration used when neither file nor env set a value.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:5298"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.API.MaxAttempts == 0 {
		cfg.API.MaxAttempts = 3
	}
	if cfg.API.Backoff == 0 {
		cfg.API.Backoff = 200 * time.Millisecond
	}
	if cfg.API.RateLimit == 0 {
		cfg.API.RateLimit = 10
	}

	dir, err := DataDir()
	if err != nil {
		dir = ".backlog"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(dir, "store.json")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(dir, "backlog.log")
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "classic"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must be http or https, got %q", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url has no host: %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be >= 0, got %s", c.API.Timeout)
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be >= 1, got %d", c.API.MaxAttempts)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must be >= 0, got %v", c.API.RateLimit)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be 'json' or 'console', got %q", c.Log.Format)
	}
	switch strings.ToLower(c.UI.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("ui.theme must be classic, neon or mono, got %q", c.UI.Theme)
	}
	return nil
}
