package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime settings for the planadmin console.
//
// Fields:
//   - APIBaseURL: scheme://host[:port] of the admin REST API.
//   - StorePath: SQLite file holding the persisted session.
//   - StorageSecret: when set, the persisted session is encrypted with a key
//     derived from it.
//   - RequestTimeout / RefreshTimeout: bounds for API calls and token refresh.
//   - ExpirySkew / ProactiveRefresh: refresh ahead of a known token expiry.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL       string
	StorePath        string
	StorageSecret    string
	RequestTimeout   time.Duration
	RefreshTimeout   time.Duration
	ExpirySkew       time.Duration
	ProactiveRefresh bool
	LogLevel         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000"
	c.StorePath = "planadmin/session.db"
	c.StorageSecret = ""
	c.RequestTimeout = 30 * time.Second
	c.RefreshTimeout = 15 * time.Second
	c.ExpirySkew = 30 * time.Second
	c.ProactiveRefresh = false
	c.LogLevel = "warn"
}

// Validate checks values that would only fail later at first use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.APIBaseURL)
	}
	if c.StorePath == "" {
		return fmt.Errorf("store path is empty")
	}
	if c.RequestTimeout <= 0 || c.RefreshTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.ExpirySkew < 0 {
		return fmt.Errorf("expiry skew must not be negative")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
