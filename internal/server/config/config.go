// Package config handles configuration for the development API server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/flagx"
)

// Config holds runtime settings for the planadmin development API server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - SeedPassword: password given to every seeded staff account.
//   - UploadDir: where accepted uploads are written. Empty keeps them in memory.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddr                 string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	SeedPassword                 string
	UploadDir                    string
	LogLevel                     string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8000"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 5 * time.Minute
	c.RefreshTokenValidityDuration = 24 * time.Hour
	c.SeedPassword = "planadmin"
	c.UploadDir = ""
	c.LogLevel = "info"
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is empty")
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, flagx.ConfigFileFlag(args)); err != nil {
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
