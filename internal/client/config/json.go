package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/planadmin/internal/flagx"
	"github.com/dmitrijs2005/planadmin/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "15s" or as integer nanoseconds. Absent keys leave the
// current value untouched.
type JsonConfig struct {
	APIBaseURL       string          `json:"api_base_url"`
	StorePath        string          `json:"store_path"`
	StorageSecret    string          `json:"storage_secret"`
	RequestTimeout   *timex.Duration `json:"request_timeout"`
	RefreshTimeout   *timex.Duration `json:"refresh_timeout"`
	ExpirySkew       *timex.Duration `json:"expiry_skew"`
	ProactiveRefresh *bool           `json:"proactive_refresh"`
	LogLevel         string          `json:"log_level"`
}

// parseJson overlays cfg with values from the file named by -c/-config in
// args. Without that flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.StorePath != "" {
		cfg.StorePath = jc.StorePath
	}
	if jc.StorageSecret != "" {
		cfg.StorageSecret = jc.StorageSecret
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RefreshTimeout != nil {
		cfg.RefreshTimeout = jc.RefreshTimeout.Duration
	}
	if jc.ExpirySkew != nil {
		cfg.ExpirySkew = jc.ExpirySkew.Duration
	}
	if jc.ProactiveRefresh != nil {
		cfg.ProactiveRefresh = *jc.ProactiveRefresh
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
