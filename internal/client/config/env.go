package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envPrefix = "PLANADMIN_"

// parseEnv overlays cfg with PLANADMIN_* variables. Unset or empty
// variables keep the current value.
func parseEnv(cfg *Config) error {
	cfg.APIBaseURL = getEnv("API_BASE_URL", cfg.APIBaseURL)
	cfg.StorePath = getEnv("STORE_PATH", cfg.StorePath)
	cfg.StorageSecret = getEnv("STORAGE_SECRET", cfg.StorageSecret)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.RefreshTimeout, err = getEnvDuration("REFRESH_TIMEOUT", cfg.RefreshTimeout); err != nil {
		return err
	}
	if cfg.ExpirySkew, err = getEnvDuration("EXPIRY_SKEW", cfg.ExpirySkew); err != nil {
		return err
	}

	if v := getEnv("PROACTIVE_REFRESH", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPROACTIVE_REFRESH: %w", envPrefix, err)
		}
		cfg.ProactiveRefresh = b
	}
	return nil
}

func getEnv(name, defaultValue string) string {
	value := os.Getenv(envPrefix + name)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(name string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(name, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	return d, nil
}
