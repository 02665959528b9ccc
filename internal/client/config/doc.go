// Package config loads runtime configuration for the planadmin console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. PLANADMIN_* environment variables.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     API base URL
//	-s string     session store path
//	-t duration   request timeout
//	-r duration   token refresh timeout
//	-p            proactive refresh
//	-l string     log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "15s"
// or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.example.com",
//	  "store_path": "/var/lib/planadmin/session.db",
//	  "storage_secret": "change-me",
//	  "request_timeout": "30s",
//	  "refresh_timeout": "15s",
//	  "expiry_skew": "30s",
//	  "proactive_refresh": true,
//	  "log_level": "info"
//	}
package config
