package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/planadmin/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     API base URL
//	-s string     session store path
//	-t duration   request timeout
//	-r duration   refresh timeout
//	-p            refresh proactively before a known expiry
//	-l string     log level
//
// args is filtered with flagx.FilterArgs so flags owned by other components
// do not make parsing fail. The storage secret has no flag.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-r", "-p", "-l"})

	fs := flag.NewFlagSet("planadmin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.StorePath, "s", cfg.StorePath, "session store path")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.DurationVar(&cfg.RefreshTimeout, "r", cfg.RefreshTimeout, "token refresh timeout")
	fs.BoolVar(&cfg.ProactiveRefresh, "p", cfg.ProactiveRefresh, "refresh before a known token expiry")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
