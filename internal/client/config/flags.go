package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/hbd/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   backend base URL
//	-s string   auth scheme: key or token
//	-d string   path of the local SQLite database
//	-i int      online check interval in seconds
//	-l string   log level: debug, info, warn or error
//
// args are filtered with flagx.FilterArgs first so the -c flag handled by
// parseJSON does not get in the way.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, "a", "s", "d", "i", "l")

	fs := flag.NewFlagSet("hbd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend base URL")
	fs.StringVar(&cfg.AuthScheme, "s", cfg.AuthScheme, "auth scheme (key|token)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only an explicit -i replaces the interval, so sub-second values from
	// other sources survive.
	if flagx.Visited(fs)["i"] {
		cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	}
	return nil
}
