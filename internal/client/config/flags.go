package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/campusmarket/internal/flagx"
)

// parseFlags populates Config from command-line flags. os.Args is filtered to
// the flags handled here so -c/-config and unrelated flags do not trip the
// parser. Parse errors panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d", "-db", "-l", "-log-format"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend base URL")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.DurationVar(&cfg.SearchDebounce, "d", cfg.SearchDebounce, "search debounce")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "token database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
