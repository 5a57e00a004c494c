// Package config parses the process-level settings the schedcore server
// needs before it can serve a request: where to listen, a default solve
// time limit (parsed and validated, but not applied to requests), and how
// verbosely to log.
package config

import (
	"flag"
	"fmt"
	"time"
)

// Options holds the schedcore process's flag-parsed settings, in the style
// of karpenter/main.go's Options struct: one flat struct, one FlagSet, no
// separate config-file format.
type Options struct {
	ListenAddr         string
	DefaultTimeLimit   time.Duration
	LogLevel           string
	ParallelSearchPool int
}

// AddFlags registers Options' fields on fs so callers can parse os.Args
// themselves (and so tests can parse a fresh FlagSet instead of the global
// one).
func (o *Options) AddFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.ListenAddr, "listen-addr", ":8080", "address the schedule HTTP server listens on")
	fs.DurationVar(&o.DefaultTimeLimit, "default-time-limit", 10*time.Second, "default solve time budget; parsed and validated only, not applied to requests (a request that omits settings.time_limit_seconds is solved with a zero time limit)")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level: debug, info, warn, or error")
	fs.IntVar(&o.ParallelSearchPool, "solve-pool-size", 0, "max concurrent Solve calls the service will run at once (0 = number of CPUs)")
}

// Validate reports the first invalid field, or nil if Options is usable.
func (o *Options) Validate() error {
	if o.ListenAddr == "" {
		return fmt.Errorf("listen-addr must not be empty")
	}
	if o.DefaultTimeLimit < 0 {
		return fmt.Errorf("default-time-limit must be non-negative")
	}
	switch o.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log-level must be one of debug, info, warn, error, got %q", o.LogLevel)
	}
	if o.ParallelSearchPool < 0 {
		return fmt.Errorf("solve-pool-size must be non-negative")
	}
	return nil
}
