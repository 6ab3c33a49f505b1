package realtime

import (
	"log/slog"
	"time"
)

// Defaults for the tunable knobs below.
const (
	DefaultDebounce     = 250 * time.Millisecond
	DefaultMaxWait      = time.Second
	DefaultPollInterval = 5 * time.Second
)

// config collects the injectable pieces the realtime types share.
type config struct {
	logger       *slog.Logger
	debounce     time.Duration
	maxWait      time.Duration
	pollInterval time.Duration
	pollOnly     bool
}

func defaultConfig() config {
	return config{
		logger:       slog.Default(),
		debounce:     DefaultDebounce,
		maxWait:      DefaultMaxWait,
		pollInterval: DefaultPollInterval,
	}
}

// Option adjusts hub, coalescer, and watcher construction.
type Option func(*config)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDebounce sets how long a burst must stay quiet before the
// coalescer flushes. Only the coalescer consults it.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithMaxWait caps how long a continuous burst may delay a flush. Only
// the coalescer consults it.
func WithMaxWait(d time.Duration) Option {
	return func(c *config) {
		c.maxWait = d
	}
}

// WithPollInterval sets the stat interval used when changes are detected
// by polling. Only the watcher consults it.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithPolling forces mtime polling even where a filesystem watch could
// be established. Network mounts often swallow change events, polling is
// the reliable strategy there. Only the watcher consults it.
func WithPolling() Option {
	return func(c *config) {
		c.pollOnly = true
	}
}
