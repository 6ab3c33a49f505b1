package httpapi

import (
	"log/slog"
	"time"

	"github.com/lawrns/foco/types"
)

const (
	// DefaultServerName is the source attribute stamped on event stream
	// envelopes.
	DefaultServerName = "foco"

	// DefaultShutdownTimeout bounds how long Serve waits for in-flight
	// requests after its context is cancelled.
	DefaultShutdownTimeout = 10 * time.Second
)

type config struct {
	logger          *slog.Logger
	name            string
	board           types.BoardConfig
	timeFunc        func() time.Time
	shutdownTimeout time.Duration
}

func defaultConfig() config {
	return config{
		logger:          slog.Default(),
		name:            DefaultServerName,
		board:           types.DefaultBoardConfig(),
		timeFunc:        time.Now,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// Option configures a Server.
type Option func(*config)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithServerName sets the source attribute on event stream envelopes.
func WithServerName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithBoardConfig sets the column layout. Only the kanban view consults
// it.
func WithBoardConfig(cfg types.BoardConfig) Option {
	return func(c *config) {
		c.board = cfg
	}
}

// WithTimeFunc sets a custom clock, used by tests for deterministic
// summaries and export timestamps.
func WithTimeFunc(fn func() time.Time) Option {
	return func(c *config) {
		if fn != nil {
			c.timeFunc = fn
		}
	}
}

// WithShutdownTimeout bounds the graceful-shutdown drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}
