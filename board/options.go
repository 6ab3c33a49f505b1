package board

import (
	"log/slog"
	"time"
)

// config collects the injectable pieces both backends share.
type config struct {
	fs          FileSystem
	lockFactory FileLockFactory
	timeFunc    func() time.Time
	notifier    Notifier
	logger      *slog.Logger
}

func defaultConfig() config {
	return config{
		fs:          OSFileSystem{},
		lockFactory: &FlockFactory{},
		timeFunc:    time.Now,
		logger:      slog.Default(),
	}
}

// Option adjusts store construction.
type Option func(*config)

// WithFileSystem sets a custom FileSystem implementation. Only the JSON
// backend consults it.
func WithFileSystem(fs FileSystem) Option {
	return func(c *config) {
		c.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation. Only
// the JSON backend consults it.
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(c *config) {
		c.lockFactory = factory
	}
}

// WithTimeFunc sets a custom clock, used by tests for deterministic
// timestamps.
func WithTimeFunc(fn func() time.Time) Option {
	return func(c *config) {
		c.timeFunc = fn
	}
}

// WithNotifier routes change notifications from successful mutations,
// typically into a realtime.Hub.
func WithNotifier(n Notifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
