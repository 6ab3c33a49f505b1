package realtime

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lawrns/foco/types"
)

// Watcher publishes a board-level external change whenever the store
// file is rewritten. It watches the file's directory, not the file:
// saves land by rename, which would silently detach a watch on the file
// itself. When the watch cannot be established, or WithPolling is set,
// it compares stat results on an interval instead.
type Watcher struct {
	path         string
	pub          Publisher
	logger       *slog.Logger
	pollInterval time.Duration
	pollOnly     bool
}

// NewWatcher creates a watcher for the store file at path, publishing
// into pub. Nothing runs until Run is called.
func NewWatcher(path string, pub Publisher, opts ...Option) *Watcher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Watcher{
		path:         path,
		pub:          pub,
		logger:       cfg.logger,
		pollInterval: cfg.pollInterval,
		pollOnly:     cfg.pollOnly,
	}
}

// Run watches until the context is canceled. Writes from the watcher's
// own process trigger publishes too; run a watcher when cross-process
// visibility is wanted.
func (w *Watcher) Run(ctx context.Context) error {
	if w.pollOnly {
		w.logger.Debug("polling store file", "path", w.path, "interval", w.pollInterval)
		return w.poll(ctx)
	}

	fw, err := fsnotify.NewWatcher()
	if err == nil {
		err = fw.Add(filepath.Dir(w.path))
	}
	if err != nil {
		if fw != nil {
			_ = fw.Close()
		}
		w.logger.Warn("file watch unavailable, polling instead",
			"path", w.path, "interval", w.pollInterval, "error", err)
		return w.poll(ctx)
	}
	defer func() { _ = fw.Close() }()
	w.logger.Debug("watching store file", "path", w.path)

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return w.poll(ctx)
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			w.publish()
		case err, ok := <-fw.Errors:
			if !ok {
				return w.poll(ctx)
			}
			w.logger.Warn("file watch error", "path", w.path, "error", err)
		}
	}
}

// poll detects rewrites by comparing mtime and size on an interval.
func (w *Watcher) poll(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var lastMod time.Time
	var lastSize int64
	if info, err := os.Stat(w.path); err == nil {
		lastMod, lastSize = info.ModTime(), info.Size()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				// The file may be mid-rename, check again next tick.
				continue
			}
			if info.ModTime().Equal(lastMod) && info.Size() == lastSize {
				continue
			}
			lastMod, lastSize = info.ModTime(), info.Size()
			w.publish()
		}
	}
}

func (w *Watcher) publish() {
	w.pub.Publish(types.Change{
		Entity: types.EntityBoard,
		Op:     types.OpExternal,
		At:     time.Now().UTC(),
	})
}
