// Package reminders sweeps the board for tasks that are overdue or about
// to be due and announces them as changes, so anything listening on the
// hub can surface them. Sweeps run on a cron schedule and repeat each
// reminder at most once per task per day.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lawrns/foco/types"
)

// Defaults for the schedule and the due-soon window.
const (
	DefaultSchedule = "@every 1h"
	DefaultWindow   = 24 * time.Hour
)

// TaskLister is the slice of the store the scanner reads.
type TaskLister interface {
	ListTasks(opts types.ListOptions) ([]types.Task, error)
}

// Publisher receives the reminder changes, typically a realtime hub.
type Publisher interface {
	Publish(change types.Change)
}

// Summary reports one sweep: how many open dated tasks fell inside the
// horizon and how many reminders were actually published after
// deduplication.
type Summary struct {
	Scanned int
	DueSoon int
	Overdue int
}

// Scanner periodically scans open tasks and publishes due_soon and
// overdue changes for them.
type Scanner struct {
	store    TaskLister
	pub      Publisher
	schedule string
	window   time.Duration
	logger   *slog.Logger
	timeFunc func() time.Time

	cron *cron.Cron

	mu   sync.Mutex
	sent map[string]string // task|op -> day it was last announced
}

// Option adjusts scanner construction.
type Option func(*Scanner)

// WithSchedule sets the cron expression driving sweeps. Standard five
// field expressions and descriptors like "@every 30m" are accepted.
func WithSchedule(expr string) Option {
	return func(s *Scanner) {
		s.schedule = expr
	}
}

// WithWindow sets how far ahead a due date counts as due soon.
func WithWindow(d time.Duration) Option {
	return func(s *Scanner) {
		s.window = d
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithTimeFunc sets a custom clock, used by tests for deterministic
// sweeps.
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *Scanner) {
		s.timeFunc = fn
	}
}

// NewScanner creates a scanner reading tasks from store and publishing
// reminders into pub. Nothing runs until Start or Scan is called.
func NewScanner(store TaskLister, pub Publisher, opts ...Option) *Scanner {
	s := &Scanner{
		store:    store,
		pub:      pub,
		schedule: DefaultSchedule,
		window:   DefaultWindow,
		logger:   slog.Default(),
		timeFunc: time.Now,
		sent:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs one sweep immediately and reports what it published. Safe
// for concurrent use with the scheduled sweeps.
func (s *Scanner) Scan() (Summary, error) {
	now := s.timeFunc()
	horizon := now.Add(s.window)

	tasks, err := s.store.ListTasks(types.ListOptions{
		Filter: types.TaskFilter{DueBefore: &horizon},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	day := now.UTC().Format("2006-01-02")
	s.prune(day)

	var sum Summary
	for _, task := range tasks {
		if task.Status.Terminal() || task.DueAt == nil {
			continue
		}
		sum.Scanned++

		op := types.OpDueSoon
		if task.DueAt.Before(now) {
			op = types.OpOverdue
		}
		if !s.mark(task.ID, op, day) {
			continue
		}

		s.pub.Publish(types.Change{
			Entity:    types.EntityTask,
			Op:        op,
			ID:        task.ID,
			ProjectID: task.ProjectID,
			At:        now,
		})
		if op == types.OpOverdue {
			sum.Overdue++
		} else {
			sum.DueSoon++
		}
	}

	s.logger.Info("reminder sweep complete",
		"scanned", sum.Scanned,
		"due_soon", sum.DueSoon,
		"overdue", sum.Overdue,
		"window", s.window)
	return sum, nil
}

// mark records the reminder and reports whether it is the first one for
// this task and kind today.
func (s *Scanner) mark(id string, op types.ChangeOp, day string) bool {
	key := id + "|" + string(op)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent[key] == day {
		return false
	}
	s.sent[key] = day
	return true
}

// prune drops dedupe entries from previous days so the map only ever
// holds today's reminders.
func (s *Scanner) prune(day string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, d := range s.sent {
		if d != day {
			delete(s.sent, key)
		}
	}
}

// Start runs one sweep right away and then sweeps on the schedule until
// Stop is called.
func (s *Scanner) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c

	// A fresh process should not wait a full period for its first sweep.
	go s.sweep()
	return nil
}

func (s *Scanner) sweep() {
	if _, err := s.Scan(); err != nil {
		s.logger.Error("reminder sweep failed", "error", err)
	}
}

// Stop halts the schedule and waits for an in-flight sweep to finish,
// giving up when the context ends. Safe to call without Start.
func (s *Scanner) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	stopped := s.cron.Stop()
	s.cron = nil
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("reminder scanner shutdown: %w", ctx.Err())
	}
}
