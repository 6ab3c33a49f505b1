package reminders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lawrns/foco/testutil"
	"github.com/lawrns/foco/types"
)

type changeRecorder struct {
	mu      sync.Mutex
	changes []types.Change
}

func (r *changeRecorder) Publish(change types.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func (r *changeRecorder) all() []types.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Change(nil), r.changes...)
}

func (r *changeRecorder) find(op types.ChangeOp, id string) bool {
	for _, c := range r.all() {
		if c.Op == op && c.ID == id {
			return true
		}
	}
	return false
}

type failingLister struct{}

func (failingLister) ListTasks(types.ListOptions) ([]types.Task, error) {
	return nil, errors.New("disk gone")
}

func TestScannerScan(t *testing.T) {
	u := testutil.NewUniverse(t)
	rec := &changeRecorder{}
	s := NewScanner(u.Store, rec, WithTimeFunc(func() time.Time { return testutil.Clock }))

	sum, err := s.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if sum != (Summary{Scanned: 2, DueSoon: 1, Overdue: 1}) {
		t.Errorf("summary = %+v, want 2 scanned, 1 due soon, 1 overdue", sum)
	}

	if !rec.find(types.OpDueSoon, u.WriteCopy.ID) {
		t.Errorf("no due_soon change for the task due in 12h")
	}
	if !rec.find(types.OpOverdue, u.FixLogin.ID) {
		t.Errorf("no overdue change for the task 48h past due")
	}
	for _, c := range rec.all() {
		if c.Entity != types.EntityTask || c.ProjectID != u.Website.ID || !c.At.Equal(testutil.Clock) {
			t.Errorf("change %+v: want a task change for the website project at the scan time", c)
		}
	}
}

func TestScannerDedupesWithinDay(t *testing.T) {
	u := testutil.NewUniverse(t)
	rec := &changeRecorder{}
	s := NewScanner(u.Store, rec, WithTimeFunc(func() time.Time { return testutil.Clock }))

	if _, err := s.Scan(); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	sum, err := s.Scan()
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}

	if sum != (Summary{Scanned: 2}) {
		t.Errorf("second scan published again: %+v", sum)
	}
	if got := len(rec.all()); got != 2 {
		t.Errorf("recorded %d changes, want the first scan's 2 only", got)
	}
}

func TestScannerRepeatsNextDay(t *testing.T) {
	u := testutil.NewUniverse(t)
	rec := &changeRecorder{}
	current := testutil.Clock
	s := NewScanner(u.Store, rec, WithTimeFunc(func() time.Time { return current }))

	if _, err := s.Scan(); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}

	current = testutil.Clock.Add(24 * time.Hour)
	sum, err := s.Scan()
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}

	// A day later the 12h task has passed its due date too, so both
	// reminders fire again, now as overdue.
	if sum != (Summary{Scanned: 2, Overdue: 2}) {
		t.Errorf("next-day summary = %+v, want 2 overdue", sum)
	}
	if !rec.find(types.OpOverdue, u.WriteCopy.ID) {
		t.Errorf("no overdue change for the task that crossed its due date")
	}
}

func TestScannerEscalatesSameDay(t *testing.T) {
	u := testutil.NewUniverse(t)
	due := testutil.Clock.Add(time.Hour)
	id, err := u.Store.AddTask(types.TaskDraft{ProjectID: u.Website.ID, Title: "Send launch email", DueAt: &due})
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}

	rec := &changeRecorder{}
	current := testutil.Clock
	s := NewScanner(u.Store, rec, WithTimeFunc(func() time.Time { return current }))

	sum, err := s.Scan()
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if sum != (Summary{Scanned: 3, DueSoon: 2, Overdue: 1}) {
		t.Errorf("first summary = %+v, want the new task counted as due soon", sum)
	}

	// Two hours later, same day: the task is now overdue. That is a new
	// reminder kind, not a repeat, so the dedupe must let it through.
	current = testutil.Clock.Add(2 * time.Hour)
	sum, err = s.Scan()
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if sum != (Summary{Scanned: 3, Overdue: 1}) {
		t.Errorf("second summary = %+v, want only the escalation", sum)
	}
	if !rec.find(types.OpOverdue, id) {
		t.Errorf("no overdue change for the escalated task")
	}
}

func TestScannerSkipsClosedTasks(t *testing.T) {
	u := testutil.NewUniverse(t)
	past := testutil.Clock.Add(-2 * time.Hour)
	id, err := u.Store.AddTask(types.TaskDraft{
		ProjectID: u.Website.ID,
		Title:     "Archive old banners",
		Status:    types.StatusDone,
		DueAt:     &past,
	})
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}

	rec := &changeRecorder{}
	s := NewScanner(u.Store, rec, WithTimeFunc(func() time.Time { return testutil.Clock }))
	if _, err := s.Scan(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	for _, c := range rec.all() {
		if c.ID == id {
			t.Fatalf("published %s for a done task", c.Op)
		}
	}
}

func TestScannerScanError(t *testing.T) {
	s := NewScanner(failingLister{}, &changeRecorder{})
	if _, err := s.Scan(); err == nil || !strings.Contains(err.Error(), "failed to list tasks") {
		t.Errorf("error = %v, want a wrapped list failure", err)
	}
}

func TestScannerStartRunsImmediately(t *testing.T) {
	u := testutil.NewUniverse(t)
	rec := &changeRecorder{}
	s := NewScanner(u.Store, rec, WithTimeFunc(func() time.Time { return testutil.Clock }))

	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.all()) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("initial sweep published nothing")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("stop failed: %v", err)
	}
}

func TestScannerInvalidSchedule(t *testing.T) {
	s := NewScanner(failingLister{}, &changeRecorder{}, WithSchedule("definitely not cron"))
	if err := s.Start(); err == nil || !strings.Contains(err.Error(), "invalid reminder schedule") {
		t.Errorf("error = %v, want an invalid schedule error", err)
	}

	// Stop without a running schedule is a no-op.
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("stop without start failed: %v", err)
	}
}
