package testutil

import (
	"testing"
	"time"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/types"
)

func TestNewUniverse(t *testing.T) {
	u := NewUniverse(t)

	if len(u.ByID) != 9 {
		t.Errorf("expected 9 tasks in the universe, got %d", len(u.ByID))
	}
	AssertTaskCount(t, u.Store, types.TaskFilter{ProjectID: u.Website.ID}, 7)
	AssertTaskCount(t, u.Store, types.TaskFilter{ProjectID: u.Mobile.ID}, 2)
	AssertMilestoneCount(t, u.Store, u.Website.ID, 2)
	AssertSubtaskCount(t, u.Store, u.DesignHome.ID, 1)

	t.Run("edge states are present", func(t *testing.T) {
		if !u.FixLogin.IsOverdue(Clock) {
			t.Error("expected FixLogin to be overdue at the fixture clock")
		}
		if !u.WriteCopy.DueWithin(Clock, 24*time.Hour) {
			t.Error("expected WriteCopy to be due within a day")
		}
		if u.ShipBlog.DoneAt == nil {
			t.Error("expected ShipBlog to carry a completion time")
		} else if !u.ShipBlog.DoneAt.Equal(Clock) {
			t.Errorf("expected ShipBlog done at the fixture clock, got %v", u.ShipBlog.DoneAt)
		}
		if !u.DropLegacy.IsDone() {
			t.Error("expected DropLegacy to be terminal")
		}
		if u.ReviewSeo.AssigneeID != "" {
			t.Error("expected ReviewSeo to be unassigned")
		}
		if !u.OldWiki.Archived {
			t.Error("expected OldWiki to be archived")
		}
	})

	t.Run("wip limit is breached in progress", func(t *testing.T) {
		col, ok := u.Config.Column(types.StatusInProgress)
		if !ok {
			t.Fatal("config has no in_progress column")
		}
		AssertTaskCount(t, u.Store, types.TaskFilter{
			Statuses: []types.Status{types.StatusInProgress},
		}, col.WIPLimit+1)
	})

	t.Run("records carry store-assigned fields", func(t *testing.T) {
		for id, task := range u.ByID {
			if task.OrderKey == "" {
				t.Errorf("task %s (%s) has no order key", id, task.Title)
			}
			if !task.CreatedAt.Equal(Clock) {
				t.Errorf("task %s created at %v, want the fixture clock", id, task.CreatedAt)
			}
		}
		if u.Beta.OrderKey == "" || u.GA.OrderKey == "" {
			t.Error("milestones have no order keys")
		}
	})

	t.Run("fixture clock drives the store", func(t *testing.T) {
		id, err := u.Store.AddTask(types.TaskDraft{ProjectID: u.Mobile.ID, Title: "Late addition"})
		if err != nil {
			t.Fatalf("failed to add task: %v", err)
		}
		task, err := u.Store.GetTask(id)
		if err != nil {
			t.Fatalf("failed to get task: %v", err)
		}
		if !task.CreatedAt.Equal(Clock) {
			t.Errorf("new task created at %v, want the fixture clock", task.CreatedAt)
		}
	})
}

func TestUniverseOnSQLite(t *testing.T) {
	u := NewUniverseAt(t, t.TempDir()+"/board.db")
	AssertTaskCount(t, u.Store, types.TaskFilter{}, 9)
	AssertColumnOrder(t, u.Store, u.Website.ID, types.StatusInProgress,
		u.WriteCopy.Title, u.FixLogin.Title)
}

func TestChangeRecorder(t *testing.T) {
	rec := &ChangeRecorder{}
	u := NewUniverse(t, board.WithNotifier(rec))

	if !rec.WaitFor(len(u.ByID), time.Second) {
		t.Fatalf("expected at least %d changes, got %d", len(u.ByID), len(rec.Changes()))
	}

	rec.Reset()
	if _, err := u.Store.AddTask(types.TaskDraft{ProjectID: u.Mobile.ID, Title: "One more"}); err != nil {
		t.Fatalf("failed to add task: %v", err)
	}
	changes := rec.Changes()
	if len(changes) != 1 {
		t.Fatalf("expected 1 change after reset, got %d", len(changes))
	}
	if changes[0].Entity != types.EntityTask || changes[0].Op != types.OpCreated {
		t.Errorf("unexpected change %+v", changes[0])
	}
}
