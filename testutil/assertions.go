package testutil

import (
	"errors"
	"testing"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/types"
)

// AssertTaskCount verifies how many tasks match the filter.
func AssertTaskCount(t *testing.T, s types.Store, filter types.TaskFilter, want int) {
	t.Helper()
	tasks, err := s.ListTasks(types.ListOptions{Filter: filter})
	if err != nil {
		t.Fatalf("failed to list tasks: %v", err)
	}
	if len(tasks) != want {
		t.Errorf("expected %d tasks, got %d", want, len(tasks))
	}
}

// AssertTaskStatus verifies a task sits in the given column.
func AssertTaskStatus(t *testing.T, s types.Store, id string, want types.Status) {
	t.Helper()
	task, err := s.GetTask(id)
	if err != nil {
		t.Fatalf("failed to get task %s: %v", id, err)
	}
	if task.Status != want {
		t.Errorf("task %s: expected status %s, got %s", id, want, task.Status)
	}
}

// AssertTaskGone verifies the task no longer exists.
func AssertTaskGone(t *testing.T, s types.Store, id string) {
	t.Helper()
	_, err := s.GetTask(id)
	if !errors.Is(err, board.ErrNotFound) {
		t.Errorf("task %s: expected not found, got %v", id, err)
	}
}

// AssertColumnOrder verifies the titles of a column's tasks in board order.
func AssertColumnOrder(t *testing.T, s types.Store, projectID string, status types.Status, wantTitles ...string) {
	t.Helper()
	tasks, err := s.ListTasks(types.ListOptions{Filter: types.TaskFilter{
		ProjectID: projectID,
		Statuses:  []types.Status{status},
	}})
	if err != nil {
		t.Fatalf("failed to list %s tasks: %v", status, err)
	}
	got := make([]string, 0, len(tasks))
	for _, task := range tasks {
		got = append(got, task.Title)
	}
	if len(got) != len(wantTitles) {
		t.Fatalf("column %s: expected %d tasks %v, got %d %v", status, len(wantTitles), wantTitles, len(got), got)
	}
	for i := range wantTitles {
		if got[i] != wantTitles[i] {
			t.Errorf("column %s position %d: expected %q, got %q", status, i, wantTitles[i], got[i])
		}
	}
}

// AssertSubtaskCount verifies how many direct subtasks a task has.
func AssertSubtaskCount(t *testing.T, s types.Store, parentID string, want int) {
	t.Helper()
	tasks, err := s.ListTasks(types.ListOptions{Filter: types.TaskFilter{ParentID: parentID}})
	if err != nil {
		t.Fatalf("failed to list subtasks of %s: %v", parentID, err)
	}
	if len(tasks) != want {
		t.Errorf("task %s: expected %d subtasks, got %d", parentID, want, len(tasks))
	}
}

// AssertMilestoneCount verifies how many milestones a project has.
func AssertMilestoneCount(t *testing.T, s types.Store, projectID string, want int) {
	t.Helper()
	milestones, err := s.ListMilestones(projectID)
	if err != nil {
		t.Fatalf("failed to list milestones: %v", err)
	}
	if len(milestones) != want {
		t.Errorf("project %s: expected %d milestones, got %d", projectID, want, len(milestones))
	}
}
