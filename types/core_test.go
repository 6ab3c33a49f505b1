package types

import (
	"testing"
	"time"
)

func TestTaskDueHelpers(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)
	nextMonth := now.Add(30 * 24 * time.Hour)

	t.Run("overdue", func(t *testing.T) {
		task := Task{Status: StatusInProgress, DueAt: &yesterday}
		if !task.IsOverdue(now) {
			t.Error("open task past its due date should be overdue")
		}
		done := Task{Status: StatusDone, DueAt: &yesterday}
		if done.IsOverdue(now) {
			t.Error("done task should never be overdue")
		}
		undated := Task{Status: StatusTodo}
		if undated.IsOverdue(now) {
			t.Error("task without a due date should never be overdue")
		}
	})

	t.Run("due within window", func(t *testing.T) {
		task := Task{Status: StatusTodo, DueAt: &tomorrow}
		if !task.DueWithin(now, 48*time.Hour) {
			t.Error("task due tomorrow should fall inside a 48h window")
		}
		far := Task{Status: StatusTodo, DueAt: &nextMonth}
		if far.DueWithin(now, 48*time.Hour) {
			t.Error("task due next month should not fall inside a 48h window")
		}
		past := Task{Status: StatusTodo, DueAt: &yesterday}
		if past.DueWithin(now, 48*time.Hour) {
			t.Error("overdue task is not 'due soon'")
		}
	})
}

func TestTaskHasLabel(t *testing.T) {
	task := Task{Labels: []string{"bug", "frontend"}}
	if !task.HasLabel("bug") {
		t.Error("expected label match")
	}
	if task.HasLabel("backend") {
		t.Error("unexpected label match")
	}
}
