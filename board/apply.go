package board

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lawrns/foco/types"
)

// boardRefs answers the referential questions task validation asks, so
// both backends share one update path: the JSON store looks records up in
// memory, the SQLite store in its transaction.
type boardRefs interface {
	projectExists(id string) (bool, error)
	memberExists(id string) (bool, error)

	// milestoneProjectID returns the owning project of a milestone, or
	// ErrNotFound.
	milestoneProjectID(id string) (string, error)

	// taskParent returns a task's project and parent IDs, or ErrNotFound.
	taskParent(id string) (projectID, parentID string, err error)
}

// draftTask validates a draft and builds the task record both backends
// insert. The order key stays empty: the caller assigns it against the
// target column under its own locking.
func draftTask(refs boardRefs, draft types.TaskDraft, now time.Time) (types.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return types.Task{}, errors.New("task title is required")
	}
	if draft.ProjectID == "" {
		return types.Task{}, errors.New("task project is required")
	}
	ok, err := refs.projectExists(draft.ProjectID)
	if err != nil {
		return types.Task{}, err
	}
	if !ok {
		return types.Task{}, fmt.Errorf("project %s: %w", draft.ProjectID, ErrNotFound)
	}

	status := draft.Status
	if status == "" {
		status = types.StatusTodo
	}
	if !status.Valid() {
		return types.Task{}, fmt.Errorf("unknown status %q", status)
	}
	priority := draft.Priority
	if priority == "" {
		priority = types.PriorityNone
	}
	if !priority.Valid() {
		return types.Task{}, fmt.Errorf("unknown priority %q", priority)
	}
	if draft.Estimate < 0 {
		return types.Task{}, errors.New("estimate cannot be negative")
	}

	task := types.Task{
		ID:        uuid.New().String(),
		ProjectID: draft.ProjectID,
		Title:     draft.Title,
		Body:      draft.Body,
		Status:    status,
		Priority:  priority,
		Labels:    draft.Labels,
		Estimate:  draft.Estimate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if draft.StartAt != nil {
		v := *draft.StartAt
		task.StartAt = &v
	}
	if draft.DueAt != nil {
		v := *draft.DueAt
		task.DueAt = &v
	}
	if status == types.StatusDone {
		doneAt := now
		task.DoneAt = &doneAt
	}
	if draft.AssigneeID != "" {
		ok, err := refs.memberExists(draft.AssigneeID)
		if err != nil {
			return types.Task{}, err
		}
		if !ok {
			return types.Task{}, fmt.Errorf("assignee %s: %w", draft.AssigneeID, ErrNotFound)
		}
		task.AssigneeID = draft.AssigneeID
	}
	if draft.MilestoneID != "" {
		projectID, err := refs.milestoneProjectID(draft.MilestoneID)
		if err != nil {
			return types.Task{}, err
		}
		if projectID != draft.ProjectID {
			return types.Task{}, fmt.Errorf("milestone %s belongs to another project", draft.MilestoneID)
		}
		task.MilestoneID = draft.MilestoneID
	}
	if draft.ParentID != "" {
		if err := checkParent(refs, task.ID, task.ProjectID, draft.ParentID); err != nil {
			return types.Task{}, err
		}
		task.ParentID = draft.ParentID
	}
	for _, a := range draft.Attachments {
		if a.AddedAt.IsZero() {
			a.AddedAt = now
		}
		task.Attachments = append(task.Attachments, a)
	}
	return task, nil
}

// applyTaskUpdate applies updates to a copy of a task. The caller writes
// the copy back only when no field fails validation, so a bad update
// leaves the board untouched. Reports whether the status changed, which
// obliges the caller to assign a fresh order key.
func applyTaskUpdate(refs boardRefs, t *types.Task, updates types.TaskUpdate, now time.Time) (bool, error) {
	statusChanged := false
	if updates.Status != nil && *updates.Status != t.Status {
		if !updates.Status.Valid() {
			return false, fmt.Errorf("unknown status %q", *updates.Status)
		}
		applyStatusChange(t, *updates.Status, now)
		statusChanged = true
	}
	if updates.Title != nil {
		if strings.TrimSpace(*updates.Title) == "" {
			return false, errors.New("task title cannot be empty")
		}
		t.Title = *updates.Title
	}
	if updates.Body != nil {
		t.Body = *updates.Body
	}
	if updates.Priority != nil {
		if !updates.Priority.Valid() {
			return false, fmt.Errorf("unknown priority %q", *updates.Priority)
		}
		t.Priority = *updates.Priority
	}
	if updates.AssigneeID != nil {
		if *updates.AssigneeID != "" {
			ok, err := refs.memberExists(*updates.AssigneeID)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, fmt.Errorf("assignee %s: %w", *updates.AssigneeID, ErrNotFound)
			}
		}
		t.AssigneeID = *updates.AssigneeID
	}
	if updates.MilestoneID != nil {
		if *updates.MilestoneID != "" {
			projectID, err := refs.milestoneProjectID(*updates.MilestoneID)
			if err != nil {
				return false, err
			}
			if projectID != t.ProjectID {
				return false, fmt.Errorf("milestone %s belongs to another project", *updates.MilestoneID)
			}
		}
		t.MilestoneID = *updates.MilestoneID
	}
	if updates.ParentID != nil {
		if *updates.ParentID != "" {
			if err := checkParent(refs, t.ID, t.ProjectID, *updates.ParentID); err != nil {
				return false, err
			}
		}
		t.ParentID = *updates.ParentID
	}
	if updates.Labels != nil {
		t.Labels = *updates.Labels
	}
	if updates.Estimate != nil {
		if *updates.Estimate < 0 {
			return false, errors.New("estimate cannot be negative")
		}
		t.Estimate = *updates.Estimate
	}
	if updates.StartAt != nil {
		v := *updates.StartAt
		t.StartAt = &v
	}
	if updates.DueAt != nil {
		v := *updates.DueAt
		t.DueAt = &v
	}
	if updates.ClearStartAt {
		t.StartAt = nil
	}
	if updates.ClearDueAt {
		t.DueAt = nil
	}
	for _, a := range updates.AddAttachments {
		if a.AddedAt.IsZero() {
			a.AddedAt = now
		}
		t.Attachments = append(t.Attachments, a)
	}
	t.UpdatedAt = now
	return statusChanged, nil
}

// applyStatusChange moves a task to a new column and keeps DoneAt in
// step: set when the task lands in done, cleared everywhere else.
func applyStatusChange(t *types.Task, status types.Status, now time.Time) {
	t.Status = status
	if status == types.StatusDone {
		doneAt := now
		t.DoneAt = &doneAt
	} else {
		t.DoneAt = nil
	}
}

// checkParent validates a parent assignment: the parent must exist in the
// same project and must not be a descendant of the task, which would cut
// the subtree loose in a cycle.
func checkParent(refs boardRefs, taskID, projectID, parentID string) error {
	if parentID == taskID {
		return errors.New("task cannot be its own parent")
	}
	parentProject, grandparent, err := refs.taskParent(parentID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("parent task %s: %w", parentID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if parentProject != projectID {
		return fmt.Errorf("parent task %s belongs to another project", parentID)
	}

	// Walk up from the parent; reaching taskID means a cycle.
	seen := map[string]struct{}{}
	for id := grandparent; id != ""; {
		if id == taskID {
			return fmt.Errorf("parent task %s is a descendant of %s", parentID, taskID)
		}
		if _, dup := seen[id]; dup {
			break
		}
		seen[id] = struct{}{}
		_, next, err := refs.taskParent(id)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return err
		}
		id = next
	}
	return nil
}
