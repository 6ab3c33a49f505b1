package query

import (
	"strings"
	"time"

	"github.com/lawrns/foco/types"
)

// Match reports whether a task passes every set field of the filter. Zero
// fields are ignored, so the empty filter matches everything.
func Match(t types.Task, f types.TaskFilter, now time.Time) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority) {
		return false
	}
	if f.AssigneeID != "" {
		if f.AssigneeID == types.UnassignedFilter {
			if t.AssigneeID != "" {
				return false
			}
		} else if t.AssigneeID != f.AssigneeID {
			return false
		}
	}
	if f.MilestoneID != "" && t.MilestoneID != f.MilestoneID {
		return false
	}
	if f.ParentID != "" && t.ParentID != f.ParentID {
		return false
	}
	if len(f.Labels) > 0 && !hasAnyLabel(t, f.Labels) {
		return false
	}
	if f.DueBefore != nil {
		if t.DueAt == nil || !t.DueAt.Before(*f.DueBefore) {
			return false
		}
	}
	if f.DueAfter != nil {
		if t.DueAt == nil || t.DueAt.Before(*f.DueAfter) {
			return false
		}
	}
	if f.Overdue && !t.IsOverdue(now) {
		return false
	}
	if f.Search != "" && !matchesSearch(t, f.Search) {
		return false
	}
	return true
}

// matchesSearch does a case-insensitive substring search over title,
// body, and labels.
func matchesSearch(t types.Task, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Body), needle) {
		return true
	}
	for _, label := range t.Labels {
		if strings.Contains(strings.ToLower(label), needle) {
			return true
		}
	}
	return false
}

func containsStatus(set []types.Status, s types.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(set []types.Priority, p types.Priority) bool {
	for _, v := range set {
		if v == p {
			return true
		}
	}
	return false
}

func hasAnyLabel(t types.Task, labels []string) bool {
	for _, label := range labels {
		if t.HasLabel(label) {
			return true
		}
	}
	return false
}
