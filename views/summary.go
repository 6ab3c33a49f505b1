package views

import (
	"time"

	"github.com/lawrns/foco/types"
)

// DueSoonWindow is the horizon the dashboard's due-soon count looks
// ahead.
const DueSoonWindow = 7 * 24 * time.Hour

// Summary holds dashboard counts over one task snapshot.
type Summary struct {
	Total     int `json:"total"`
	Open      int `json:"open"`
	Done      int `json:"done"`
	Cancelled int `json:"cancelled"`

	ByStatus   map[types.Status]int   `json:"by_status"`
	ByPriority map[types.Priority]int `json:"by_priority"`

	Overdue int `json:"overdue"`
	DueSoon int `json:"due_soon"`

	// OpenByAssignee counts open tasks per member ID; the empty key
	// collects unassigned tasks.
	OpenByAssignee map[string]int `json:"open_by_assignee"`

	// Completion is done over done-plus-open. Cancelled work counts
	// toward neither side: abandoning a task should not read as falling
	// behind.
	Completion float64 `json:"completion"`
}

// Summarize computes dashboard counts over the snapshot. now anchors the
// overdue and due-soon buckets.
func Summarize(tasks []types.Task, now time.Time) Summary {
	s := Summary{
		ByStatus:       map[types.Status]int{},
		ByPriority:     map[types.Priority]int{},
		OpenByAssignee: map[string]int{},
	}
	for _, t := range tasks {
		s.Total++
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
		switch t.Status {
		case types.StatusDone:
			s.Done++
		case types.StatusCancelled:
			s.Cancelled++
		default:
			s.Open++
			s.OpenByAssignee[t.AssigneeID]++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
		if t.DueWithin(now, DueSoonWindow) {
			s.DueSoon++
		}
	}
	if counted := s.Done + s.Open; counted > 0 {
		s.Completion = float64(s.Done) / float64(counted)
	}
	return s
}
