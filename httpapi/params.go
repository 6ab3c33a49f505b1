package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/lawrns/foco/types"
)

// boolParam parses an optional boolean query parameter. Absent reads as
// false.
func boolParam(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, v)
	}
	return b, nil
}

// intParam parses an optional integer query parameter. Absent reads as
// nil, matching the list options' "no limit" convention.
func intParam(q url.Values, name string) (*int, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	return &n, nil
}

// timeParam parses an optional timestamp parameter, RFC 3339 or plain
// date.
func timeParam(q url.Values, name string) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q", name, v)
}

// taskFilterFromQuery builds a task filter from list parameters.
// Multi-valued parameters (status, priority, label) repeat.
func taskFilterFromQuery(q url.Values) (types.TaskFilter, error) {
	filter := types.TaskFilter{
		ProjectID:   q.Get("project"),
		AssigneeID:  q.Get("assignee"),
		MilestoneID: q.Get("milestone"),
		ParentID:    q.Get("parent"),
		Labels:      q["label"],
	}
	for _, v := range q["status"] {
		status := types.Status(v)
		if !status.Valid() {
			return types.TaskFilter{}, fmt.Errorf("unknown status %q", v)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, v := range q["priority"] {
		priority := types.Priority(v)
		if !priority.Valid() {
			return types.TaskFilter{}, fmt.Errorf("unknown priority %q", v)
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	var err error
	if filter.DueBefore, err = timeParam(q, "due_before"); err != nil {
		return types.TaskFilter{}, err
	}
	if filter.DueAfter, err = timeParam(q, "due_after"); err != nil {
		return types.TaskFilter{}, err
	}
	if filter.Overdue, err = boolParam(q, "overdue"); err != nil {
		return types.TaskFilter{}, err
	}
	return filter, nil
}

// pageOf applies offset then limit to an already ranked slice.
func pageOf(tasks []types.Task, offset, limit *int) []types.Task {
	if offset != nil && *offset > 0 {
		if *offset >= len(tasks) {
			return []types.Task{}
		}
		tasks = tasks[*offset:]
	}
	if limit != nil && *limit >= 0 && *limit < len(tasks) {
		tasks = tasks[:*limit]
	}
	return tasks
}
