package search

import (
	"fmt"

	"github.com/lawrns/foco/types"
)

// TaskSource is the one store method search needs, kept narrow so tests
// can fake it without a store.
type TaskSource interface {
	ListTasks(opts types.ListOptions) ([]types.Task, error)
}

// SearchStore lists tasks matching the filter and ranks them against the
// query, so callers do not have to plumb snapshots themselves.
func SearchStore(src TaskSource, filter types.TaskFilter, opts SearchOptions) ([]Result, error) {
	tasks, err := src.ListTasks(types.ListOptions{Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return NewEngine().Search(tasks, opts)
}
