// Package query provides query processing for task listings. It handles
// filtering, ordering, and pagination over in-memory task slices, so both
// store backends share one set of semantics.
package query

import (
	"time"

	"github.com/lawrns/foco/types"
)

// Apply runs the query and returns filtered, sorted, and paginated
// results. The input slice is never mutated. now anchors the relative
// filters (Overdue) to the caller's clock.
func Apply(tasks []types.Task, opts types.ListOptions, now time.Time) ([]types.Task, error) {
	result := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if !Match(t, opts.Filter, now) {
			continue
		}
		result = append(result, t)
	}

	if err := sortTasks(result, opts.OrderBy); err != nil {
		return nil, err
	}

	if opts.Offset != nil && *opts.Offset > 0 {
		if *opts.Offset >= len(result) {
			result = []types.Task{}
		} else {
			result = result[*opts.Offset:]
		}
	}
	if opts.Limit != nil && *opts.Limit >= 0 {
		if *opts.Limit < len(result) {
			result = result[:*opts.Limit]
		}
	}

	return result, nil
}
