package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lawrns/foco/fracindex"
	"github.com/lawrns/foco/types"
)

// Columns accepted in an OrderClause.
const (
	ColOrderKey  = "order_key"
	ColTitle     = "title"
	ColStatus    = "status"
	ColPriority  = "priority"
	ColDueAt     = "due_at"
	ColStartAt   = "start_at"
	ColEstimate  = "estimate"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"
)

// sortTasks sorts tasks in place according to the order clauses. With no
// clauses it falls back to board order: status in workflow order, then
// order key within the column. The final tie-break is always the ID, so
// ordering is deterministic.
func sortTasks(tasks []types.Task, orderBy []types.OrderClause) error {
	if len(orderBy) == 0 {
		orderBy = []types.OrderClause{{Column: ColStatus}, {Column: ColOrderKey}}
	}
	for _, clause := range orderBy {
		if err := checkColumn(clause.Column); err != nil {
			return err
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		for _, clause := range orderBy {
			c := compareColumn(tasks[i], tasks[j], clause.Column)
			if c == 0 {
				continue
			}
			if clause.Descending {
				return c > 0
			}
			return c < 0
		}
		return tasks[i].ID < tasks[j].ID
	})
	return nil
}

func checkColumn(column string) error {
	switch column {
	case ColOrderKey, ColTitle, ColStatus, ColPriority, ColDueAt, ColStartAt, ColEstimate, ColCreatedAt, ColUpdatedAt:
		return nil
	}
	return fmt.Errorf("unknown order column %q", column)
}

// compareColumn compares one column of two tasks, returning -1, 0, or 1.
func compareColumn(a, b types.Task, column string) int {
	switch column {
	case ColOrderKey:
		return fracindex.Compare(a.OrderKey, b.OrderKey)
	case ColTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case ColStatus:
		return compareInt(statusRank(a.Status), statusRank(b.Status))
	case ColPriority:
		return compareInt(a.Priority.Rank(), b.Priority.Rank())
	case ColDueAt:
		return compareTimePtr(a.DueAt, b.DueAt)
	case ColStartAt:
		return compareTimePtr(a.StartAt, b.StartAt)
	case ColEstimate:
		switch {
		case a.Estimate < b.Estimate:
			return -1
		case a.Estimate > b.Estimate:
			return 1
		}
		return 0
	case ColCreatedAt:
		return compareTime(a.CreatedAt, b.CreatedAt)
	case ColUpdatedAt:
		return compareTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

// statusRank places statuses in workflow order for sorting.
func statusRank(s types.Status) int {
	for i, v := range types.Statuses() {
		if v == s {
			return i
		}
	}
	return len(types.Statuses())
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// compareTimePtr orders set times chronologically and sorts unset ones
// last, so "next due" listings surface dated tasks first.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return compareTime(*a, *b)
}
