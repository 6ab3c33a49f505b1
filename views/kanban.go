// Package views derives presentation projections from task snapshots:
// kanban column groupings, gantt timeline rows, and dashboard summaries.
// Everything here is a pure function over data the store already
// returned; nothing reads a clock or touches storage.
package views

import (
	"sort"

	"github.com/lawrns/foco/fracindex"
	"github.com/lawrns/foco/types"
)

// KanbanColumn is one rendered board lane.
type KanbanColumn struct {
	Status types.Status `json:"status"`
	Name   string       `json:"name"`

	// WIPLimit echoes the configured cap, zero when unlimited.
	WIPLimit int `json:"wip_limit,omitempty"`

	// OverLimit is set when a limit exists and the column holds more
	// tasks than it allows. Nothing blocks the tasks from being there;
	// the flag is for the render.
	OverLimit bool `json:"over_limit,omitempty"`

	Tasks []types.Task `json:"tasks"`
}

// Kanban groups tasks into the configured columns, each sorted by order
// key. Columns come back in configuration order, empty ones included, so
// renders are stable. Tasks whose status has no configured column are not
// shown, per the BoardConfig contract.
func Kanban(cfg types.BoardConfig, tasks []types.Task) []KanbanColumn {
	byStatus := make(map[types.Status][]types.Task, len(cfg.Columns))
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	columns := make([]KanbanColumn, 0, len(cfg.Columns))
	for _, col := range cfg.Columns {
		colTasks := byStatus[col.Status]
		if colTasks == nil {
			colTasks = []types.Task{}
		}
		sortByOrderKey(colTasks)
		columns = append(columns, KanbanColumn{
			Status:    col.Status,
			Name:      col.DisplayName(),
			WIPLimit:  col.WIPLimit,
			OverLimit: col.WIPLimit > 0 && len(colTasks) > col.WIPLimit,
			Tasks:     colTasks,
		})
	}
	return columns
}

// sortByOrderKey sorts tasks into column order, ID as the tie-break.
func sortByOrderKey(tasks []types.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if c := fracindex.Compare(tasks[i].OrderKey, tasks[j].OrderKey); c != 0 {
			return c < 0
		}
		return tasks[i].ID < tasks[j].ID
	})
}
