package board

import (
	"fmt"
	"sort"
	"time"

	"github.com/lawrns/foco/fracindex"
	"github.com/lawrns/foco/storage"
	"github.com/lawrns/foco/types"
)

// Snapshotter is the bulk surface both backends expose alongside the
// record-level Store operations: dump the whole board, or replace its
// contents wholesale. Backup, restore, and the migration tool build on
// it; regular callers stay on types.Store.
type Snapshotter interface {
	// Snapshot returns a deep copy of everything in the store.
	Snapshot() (*storage.BoardData, error)

	// Restore replaces the store's contents with the given data. The
	// data must pass CheckData. Subscribers see one board-level change
	// instead of per-record notifications.
	Restore(data *storage.BoardData) error
}

// Issue is one consistency problem found in a board snapshot.
type Issue struct {
	Entity  types.EntityKind
	ID      string
	Message string
}

func (i Issue) String() string {
	if i.ID == "" {
		return fmt.Sprintf("%s: %s", i.Entity, i.Message)
	}
	return fmt.Sprintf("%s %s: %s", i.Entity, i.ID, i.Message)
}

// CheckData verifies the referential and ordering invariants of a board
// snapshot: unique IDs, resolvable references, legal enum tokens, and
// order keys that are valid and unique within their column. A healthy
// store always produces data that passes; hand-edited or damaged files
// may not.
func CheckData(data *storage.BoardData) []Issue {
	var issues []Issue
	add := func(entity types.EntityKind, id, format string, args ...interface{}) {
		issues = append(issues, Issue{Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)})
	}

	projects := make(map[string]bool, len(data.Projects))
	for _, p := range data.Projects {
		if projects[p.ID] {
			add(types.EntityProject, p.ID, "duplicate id")
		}
		projects[p.ID] = true
	}
	members := make(map[string]bool, len(data.Members))
	for _, m := range data.Members {
		if members[m.ID] {
			add(types.EntityMember, m.ID, "duplicate id")
		}
		members[m.ID] = true
		if !m.Role.Valid() {
			add(types.EntityMember, m.ID, "invalid role %q", m.Role)
		}
	}
	milestones := make(map[string]bool, len(data.Milestones))
	for _, m := range data.Milestones {
		if milestones[m.ID] {
			add(types.EntityMilestone, m.ID, "duplicate id")
		}
		milestones[m.ID] = true
		if !projects[m.ProjectID] {
			add(types.EntityMilestone, m.ID, "unknown project %s", m.ProjectID)
		}
	}
	tasks := make(map[string]bool, len(data.Tasks))
	for _, t := range data.Tasks {
		if tasks[t.ID] {
			add(types.EntityTask, t.ID, "duplicate id")
		}
		tasks[t.ID] = true
	}

	for _, p := range data.Projects {
		if p.OwnerID != "" && !members[p.OwnerID] {
			add(types.EntityProject, p.ID, "unknown owner %s", p.OwnerID)
		}
	}
	for _, t := range data.Tasks {
		if !projects[t.ProjectID] {
			add(types.EntityTask, t.ID, "unknown project %s", t.ProjectID)
		}
		if t.MilestoneID != "" && !milestones[t.MilestoneID] {
			add(types.EntityTask, t.ID, "unknown milestone %s", t.MilestoneID)
		}
		if t.ParentID != "" && !tasks[t.ParentID] {
			add(types.EntityTask, t.ID, "unknown parent %s", t.ParentID)
		}
		if t.AssigneeID != "" && !members[t.AssigneeID] {
			add(types.EntityTask, t.ID, "unknown assignee %s", t.AssigneeID)
		}
		if !t.Status.Valid() {
			add(types.EntityTask, t.ID, "invalid status %q", t.Status)
		}
		if !t.Priority.Valid() {
			add(types.EntityTask, t.ID, "invalid priority %q", t.Priority)
		}
	}

	taskKeys := make(map[[2]string]map[string]string)
	for _, t := range data.Tasks {
		if err := fracindex.Validate(t.OrderKey); err != nil {
			add(types.EntityTask, t.ID, "%v", err)
			continue
		}
		col := [2]string{t.ProjectID, string(t.Status)}
		if taskKeys[col] == nil {
			taskKeys[col] = make(map[string]string)
		}
		if holder, ok := taskKeys[col][t.OrderKey]; ok {
			add(types.EntityTask, t.ID, "order key %q collides with task %s", t.OrderKey, holder)
			continue
		}
		taskKeys[col][t.OrderKey] = t.ID
	}
	milestoneKeys := make(map[string]map[string]string)
	for _, m := range data.Milestones {
		if err := fracindex.Validate(m.OrderKey); err != nil {
			add(types.EntityMilestone, m.ID, "%v", err)
			continue
		}
		if milestoneKeys[m.ProjectID] == nil {
			milestoneKeys[m.ProjectID] = make(map[string]string)
		}
		if holder, ok := milestoneKeys[m.ProjectID][m.OrderKey]; ok {
			add(types.EntityMilestone, m.ID, "order key %q collides with milestone %s", m.OrderKey, holder)
			continue
		}
		milestoneKeys[m.ProjectID][m.OrderKey] = m.ID
	}
	return issues
}

// Fix describes one change RepairData applied.
type Fix struct {
	Entity  types.EntityKind
	ID      string
	Message string
}

func (f Fix) String() string {
	if f.ID == "" {
		return fmt.Sprintf("%s: %s", f.Entity, f.Message)
	}
	return fmt.Sprintf("%s %s: %s", f.Entity, f.ID, f.Message)
}

// RepairData rewrites data in place until CheckData passes: duplicate
// ids keep their first occurrence, records owned by a missing project
// are dropped, dangling references are cleared, unknown enum tokens
// reset to their defaults, and every column holding a duplicate or
// malformed order key is renumbered with fresh keys. Modified records
// are stamped with now. The returned fixes describe what changed, in
// application order.
func RepairData(data *storage.BoardData, now time.Time) []Fix {
	var fixes []Fix
	note := func(entity types.EntityKind, id, format string, args ...interface{}) {
		fixes = append(fixes, Fix{Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)})
	}

	projects := data.Projects[:0]
	projectSet := make(map[string]bool, len(data.Projects))
	for _, p := range data.Projects {
		if projectSet[p.ID] {
			note(types.EntityProject, p.ID, "dropped duplicate id")
			continue
		}
		projectSet[p.ID] = true
		projects = append(projects, p)
	}
	data.Projects = projects

	members := data.Members[:0]
	memberSet := make(map[string]bool, len(data.Members))
	for _, m := range data.Members {
		if memberSet[m.ID] {
			note(types.EntityMember, m.ID, "dropped duplicate id")
			continue
		}
		memberSet[m.ID] = true
		members = append(members, m)
	}
	data.Members = members

	milestones := data.Milestones[:0]
	milestoneSet := make(map[string]bool, len(data.Milestones))
	for _, m := range data.Milestones {
		switch {
		case milestoneSet[m.ID]:
			note(types.EntityMilestone, m.ID, "dropped duplicate id")
		case !projectSet[m.ProjectID]:
			note(types.EntityMilestone, m.ID, "dropped, unknown project %s", m.ProjectID)
		default:
			milestoneSet[m.ID] = true
			milestones = append(milestones, m)
		}
	}
	data.Milestones = milestones

	tasks := data.Tasks[:0]
	taskSet := make(map[string]bool, len(data.Tasks))
	for _, t := range data.Tasks {
		switch {
		case taskSet[t.ID]:
			note(types.EntityTask, t.ID, "dropped duplicate id")
		case !projectSet[t.ProjectID]:
			note(types.EntityTask, t.ID, "dropped, unknown project %s", t.ProjectID)
		default:
			taskSet[t.ID] = true
			tasks = append(tasks, t)
		}
	}
	data.Tasks = tasks

	for i := range data.Projects {
		p := &data.Projects[i]
		if p.OwnerID != "" && !memberSet[p.OwnerID] {
			note(types.EntityProject, p.ID, "cleared unknown owner %s", p.OwnerID)
			p.OwnerID = ""
			p.UpdatedAt = now
		}
	}
	for i := range data.Members {
		m := &data.Members[i]
		if !m.Role.Valid() {
			note(types.EntityMember, m.ID, "reset invalid role %q to %s", m.Role, types.RoleEditor)
			m.Role = types.RoleEditor
			m.UpdatedAt = now
		}
	}
	for i := range data.Tasks {
		t := &data.Tasks[i]
		if t.MilestoneID != "" && !milestoneSet[t.MilestoneID] {
			note(types.EntityTask, t.ID, "cleared unknown milestone %s", t.MilestoneID)
			t.MilestoneID = ""
			t.UpdatedAt = now
		}
		if t.ParentID != "" && !taskSet[t.ParentID] {
			note(types.EntityTask, t.ID, "cleared unknown parent %s", t.ParentID)
			t.ParentID = ""
			t.UpdatedAt = now
		}
		if t.AssigneeID != "" && !memberSet[t.AssigneeID] {
			note(types.EntityTask, t.ID, "cleared unknown assignee %s", t.AssigneeID)
			t.AssigneeID = ""
			t.UpdatedAt = now
		}
		if !t.Status.Valid() {
			note(types.EntityTask, t.ID, "reset invalid status %q to %s", t.Status, types.StatusTodo)
			t.Status = types.StatusTodo
			t.UpdatedAt = now
		}
		if !t.Priority.Valid() {
			note(types.EntityTask, t.ID, "reset invalid priority %q to %s", t.Priority, types.PriorityNone)
			t.Priority = types.PriorityNone
			t.UpdatedAt = now
		}
	}

	for _, col := range brokenTaskColumns(data.Tasks) {
		renumberTasks(data.Tasks, col.members, now)
		note(types.EntityTask, "", "renumbered %d tasks in column %s/%s", len(col.members), col.projectID, col.status)
	}
	milestoneCols := brokenMilestoneColumns(data.Milestones)
	projectIDs := make([]string, 0, len(milestoneCols))
	for projectID := range milestoneCols {
		projectIDs = append(projectIDs, projectID)
	}
	sort.Strings(projectIDs)
	for _, projectID := range projectIDs {
		members := milestoneCols[projectID]
		renumberMilestones(data.Milestones, members, now)
		note(types.EntityMilestone, "", "renumbered %d milestones in project %s", len(members), projectID)
	}
	return fixes
}

type brokenColumn struct {
	projectID string
	status    types.Status
	members   []int
}

// brokenTaskColumns returns the (project, status) columns holding a
// malformed or duplicate order key, each with the indices of its tasks,
// in first-seen order.
func brokenTaskColumns(tasks []types.Task) []brokenColumn {
	type colKey struct {
		projectID string
		status    types.Status
	}
	membersOf := make(map[colKey][]int)
	var order []colKey
	broken := make(map[colKey]bool)
	seen := make(map[colKey]map[string]bool)
	for i, t := range tasks {
		key := colKey{t.ProjectID, t.Status}
		if _, ok := membersOf[key]; !ok {
			order = append(order, key)
			seen[key] = make(map[string]bool)
		}
		membersOf[key] = append(membersOf[key], i)
		if fracindex.Validate(t.OrderKey) != nil || seen[key][t.OrderKey] {
			broken[key] = true
		}
		seen[key][t.OrderKey] = true
	}

	var cols []brokenColumn
	for _, key := range order {
		if broken[key] {
			cols = append(cols, brokenColumn{key.projectID, key.status, membersOf[key]})
		}
	}
	return cols
}

func brokenMilestoneColumns(milestones []types.Milestone) map[string][]int {
	membersOf := make(map[string][]int)
	broken := make(map[string]bool)
	seen := make(map[string]map[string]bool)
	for i, m := range milestones {
		if seen[m.ProjectID] == nil {
			seen[m.ProjectID] = make(map[string]bool)
		}
		membersOf[m.ProjectID] = append(membersOf[m.ProjectID], i)
		if fracindex.Validate(m.OrderKey) != nil || seen[m.ProjectID][m.OrderKey] {
			broken[m.ProjectID] = true
		}
		seen[m.ProjectID][m.OrderKey] = true
	}
	for projectID := range membersOf {
		if !broken[projectID] {
			delete(membersOf, projectID)
		}
	}
	return membersOf
}

// renumberTasks assigns fresh dense keys to the tasks at the given
// indices, keeping their current relative order (raw key bytes, id as
// the tie-break, which is as much order as damaged keys still carry).
func renumberTasks(tasks []types.Task, indices []int, now time.Time) {
	sort.SliceStable(indices, func(a, b int) bool {
		ta, tb := tasks[indices[a]], tasks[indices[b]]
		if ta.OrderKey != tb.OrderKey {
			return ta.OrderKey < tb.OrderKey
		}
		return ta.ID < tb.ID
	})
	keys, err := fracindex.KeysBetween(len(indices), "", "")
	if err != nil {
		// count >= 0 with no neighbors cannot fail.
		panic(err)
	}
	for n, i := range indices {
		tasks[i].OrderKey = keys[n]
		tasks[i].UpdatedAt = now
	}
}

func renumberMilestones(milestones []types.Milestone, indices []int, now time.Time) {
	sort.SliceStable(indices, func(a, b int) bool {
		ma, mb := milestones[indices[a]], milestones[indices[b]]
		if ma.OrderKey != mb.OrderKey {
			return ma.OrderKey < mb.OrderKey
		}
		return ma.ID < mb.ID
	})
	keys, err := fracindex.KeysBetween(len(indices), "", "")
	if err != nil {
		panic(err)
	}
	for n, i := range indices {
		milestones[i].OrderKey = keys[n]
		milestones[i].UpdatedAt = now
	}
}
