// Package testutil builds populated boards for tests across packages. The
// universe fixture is one realistic board: three projects in mixed states,
// members in every role, milestones, and tasks spread over all workflow
// columns, including the edge states (overdue, due soon, subtasks, done,
// cancelled) the views, search, and reminder packages care about.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/types"
)

// Clock is the fixed time every universe store runs on. Due dates in the
// fixture are placed relative to it: FixLogin is 48h overdue, WriteCopy is
// due in 12h, ReviewSeo in 72h.
var Clock = time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)

// Universe provides typed access to the fixture records.
type Universe struct {
	Store board.TestStore
	Path  string

	// Config is a board layout with a WIP limit of 1 on In Progress,
	// which the fixture deliberately breaches with two tasks.
	Config types.BoardConfig

	// Members
	Ana  types.Member // admin
	Sam  types.Member // editor
	Noor types.Member // viewer

	// Projects
	Website types.Project // active, owned by Ana
	Mobile  types.Project // active, owned by Sam
	OldWiki types.Project // archived

	// Website milestones
	Beta types.Milestone // due Clock+7d
	GA   types.Milestone // due Clock+30d

	// Mobile milestones
	Prototype types.Milestone // no due date

	// Website tasks
	DesignHome types.Task // todo, high, milestone Beta, assigned Ana
	BuildNav   types.Task // todo, subtask of DesignHome
	WriteCopy  types.Task // in_progress, assigned Sam, due in 12h
	FixLogin   types.Task // in_progress, urgent, assigned Ana, 48h overdue
	ReviewSeo  types.Task // review, unassigned, due in 72h
	ShipBlog   types.Task // done
	DropLegacy types.Task // cancelled

	// Mobile tasks
	ScopeApp  types.Task // backlog
	PickStack types.Task // todo, milestone Prototype

	// ByID maps every task UUID to its record.
	ByID map[string]types.Task
}

// NewUniverse seeds a JSON-backed store in a temp directory and returns
// it with typed access to each record. The store is closed via t.Cleanup.
func NewUniverse(t *testing.T, opts ...board.Option) *Universe {
	t.Helper()
	return NewUniverseAt(t, filepath.Join(t.TempDir(), "board.json"), opts...)
}

// NewUniverseAt seeds the universe into a store at the given path, so
// tests that need a specific backend or file location can choose one.
func NewUniverseAt(t *testing.T, path string, opts ...board.Option) *Universe {
	t.Helper()

	s, err := board.New(path, opts...)
	if err != nil {
		t.Fatalf("failed to open fixture store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ts, ok := s.(board.TestStore)
	if !ok {
		t.Fatalf("store %T does not expose test hooks", s)
	}
	ts.SetTimeFunc(func() time.Time { return Clock })

	u := &Universe{
		Store: ts,
		Path:  path,
		Config: types.BoardConfig{
			Columns: []types.Column{
				{Status: types.StatusBacklog, Name: "Backlog"},
				{Status: types.StatusTodo, Name: "To Do"},
				{Status: types.StatusInProgress, Name: "In Progress", WIPLimit: 1},
				{Status: types.StatusReview, Name: "Review", WIPLimit: 2},
				{Status: types.StatusDone, Name: "Done"},
			},
		},
		ByID: make(map[string]types.Task),
	}

	u.Ana = u.member(t, types.MemberDraft{Name: "Ana Cruz", Email: "ana@example.com", Role: types.RoleAdmin})
	u.Sam = u.member(t, types.MemberDraft{Name: "Sam Park", Email: "sam@example.com", Role: types.RoleEditor})
	u.Noor = u.member(t, types.MemberDraft{Name: "Noor Rahman", Email: "noor@example.com", Role: types.RoleViewer})

	u.Website = u.project(t, types.ProjectDraft{Name: "Website Revamp", Description: "Marketing site refresh", Color: "#3b82f6", OwnerID: u.Ana.ID})
	u.Mobile = u.project(t, types.ProjectDraft{Name: "Mobile App", OwnerID: u.Sam.ID})
	u.OldWiki = u.project(t, types.ProjectDraft{Name: "Old Wiki", Description: "Retired documentation"})
	archived := true
	if err := u.Store.UpdateProject(u.OldWiki.ID, types.ProjectUpdate{Archived: &archived}); err != nil {
		t.Fatalf("failed to archive project: %v", err)
	}
	u.OldWiki.Archived = true

	u.Beta = u.milestone(t, types.MilestoneDraft{ProjectID: u.Website.ID, Name: "Public Beta", DueAt: after(7 * 24 * time.Hour)})
	u.GA = u.milestone(t, types.MilestoneDraft{ProjectID: u.Website.ID, Name: "GA Launch", DueAt: after(30 * 24 * time.Hour)})
	u.Prototype = u.milestone(t, types.MilestoneDraft{ProjectID: u.Mobile.ID, Name: "Prototype"})

	u.DesignHome = u.task(t, types.TaskDraft{
		ProjectID:   u.Website.ID,
		Title:       "Design landing page",
		Body:        "Hero section, pricing grid, and the footer refresh.",
		Priority:    types.PriorityHigh,
		AssigneeID:  u.Ana.ID,
		MilestoneID: u.Beta.ID,
		Labels:      []string{"design"},
		Estimate:    8,
		StartAt:     after(-2 * 24 * time.Hour),
		DueAt:       after(3 * 24 * time.Hour),
	})
	u.BuildNav = u.task(t, types.TaskDraft{
		ProjectID: u.Website.ID,
		Title:     "Build navigation component",
		ParentID:  u.DesignHome.ID,
		Labels:    []string{"design", "frontend"},
		Estimate:  3,
	})
	u.WriteCopy = u.task(t, types.TaskDraft{
		ProjectID:  u.Website.ID,
		Title:      "Write homepage copy",
		Status:     types.StatusInProgress,
		AssigneeID: u.Sam.ID,
		Labels:     []string{"content"},
		DueAt:      after(12 * time.Hour),
	})
	u.FixLogin = u.task(t, types.TaskDraft{
		ProjectID:  u.Website.ID,
		Title:      "Fix login redirect loop",
		Body:       "Users bounce back to the login form after OAuth.",
		Status:     types.StatusInProgress,
		Priority:   types.PriorityUrgent,
		AssigneeID: u.Ana.ID,
		Labels:     []string{"bug", "auth"},
		DueAt:      after(-48 * time.Hour),
	})
	u.ReviewSeo = u.task(t, types.TaskDraft{
		ProjectID: u.Website.ID,
		Title:     "Review SEO metadata",
		Status:    types.StatusReview,
		Priority:  types.PriorityLow,
		Labels:    []string{"seo"},
		DueAt:     after(72 * time.Hour),
	})
	u.ShipBlog = u.task(t, types.TaskDraft{
		ProjectID: u.Website.ID,
		Title:     "Ship blog engine",
		Status:    types.StatusDone,
		Labels:    []string{"content"},
	})
	u.DropLegacy = u.task(t, types.TaskDraft{
		ProjectID: u.Website.ID,
		Title:     "Drop legacy carousel",
		Status:    types.StatusCancelled,
	})

	u.ScopeApp = u.task(t, types.TaskDraft{
		ProjectID: u.Mobile.ID,
		Title:     "Scope app feature set",
		Status:    types.StatusBacklog,
	})
	u.PickStack = u.task(t, types.TaskDraft{
		ProjectID:   u.Mobile.ID,
		Title:       "Pick a client stack",
		Priority:    types.PriorityHigh,
		MilestoneID: u.Prototype.ID,
		Labels:      []string{"infra"},
	})

	return u
}

// WebsiteTasks returns the website project's tasks in board order.
func (u *Universe) WebsiteTasks(t *testing.T) []types.Task {
	t.Helper()
	tasks, err := u.Store.ListTasks(types.ListOptions{Filter: types.TaskFilter{ProjectID: u.Website.ID}})
	if err != nil {
		t.Fatalf("failed to list website tasks: %v", err)
	}
	return tasks
}

// AllTasks returns every task on the board in board order.
func (u *Universe) AllTasks(t *testing.T) []types.Task {
	t.Helper()
	tasks, err := u.Store.ListTasks(types.ListOptions{})
	if err != nil {
		t.Fatalf("failed to list tasks: %v", err)
	}
	return tasks
}

func (u *Universe) member(t *testing.T, draft types.MemberDraft) types.Member {
	t.Helper()
	id, err := u.Store.AddMember(draft)
	if err != nil {
		t.Fatalf("failed to add member %s: %v", draft.Name, err)
	}
	members, err := u.Store.ListMembers()
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	for _, m := range members {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("member %s missing after add", id)
	return types.Member{}
}

func (u *Universe) project(t *testing.T, draft types.ProjectDraft) types.Project {
	t.Helper()
	id, err := u.Store.AddProject(draft)
	if err != nil {
		t.Fatalf("failed to add project %s: %v", draft.Name, err)
	}
	p, err := u.Store.GetProject(id)
	if err != nil {
		t.Fatalf("failed to get project %s: %v", id, err)
	}
	return p
}

func (u *Universe) milestone(t *testing.T, draft types.MilestoneDraft) types.Milestone {
	t.Helper()
	id, err := u.Store.AddMilestone(draft)
	if err != nil {
		t.Fatalf("failed to add milestone %s: %v", draft.Name, err)
	}
	milestones, err := u.Store.ListMilestones(draft.ProjectID)
	if err != nil {
		t.Fatalf("failed to list milestones: %v", err)
	}
	for _, m := range milestones {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("milestone %s missing after add", id)
	return types.Milestone{}
}

func (u *Universe) task(t *testing.T, draft types.TaskDraft) types.Task {
	t.Helper()
	id, err := u.Store.AddTask(draft)
	if err != nil {
		t.Fatalf("failed to add task %q: %v", draft.Title, err)
	}
	task, err := u.Store.GetTask(id)
	if err != nil {
		t.Fatalf("failed to get task %s: %v", id, err)
	}
	u.ByID[id] = task
	return task
}

func after(d time.Duration) *time.Time {
	v := Clock.Add(d)
	return &v
}
