package types

// Store is the public interface for a foco board: projects, tasks,
// milestones, and members behind one consistent surface. Both persistence
// backends (JSON file and SQLite) implement it.
//
// Ordering contract: every task carries an order key unique within its
// (project, status) column, and every milestone within its project. Store
// implementations generate keys from fresh neighbors under their write
// lock and retry on conflict. Callers never manage keys directly: they
// name neighbor IDs and the store does the rest.
type Store interface {
	// AddProject creates a project and returns its UUID.
	AddProject(draft ProjectDraft) (string, error)

	// GetProject returns one project by UUID.
	GetProject(id string) (Project, error)

	// ListProjects returns projects sorted by name. Archived projects are
	// included only when requested.
	ListProjects(includeArchived bool) ([]Project, error)

	// UpdateProject modifies an existing project.
	UpdateProject(id string, updates ProjectUpdate) error

	// DeleteProject removes a project. With cascade, its tasks and
	// milestones go too; without, a non-empty project is an error.
	DeleteProject(id string, cascade bool) error

	// AddTask creates a task and returns its UUID. The store assigns the
	// order key: appended to the target column, or placed per
	// draft.Placement when given.
	AddTask(draft TaskDraft) (string, error)

	// AddTasks creates a batch of tasks in one write and returns their
	// UUIDs in draft order. Each task appends to the end of its target
	// column, so a batch lands in slice order. The batch is atomic: one
	// invalid draft rejects the whole call.
	AddTasks(drafts []TaskDraft) ([]string, error)

	// GetTask returns one task by UUID.
	GetTask(id string) (Task, error)

	// ListTasks returns tasks matching the options. With no explicit
	// OrderBy, results come back in board order (status, then order key).
	ListTasks(opts ListOptions) ([]Task, error)

	// UpdateTask modifies an existing task. A status change through here
	// re-keys the task onto the end of the target column.
	UpdateTask(id string, updates TaskUpdate) error

	// MoveTask repositions a task per the request and returns the task
	// with its new order key.
	MoveTask(id string, move MoveRequest) (Task, error)

	// CompleteTask moves a task to done and stamps DoneAt.
	CompleteTask(id string) error

	// ReopenTask returns a terminal task to todo and clears DoneAt.
	ReopenTask(id string) error

	// DeleteTask removes a task. With cascade, its subtasks go too;
	// without, a task with subtasks is an error.
	DeleteTask(id string, cascade bool) error

	// UpdateTasks applies one update to every task matching the filter
	// and returns how many changed.
	UpdateTasks(filter TaskFilter, updates TaskUpdate) (int, error)

	// DeleteTasks removes every task matching the filter (cascading to
	// subtasks) and returns how many were removed.
	DeleteTasks(filter TaskFilter) (int, error)

	// AddMilestone creates a milestone at the end of the project's
	// milestone order and returns its UUID.
	AddMilestone(draft MilestoneDraft) (string, error)

	// ListMilestones returns a project's milestones in order-key order.
	ListMilestones(projectID string) ([]Milestone, error)

	// UpdateMilestone modifies an existing milestone.
	UpdateMilestone(id string, updates MilestoneUpdate) error

	// MoveMilestone repositions a milestone within its project.
	MoveMilestone(id string, move MoveRequest) (Milestone, error)

	// DeleteMilestone removes a milestone. Tasks pointing at it are
	// reassigned to reassignTo, or detached when reassignTo is empty.
	DeleteMilestone(id string, reassignTo string) error

	// AddMember registers a member and returns their UUID.
	AddMember(draft MemberDraft) (string, error)

	// ListMembers returns all members sorted by name.
	ListMembers() ([]Member, error)

	// UpdateMember modifies an existing member.
	UpdateMember(id string, updates MemberUpdate) error

	// RemoveMember deletes a member and clears their task assignments and
	// project ownerships.
	RemoveMember(id string) error

	// Close releases backend resources. The store must not be used after.
	Close() error
}
