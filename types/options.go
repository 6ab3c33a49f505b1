package types

import "time"

// TaskFilter narrows a task listing. Zero-value fields are ignored, so the
// empty filter matches every task.
type TaskFilter struct {
	// ProjectID restricts results to one project.
	ProjectID string

	// Statuses keeps tasks whose status is in the set. Empty means all.
	Statuses []Status

	// Priorities keeps tasks whose priority is in the set. Empty means all.
	Priorities []Priority

	// AssigneeID keeps tasks assigned to one member. The special value
	// UnassignedFilter keeps tasks with no assignee.
	AssigneeID string

	// MilestoneID keeps tasks attached to one milestone.
	MilestoneID string

	// ParentID keeps the subtasks of one task.
	ParentID string

	// Labels keeps tasks carrying at least one of the given labels.
	Labels []string

	// DueBefore / DueAfter bound the due date (exclusive / inclusive).
	// Tasks without a due date never match a due-date bound.
	DueBefore *time.Time
	DueAfter  *time.Time

	// Overdue keeps open tasks whose due date has passed, relative to the
	// processor's clock.
	Overdue bool

	// Search performs a case-insensitive substring match over title, body,
	// and labels. Empty means no text filtering.
	Search string
}

// UnassignedFilter is the AssigneeID sentinel that matches tasks with no
// assignee.
const UnassignedFilter = "unassigned"

// ListOptions configures how tasks are listed.
type ListOptions struct {
	Filter TaskFilter

	// OrderBy specifies result order, applied clause by clause. An empty
	// list sorts by order key within status, matching board order.
	OrderBy []OrderClause

	// Limit caps the number of results. nil or negative means no limit;
	// 0 returns no results.
	Limit *int

	// Offset skips results before returning. nil or negative means no
	// offset; values past the end return empty results.
	Offset *int
}

// OrderClause represents a single ordering term.
type OrderClause struct {
	Column     string
	Descending bool
}

// ProjectDraft carries the caller-supplied fields for a new project.
type ProjectDraft struct {
	Name        string
	Description string
	Color       string
	OwnerID     string
}

// TaskDraft carries the caller-supplied fields for a new task. The store
// assigns ID, timestamps, and the order key.
type TaskDraft struct {
	ProjectID   string
	MilestoneID string
	ParentID    string
	Title       string
	Body        string
	Status      Status   // empty defaults to StatusTodo
	Priority    Priority // empty defaults to PriorityNone
	AssigneeID  string
	Labels      []string
	Estimate    float64
	StartAt     *time.Time
	DueAt       *time.Time
	Attachments []Attachment

	// Placement positions the task inside its column. nil appends to the
	// end, the common case for newly created tasks.
	Placement *Placement
}

// Placement names neighbor tasks by ID. Both empty appends to the column
// end; only AfterID places directly after that sibling; only BeforeID
// places directly before it.
type Placement struct {
	AfterID  string
	BeforeID string
}

// MilestoneDraft carries the caller-supplied fields for a new milestone.
type MilestoneDraft struct {
	ProjectID string
	Name      string
	DueAt     *time.Time
}

// MemberDraft carries the caller-supplied fields for a new member.
type MemberDraft struct {
	Name  string
	Email string
	Role  Role // empty defaults to RoleEditor
}

// TaskUpdate specifies fields to change on a task. nil pointers leave the
// field untouched; pointers to zero values clear it. Changing Status moves
// the task to the end of the target column with a fresh order key.
type TaskUpdate struct {
	Title       *string
	Body        *string
	Status      *Status
	Priority    *Priority
	AssigneeID  *string
	MilestoneID *string
	ParentID    *string
	Labels      *[]string
	Estimate    *float64
	StartAt     *time.Time
	DueAt       *time.Time

	// ClearStartAt / ClearDueAt remove the respective date. A nil
	// *time.Time cannot distinguish "leave alone" from "remove", so
	// removal is explicit.
	ClearStartAt bool
	ClearDueAt   bool

	// AddAttachments appends attachment records.
	AddAttachments []Attachment
}

// ProjectUpdate specifies fields to change on a project.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Color       *string
	OwnerID     *string
	Archived    *bool
}

// MilestoneUpdate specifies fields to change on a milestone.
type MilestoneUpdate struct {
	Name       *string
	DueAt      *time.Time
	ClearDueAt bool
}

// MemberUpdate specifies fields to change on a member.
type MemberUpdate struct {
	Name  *string
	Email *string
	Role  *Role
}

// MoveRequest repositions a task: an optional target column plus an
// optional position named by sibling task IDs. With no fields set the task
// moves to the end of its current column.
type MoveRequest struct {
	// Status is the target column; nil keeps the current one.
	Status *Status

	// AfterID places the task directly after this sibling in the target
	// column; BeforeID directly before. When only one side is given the
	// store derives the other neighbor from current column order. Both
	// empty appends to the column end.
	AfterID  string
	BeforeID string
}
