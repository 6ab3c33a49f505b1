// Package types defines the domain model shared by every layer of foco:
// projects, tasks, milestones, members, and the option structs the store
// interface consumes. It has no knowledge of persistence or transport.
package types

import "time"

// Project is a top-level container for tasks and milestones.
type Project struct {
	ID          string    `json:"id"`          // stable UUID
	Name        string    `json:"name"`        // display name, required
	Description string    `json:"description"` // optional free text
	Color       string    `json:"color"`       // optional UI accent, e.g. "#4f46e5"
	OwnerID     string    `json:"owner_id"`    // member UUID, optional
	Archived    bool      `json:"archived"`    // archived projects are hidden by default
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Task is a single work item. Its position inside a (project, status)
// column is carried by OrderKey; reordering a task assigns a new key and
// never touches its siblings.
type Task struct {
	ID          string       `json:"id"`                     // stable UUID
	ProjectID   string       `json:"project_id"`             // required
	MilestoneID string       `json:"milestone_id,omitempty"` // optional milestone UUID
	ParentID    string       `json:"parent_id,omitempty"`    // optional parent task UUID (subtasks)
	Title       string       `json:"title"`                  // required
	Body        string       `json:"body,omitempty"`         // optional markdown body
	Status      Status       `json:"status"`                 // column membership
	Priority    Priority     `json:"priority"`
	AssigneeID  string       `json:"assignee_id,omitempty"` // member UUID, optional
	Labels      []string     `json:"labels,omitempty"`
	Estimate    float64      `json:"estimate,omitempty"` // hours
	StartAt     *time.Time   `json:"start_at,omitempty"` // schedule start (timeline views)
	DueAt       *time.Time   `json:"due_at,omitempty"`
	DoneAt      *time.Time   `json:"done_at,omitempty"` // set when status enters done
	OrderKey    string       `json:"order_key"`         // fractional index within (project, status)
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Attachment records file metadata attached to a task. Content transport
// and storage live outside this module; only the descriptive record is
// kept here.
type Attachment struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// Milestone is a named marker tasks can be grouped under. Milestones are
// ordered per project with the same key scheme tasks use.
type Milestone struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	OrderKey  string     `json:"order_key"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Member is a person who can own projects and be assigned tasks. Role is
// plain authorization data; authentication itself is out of scope here.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDone reports whether the task sits in a terminal column.
func (t Task) IsDone() bool {
	return t.Status.Terminal()
}

// IsOverdue reports whether the task has a due date in the past and is
// still open.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueAt != nil && t.DueAt.Before(now) && !t.IsDone()
}

// DueWithin reports whether the task is open and due inside the window
// starting at now. Already-overdue tasks are not counted.
func (t Task) DueWithin(now time.Time, window time.Duration) bool {
	if t.DueAt == nil || t.IsDone() {
		return false
	}
	return !t.DueAt.Before(now) && t.DueAt.Before(now.Add(window))
}

// HasLabel reports whether the task carries the given label.
func (t Task) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}
