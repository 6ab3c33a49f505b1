package types

import "time"

// EntityKind names the record type a change touched.
type EntityKind string

const (
	EntityProject   EntityKind = "project"
	EntityTask      EntityKind = "task"
	EntityMilestone EntityKind = "milestone"
	EntityMember    EntityKind = "member"
	// EntityBoard marks whole-store events, e.g. the data file being
	// rewritten by another process.
	EntityBoard EntityKind = "board"
)

// ChangeOp names what happened to the record.
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
	OpMoved   ChangeOp = "moved"
	// OpExternal signals the store was modified outside this process.
	OpExternal ChangeOp = "external"
	// OpDueSoon and OpOverdue are emitted by reminder scans.
	OpDueSoon ChangeOp = "due_soon"
	OpOverdue ChangeOp = "overdue"
)

// Change is one row-level change notification, the unit the realtime hub
// fans out to subscribers.
type Change struct {
	Entity    EntityKind `json:"entity"`
	Op        ChangeOp   `json:"op"`
	ID        string     `json:"id,omitempty"`         // record UUID, empty for board-level events
	ProjectID string     `json:"project_id,omitempty"` // owning project, when known
	At        time.Time  `json:"at"`
}
