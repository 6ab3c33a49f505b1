package types

import (
	"fmt"
	"strings"
)

// Status identifies the workflow column a task belongs to. The zero value
// is not valid; stores default new tasks to StatusTodo.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Statuses returns all statuses in workflow order.
func Statuses() []Status {
	return []Status{
		StatusBacklog,
		StatusTodo,
		StatusInProgress,
		StatusReview,
		StatusDone,
		StatusCancelled,
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status ends a task's life on the board.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// statusAliases maps the spellings seen in CSV exports from other tools to
// canonical statuses. Keys are normalized (lowercase, underscores).
var statusAliases = map[string]Status{
	"open":        StatusTodo,
	"to_do":       StatusTodo,
	"doing":       StatusInProgress,
	"wip":         StatusInProgress,
	"in_review":   StatusReview,
	"qa":          StatusReview,
	"complete":    StatusDone,
	"completed":   StatusDone,
	"closed":      StatusDone,
	"canceled":    StatusCancelled,
	"wont_do":     StatusCancelled,
	"icebox":      StatusBacklog,
	"not_started": StatusBacklog,
}

// ParseStatus resolves a human- or machine-written status token. Spacing,
// case, and dashes are ignored, and a handful of common aliases from other
// tools are accepted.
func ParseStatus(raw string) (Status, error) {
	token := normalizeToken(raw)
	if s := Status(token); s.Valid() {
		return s, nil
	}
	if s, ok := statusAliases[token]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Priority expresses task urgency. The zero value is not valid; stores
// default new tasks to PriorityNone.
type Priority string

const (
	PriorityNone   Priority = "none"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities returns all priorities from least to most urgent.
func Priorities() []Priority {
	return []Priority{PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank returns the priority's position for sorting; higher is more urgent.
// Unknown priorities rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

var priorityAliases = map[string]Priority{
	"normal":   PriorityMedium,
	"med":      PriorityMedium,
	"critical": PriorityUrgent,
	"blocker":  PriorityUrgent,
	"trivial":  PriorityLow,
	"minor":    PriorityLow,
	"major":    PriorityHigh,
}

// ParsePriority resolves a priority token with the same tolerance as
// ParseStatus. An empty token maps to PriorityNone.
func ParsePriority(raw string) (Priority, error) {
	token := normalizeToken(raw)
	if token == "" {
		return PriorityNone, nil
	}
	if p := Priority(token); p.Valid() {
		return p, nil
	}
	if p, ok := priorityAliases[token]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", raw)
}

// Role grades what a member may do. Permission enforcement happens at the
// API boundary; here it is just data.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// ParseRole resolves a role token. An empty token maps to RoleEditor, the
// default for invited members.
func ParseRole(raw string) (Role, error) {
	token := normalizeToken(raw)
	if token == "" {
		return RoleEditor, nil
	}
	if r := Role(token); r.Valid() {
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// normalizeToken lowercases and collapses spaces and dashes to underscores
// so "In Progress", "in-progress", and "IN_PROGRESS" all compare equal.
func normalizeToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.ReplaceAll(token, " ", "_")
	token = strings.ReplaceAll(token, "-", "_")
	return token
}
