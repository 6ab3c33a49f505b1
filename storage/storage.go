// Package storage defines the persisted data envelope shared by the board
// backends and the lock manager that serializes access to it.
package storage

import (
	"time"

	"github.com/lawrns/foco/types"
)

// FormatVersion identifies the board file layout. Bump only with a
// migration path for older files.
const FormatVersion = "1.0"

// BoardData is the complete content of one board as persisted by the JSON
// backend and exchanged with export/import.
type BoardData struct {
	Projects   []types.Project   `json:"projects"`
	Tasks      []types.Task      `json:"tasks"`
	Milestones []types.Milestone `json:"milestones"`
	Members    []types.Member    `json:"members"`
	Metadata   Metadata          `json:"metadata"`
}

// Metadata carries file-level bookkeeping.
type Metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBoardData returns an empty board stamped at now.
func NewBoardData(now time.Time) *BoardData {
	return &BoardData{
		Projects:   []types.Project{},
		Tasks:      []types.Task{},
		Milestones: []types.Milestone{},
		Members:    []types.Member{},
		Metadata: Metadata{
			Version:   FormatVersion,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Clone returns a deep copy. Mutating the copy, including task labels,
// attachments, and the optional timestamps, never touches the original.
func (d *BoardData) Clone() *BoardData {
	out := &BoardData{
		Projects:   append([]types.Project{}, d.Projects...),
		Tasks:      make([]types.Task, len(d.Tasks)),
		Milestones: make([]types.Milestone, len(d.Milestones)),
		Members:    append([]types.Member{}, d.Members...),
		Metadata:   d.Metadata,
	}
	for i, t := range d.Tasks {
		if t.Labels != nil {
			t.Labels = append([]string{}, t.Labels...)
		}
		if t.Attachments != nil {
			t.Attachments = append([]types.Attachment{}, t.Attachments...)
		}
		t.StartAt = cloneTime(t.StartAt)
		t.DueAt = cloneTime(t.DueAt)
		t.DoneAt = cloneTime(t.DoneAt)
		out.Tasks[i] = t
	}
	for i, m := range d.Milestones {
		m.DueAt = cloneTime(m.DueAt)
		out.Milestones[i] = m
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
