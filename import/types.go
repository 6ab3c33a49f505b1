package imports

// Options configures a CSV import.
type Options struct {
	// ProjectID is the project rows land in when the CSV has no project
	// column or a row leaves it blank. Required when the file carries no
	// project column at all.
	ProjectID string `json:"project_id,omitempty"`

	// Mapping names the CSV column for each task field. Fields left
	// empty are filled by header detection, so a file with recognizable
	// headers needs no mapping at all.
	Mapping ColumnMapping `json:"mapping,omitempty"`

	// DryRun validates every row and reports the result without writing
	// anything to the store.
	DryRun bool `json:"dry_run,omitempty"`
}

// ColumnMapping names the CSV header bound to each importable task
// field. Values are header names as they appear in the file, matched
// case-insensitively.
type ColumnMapping struct {
	Title    string `json:"title,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	DueAt    string `json:"due,omitempty"`
	Assignee string `json:"assignee,omitempty"`
	Labels   string `json:"labels,omitempty"`
	Estimate string `json:"estimate,omitempty"`
	Project  string `json:"project,omitempty"`
}

// fields exposes the mapping's columns in a fixed order shared with
// aliasSets, so detection and overlay can walk both together.
func (m *ColumnMapping) fields() []*string {
	return []*string{
		&m.Title, &m.Status, &m.Priority, &m.DueAt,
		&m.Assignee, &m.Labels, &m.Estimate, &m.Project,
	}
}

// overlay replaces detected columns with explicitly mapped ones.
func (m *ColumnMapping) overlay(explicit ColumnMapping) {
	dst := m.fields()
	for i, src := range explicit.fields() {
		if *src != "" {
			*dst[i] = *src
		}
	}
}

// Result reports what an import did, or under DryRun, would have done.
type Result struct {
	// Created counts rows that became tasks (or would have, under
	// DryRun).
	Created int `json:"created"`

	// Skipped counts rows with no content in any column.
	Skipped int `json:"skipped"`

	// Errored counts rows rejected by validation. The import continues
	// past them.
	Errored int `json:"errored"`

	// DryRun echoes the option so the report is self-describing.
	DryRun bool `json:"dry_run"`

	// Errors lists each rejected row with its line in the input.
	Errors []RowError `json:"errors,omitempty"`

	// TaskIDs holds the created task UUIDs in row order. Empty under
	// DryRun.
	TaskIDs []string `json:"task_ids,omitempty"`
}

// RowError names one rejected CSV row.
type RowError struct {
	// Line is the 1-based line number in the CSV input, counting the
	// header.
	Line int `json:"line"`

	Reason string `json:"reason"`
}
