package types

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Column configures one Kanban lane: which status it renders, its display
// name, and an optional work-in-progress limit.
type Column struct {
	// Status is the workflow status this column holds.
	Status Status `yaml:"status" json:"status"`

	// Name is the display title; defaults to the status token when empty.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// WIPLimit caps how many tasks the column should hold. Zero means
	// unlimited. Views flag breaches; nothing blocks the move itself.
	WIPLimit int `yaml:"wip_limit,omitempty" json:"wip_limit,omitempty"`
}

// DisplayName returns the column title shown on a board.
func (c Column) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.Status)
}

// BoardConfig describes how a board is laid out. It lives in a YAML file
// next to the data file and only affects presentation; tasks in statuses
// without a configured column are simply not shown on the board.
type BoardConfig struct {
	Columns []Column `yaml:"columns" json:"columns"`
}

// DefaultBoardConfig returns the layout used when no configuration file
// exists: one column per workflow status except cancelled.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		Columns: []Column{
			{Status: StatusBacklog, Name: "Backlog"},
			{Status: StatusTodo, Name: "To Do"},
			{Status: StatusInProgress, Name: "In Progress"},
			{Status: StatusReview, Name: "Review"},
			{Status: StatusDone, Name: "Done"},
		},
	}
}

// Validate checks structural soundness of the configuration.
func (c BoardConfig) Validate() error {
	if len(c.Columns) == 0 {
		return fmt.Errorf("board config must define at least one column")
	}
	seen := make(map[Status]bool, len(c.Columns))
	for i, col := range c.Columns {
		if !col.Status.Valid() {
			return fmt.Errorf("column %d: unknown status %q", i, col.Status)
		}
		if seen[col.Status] {
			return fmt.Errorf("column %d: status %q appears more than once", i, col.Status)
		}
		seen[col.Status] = true
		if col.WIPLimit < 0 {
			return fmt.Errorf("column %d (%s): wip_limit must not be negative", i, col.Status)
		}
	}
	return nil
}

// Column returns the configured column for a status, if any.
func (c BoardConfig) Column(s Status) (Column, bool) {
	for _, col := range c.Columns {
		if col.Status == s {
			return col, true
		}
	}
	return Column{}, false
}

// LoadBoardConfig reads a YAML board configuration. A missing file is not
// an error: the default layout is returned so a fresh checkout works
// without setup.
func LoadBoardConfig(path string) (BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultBoardConfig(), nil
		}
		return BoardConfig{}, fmt.Errorf("failed to read board config: %w", err)
	}
	var cfg BoardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BoardConfig{}, fmt.Errorf("failed to parse board config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return BoardConfig{}, fmt.Errorf("invalid board config %s: %w", path, err)
	}
	return cfg, nil
}
