package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lawrns/foco/types"
	"github.com/lawrns/foco/views"
)

var (
	boardProject    string
	boardConfigPath string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Render a project's kanban board",
	Long: `Render a project's kanban board. Columns follow the board.yaml
next to the store file, or the default layout when none exists; each
column lists its tasks in board order with priority and overdue
markers.

Examples:
  foco board --project website
  foco board --project website --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if boardProject == "" {
			return fmt.Errorf("--project is required")
		}
		project, err := resolveProject(s, boardProject)
		if err != nil {
			return err
		}

		cfgPath := boardConfigPath
		if cfgPath == "" {
			cfgPath = boardConfigFile()
		}
		cfg, err := types.LoadBoardConfig(cfgPath)
		if err != nil {
			return err
		}

		tasks, err := s.ListTasks(types.ListOptions{Filter: types.TaskFilter{ProjectID: project.ID}})
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		columns := views.Kanban(cfg, tasks)
		return emit(columns, func(w io.Writer) error {
			renderBoard(w, project, columns)
			return nil
		})
	},
}

// renderBoard writes the colored column layout. Palette entries are
// shared, so attributes are never added to them here.
func renderBoard(w io.Writer, project types.Project, columns []views.KanbanColumn) {
	if !quiet {
		color.New(color.Bold).Fprintln(w, project.Name)
	}

	now := time.Now()
	alert := color.New(color.FgRed, color.Bold)
	for _, col := range columns {
		fmt.Fprintln(w)

		header := fmt.Sprintf("%s (%d)", col.Name, len(col.Tasks))
		if col.WIPLimit > 0 {
			header = fmt.Sprintf("%s (%d/%d)", col.Name, len(col.Tasks), col.WIPLimit)
		}
		colorFor(col.Status).Fprint(w, header)
		if col.OverLimit {
			fmt.Fprint(w, " ")
			alert.Fprint(w, "over limit")
		}
		fmt.Fprintln(w)

		for _, t := range col.Tasks {
			line := fmt.Sprintf("  %s  %s", shortID(t.ID), t.Title)
			if tag := priorityTag(t.Priority); tag != "" {
				line += "  " + tag
			}
			if t.IsOverdue(now) {
				line += "  " + alert.Sprint("overdue")
			}
			fmt.Fprintln(w, line)
		}
	}
}

func init() {
	boardCmd.Flags().StringVarP(&boardProject, "project", "p", "", "Project to render (id or name, required)")
	boardCmd.Flags().StringVar(&boardConfigPath, "board-config", "", "Column layout file (defaults to board.yaml next to the store)")
	rootCmd.AddCommand(boardCmd)
}
