package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/types"
)

var milestoneCmd = &cobra.Command{
	Use:   "milestone",
	Short: "Manage milestones",
}

var (
	milestoneAddProject  string
	milestoneAddDue      string
	milestoneListProject string
)

var milestoneAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a milestone",
	Long: `Create a milestone in a project. New milestones land at the end
of the project's milestone order.

Examples:
  foco milestone add "Public Beta" --project website --due 2026-05-15
  foco milestone add "GA Launch" --project website`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if milestoneAddProject == "" {
			return fmt.Errorf("--project is required")
		}
		project, err := resolveProject(s, milestoneAddProject)
		if err != nil {
			return err
		}
		due, err := parseDateFlag(milestoneAddDue)
		if err != nil {
			return err
		}

		id, err := s.AddMilestone(types.MilestoneDraft{
			ProjectID: project.ID,
			Name:      args[0],
			DueAt:     due,
		})
		if err != nil {
			return fmt.Errorf("failed to create milestone: %w", err)
		}
		confirm(id, "Created milestone %s (%s)", args[0], shortID(id))
		return nil
	},
}

var milestoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List milestones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		scope, err := projectScope(s, milestoneListProject)
		if err != nil {
			return err
		}
		milestones, err := s.ListMilestones(scope)
		if err != nil {
			return fmt.Errorf("failed to list milestones: %w", err)
		}

		projects, err := s.ListProjects(true)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		projectName := make(map[string]string, len(projects))
		for _, p := range projects {
			projectName[p.ID] = p.Name
		}

		return emit(milestones, func(w io.Writer) error {
			rows := make([][]string, 0, len(milestones))
			for _, m := range milestones {
				rows = append(rows, []string{
					shortID(m.ID), m.Name, projectName[m.ProjectID], formatDate(m.DueAt),
				})
			}
			return renderTable(w, []string{"ID", "NAME", "PROJECT", "DUE"}, rows)
		})
	},
}

func init() {
	milestoneAddCmd.Flags().StringVarP(&milestoneAddProject, "project", "p", "", "Project (id or name, required)")
	milestoneAddCmd.Flags().StringVar(&milestoneAddDue, "due", "", "Due date (RFC3339 or YYYY-MM-DD)")
	milestoneListCmd.Flags().StringVarP(&milestoneListProject, "project", "p", "", "Filter by project (id or name)")

	milestoneCmd.AddCommand(milestoneAddCmd)
	milestoneCmd.AddCommand(milestoneListCmd)
	rootCmd.AddCommand(milestoneCmd)
}
