package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var (
	projectAddDescription string
	projectAddColor       string
	projectAddOwner       string
	projectListArchived   bool
)

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Long: `Create a project.

Examples:
  foco project add "Website Revamp"
  foco project add "Mobile App" --owner sam --color "#3b82f6"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		draft := types.ProjectDraft{
			Name:        args[0],
			Description: projectAddDescription,
			Color:       projectAddColor,
		}
		if projectAddOwner != "" {
			owner, err := resolveMember(s, projectAddOwner)
			if err != nil {
				return err
			}
			draft.OwnerID = owner.ID
		}

		id, err := s.AddProject(draft)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		confirm(id, "Created project %s (%s)", draft.Name, shortID(id))
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		projects, err := s.ListProjects(projectListArchived)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		members, err := s.ListMembers()
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		tasks, err := s.ListTasks(types.ListOptions{})
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		memberName := make(map[string]string, len(members))
		for _, m := range members {
			memberName[m.ID] = m.Name
		}
		taskCount := make(map[string]int, len(projects))
		for _, t := range tasks {
			taskCount[t.ProjectID]++
		}

		return emit(projects, func(w io.Writer) error {
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				state := ""
				if p.Archived {
					state = "archived"
				}
				rows = append(rows, []string{
					shortID(p.ID), p.Name, memberName[p.OwnerID],
					fmt.Sprintf("%d", taskCount[p.ID]), state,
				})
			}
			return renderTable(w, []string{"ID", "NAME", "OWNER", "TASKS", "STATE"}, rows)
		})
	},
}

var projectArchiveCmd = &cobra.Command{
	Use:   "archive <project>",
	Short: "Archive a project",
	Long: `Archive a project. Archived projects are hidden from listings
until --archived is passed; their tasks and milestones stay intact.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		project, err := resolveProject(s, args[0])
		if err != nil {
			return err
		}
		archived := true
		if err := s.UpdateProject(project.ID, types.ProjectUpdate{Archived: &archived}); err != nil {
			return fmt.Errorf("failed to archive project: %w", err)
		}
		confirm(project.ID, "Archived project %s", project.Name)
		return nil
	},
}

func init() {
	projectAddCmd.Flags().StringVarP(&projectAddDescription, "description", "d", "", "Project description")
	projectAddCmd.Flags().StringVar(&projectAddColor, "color", "", "Accent color, e.g. \"#3b82f6\"")
	projectAddCmd.Flags().StringVar(&projectAddOwner, "owner", "", "Owning member (id, name, or email)")
	projectListCmd.Flags().BoolVar(&projectListArchived, "archived", false, "Include archived projects")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectArchiveCmd)
	rootCmd.AddCommand(projectCmd)
}
