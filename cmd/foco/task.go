package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/search"
	"github.com/lawrns/foco/types"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var (
	taskAddProject   string
	taskAddBody      string
	taskAddStatus    string
	taskAddPriority  string
	taskAddAssignee  string
	taskAddMilestone string
	taskAddParent    string
	taskAddLabels    []string
	taskAddEstimate  float64
	taskAddStart     string
	taskAddDue       string

	taskListProject   string
	taskListStatuses  []string
	taskListPriority  []string
	taskListAssignee  string
	taskListMilestone string
	taskListParent    string
	taskListLabels    []string
	taskListOverdue   bool
	taskListDueBefore string
	taskListDueAfter  string
	taskListLimit     int
	taskListOffset    int

	taskMoveProject string
	taskMoveStatus  string
	taskMoveAfter   string
	taskMoveBefore  string

	taskDoneProject   string
	taskAssignProject string
	taskAssignClear   bool

	taskFindProject string
	taskFindLimit   int
	taskFindFields  []string
	taskFindExact   bool
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Long: `Create a task in a project. New tasks land at the end of their
column; status defaults to todo.

Examples:
  foco task add "Design landing page" --project website --priority high
  foco task add "Build navigation" --project website --parent "Design landing page"
  foco task add "Write copy" --project website --assignee sam --due 2026-05-01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if taskAddProject == "" {
			return fmt.Errorf("--project is required")
		}
		project, err := resolveProject(s, taskAddProject)
		if err != nil {
			return err
		}

		draft := types.TaskDraft{
			ProjectID: project.ID,
			Title:     args[0],
			Body:      taskAddBody,
			Labels:    taskAddLabels,
			Estimate:  taskAddEstimate,
		}
		if taskAddStatus != "" {
			if draft.Status, err = types.ParseStatus(taskAddStatus); err != nil {
				return err
			}
		}
		if taskAddPriority != "" {
			if draft.Priority, err = types.ParsePriority(taskAddPriority); err != nil {
				return err
			}
		}
		if taskAddAssignee != "" {
			member, err := resolveMember(s, taskAddAssignee)
			if err != nil {
				return err
			}
			draft.AssigneeID = member.ID
		}
		if taskAddMilestone != "" {
			milestone, err := resolveMilestone(s, project.ID, taskAddMilestone)
			if err != nil {
				return err
			}
			draft.MilestoneID = milestone.ID
		}
		if taskAddParent != "" {
			parent, err := resolveTask(s, project.ID, taskAddParent)
			if err != nil {
				return err
			}
			draft.ParentID = parent.ID
		}
		if draft.StartAt, err = parseDateFlag(taskAddStart); err != nil {
			return err
		}
		if draft.DueAt, err = parseDateFlag(taskAddDue); err != nil {
			return err
		}

		id, err := s.AddTask(draft)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		confirm(id, "Created task %s (%s)", draft.Title, shortID(id))
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks in board order, with optional filtering.

Examples:
  foco task list --project website
  foco task list --project website --status todo --status in_progress
  foco task list --assignee ana --overdue
  foco task list --label design --due-before 2026-05-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		filter, err := buildTaskFilter(s)
		if err != nil {
			return err
		}
		opts := types.ListOptions{Filter: filter}
		if cmd.Flags().Changed("limit") {
			opts.Limit = &taskListLimit
		}
		if cmd.Flags().Changed("offset") {
			opts.Offset = &taskListOffset
		}

		tasks, err := s.ListTasks(opts)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		memberName, err := memberNames(s)
		if err != nil {
			return err
		}

		now := time.Now()
		return emit(tasks, func(w io.Writer) error {
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []string{
					shortID(t.ID), t.Title, string(t.Status),
					priorityCell(t.Priority), memberName[t.AssigneeID], dueCell(t, now),
				})
			}
			return renderTable(w, []string{"ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE", "DUE"}, rows)
		})
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <task>",
	Short: "Move a task to another column or position",
	Long: `Move a task. --status changes the column; --after and --before
position the task next to a sibling in the target column. With no flags
the task moves to the end of its current column.

Examples:
  foco task move 1a2b3c4d --status in_progress
  foco task move "Build navigation" --before "Design landing page"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		scope, err := projectScope(s, taskMoveProject)
		if err != nil {
			return err
		}
		task, err := resolveTask(s, scope, args[0])
		if err != nil {
			return err
		}

		var req types.MoveRequest
		if taskMoveStatus != "" {
			status, err := types.ParseStatus(taskMoveStatus)
			if err != nil {
				return err
			}
			req.Status = &status
		}
		if taskMoveAfter != "" {
			after, err := resolveTask(s, task.ProjectID, taskMoveAfter)
			if err != nil {
				return err
			}
			req.AfterID = after.ID
		}
		if taskMoveBefore != "" {
			before, err := resolveTask(s, task.ProjectID, taskMoveBefore)
			if err != nil {
				return err
			}
			req.BeforeID = before.ID
		}

		moved, err := s.MoveTask(task.ID, req)
		if err != nil {
			return fmt.Errorf("failed to move task: %w", err)
		}
		confirm(moved.ID, "Moved task %s to %s", moved.Title, moved.Status)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Complete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		scope, err := projectScope(s, taskDoneProject)
		if err != nil {
			return err
		}
		task, err := resolveTask(s, scope, args[0])
		if err != nil {
			return err
		}
		if err := s.CompleteTask(task.ID); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		confirm(task.ID, "Completed task %s", task.Title)
		return nil
	},
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign <task> [member]",
	Short: "Assign a task to a member",
	Long: `Assign a task to a member, or clear the assignment with --clear.

Examples:
  foco task assign "Write copy" sam
  foco task assign 1a2b3c4d --clear`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 && !taskAssignClear {
			return fmt.Errorf("member argument or --clear is required")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		scope, err := projectScope(s, taskAssignProject)
		if err != nil {
			return err
		}
		task, err := resolveTask(s, scope, args[0])
		if err != nil {
			return err
		}

		assignee := ""
		if len(args) == 2 {
			member, err := resolveMember(s, args[1])
			if err != nil {
				return err
			}
			assignee = member.ID
		}
		if err := s.UpdateTask(task.ID, types.TaskUpdate{AssigneeID: &assignee}); err != nil {
			return fmt.Errorf("failed to assign task: %w", err)
		}
		if assignee == "" {
			confirm(task.ID, "Cleared assignee on %s", task.Title)
		} else {
			confirm(task.ID, "Assigned %s to %s", task.Title, args[1])
		}
		return nil
	},
}

var taskFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Search tasks by relevance",
	Long: `Search task titles, bodies, and labels, ranked by relevance.

Examples:
  foco task find design
  foco task find "login bug" --project website --limit 5
  foco task find deploy --field title`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		scope, err := projectScope(s, taskFindProject)
		if err != nil {
			return err
		}
		results, err := search.SearchStore(s, types.TaskFilter{ProjectID: scope}, search.SearchOptions{
			Query:      args[0],
			Fields:     taskFindFields,
			ExactMatch: taskFindExact,
			MaxResults: taskFindLimit,
		})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		return emit(results, func(w io.Writer) error {
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					fmt.Sprintf("%.2f", r.Score), shortID(r.Task.ID),
					r.Task.Title, string(r.Task.Status), string(r.MatchType),
				})
			}
			return renderTable(w, []string{"SCORE", "ID", "TITLE", "STATUS", "MATCH"}, rows)
		})
	},
}

// buildTaskFilter assembles the list filter from the task list flags.
func buildTaskFilter(s types.Store) (types.TaskFilter, error) {
	var filter types.TaskFilter

	if taskListProject != "" {
		project, err := resolveProject(s, taskListProject)
		if err != nil {
			return filter, err
		}
		filter.ProjectID = project.ID
	}
	for _, raw := range taskListStatuses {
		status, err := types.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range taskListPriority {
		priority, err := types.ParsePriority(raw)
		if err != nil {
			return filter, err
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	if taskListAssignee != "" {
		if taskListAssignee == types.UnassignedFilter {
			filter.AssigneeID = types.UnassignedFilter
		} else {
			member, err := resolveMember(s, taskListAssignee)
			if err != nil {
				return filter, err
			}
			filter.AssigneeID = member.ID
		}
	}
	if taskListMilestone != "" {
		milestone, err := resolveMilestone(s, filter.ProjectID, taskListMilestone)
		if err != nil {
			return filter, err
		}
		filter.MilestoneID = milestone.ID
	}
	if taskListParent != "" {
		parent, err := resolveTask(s, filter.ProjectID, taskListParent)
		if err != nil {
			return filter, err
		}
		filter.ParentID = parent.ID
	}
	filter.Labels = taskListLabels
	filter.Overdue = taskListOverdue

	var err error
	if filter.DueBefore, err = parseDateFlag(taskListDueBefore); err != nil {
		return filter, err
	}
	if filter.DueAfter, err = parseDateFlag(taskListDueAfter); err != nil {
		return filter, err
	}
	return filter, nil
}

// projectScope resolves an optional project token to an ID, empty
// meaning all projects.
func projectScope(s types.Store, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	project, err := resolveProject(s, token)
	if err != nil {
		return "", err
	}
	return project.ID, nil
}

// memberNames maps member IDs to display names for table rendering.
func memberNames(s types.Store) (map[string]string, error) {
	members, err := s.ListMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names, nil
}

func priorityCell(p types.Priority) string {
	if p == types.PriorityNone || p == "" {
		return ""
	}
	return string(p)
}

// dueCell renders a due date, flagged when the task is overdue.
func dueCell(t types.Task, now time.Time) string {
	if t.DueAt == nil {
		return ""
	}
	if t.IsOverdue(now) {
		return t.DueAt.UTC().Format("2006-01-02") + " !"
	}
	return t.DueAt.UTC().Format("2006-01-02")
}

func init() {
	taskAddCmd.Flags().StringVarP(&taskAddProject, "project", "p", "", "Project (id or name, required)")
	taskAddCmd.Flags().StringVarP(&taskAddBody, "body", "b", "", "Task body in markdown")
	taskAddCmd.Flags().StringVar(&taskAddStatus, "status", "", "Initial status (defaults to todo)")
	taskAddCmd.Flags().StringVar(&taskAddPriority, "priority", "", "Priority: low|medium|high|urgent")
	taskAddCmd.Flags().StringVarP(&taskAddAssignee, "assignee", "a", "", "Assignee (id, name, or email)")
	taskAddCmd.Flags().StringVarP(&taskAddMilestone, "milestone", "m", "", "Milestone (id or name)")
	taskAddCmd.Flags().StringVar(&taskAddParent, "parent", "", "Parent task (id or title)")
	taskAddCmd.Flags().StringSliceVarP(&taskAddLabels, "label", "l", nil, "Label, repeatable")
	taskAddCmd.Flags().Float64Var(&taskAddEstimate, "estimate", 0, "Estimate in hours")
	taskAddCmd.Flags().StringVar(&taskAddStart, "start", "", "Start date (RFC3339 or YYYY-MM-DD)")
	taskAddCmd.Flags().StringVar(&taskAddDue, "due", "", "Due date (RFC3339 or YYYY-MM-DD)")

	taskListCmd.Flags().StringVarP(&taskListProject, "project", "p", "", "Filter by project (id or name)")
	taskListCmd.Flags().StringSliceVar(&taskListStatuses, "status", nil, "Filter by status, repeatable")
	taskListCmd.Flags().StringSliceVar(&taskListPriority, "priority", nil, "Filter by priority, repeatable")
	taskListCmd.Flags().StringVarP(&taskListAssignee, "assignee", "a", "", "Filter by assignee, or \"unassigned\"")
	taskListCmd.Flags().StringVarP(&taskListMilestone, "milestone", "m", "", "Filter by milestone")
	taskListCmd.Flags().StringVar(&taskListParent, "parent", "", "List subtasks of a task")
	taskListCmd.Flags().StringSliceVarP(&taskListLabels, "label", "l", nil, "Filter by label, repeatable")
	taskListCmd.Flags().BoolVar(&taskListOverdue, "overdue", false, "Only open tasks past their due date")
	taskListCmd.Flags().StringVar(&taskListDueBefore, "due-before", "", "Due before a date")
	taskListCmd.Flags().StringVar(&taskListDueAfter, "due-after", "", "Due on or after a date")
	taskListCmd.Flags().IntVar(&taskListLimit, "limit", 0, "Limit results")
	taskListCmd.Flags().IntVar(&taskListOffset, "offset", 0, "Skip results")

	taskMoveCmd.Flags().StringVarP(&taskMoveProject, "project", "p", "", "Project scope for name lookups")
	taskMoveCmd.Flags().StringVar(&taskMoveStatus, "status", "", "Target column")
	taskMoveCmd.Flags().StringVar(&taskMoveAfter, "after", "", "Place after this sibling")
	taskMoveCmd.Flags().StringVar(&taskMoveBefore, "before", "", "Place before this sibling")

	taskDoneCmd.Flags().StringVarP(&taskDoneProject, "project", "p", "", "Project scope for name lookups")

	taskAssignCmd.Flags().StringVarP(&taskAssignProject, "project", "p", "", "Project scope for name lookups")
	taskAssignCmd.Flags().BoolVar(&taskAssignClear, "clear", false, "Remove the current assignee")

	taskFindCmd.Flags().StringVarP(&taskFindProject, "project", "p", "", "Restrict search to a project")
	taskFindCmd.Flags().IntVar(&taskFindLimit, "limit", 0, "Cap the number of results")
	taskFindCmd.Flags().StringSliceVar(&taskFindFields, "field", nil, "Search only these fields: title|body|labels")
	taskFindCmd.Flags().BoolVar(&taskFindExact, "exact", false, "Whole-field matches only")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskAssignCmd)
	taskCmd.AddCommand(taskFindCmd)
	rootCmd.AddCommand(taskCmd)
}
