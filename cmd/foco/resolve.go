package main

import (
	"fmt"
	"strings"

	"github.com/lawrns/foco/types"
)

// Commands accept records by UUID or by name. Resolution tries the
// exact ID first, then a case-insensitive name match, then a unique
// name prefix, and reports ambiguity instead of guessing.

func resolveProject(s types.Store, token string) (types.Project, error) {
	projects, err := s.ListProjects(true)
	if err != nil {
		return types.Project{}, fmt.Errorf("failed to list projects: %w", err)
	}
	idx, err := pickByName(token, len(projects),
		func(i int) string { return projects[i].ID },
		func(i int) string { return projects[i].Name })
	if err != nil {
		return types.Project{}, fmt.Errorf("project %w", err)
	}
	return projects[idx], nil
}

// resolveTask scopes the lookup to a project when one is given. Task
// tokens match the ID or the title.
func resolveTask(s types.Store, projectID, token string) (types.Task, error) {
	tasks, err := s.ListTasks(types.ListOptions{Filter: types.TaskFilter{ProjectID: projectID}})
	if err != nil {
		return types.Task{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	idx, err := pickByName(token, len(tasks),
		func(i int) string { return tasks[i].ID },
		func(i int) string { return tasks[i].Title })
	if err != nil {
		return types.Task{}, fmt.Errorf("task %w", err)
	}
	return tasks[idx], nil
}

// resolveMember matches the ID, the name, or the email address.
func resolveMember(s types.Store, token string) (types.Member, error) {
	members, err := s.ListMembers()
	if err != nil {
		return types.Member{}, fmt.Errorf("failed to list members: %w", err)
	}
	for _, m := range members {
		if m.ID == token || strings.EqualFold(m.Email, token) {
			return m, nil
		}
	}
	idx, err := pickByName(token, len(members),
		func(i int) string { return members[i].ID },
		func(i int) string { return members[i].Name })
	if err != nil {
		return types.Member{}, fmt.Errorf("member %w", err)
	}
	return members[idx], nil
}

func resolveMilestone(s types.Store, projectID, token string) (types.Milestone, error) {
	milestones, err := s.ListMilestones(projectID)
	if err != nil {
		return types.Milestone{}, fmt.Errorf("failed to list milestones: %w", err)
	}
	idx, err := pickByName(token, len(milestones),
		func(i int) string { return milestones[i].ID },
		func(i int) string { return milestones[i].Name })
	if err != nil {
		return types.Milestone{}, fmt.Errorf("milestone %w", err)
	}
	return milestones[idx], nil
}

// pickByName implements the shared match order over an indexed
// collection: exact ID, exact name, unique name prefix. IDs always win,
// so a name that happens to shadow another record's UUID cannot
// misdirect a lookup.
func pickByName(token string, n int, id, name func(i int) string) (int, error) {
	for i := 0; i < n; i++ {
		if id(i) == token {
			return i, nil
		}
	}

	lower := strings.ToLower(strings.TrimSpace(token))
	var exact, prefixed []int
	for i := 0; i < n; i++ {
		candidate := strings.ToLower(name(i))
		if candidate == lower {
			exact = append(exact, i)
		} else if strings.HasPrefix(candidate, lower) {
			prefixed = append(prefixed, i)
		}
	}
	if len(exact) == 0 {
		exact = prefixed
	}

	switch len(exact) {
	case 1:
		return exact[0], nil
	case 0:
		return 0, fmt.Errorf("%q not found", token)
	default:
		names := make([]string, 0, len(exact))
		for _, i := range exact {
			names = append(names, fmt.Sprintf("%s (%s)", name(i), shortID(id(i))))
		}
		return 0, fmt.Errorf("%q is ambiguous: %s", token, strings.Join(names, ", "))
	}
}
