// Package export assembles zip archives of a board: a YAML manifest, a
// JSON snapshot of the raw board data, and one document per task in a
// registered format. Building the archive and writing the zip are
// separate steps, so archive content can be tested without touching the
// filesystem.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawrns/foco/formats"
	"github.com/lawrns/foco/internal/version"
	"github.com/lawrns/foco/storage"
	"github.com/lawrns/foco/types"
)

// Build assembles the archive for the given store at the given time. The
// caller's now stamps the manifest and names the archive, so exports are
// reproducible under a fixed clock.
func Build(s types.Store, opts Options, now time.Time) (*Archive, error) {
	name := opts.Format
	if name == "" {
		name = formats.DefaultFormat
	}
	format, err := formats.Get(name)
	if err != nil {
		return nil, err
	}

	data, err := snapshot(s, opts.ProjectIDs, now)
	if err != nil {
		return nil, err
	}

	manifest := Manifest{
		Tool:        "foco",
		Version:     version.Version,
		GeneratedAt: now.UTC(),
		Format:      format.Name,
		Projects:    len(data.Projects),
		Tasks:       len(data.Tasks),
		Milestones:  len(data.Milestones),
		Members:     len(data.Members),
	}
	manifestBytes, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	boardBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board data: %w", err)
	}
	boardBytes = append(boardBytes, '\n')

	files := make([]File, 0, len(data.Tasks)+2)
	files = append(files,
		File{Name: "manifest.yaml", Modified: now, Body: manifestBytes},
		File{Name: "board.json", Modified: now, Body: boardBytes},
	)

	names := newNameSet()
	for _, task := range data.Tasks {
		modified := task.UpdatedAt
		if modified.IsZero() {
			modified = now
		}
		files = append(files, File{
			Name:     "tasks/" + names.assign(slugify(task.Title), task.ID) + format.Extension,
			Modified: modified,
			Body:     []byte(format.Serialize(formats.FromTask(task))),
		})
	}

	return &Archive{
		Name:     "foco-export-" + now.UTC().Format("20060102-150405") + ".zip",
		Files:    files,
		Manifest: manifest,
	}, nil
}

// snapshot collects the board content covered by the export. Members are
// always included in full, so assignee and owner references resolve no
// matter which projects were selected.
func snapshot(s types.Store, projectIDs []string, now time.Time) (*storage.BoardData, error) {
	data := storage.NewBoardData(now)

	members, err := s.ListMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	data.Members = members

	if len(projectIDs) == 0 {
		projects, err := s.ListProjects(true)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		tasks, err := s.ListTasks(types.ListOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		milestones, err := s.ListMilestones("")
		if err != nil {
			return nil, fmt.Errorf("failed to list milestones: %w", err)
		}
		data.Projects = projects
		data.Tasks = tasks
		data.Milestones = milestones
		return data, nil
	}

	for _, id := range projectIDs {
		project, err := s.GetProject(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get project %s: %w", id, err)
		}
		tasks, err := s.ListTasks(types.ListOptions{Filter: types.TaskFilter{ProjectID: id}})
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks for project %s: %w", id, err)
		}
		milestones, err := s.ListMilestones(id)
		if err != nil {
			return nil, fmt.Errorf("failed to list milestones for project %s: %w", id, err)
		}
		data.Projects = append(data.Projects, project)
		data.Tasks = append(data.Tasks, tasks...)
		data.Milestones = append(data.Milestones, milestones...)
	}
	return data, nil
}
