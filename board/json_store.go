package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawrns/foco/fracindex"
	"github.com/lawrns/foco/query"
	"github.com/lawrns/foco/storage"
	"github.com/lawrns/foco/types"
)

// jsonStore implements the Store interface on a single JSON file. An
// in-process lock manager serializes access to the in-memory board and a
// cross-process flock guards the file itself, so several foco processes
// can share one board directory.
type jsonStore struct {
	path        string
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	lockManager *storage.LockManager
	notifier    Notifier
	logger      *slog.Logger

	data *storage.BoardData
	// loadedAt is the file's mtime at the last load; a newer mtime means
	// another process rewrote the board and we must reload.
	loadedAt time.Time
	timeFunc func() time.Time
	closed   bool
}

func newJSONStore(path string, cfg config) (*jsonStore, error) {
	s := &jsonStore{
		path:        path,
		fs:          cfg.fs,
		lockFactory: cfg.lockFactory,
		lockManager: storage.NewLockManager(),
		notifier:    cfg.notifier,
		logger:      cfg.logger,
		timeFunc:    cfg.timeFunc,
		data:        storage.NewBoardData(cfg.timeFunc()),
	}
	s.fileLock = s.lockFactory.New(path + ".lock")

	if err := s.loadWithLock(); err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	return s, nil
}

// SetTimeFunc sets a custom time function for deterministic timestamps in
// tests.
func (s *jsonStore) SetTimeFunc(fn func() time.Time) {
	_ = s.lockManager.Execute(storage.WriteOperation, func() error {
		s.timeFunc = fn
		return nil
	})
}

// Constants for file locking.
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// acquireLock attempts to acquire an exclusive file lock with retry logic.
func (s *jsonStore) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
			// Continue to next retry.
		}
	}

	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

func (s *jsonStore) releaseLock() error {
	return s.fileLock.Unlock()
}

// loadWithLock loads the data file while holding the cross-process lock.
func (s *jsonStore) loadWithLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.releaseLock() }()

	return s.load()
}

// load reads the JSON file into memory. Caller must handle locking.
func (s *jsonStore) load() error {
	info, err := s.fs.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		// File doesn't exist yet, that's a fresh board.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	raw, err := s.fs.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	var data storage.BoardData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	if data.Metadata.Version != "" && data.Metadata.Version != storage.FormatVersion {
		return fmt.Errorf("unsupported board format version %q", data.Metadata.Version)
	}

	s.data = &data
	s.loadedAt = info.ModTime()
	return nil
}

// saveWithLock saves the data while holding the cross-process lock.
func (s *jsonStore) saveWithLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.releaseLock() }()

	return s.save()
}

// save writes the in-memory data to the JSON file atomically: write to a
// temp file, then rename. Caller must handle locking.
func (s *jsonStore) save() error {
	s.data.Metadata.UpdatedAt = s.timeFunc()
	if s.data.Metadata.Version == "" {
		s.data.Metadata.Version = storage.FormatVersion
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpFile := s.path + ".tmp"
	if err := s.fs.WriteFile(tmpFile, raw, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmpFile, s.path); err != nil {
		_ = s.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	// Remember our own write's mtime so it does not read as an external
	// change.
	if info, err := s.fs.Stat(s.path); err == nil {
		s.loadedAt = info.ModTime()
	}
	return nil
}

// begin guards every write operation: reject use after Close and pick up
// changes other processes wrote to the file. Caller must hold the write
// lock.
func (s *jsonStore) begin() error {
	if s.closed {
		return ErrClosed
	}
	return s.maybeReload()
}

// refresh is the read-side counterpart of begin. Reloading mutates the
// in-memory board, so it runs as a short write operation before the read
// itself takes the read lock.
func (s *jsonStore) refresh() error {
	return s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		return s.maybeReload()
	})
}

// maybeReload re-reads the file when another process rewrote it since the
// last load. Caller must hold the write lock.
func (s *jsonStore) maybeReload() error {
	info, err := s.fs.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.ModTime().After(s.loadedAt) {
		return nil
	}

	s.logger.Debug("board file changed on disk, reloading", "path", s.path)
	return s.loadWithLock()
}

// notify delivers change notifications after the lock is released. Zero
// changes (no Op) are skipped so callers can declare one up front and
// fill it only on success.
func (s *jsonStore) notify(changes ...types.Change) {
	if s.notifier == nil {
		return
	}
	for _, c := range changes {
		if c.Op == "" {
			continue
		}
		s.notifier.Notify(c)
	}
}

// Lookup helpers. Callers must hold a lock.

func (s *jsonStore) findProject(id string) (int, bool) {
	for i := range s.data.Projects {
		if s.data.Projects[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *jsonStore) findTask(id string) (int, bool) {
	for i := range s.data.Tasks {
		if s.data.Tasks[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *jsonStore) findMilestone(id string) (int, bool) {
	for i := range s.data.Milestones {
		if s.data.Milestones[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *jsonStore) findMember(id string) (int, bool) {
	for i := range s.data.Members {
		if s.data.Members[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// AddProject creates a new project.
func (s *jsonStore) AddProject(draft types.ProjectDraft) (string, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(draft.Name) == "" {
			return nil, errors.New("project name is required")
		}
		if draft.OwnerID != "" {
			if _, ok := s.findMember(draft.OwnerID); !ok {
				return nil, fmt.Errorf("owner %s: %w", draft.OwnerID, ErrNotFound)
			}
		}

		now := s.timeFunc()
		project := types.Project{
			ID:          uuid.New().String(),
			Name:        draft.Name,
			Description: draft.Description,
			Color:       draft.Color,
			OwnerID:     draft.OwnerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		s.data.Projects = append(s.data.Projects, project)
		if err := s.saveWithLock(); err != nil {
			// Remove the project on save failure.
			s.data.Projects = s.data.Projects[:len(s.data.Projects)-1]
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityProject, Op: types.OpCreated, ID: project.ID, ProjectID: project.ID, At: now}
		return project.ID, nil
	})
	if err != nil {
		return "", err
	}
	s.notify(change)
	return result.(string), nil
}

// GetProject retrieves a single project by UUID.
func (s *jsonStore) GetProject(id string) (types.Project, error) {
	if err := s.refresh(); err != nil {
		return types.Project{}, err
	}
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		i, ok := s.findProject(id)
		if !ok {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return s.data.Projects[i], nil
	})
	if err != nil {
		return types.Project{}, err
	}
	return result.(types.Project), nil
}

// ListProjects returns projects sorted by name.
func (s *jsonStore) ListProjects(includeArchived bool) ([]types.Project, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		projects := make([]types.Project, 0, len(s.data.Projects))
		for _, p := range s.data.Projects {
			if p.Archived && !includeArchived {
				continue
			}
			projects = append(projects, p)
		}
		sort.Slice(projects, func(i, j int) bool {
			a, b := strings.ToLower(projects[i].Name), strings.ToLower(projects[j].Name)
			if a != b {
				return a < b
			}
			return projects[i].ID < projects[j].ID
		})
		return projects, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Project), nil
}

// UpdateProject modifies an existing project.
func (s *jsonStore) UpdateProject(id string, updates types.ProjectUpdate) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findProject(id)
		if !ok {
			return fmt.Errorf("project %s: %w", id, ErrNotFound)
		}

		updated := s.data.Projects[i]
		if updates.Name != nil {
			if strings.TrimSpace(*updates.Name) == "" {
				return errors.New("project name cannot be empty")
			}
			updated.Name = *updates.Name
		}
		if updates.Description != nil {
			updated.Description = *updates.Description
		}
		if updates.Color != nil {
			updated.Color = *updates.Color
		}
		if updates.OwnerID != nil {
			if *updates.OwnerID != "" {
				if _, ok := s.findMember(*updates.OwnerID); !ok {
					return fmt.Errorf("owner %s: %w", *updates.OwnerID, ErrNotFound)
				}
			}
			updated.OwnerID = *updates.OwnerID
		}
		if updates.Archived != nil {
			updated.Archived = *updates.Archived
		}

		now := s.timeFunc()
		updated.UpdatedAt = now
		original := s.data.Projects[i]
		s.data.Projects[i] = updated
		if err := s.saveWithLock(); err != nil {
			s.data.Projects[i] = original
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityProject, Op: types.OpUpdated, ID: id, ProjectID: id, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// DeleteProject removes a project. With cascade its tasks and milestones
// are removed too; without, deleting a non-empty project is an error.
func (s *jsonStore) DeleteProject(id string, cascade bool) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findProject(id)
		if !ok {
			return fmt.Errorf("project %s: %w", id, ErrNotFound)
		}

		if !cascade {
			for _, t := range s.data.Tasks {
				if t.ProjectID == id {
					return fmt.Errorf("project %s: %w", id, ErrHasChildren)
				}
			}
			for _, m := range s.data.Milestones {
				if m.ProjectID == id {
					return fmt.Errorf("project %s: %w", id, ErrHasChildren)
				}
			}
		}

		originalProjects := s.data.Projects
		originalTasks := s.data.Tasks
		originalMilestones := s.data.Milestones

		s.data.Projects = append(s.data.Projects[:i:i], s.data.Projects[i+1:]...)
		tasks := make([]types.Task, 0, len(originalTasks))
		for _, t := range originalTasks {
			if t.ProjectID != id {
				tasks = append(tasks, t)
			}
		}
		s.data.Tasks = tasks
		milestones := make([]types.Milestone, 0, len(originalMilestones))
		for _, m := range originalMilestones {
			if m.ProjectID != id {
				milestones = append(milestones, m)
			}
		}
		s.data.Milestones = milestones

		if err := s.saveWithLock(); err != nil {
			s.data.Projects = originalProjects
			s.data.Tasks = originalTasks
			s.data.Milestones = originalMilestones
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityProject, Op: types.OpDeleted, ID: id, ProjectID: id, At: s.timeFunc()}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// AddTask creates a new task with a store-assigned order key.
func (s *jsonStore) AddTask(draft types.TaskDraft) (string, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}
		now := s.timeFunc()
		task, err := draftTask(jsonRefs{s}, draft, now)
		if err != nil {
			return nil, err
		}

		entries := taskEntries(s.data.Tasks, task.ProjectID, task.Status, "")
		var key string
		if draft.Placement != nil {
			key, err = resolvePlacement(entries, draft.Placement.AfterID, draft.Placement.BeforeID)
		} else {
			key, err = appendKey(entries)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to assign order key: %w", err)
		}
		task.OrderKey = key

		s.data.Tasks = append(s.data.Tasks, task)
		if err := s.saveWithLock(); err != nil {
			// Remove the task on save failure.
			s.data.Tasks = s.data.Tasks[:len(s.data.Tasks)-1]
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityTask, Op: types.OpCreated, ID: task.ID, ProjectID: task.ProjectID, At: now}
		return task.ID, nil
	})
	if err != nil {
		return "", err
	}
	s.notify(change)
	return result.(string), nil
}

// AddTasks creates a batch of tasks in one write, appending each to the
// end of its target column in slice order. The batch is atomic: one bad
// draft rejects the whole call and the board is left untouched.
func (s *jsonStore) AddTasks(drafts []types.TaskDraft) ([]string, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	var changes []types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}
		now := s.timeFunc()

		tasks := make([]types.Task, 0, len(drafts))
		for i, draft := range drafts {
			if draft.Placement != nil {
				return nil, fmt.Errorf("draft %d: batch adds always append, placement is not supported", i)
			}
			task, err := draftTask(jsonRefs{s}, draft, now)
			if err != nil {
				return nil, fmt.Errorf("draft %d: %w", i, err)
			}
			tasks = append(tasks, task)
		}

		// Keys are handed out in one run per column so the batch keeps
		// its slice order within each column.
		type column struct {
			projectID string
			status    types.Status
		}
		grouped := make(map[column][]int)
		var order []column
		for i, t := range tasks {
			col := column{t.ProjectID, t.Status}
			if _, seen := grouped[col]; !seen {
				order = append(order, col)
			}
			grouped[col] = append(grouped[col], i)
		}
		for _, col := range order {
			indexes := grouped[col]
			entries := taskEntries(s.data.Tasks, col.projectID, col.status, "")
			keys, err := appendKeys(entries, len(indexes))
			if err != nil {
				return nil, fmt.Errorf("failed to assign order keys: %w", err)
			}
			for j, i := range indexes {
				tasks[i].OrderKey = keys[j]
			}
		}

		original := s.data.Tasks
		s.data.Tasks = append(original[:len(original):len(original)], tasks...)
		if err := s.saveWithLock(); err != nil {
			s.data.Tasks = original
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		ids := make([]string, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
			changes = append(changes, types.Change{Entity: types.EntityTask, Op: types.OpCreated, ID: t.ID, ProjectID: t.ProjectID, At: now})
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	for _, change := range changes {
		s.notify(change)
	}
	return result.([]string), nil
}

// GetTask retrieves a single task by UUID.
func (s *jsonStore) GetTask(id string) (types.Task, error) {
	if err := s.refresh(); err != nil {
		return types.Task{}, err
	}
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		i, ok := s.findTask(id)
		if !ok {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return s.data.Tasks[i], nil
	})
	if err != nil {
		return types.Task{}, err
	}
	return result.(types.Task), nil
}

// ListTasks returns tasks matching the options, delegating filtering and
// ordering to the query package.
func (s *jsonStore) ListTasks(opts types.ListOptions) ([]types.Task, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		return query.Apply(s.data.Tasks, opts, s.timeFunc())
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Task), nil
}

// UpdateTask modifies an existing task. A status change re-keys the task
// onto the end of the target column.
func (s *jsonStore) UpdateTask(id string, updates types.TaskUpdate) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findTask(id)
		if !ok {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}

		now := s.timeFunc()
		updated := s.data.Tasks[i]
		statusChanged, err := applyTaskUpdate(jsonRefs{s}, &updated, updates, now)
		if err != nil {
			return err
		}
		if statusChanged {
			if err := assignAppendKey(s.data.Tasks, &updated); err != nil {
				return err
			}
		}

		original := s.data.Tasks[i]
		s.data.Tasks[i] = updated
		if err := s.saveWithLock(); err != nil {
			s.data.Tasks[i] = original
			return fmt.Errorf("failed to save: %w", err)
		}

		op := types.OpUpdated
		if statusChanged {
			op = types.OpMoved
		}
		change = types.Change{Entity: types.EntityTask, Op: op, ID: id, ProjectID: updated.ProjectID, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// MoveTask repositions a task within or across columns and returns it
// with its new order key.
func (s *jsonStore) MoveTask(id string, move types.MoveRequest) (types.Task, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}
		i, ok := s.findTask(id)
		if !ok {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}

		updated := s.data.Tasks[i]
		now := s.timeFunc()
		target := updated.Status
		if move.Status != nil {
			target = *move.Status
			if !target.Valid() {
				return nil, fmt.Errorf("unknown status %q", target)
			}
		}
		if target != updated.Status {
			applyStatusChange(&updated, target, now)
		}

		entries := taskEntries(s.data.Tasks, updated.ProjectID, target, updated.ID)
		key, err := resolvePlacement(entries, move.AfterID, move.BeforeID)
		if err != nil {
			return nil, fmt.Errorf("failed to assign order key: %w", err)
		}
		updated.OrderKey = key
		updated.UpdatedAt = now

		original := s.data.Tasks[i]
		s.data.Tasks[i] = updated
		if err := s.saveWithLock(); err != nil {
			s.data.Tasks[i] = original
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityTask, Op: types.OpMoved, ID: id, ProjectID: updated.ProjectID, At: now}
		return updated, nil
	})
	if err != nil {
		return types.Task{}, err
	}
	s.notify(change)
	return result.(types.Task), nil
}

// CompleteTask moves a task to done and stamps DoneAt. Completing an
// already-done task is a no-op.
func (s *jsonStore) CompleteTask(id string) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findTask(id)
		if !ok {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		if s.data.Tasks[i].Status == types.StatusDone {
			return nil
		}

		now := s.timeFunc()
		updated := s.data.Tasks[i]
		applyStatusChange(&updated, types.StatusDone, now)
		if err := assignAppendKey(s.data.Tasks, &updated); err != nil {
			return err
		}
		updated.UpdatedAt = now

		original := s.data.Tasks[i]
		s.data.Tasks[i] = updated
		if err := s.saveWithLock(); err != nil {
			s.data.Tasks[i] = original
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityTask, Op: types.OpMoved, ID: id, ProjectID: updated.ProjectID, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// ReopenTask returns a done or cancelled task to todo and clears DoneAt.
func (s *jsonStore) ReopenTask(id string) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findTask(id)
		if !ok {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		if !s.data.Tasks[i].Status.Terminal() {
			return fmt.Errorf("task %s is not in a terminal status", id)
		}

		now := s.timeFunc()
		updated := s.data.Tasks[i]
		applyStatusChange(&updated, types.StatusTodo, now)
		if err := assignAppendKey(s.data.Tasks, &updated); err != nil {
			return err
		}
		updated.UpdatedAt = now

		original := s.data.Tasks[i]
		s.data.Tasks[i] = updated
		if err := s.saveWithLock(); err != nil {
			s.data.Tasks[i] = original
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityTask, Op: types.OpMoved, ID: id, ProjectID: updated.ProjectID, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// DeleteTask removes a task. With cascade its subtasks are removed too;
// without, deleting a task that has subtasks is an error.
func (s *jsonStore) DeleteTask(id string, cascade bool) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findTask(id)
		if !ok {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		projectID := s.data.Tasks[i].ProjectID

		doomed := map[string]struct{}{id: {}}
		children := descendantTasks(s.data.Tasks, id)
		if len(children) > 0 && !cascade {
			return fmt.Errorf("task %s: %w", id, ErrHasChildren)
		}
		for _, child := range children {
			doomed[child] = struct{}{}
		}

		original := s.data.Tasks
		tasks := make([]types.Task, 0, len(original)-len(doomed))
		for _, t := range original {
			if _, gone := doomed[t.ID]; !gone {
				tasks = append(tasks, t)
			}
		}
		s.data.Tasks = tasks

		if err := s.saveWithLock(); err != nil {
			s.data.Tasks = original
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityTask, Op: types.OpDeleted, ID: id, ProjectID: projectID, At: s.timeFunc()}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// UpdateTasks applies one update to every task matching the filter.
func (s *jsonStore) UpdateTasks(filter types.TaskFilter, updates types.TaskUpdate) (int, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}

		now := s.timeFunc()
		// Work on a scratch copy so a validation error part way through
		// leaves the board untouched.
		tasks := make([]types.Task, len(s.data.Tasks))
		copy(tasks, s.data.Tasks)

		count := 0
		for i := range tasks {
			if !query.Match(s.data.Tasks[i], filter, now) {
				continue
			}
			statusChanged, err := applyTaskUpdate(jsonRefs{s}, &tasks[i], updates, now)
			if err != nil {
				return nil, err
			}
			if statusChanged {
				if err := assignAppendKey(tasks, &tasks[i]); err != nil {
					return nil, err
				}
			}
			count++
		}
		if count == 0 {
			return 0, nil
		}

		original := s.data.Tasks
		s.data.Tasks = tasks
		if err := s.saveWithLock(); err != nil {
			s.data.Tasks = original
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityBoard, Op: types.OpUpdated, At: now}
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	s.notify(change)
	return result.(int), nil
}

// DeleteTasks removes every task matching the filter, cascading to
// subtasks, and returns how many were removed.
func (s *jsonStore) DeleteTasks(filter types.TaskFilter) (int, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}

		now := s.timeFunc()
		doomed := map[string]struct{}{}
		for _, t := range s.data.Tasks {
			if !query.Match(t, filter, now) {
				continue
			}
			doomed[t.ID] = struct{}{}
			for _, child := range descendantTasks(s.data.Tasks, t.ID) {
				doomed[child] = struct{}{}
			}
		}
		if len(doomed) == 0 {
			return 0, nil
		}

		original := s.data.Tasks
		tasks := make([]types.Task, 0, len(original)-len(doomed))
		for _, t := range original {
			if _, gone := doomed[t.ID]; !gone {
				tasks = append(tasks, t)
			}
		}
		s.data.Tasks = tasks

		if err := s.saveWithLock(); err != nil {
			s.data.Tasks = original
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityBoard, Op: types.OpDeleted, At: now}
		return len(doomed), nil
	})
	if err != nil {
		return 0, err
	}
	s.notify(change)
	return result.(int), nil
}

// AddMilestone creates a milestone at the end of the project's order.
func (s *jsonStore) AddMilestone(draft types.MilestoneDraft) (string, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(draft.Name) == "" {
			return nil, errors.New("milestone name is required")
		}
		if draft.ProjectID == "" {
			return nil, errors.New("milestone project is required")
		}
		if _, ok := s.findProject(draft.ProjectID); !ok {
			return nil, fmt.Errorf("project %s: %w", draft.ProjectID, ErrNotFound)
		}

		now := s.timeFunc()
		milestone := types.Milestone{
			ID:        uuid.New().String(),
			ProjectID: draft.ProjectID,
			Name:      draft.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if draft.DueAt != nil {
			v := *draft.DueAt
			milestone.DueAt = &v
		}

		key, err := appendKey(milestoneEntries(s.data.Milestones, draft.ProjectID, ""))
		if err != nil {
			return nil, fmt.Errorf("failed to assign order key: %w", err)
		}
		milestone.OrderKey = key

		s.data.Milestones = append(s.data.Milestones, milestone)
		if err := s.saveWithLock(); err != nil {
			s.data.Milestones = s.data.Milestones[:len(s.data.Milestones)-1]
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityMilestone, Op: types.OpCreated, ID: milestone.ID, ProjectID: draft.ProjectID, At: now}
		return milestone.ID, nil
	})
	if err != nil {
		return "", err
	}
	s.notify(change)
	return result.(string), nil
}

// ListMilestones returns a project's milestones in order-key order.
func (s *jsonStore) ListMilestones(projectID string) ([]types.Milestone, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		milestones := make([]types.Milestone, 0)
		for _, m := range s.data.Milestones {
			if projectID == "" || m.ProjectID == projectID {
				milestones = append(milestones, m)
			}
		}
		sort.Slice(milestones, func(i, j int) bool {
			if c := fracindex.Compare(milestones[i].OrderKey, milestones[j].OrderKey); c != 0 {
				return c < 0
			}
			return milestones[i].ID < milestones[j].ID
		})
		return milestones, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Milestone), nil
}

// UpdateMilestone modifies an existing milestone.
func (s *jsonStore) UpdateMilestone(id string, updates types.MilestoneUpdate) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findMilestone(id)
		if !ok {
			return fmt.Errorf("milestone %s: %w", id, ErrNotFound)
		}

		updated := s.data.Milestones[i]
		if updates.Name != nil {
			if strings.TrimSpace(*updates.Name) == "" {
				return errors.New("milestone name cannot be empty")
			}
			updated.Name = *updates.Name
		}
		if updates.DueAt != nil {
			v := *updates.DueAt
			updated.DueAt = &v
		}
		if updates.ClearDueAt {
			updated.DueAt = nil
		}

		now := s.timeFunc()
		updated.UpdatedAt = now
		original := s.data.Milestones[i]
		s.data.Milestones[i] = updated
		if err := s.saveWithLock(); err != nil {
			s.data.Milestones[i] = original
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityMilestone, Op: types.OpUpdated, ID: id, ProjectID: updated.ProjectID, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// MoveMilestone repositions a milestone within its project.
func (s *jsonStore) MoveMilestone(id string, move types.MoveRequest) (types.Milestone, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}
		if move.Status != nil {
			return nil, errors.New("milestone move does not take a status")
		}
		i, ok := s.findMilestone(id)
		if !ok {
			return nil, fmt.Errorf("milestone %s: %w", id, ErrNotFound)
		}

		updated := s.data.Milestones[i]
		entries := milestoneEntries(s.data.Milestones, updated.ProjectID, updated.ID)
		key, err := resolvePlacement(entries, move.AfterID, move.BeforeID)
		if err != nil {
			return nil, fmt.Errorf("failed to assign order key: %w", err)
		}
		now := s.timeFunc()
		updated.OrderKey = key
		updated.UpdatedAt = now

		original := s.data.Milestones[i]
		s.data.Milestones[i] = updated
		if err := s.saveWithLock(); err != nil {
			s.data.Milestones[i] = original
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityMilestone, Op: types.OpMoved, ID: id, ProjectID: updated.ProjectID, At: now}
		return updated, nil
	})
	if err != nil {
		return types.Milestone{}, err
	}
	s.notify(change)
	return result.(types.Milestone), nil
}

// DeleteMilestone removes a milestone, reassigning its tasks to
// reassignTo or detaching them when reassignTo is empty.
func (s *jsonStore) DeleteMilestone(id string, reassignTo string) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findMilestone(id)
		if !ok {
			return fmt.Errorf("milestone %s: %w", id, ErrNotFound)
		}
		projectID := s.data.Milestones[i].ProjectID

		if reassignTo != "" {
			if reassignTo == id {
				return errors.New("cannot reassign tasks to the milestone being deleted")
			}
			j, ok := s.findMilestone(reassignTo)
			if !ok {
				return fmt.Errorf("milestone %s: %w", reassignTo, ErrNotFound)
			}
			if s.data.Milestones[j].ProjectID != projectID {
				return fmt.Errorf("milestone %s belongs to another project", reassignTo)
			}
		}

		now := s.timeFunc()
		originalTasks := s.data.Tasks
		tasks := make([]types.Task, len(originalTasks))
		copy(tasks, originalTasks)
		for k := range tasks {
			if tasks[k].MilestoneID == id {
				tasks[k].MilestoneID = reassignTo
				tasks[k].UpdatedAt = now
			}
		}
		s.data.Tasks = tasks

		originalMilestones := s.data.Milestones
		s.data.Milestones = append(s.data.Milestones[:i:i], s.data.Milestones[i+1:]...)

		if err := s.saveWithLock(); err != nil {
			s.data.Tasks = originalTasks
			s.data.Milestones = originalMilestones
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityMilestone, Op: types.OpDeleted, ID: id, ProjectID: projectID, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// AddMember registers a new member.
func (s *jsonStore) AddMember(draft types.MemberDraft) (string, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if err := s.begin(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(draft.Name) == "" {
			return nil, errors.New("member name is required")
		}
		role := draft.Role
		if role == "" {
			role = types.RoleEditor
		}
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q", role)
		}
		if draft.Email != "" {
			for _, m := range s.data.Members {
				if strings.EqualFold(m.Email, draft.Email) {
					return nil, fmt.Errorf("member with email %s already exists", draft.Email)
				}
			}
		}

		now := s.timeFunc()
		member := types.Member{
			ID:        uuid.New().String(),
			Name:      draft.Name,
			Email:     draft.Email,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		}

		s.data.Members = append(s.data.Members, member)
		if err := s.saveWithLock(); err != nil {
			s.data.Members = s.data.Members[:len(s.data.Members)-1]
			return nil, fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityMember, Op: types.OpCreated, ID: member.ID, At: now}
		return member.ID, nil
	})
	if err != nil {
		return "", err
	}
	s.notify(change)
	return result.(string), nil
}

// ListMembers returns all members sorted by name.
func (s *jsonStore) ListMembers() ([]types.Member, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		members := make([]types.Member, len(s.data.Members))
		copy(members, s.data.Members)
		sort.Slice(members, func(i, j int) bool {
			a, b := strings.ToLower(members[i].Name), strings.ToLower(members[j].Name)
			if a != b {
				return a < b
			}
			return members[i].ID < members[j].ID
		})
		return members, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Member), nil
}

// UpdateMember modifies an existing member.
func (s *jsonStore) UpdateMember(id string, updates types.MemberUpdate) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findMember(id)
		if !ok {
			return fmt.Errorf("member %s: %w", id, ErrNotFound)
		}

		updated := s.data.Members[i]
		if updates.Name != nil {
			if strings.TrimSpace(*updates.Name) == "" {
				return errors.New("member name cannot be empty")
			}
			updated.Name = *updates.Name
		}
		if updates.Email != nil {
			if *updates.Email != "" {
				for j, m := range s.data.Members {
					if j != i && strings.EqualFold(m.Email, *updates.Email) {
						return fmt.Errorf("member with email %s already exists", *updates.Email)
					}
				}
			}
			updated.Email = *updates.Email
		}
		if updates.Role != nil {
			if !updates.Role.Valid() {
				return fmt.Errorf("unknown role %q", *updates.Role)
			}
			updated.Role = *updates.Role
		}

		now := s.timeFunc()
		updated.UpdatedAt = now
		original := s.data.Members[i]
		s.data.Members[i] = updated
		if err := s.saveWithLock(); err != nil {
			s.data.Members[i] = original
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityMember, Op: types.OpUpdated, ID: id, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// RemoveMember deletes a member and clears their task assignments and
// project ownerships.
func (s *jsonStore) RemoveMember(id string) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		i, ok := s.findMember(id)
		if !ok {
			return fmt.Errorf("member %s: %w", id, ErrNotFound)
		}

		now := s.timeFunc()
		originalTasks := s.data.Tasks
		tasks := make([]types.Task, len(originalTasks))
		copy(tasks, originalTasks)
		for k := range tasks {
			if tasks[k].AssigneeID == id {
				tasks[k].AssigneeID = ""
				tasks[k].UpdatedAt = now
			}
		}
		s.data.Tasks = tasks

		originalProjects := s.data.Projects
		projects := make([]types.Project, len(originalProjects))
		copy(projects, originalProjects)
		for k := range projects {
			if projects[k].OwnerID == id {
				projects[k].OwnerID = ""
				projects[k].UpdatedAt = now
			}
		}
		s.data.Projects = projects

		originalMembers := s.data.Members
		s.data.Members = append(s.data.Members[:i:i], s.data.Members[i+1:]...)

		if err := s.saveWithLock(); err != nil {
			s.data.Tasks = originalTasks
			s.data.Projects = originalProjects
			s.data.Members = originalMembers
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityMember, Op: types.OpDeleted, ID: id, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// Snapshot returns a deep copy of the whole board.
func (s *jsonStore) Snapshot() (*storage.BoardData, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		return s.data.Clone(), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*storage.BoardData), nil
}

// Restore replaces the board's contents with data. The previous contents
// come back if the save fails.
func (s *jsonStore) Restore(data *storage.BoardData) error {
	if data.Metadata.Version != "" && data.Metadata.Version != storage.FormatVersion {
		return fmt.Errorf("unsupported board format version %q", data.Metadata.Version)
	}
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if err := s.begin(); err != nil {
			return err
		}
		now := s.timeFunc()
		incoming := data.Clone()
		if incoming.Metadata.CreatedAt.IsZero() {
			incoming.Metadata.CreatedAt = now
		}

		prev := s.data
		s.data = incoming
		if err := s.saveWithLock(); err != nil {
			s.data = prev
			return fmt.Errorf("failed to save: %w", err)
		}

		change = types.Change{Entity: types.EntityBoard, Op: types.OpUpdated, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// Close releases the store. Closing twice is a no-op.
func (s *jsonStore) Close() error {
	return s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return nil
		}
		s.closed = true
		// Data is saved on each operation; just clean up the lock file.
		_ = s.fs.Remove(s.path + ".lock")
		return nil
	})
}

// jsonRefs adapts the in-memory board to the boardRefs lookups the
// shared update path needs. Callers must hold a lock.
type jsonRefs struct {
	s *jsonStore
}

func (r jsonRefs) projectExists(id string) (bool, error) {
	_, ok := r.s.findProject(id)
	return ok, nil
}

func (r jsonRefs) memberExists(id string) (bool, error) {
	_, ok := r.s.findMember(id)
	return ok, nil
}

func (r jsonRefs) milestoneProjectID(id string) (string, error) {
	i, ok := r.s.findMilestone(id)
	if !ok {
		return "", fmt.Errorf("milestone %s: %w", id, ErrNotFound)
	}
	return r.s.data.Milestones[i].ProjectID, nil
}

func (r jsonRefs) taskParent(id string) (string, string, error) {
	i, ok := r.s.findTask(id)
	if !ok {
		return "", "", ErrNotFound
	}
	return r.s.data.Tasks[i].ProjectID, r.s.data.Tasks[i].ParentID, nil
}

// assignAppendKey gives t a key at the end of its (project, status)
// column within tasks.
func assignAppendKey(tasks []types.Task, t *types.Task) error {
	key, err := appendKey(taskEntries(tasks, t.ProjectID, t.Status, t.ID))
	if err != nil {
		return fmt.Errorf("failed to assign order key: %w", err)
	}
	t.OrderKey = key
	return nil
}

// descendantTasks returns the IDs of every task below rootID in the
// parent hierarchy, breadth first.
func descendantTasks(tasks []types.Task, rootID string) []string {
	var out []string
	seen := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, t := range tasks {
			if t.ParentID != id {
				continue
			}
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t.ID)
			queue = append(queue, t.ID)
		}
	}
	return out
}
