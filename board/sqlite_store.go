package board

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawrns/foco/query"
	"github.com/lawrns/foco/storage"
	"github.com/lawrns/foco/types"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - initial schema
const schemaVersion = 1

// sqliteStore implements the Store interface on SQLite. WAL mode with a
// single pooled connection keeps writers serialized at the database, and
// the lock manager guards the store's own state the same way the JSON
// backend's does. The UNIQUE(project_id, status, order_key) constraint
// backs the retry-on-conflict key assignment.
type sqliteStore struct {
	db          *sql.DB
	path        string
	lockManager *storage.LockManager
	notifier    Notifier
	logger      *slog.Logger
	timeFunc    func() time.Time
	closed      bool
}

func newSQLiteStore(path string, cfg config) (*sqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY surprises inside transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db, cfg.logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &sqliteStore{
		db:          db,
		path:        path,
		lockManager: storage.NewLockManager(),
		notifier:    cfg.notifier,
		logger:      cfg.logger,
		timeFunc:    cfg.timeFunc,
	}, nil
}

// applyPragmas sets required SQLite configuration: WAL for concurrent
// reads during writes, NORMAL synchronous mode, a busy timeout for lock
// contention, and foreign key enforcement.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs incremental
// migrations based on PRAGMA user_version. Idempotent.
func applySchema(db *sql.DB, logger *slog.Logger) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < schemaVersion {
		if version > 0 {
			logger.Info("migrating board schema", "from", version, "to", schemaVersion)
		}
		// No incremental migrations yet; the base schema covers version 1.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// SetTimeFunc sets a custom time function for deterministic timestamps in
// tests.
func (s *sqliteStore) SetTimeFunc(fn func() time.Time) {
	_ = s.lockManager.Execute(storage.WriteOperation, func() error {
		s.timeFunc = fn
		return nil
	})
}

// notify mirrors the JSON backend: deliver after locks are released, skip
// the zero change.
func (s *sqliteStore) notify(changes ...types.Change) {
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

// withTx runs fn inside a transaction, rolling back on error.
func (s *sqliteStore) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// dbtx is the querying surface shared by *sql.DB and *sql.Tx.
type dbtx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func existsRow(q dbtx, queryStr string, args ...interface{}) (bool, error) {
	var one int
	err := q.QueryRow(queryStr, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func sqlPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Times are stored as RFC3339Nano TEXT so lexicographic comparison in SQL
// lines up with chronological order.

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	return t, nil
}

func encodeTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("failed to marshal labels: %w", err)
	}
	return string(raw), nil
}

func decodeLabels(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(s), &labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, nil
	}
	return labels, nil
}

func encodeAttachments(attachments []types.Attachment) (string, error) {
	if attachments == nil {
		attachments = []types.Attachment{}
	}
	raw, err := json.Marshal(attachments)
	if err != nil {
		return "", fmt.Errorf("failed to marshal attachments: %w", err)
	}
	return string(raw), nil
}

func decodeAttachments(s string) ([]types.Attachment, error) {
	if s == "" {
		return nil, nil
	}
	var attachments []types.Attachment
	if err := json.Unmarshal([]byte(s), &attachments); err != nil {
		return nil, fmt.Errorf("failed to parse attachments: %w", err)
	}
	if len(attachments) == 0 {
		return nil, nil
	}
	return attachments, nil
}

const taskCols = `id, project_id, milestone_id, parent_id, title, body, status, priority,
	assignee_id, labels, estimate, start_at, due_at, done_at, order_key, attachments,
	created_at, updated_at`

func scanTask(row rowScanner) (types.Task, error) {
	var t types.Task
	var labels, attachments, createdAt, updatedAt string
	var startAt, dueAt, doneAt sql.NullString
	err := row.Scan(&t.ID, &t.ProjectID, &t.MilestoneID, &t.ParentID, &t.Title, &t.Body,
		&t.Status, &t.Priority, &t.AssigneeID, &labels, &t.Estimate,
		&startAt, &dueAt, &doneAt, &t.OrderKey, &attachments, &createdAt, &updatedAt)
	if err != nil {
		return types.Task{}, err
	}
	if t.Labels, err = decodeLabels(labels); err != nil {
		return types.Task{}, err
	}
	if t.Attachments, err = decodeAttachments(attachments); err != nil {
		return types.Task{}, err
	}
	if t.StartAt, err = decodeTimePtr(startAt); err != nil {
		return types.Task{}, err
	}
	if t.DueAt, err = decodeTimePtr(dueAt); err != nil {
		return types.Task{}, err
	}
	if t.DoneAt, err = decodeTimePtr(doneAt); err != nil {
		return types.Task{}, err
	}
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return types.Task{}, err
	}
	if t.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return types.Task{}, err
	}
	return t, nil
}

func insertTask(q dbtx, t types.Task) error {
	labels, err := encodeLabels(t.Labels)
	if err != nil {
		return err
	}
	attachments, err := encodeAttachments(t.Attachments)
	if err != nil {
		return err
	}
	_, err = q.Exec(`INSERT INTO tasks (`+taskCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ProjectID, t.MilestoneID, t.ParentID, t.Title, t.Body,
		t.Status, t.Priority, t.AssigneeID, labels, t.Estimate,
		encodeTimePtr(t.StartAt), encodeTimePtr(t.DueAt), encodeTimePtr(t.DoneAt),
		t.OrderKey, attachments, encodeTime(t.CreatedAt), encodeTime(t.UpdatedAt))
	return err
}

func updateTaskRow(q dbtx, t types.Task) error {
	labels, err := encodeLabels(t.Labels)
	if err != nil {
		return err
	}
	attachments, err := encodeAttachments(t.Attachments)
	if err != nil {
		return err
	}
	_, err = q.Exec(`UPDATE tasks SET project_id = ?, milestone_id = ?, parent_id = ?, title = ?,
		body = ?, status = ?, priority = ?, assignee_id = ?, labels = ?, estimate = ?,
		start_at = ?, due_at = ?, done_at = ?, order_key = ?, attachments = ?, updated_at = ?
		WHERE id = ?`,
		t.ProjectID, t.MilestoneID, t.ParentID, t.Title, t.Body,
		t.Status, t.Priority, t.AssigneeID, labels, t.Estimate,
		encodeTimePtr(t.StartAt), encodeTimePtr(t.DueAt), encodeTimePtr(t.DoneAt),
		t.OrderKey, attachments, encodeTime(t.UpdatedAt), t.ID)
	return err
}

func fetchTask(q dbtx, id string) (types.Task, error) {
	t, err := scanTask(q.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Task{}, fmt.Errorf("failed to read task: %w", err)
	}
	return t, nil
}

func collectTasks(rows *sql.Rows, err error) ([]types.Task, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var tasks []types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// columnEntries reads one (project, status) column's IDs and keys in key
// order, excluding selfID. The TEXT collation matches fracindex ordering.
func columnEntries(q dbtx, projectID string, status types.Status, selfID string) ([]entry, error) {
	rows, err := q.Query(`SELECT id, order_key FROM tasks
		WHERE project_id = ? AND status = ? AND id != ?
		ORDER BY order_key`, projectID, status, selfID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.key); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func milestoneColumnEntries(q dbtx, projectID, selfID string) ([]entry, error) {
	rows, err := q.Query(`SELECT id, order_key FROM milestones
		WHERE project_id = ? AND id != ?
		ORDER BY order_key`, projectID, selfID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.key); err != nil {
			return nil, fmt.Errorf("failed to scan milestones: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// insertTaskWithKey assigns t an order key and inserts it, retrying with
// fresh neighbors when the key collides.
func insertTaskWithKey(tx *sql.Tx, t *types.Task, keyFn func([]entry) (string, error)) error {
	for attempt := 0; ; attempt++ {
		entries, err := columnEntries(tx, t.ProjectID, t.Status, t.ID)
		if err != nil {
			return err
		}
		key, err := keyFn(entries)
		if err != nil {
			return fmt.Errorf("failed to assign order key: %w", err)
		}
		t.OrderKey = key

		err = insertTask(tx, *t)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("failed to insert task: %w", err)
		}
		if attempt >= orderRetries {
			return fmt.Errorf("%w: task %s", ErrOrderConflict, t.ID)
		}
	}
}

// rekeyTaskWithKey is the update-side counterpart of insertTaskWithKey.
func rekeyTaskWithKey(tx *sql.Tx, t *types.Task, keyFn func([]entry) (string, error)) error {
	for attempt := 0; ; attempt++ {
		entries, err := columnEntries(tx, t.ProjectID, t.Status, t.ID)
		if err != nil {
			return err
		}
		key, err := keyFn(entries)
		if err != nil {
			return fmt.Errorf("failed to assign order key: %w", err)
		}
		t.OrderKey = key

		err = updateTaskRow(tx, *t)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if attempt >= orderRetries {
			return fmt.Errorf("%w: task %s", ErrOrderConflict, t.ID)
		}
	}
}

const projectCols = `id, name, description, color, owner_id, archived, created_at, updated_at`

func scanProject(row rowScanner) (types.Project, error) {
	var p types.Project
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.OwnerID, &p.Archived, &createdAt, &updatedAt)
	if err != nil {
		return types.Project{}, err
	}
	if p.CreatedAt, err = decodeTime(createdAt); err != nil {
		return types.Project{}, err
	}
	if p.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return types.Project{}, err
	}
	return p, nil
}

func fetchProject(q dbtx, id string) (types.Project, error) {
	p, err := scanProject(q.QueryRow(`SELECT `+projectCols+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Project{}, fmt.Errorf("failed to read project: %w", err)
	}
	return p, nil
}

func insertProject(q dbtx, p types.Project) error {
	_, err := q.Exec(`INSERT INTO projects (`+projectCols+`) VALUES (?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Description, p.Color, p.OwnerID, p.Archived,
		encodeTime(p.CreatedAt), encodeTime(p.UpdatedAt))
	return err
}

func collectProjects(rows *sql.Rows, err error) ([]types.Project, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var projects []types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

const milestoneCols = `id, project_id, name, due_at, order_key, created_at, updated_at`

func scanMilestone(row rowScanner) (types.Milestone, error) {
	var m types.Milestone
	var createdAt, updatedAt string
	var dueAt sql.NullString
	err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &dueAt, &m.OrderKey, &createdAt, &updatedAt)
	if err != nil {
		return types.Milestone{}, err
	}
	if m.DueAt, err = decodeTimePtr(dueAt); err != nil {
		return types.Milestone{}, err
	}
	if m.CreatedAt, err = decodeTime(createdAt); err != nil {
		return types.Milestone{}, err
	}
	if m.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return types.Milestone{}, err
	}
	return m, nil
}

func fetchMilestone(q dbtx, id string) (types.Milestone, error) {
	m, err := scanMilestone(q.QueryRow(`SELECT `+milestoneCols+` FROM milestones WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Milestone{}, fmt.Errorf("milestone %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Milestone{}, fmt.Errorf("failed to read milestone: %w", err)
	}
	return m, nil
}

func insertMilestone(q dbtx, m types.Milestone) error {
	_, err := q.Exec(`INSERT INTO milestones (`+milestoneCols+`) VALUES (?,?,?,?,?,?,?)`,
		m.ID, m.ProjectID, m.Name, encodeTimePtr(m.DueAt), m.OrderKey,
		encodeTime(m.CreatedAt), encodeTime(m.UpdatedAt))
	return err
}

func collectMilestones(rows *sql.Rows, err error) ([]types.Milestone, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var milestones []types.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

const memberCols = `id, name, email, role, created_at, updated_at`

func scanMember(row rowScanner) (types.Member, error) {
	var m types.Member
	var createdAt, updatedAt string
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &createdAt, &updatedAt)
	if err != nil {
		return types.Member{}, err
	}
	if m.CreatedAt, err = decodeTime(createdAt); err != nil {
		return types.Member{}, err
	}
	if m.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return types.Member{}, err
	}
	return m, nil
}

func fetchMember(q dbtx, id string) (types.Member, error) {
	m, err := scanMember(q.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Member{}, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Member{}, fmt.Errorf("failed to read member: %w", err)
	}
	return m, nil
}

func insertMember(q dbtx, m types.Member) error {
	_, err := q.Exec(`INSERT INTO members (`+memberCols+`) VALUES (?,?,?,?,?,?)`,
		m.ID, m.Name, m.Email, m.Role, encodeTime(m.CreatedAt), encodeTime(m.UpdatedAt))
	return err
}

func collectMembers(rows *sql.Rows, err error) ([]types.Member, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var members []types.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// txRefs implements boardRefs with lookups inside a transaction.
type txRefs struct {
	tx *sql.Tx
}

func (r txRefs) projectExists(id string) (bool, error) {
	return existsRow(r.tx, `SELECT 1 FROM projects WHERE id = ?`, id)
}

func (r txRefs) memberExists(id string) (bool, error) {
	return existsRow(r.tx, `SELECT 1 FROM members WHERE id = ?`, id)
}

func (r txRefs) milestoneProjectID(id string) (string, error) {
	var projectID string
	err := r.tx.QueryRow(`SELECT project_id FROM milestones WHERE id = ?`, id).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("milestone %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read milestone: %w", err)
	}
	return projectID, nil
}

func (r txRefs) taskParent(id string) (string, string, error) {
	var projectID, parentID string
	err := r.tx.QueryRow(`SELECT project_id, parent_id FROM tasks WHERE id = ?`, id).Scan(&projectID, &parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read task: %w", err)
	}
	return projectID, parentID, nil
}

// AddProject creates a new project.
func (s *sqliteStore) AddProject(draft types.ProjectDraft) (string, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		if strings.TrimSpace(draft.Name) == "" {
			return nil, errors.New("project name is required")
		}

		now := s.timeFunc()
		id := uuid.New().String()
		err := s.withTx(func(tx *sql.Tx) error {
			if draft.OwnerID != "" {
				ok, err := txRefs{tx}.memberExists(draft.OwnerID)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("owner %s: %w", draft.OwnerID, ErrNotFound)
				}
			}
			p := types.Project{
				ID:          id,
				Name:        draft.Name,
				Description: draft.Description,
				Color:       draft.Color,
				OwnerID:     draft.OwnerID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := insertProject(tx, p); err != nil {
				return fmt.Errorf("failed to insert project: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		change = types.Change{Entity: types.EntityProject, Op: types.OpCreated, ID: id, ProjectID: id, At: now}
		return id, nil
	})
	if err != nil {
		return "", err
	}
	s.notify(change)
	return result.(string), nil
}

// GetProject retrieves a single project by UUID.
func (s *sqliteStore) GetProject(id string) (types.Project, error) {
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		return fetchProject(s.db, id)
	})
	if err != nil {
		return types.Project{}, err
	}
	return result.(types.Project), nil
}

// ListProjects returns projects sorted by name.
func (s *sqliteStore) ListProjects(includeArchived bool) ([]types.Project, error) {
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		queryStr := `SELECT ` + projectCols + ` FROM projects`
		if !includeArchived {
			queryStr += ` WHERE archived = 0`
		}
		queryStr += ` ORDER BY lower(name), id`

		rows, err := s.db.Query(queryStr)
		if err != nil {
			return nil, fmt.Errorf("failed to query projects: %w", err)
		}
		defer func() { _ = rows.Close() }()

		projects := make([]types.Project, 0)
		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to scan project: %w", err)
			}
			projects = append(projects, p)
		}
		return projects, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Project), nil
}

// UpdateProject modifies an existing project.
func (s *sqliteStore) UpdateProject(id string, updates types.ProjectUpdate) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		now := s.timeFunc()
		err := s.withTx(func(tx *sql.Tx) error {
			p, err := fetchProject(tx, id)
			if err != nil {
				return err
			}
			if updates.Name != nil {
				if strings.TrimSpace(*updates.Name) == "" {
					return errors.New("project name cannot be empty")
				}
				p.Name = *updates.Name
			}
			if updates.Description != nil {
				p.Description = *updates.Description
			}
			if updates.Color != nil {
				p.Color = *updates.Color
			}
			if updates.OwnerID != nil {
				if *updates.OwnerID != "" {
					ok, err := txRefs{tx}.memberExists(*updates.OwnerID)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("owner %s: %w", *updates.OwnerID, ErrNotFound)
					}
				}
				p.OwnerID = *updates.OwnerID
			}
			if updates.Archived != nil {
				p.Archived = *updates.Archived
			}

			_, err = tx.Exec(`UPDATE projects SET name = ?, description = ?, color = ?,
				owner_id = ?, archived = ?, updated_at = ? WHERE id = ?`,
				p.Name, p.Description, p.Color, p.OwnerID, p.Archived, encodeTime(now), id)
			if err != nil {
				return fmt.Errorf("failed to update project: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
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

// DeleteProject removes a project. The schema cascades tasks and
// milestones; without cascade a non-empty project is rejected first.
func (s *sqliteStore) DeleteProject(id string, cascade bool) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		err := s.withTx(func(tx *sql.Tx) error {
			ok, err := txRefs{tx}.projectExists(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("project %s: %w", id, ErrNotFound)
			}
			if !cascade {
				hasTasks, err := existsRow(tx, `SELECT 1 FROM tasks WHERE project_id = ?`, id)
				if err != nil {
					return err
				}
				hasMilestones, err := existsRow(tx, `SELECT 1 FROM milestones WHERE project_id = ?`, id)
				if err != nil {
					return err
				}
				if hasTasks || hasMilestones {
					return fmt.Errorf("project %s: %w", id, ErrHasChildren)
				}
			}
			if _, err := tx.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete project: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
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
func (s *sqliteStore) AddTask(draft types.TaskDraft) (string, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		now := s.timeFunc()
		var task types.Task
		err := s.withTx(func(tx *sql.Tx) error {
			t, err := draftTask(txRefs{tx}, draft, now)
			if err != nil {
				return err
			}
			task = t

			keyFn := appendKey
			if draft.Placement != nil {
				after, before := draft.Placement.AfterID, draft.Placement.BeforeID
				keyFn = func(entries []entry) (string, error) {
					return resolvePlacement(entries, after, before)
				}
			}
			return insertTaskWithKey(tx, &task, keyFn)
		})
		if err != nil {
			return nil, err
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

// AddTasks creates a batch of tasks in one transaction, appending each to
// the end of its target column in slice order. The batch is atomic: one
// bad draft rolls back the whole call.
func (s *sqliteStore) AddTasks(drafts []types.TaskDraft) ([]string, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	var changes []types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		now := s.timeFunc()
		ids := make([]string, 0, len(drafts))
		err := s.withTx(func(tx *sql.Tx) error {
			refs := txRefs{tx}
			for i, draft := range drafts {
				if draft.Placement != nil {
					return fmt.Errorf("draft %d: batch adds always append, placement is not supported", i)
				}
				task, err := draftTask(refs, draft, now)
				if err != nil {
					return fmt.Errorf("draft %d: %w", i, err)
				}
				// Each insert sees the batch's earlier rows through the
				// transaction, so appending per draft keeps slice order.
				if err := insertTaskWithKey(tx, &task, appendKey); err != nil {
					return fmt.Errorf("draft %d: %w", i, err)
				}
				ids = append(ids, task.ID)
				changes = append(changes, types.Change{Entity: types.EntityTask, Op: types.OpCreated, ID: task.ID, ProjectID: task.ProjectID, At: now})
			}
			return nil
		})
		if err != nil {
			changes = nil
			return nil, err
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
func (s *sqliteStore) GetTask(id string) (types.Task, error) {
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		return fetchTask(s.db, id)
	})
	if err != nil {
		return types.Task{}, err
	}
	return result.(types.Task), nil
}

// ListTasks returns tasks matching the options. A project filter narrows
// the scan in SQL; the query package applies the rest so both backends
// share one set of filter semantics.
func (s *sqliteStore) ListTasks(opts types.ListOptions) ([]types.Task, error) {
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		var (
			tasks []types.Task
			err   error
		)
		if opts.Filter.ProjectID != "" {
			tasks, err = collectTasks(s.db.Query(`SELECT `+taskCols+` FROM tasks WHERE project_id = ?`, opts.Filter.ProjectID))
		} else {
			tasks, err = collectTasks(s.db.Query(`SELECT ` + taskCols + ` FROM tasks`))
		}
		if err != nil {
			return nil, err
		}
		return query.Apply(tasks, opts, s.timeFunc())
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Task), nil
}

// UpdateTask modifies an existing task. A status change re-keys the task
// onto the end of the target column.
func (s *sqliteStore) UpdateTask(id string, updates types.TaskUpdate) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		now := s.timeFunc()
		var statusChanged bool
		var projectID string
		err := s.withTx(func(tx *sql.Tx) error {
			t, err := fetchTask(tx, id)
			if err != nil {
				return err
			}
			statusChanged, err = applyTaskUpdate(txRefs{tx}, &t, updates, now)
			if err != nil {
				return err
			}
			projectID = t.ProjectID
			if statusChanged {
				return rekeyTaskWithKey(tx, &t, appendKey)
			}
			if err := updateTaskRow(tx, t); err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		op := types.OpUpdated
		if statusChanged {
			op = types.OpMoved
		}
		change = types.Change{Entity: types.EntityTask, Op: op, ID: id, ProjectID: projectID, At: now}
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
func (s *sqliteStore) MoveTask(id string, move types.MoveRequest) (types.Task, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		now := s.timeFunc()
		var moved types.Task
		err := s.withTx(func(tx *sql.Tx) error {
			t, err := fetchTask(tx, id)
			if err != nil {
				return err
			}
			target := t.Status
			if move.Status != nil {
				target = *move.Status
				if !target.Valid() {
					return fmt.Errorf("unknown status %q", target)
				}
			}
			if target != t.Status {
				applyStatusChange(&t, target, now)
			}
			t.UpdatedAt = now

			err = rekeyTaskWithKey(tx, &t, func(entries []entry) (string, error) {
				return resolvePlacement(entries, move.AfterID, move.BeforeID)
			})
			if err != nil {
				return err
			}
			moved = t
			return nil
		})
		if err != nil {
			return nil, err
		}

		change = types.Change{Entity: types.EntityTask, Op: types.OpMoved, ID: id, ProjectID: moved.ProjectID, At: now}
		return moved, nil
	})
	if err != nil {
		return types.Task{}, err
	}
	s.notify(change)
	return result.(types.Task), nil
}

// CompleteTask moves a task to done and stamps DoneAt. Completing an
// already-done task is a no-op.
func (s *sqliteStore) CompleteTask(id string) error {
	return s.shiftTask(id, types.StatusDone, func(t types.Task) (bool, error) {
		return t.Status != types.StatusDone, nil
	})
}

// ReopenTask returns a done or cancelled task to todo and clears DoneAt.
func (s *sqliteStore) ReopenTask(id string) error {
	return s.shiftTask(id, types.StatusTodo, func(t types.Task) (bool, error) {
		if !t.Status.Terminal() {
			return false, fmt.Errorf("task %s is not in a terminal status", id)
		}
		return true, nil
	})
}

// shiftTask moves a task to a fixed target column when admit allows it,
// appending to the column end. admit returning false skips the write.
func (s *sqliteStore) shiftTask(id string, target types.Status, admit func(types.Task) (bool, error)) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		now := s.timeFunc()
		var projectID string
		var written bool
		err := s.withTx(func(tx *sql.Tx) error {
			t, err := fetchTask(tx, id)
			if err != nil {
				return err
			}
			ok, err := admit(t)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			applyStatusChange(&t, target, now)
			t.UpdatedAt = now
			if err := rekeyTaskWithKey(tx, &t, appendKey); err != nil {
				return err
			}
			projectID = t.ProjectID
			written = true
			return nil
		})
		if err != nil {
			return err
		}
		if written {
			change = types.Change{Entity: types.EntityTask, Op: types.OpMoved, ID: id, ProjectID: projectID, At: now}
		}
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
func (s *sqliteStore) DeleteTask(id string, cascade bool) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		err := s.withTx(func(tx *sql.Tx) error {
			t, err := fetchTask(tx, id)
			if err != nil {
				return err
			}
			siblings, err := collectTasks(tx.Query(`SELECT `+taskCols+` FROM tasks WHERE project_id = ?`, t.ProjectID))
			if err != nil {
				return err
			}
			children := descendantTasks(siblings, id)
			if len(children) > 0 && !cascade {
				return fmt.Errorf("task %s: %w", id, ErrHasChildren)
			}

			doomed := append([]string{id}, children...)
			_, err = tx.Exec(`DELETE FROM tasks WHERE id IN (`+sqlPlaceholders(len(doomed))+`)`, stringArgs(doomed)...)
			if err != nil {
				return fmt.Errorf("failed to delete tasks: %w", err)
			}
			change = types.Change{Entity: types.EntityTask, Op: types.OpDeleted, ID: id, ProjectID: t.ProjectID, At: s.timeFunc()}
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// UpdateTasks applies one update to every task matching the filter.
func (s *sqliteStore) UpdateTasks(filter types.TaskFilter, updates types.TaskUpdate) (int, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		now := s.timeFunc()
		count := 0
		err := s.withTx(func(tx *sql.Tx) error {
			tasks, err := s.tasksForFilter(tx, filter)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				if !query.Match(t, filter, now) {
					continue
				}
				statusChanged, err := applyTaskUpdate(txRefs{tx}, &t, updates, now)
				if err != nil {
					return err
				}
				if statusChanged {
					if err := rekeyTaskWithKey(tx, &t, appendKey); err != nil {
						return err
					}
				} else if err := updateTaskRow(tx, t); err != nil {
					return fmt.Errorf("failed to update task: %w", err)
				}
				count++
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if count > 0 {
			change = types.Change{Entity: types.EntityBoard, Op: types.OpUpdated, At: now}
		}
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
func (s *sqliteStore) DeleteTasks(filter types.TaskFilter) (int, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		now := s.timeFunc()
		removed := 0
		err := s.withTx(func(tx *sql.Tx) error {
			all, err := collectTasks(tx.Query(`SELECT ` + taskCols + ` FROM tasks`))
			if err != nil {
				return err
			}
			doomed := map[string]struct{}{}
			for _, t := range all {
				if !query.Match(t, filter, now) {
					continue
				}
				doomed[t.ID] = struct{}{}
				for _, child := range descendantTasks(all, t.ID) {
					doomed[child] = struct{}{}
				}
			}
			if len(doomed) == 0 {
				return nil
			}

			ids := make([]string, 0, len(doomed))
			for id := range doomed {
				ids = append(ids, id)
			}
			_, err = tx.Exec(`DELETE FROM tasks WHERE id IN (`+sqlPlaceholders(len(ids))+`)`, stringArgs(ids)...)
			if err != nil {
				return fmt.Errorf("failed to delete tasks: %w", err)
			}
			removed = len(ids)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if removed > 0 {
			change = types.Change{Entity: types.EntityBoard, Op: types.OpDeleted, At: now}
		}
		return removed, nil
	})
	if err != nil {
		return 0, err
	}
	s.notify(change)
	return result.(int), nil
}

// tasksForFilter narrows the scan by project when the filter names one.
func (s *sqliteStore) tasksForFilter(tx *sql.Tx, filter types.TaskFilter) ([]types.Task, error) {
	if filter.ProjectID != "" {
		return collectTasks(tx.Query(`SELECT `+taskCols+` FROM tasks WHERE project_id = ?`, filter.ProjectID))
	}
	return collectTasks(tx.Query(`SELECT ` + taskCols + ` FROM tasks`))
}

func stringArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// AddMilestone creates a milestone at the end of the project's order.
func (s *sqliteStore) AddMilestone(draft types.MilestoneDraft) (string, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		if strings.TrimSpace(draft.Name) == "" {
			return nil, errors.New("milestone name is required")
		}
		if draft.ProjectID == "" {
			return nil, errors.New("milestone project is required")
		}

		now := s.timeFunc()
		id := uuid.New().String()
		err := s.withTx(func(tx *sql.Tx) error {
			ok, err := txRefs{tx}.projectExists(draft.ProjectID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("project %s: %w", draft.ProjectID, ErrNotFound)
			}

			for attempt := 0; ; attempt++ {
				entries, err := milestoneColumnEntries(tx, draft.ProjectID, "")
				if err != nil {
					return err
				}
				key, err := appendKey(entries)
				if err != nil {
					return fmt.Errorf("failed to assign order key: %w", err)
				}
				err = insertMilestone(tx, types.Milestone{
					ID:        id,
					ProjectID: draft.ProjectID,
					Name:      draft.Name,
					DueAt:     draft.DueAt,
					OrderKey:  key,
					CreatedAt: now,
					UpdatedAt: now,
				})
				if err == nil {
					return nil
				}
				if !isUniqueViolation(err) {
					return fmt.Errorf("failed to insert milestone: %w", err)
				}
				if attempt >= orderRetries {
					return fmt.Errorf("%w: milestone %s", ErrOrderConflict, id)
				}
			}
		})
		if err != nil {
			return nil, err
		}

		change = types.Change{Entity: types.EntityMilestone, Op: types.OpCreated, ID: id, ProjectID: draft.ProjectID, At: now}
		return id, nil
	})
	if err != nil {
		return "", err
	}
	s.notify(change)
	return result.(string), nil
}

// ListMilestones returns a project's milestones in order-key order.
func (s *sqliteStore) ListMilestones(projectID string) ([]types.Milestone, error) {
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		var rows *sql.Rows
		var err error
		if projectID != "" {
			rows, err = s.db.Query(`SELECT `+milestoneCols+` FROM milestones WHERE project_id = ? ORDER BY order_key, id`, projectID)
		} else {
			rows, err = s.db.Query(`SELECT ` + milestoneCols + ` FROM milestones ORDER BY order_key, id`)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query milestones: %w", err)
		}
		defer func() { _ = rows.Close() }()

		milestones := make([]types.Milestone, 0)
		for rows.Next() {
			m, err := scanMilestone(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to scan milestone: %w", err)
			}
			milestones = append(milestones, m)
		}
		return milestones, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Milestone), nil
}

// UpdateMilestone modifies an existing milestone.
func (s *sqliteStore) UpdateMilestone(id string, updates types.MilestoneUpdate) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		now := s.timeFunc()
		var projectID string
		err := s.withTx(func(tx *sql.Tx) error {
			m, err := fetchMilestone(tx, id)
			if err != nil {
				return err
			}
			if updates.Name != nil {
				if strings.TrimSpace(*updates.Name) == "" {
					return errors.New("milestone name cannot be empty")
				}
				m.Name = *updates.Name
			}
			if updates.DueAt != nil {
				v := *updates.DueAt
				m.DueAt = &v
			}
			if updates.ClearDueAt {
				m.DueAt = nil
			}
			projectID = m.ProjectID

			_, err = tx.Exec(`UPDATE milestones SET name = ?, due_at = ?, updated_at = ? WHERE id = ?`,
				m.Name, encodeTimePtr(m.DueAt), encodeTime(now), id)
			if err != nil {
				return fmt.Errorf("failed to update milestone: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		change = types.Change{Entity: types.EntityMilestone, Op: types.OpUpdated, ID: id, ProjectID: projectID, At: now}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(change)
	return nil
}

// MoveMilestone repositions a milestone within its project.
func (s *sqliteStore) MoveMilestone(id string, move types.MoveRequest) (types.Milestone, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		if move.Status != nil {
			return nil, errors.New("milestone move does not take a status")
		}
		now := s.timeFunc()
		var moved types.Milestone
		err := s.withTx(func(tx *sql.Tx) error {
			m, err := fetchMilestone(tx, id)
			if err != nil {
				return err
			}
			for attempt := 0; ; attempt++ {
				entries, err := milestoneColumnEntries(tx, m.ProjectID, m.ID)
				if err != nil {
					return err
				}
				key, err := resolvePlacement(entries, move.AfterID, move.BeforeID)
				if err != nil {
					return fmt.Errorf("failed to assign order key: %w", err)
				}
				m.OrderKey = key
				_, err = tx.Exec(`UPDATE milestones SET order_key = ?, updated_at = ? WHERE id = ?`,
					key, encodeTime(now), id)
				if err == nil {
					break
				}
				if !isUniqueViolation(err) {
					return fmt.Errorf("failed to update milestone: %w", err)
				}
				if attempt >= orderRetries {
					return fmt.Errorf("%w: milestone %s", ErrOrderConflict, id)
				}
			}
			m.UpdatedAt = now
			moved = m
			return nil
		})
		if err != nil {
			return nil, err
		}

		change = types.Change{Entity: types.EntityMilestone, Op: types.OpMoved, ID: id, ProjectID: moved.ProjectID, At: now}
		return moved, nil
	})
	if err != nil {
		return types.Milestone{}, err
	}
	s.notify(change)
	return result.(types.Milestone), nil
}

// DeleteMilestone removes a milestone, reassigning its tasks to
// reassignTo or detaching them when reassignTo is empty.
func (s *sqliteStore) DeleteMilestone(id string, reassignTo string) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		now := s.timeFunc()
		var projectID string
		err := s.withTx(func(tx *sql.Tx) error {
			m, err := fetchMilestone(tx, id)
			if err != nil {
				return err
			}
			projectID = m.ProjectID

			if reassignTo != "" {
				if reassignTo == id {
					return errors.New("cannot reassign tasks to the milestone being deleted")
				}
				target, err := fetchMilestone(tx, reassignTo)
				if err != nil {
					return err
				}
				if target.ProjectID != projectID {
					return fmt.Errorf("milestone %s belongs to another project", reassignTo)
				}
			}

			_, err = tx.Exec(`UPDATE tasks SET milestone_id = ?, updated_at = ? WHERE milestone_id = ?`,
				reassignTo, encodeTime(now), id)
			if err != nil {
				return fmt.Errorf("failed to reassign tasks: %w", err)
			}
			if _, err := tx.Exec(`DELETE FROM milestones WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete milestone: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
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
func (s *sqliteStore) AddMember(draft types.MemberDraft) (string, error) {
	var change types.Change
	result, err := s.lockManager.ExecuteWithResult(storage.WriteOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
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

		now := s.timeFunc()
		id := uuid.New().String()
		err := s.withTx(func(tx *sql.Tx) error {
			if draft.Email != "" {
				taken, err := existsRow(tx, `SELECT 1 FROM members WHERE lower(email) = lower(?)`, draft.Email)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("member with email %s already exists", draft.Email)
				}
			}
			m := types.Member{
				ID:        id,
				Name:      draft.Name,
				Email:     draft.Email,
				Role:      role,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := insertMember(tx, m); err != nil {
				return fmt.Errorf("failed to insert member: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		change = types.Change{Entity: types.EntityMember, Op: types.OpCreated, ID: id, At: now}
		return id, nil
	})
	if err != nil {
		return "", err
	}
	s.notify(change)
	return result.(string), nil
}

// ListMembers returns all members sorted by name.
func (s *sqliteStore) ListMembers() ([]types.Member, error) {
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		rows, err := s.db.Query(`SELECT ` + memberCols + ` FROM members ORDER BY lower(name), id`)
		if err != nil {
			return nil, fmt.Errorf("failed to query members: %w", err)
		}
		defer func() { _ = rows.Close() }()

		members := make([]types.Member, 0)
		for rows.Next() {
			m, err := scanMember(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to scan member: %w", err)
			}
			members = append(members, m)
		}
		return members, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Member), nil
}

// UpdateMember modifies an existing member.
func (s *sqliteStore) UpdateMember(id string, updates types.MemberUpdate) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		now := s.timeFunc()
		err := s.withTx(func(tx *sql.Tx) error {
			m, err := fetchMember(tx, id)
			if err != nil {
				return err
			}
			if updates.Name != nil {
				if strings.TrimSpace(*updates.Name) == "" {
					return errors.New("member name cannot be empty")
				}
				m.Name = *updates.Name
			}
			if updates.Email != nil {
				if *updates.Email != "" {
					taken, err := existsRow(tx, `SELECT 1 FROM members WHERE lower(email) = lower(?) AND id != ?`, *updates.Email, id)
					if err != nil {
						return err
					}
					if taken {
						return fmt.Errorf("member with email %s already exists", *updates.Email)
					}
				}
				m.Email = *updates.Email
			}
			if updates.Role != nil {
				if !updates.Role.Valid() {
					return fmt.Errorf("unknown role %q", *updates.Role)
				}
				m.Role = *updates.Role
			}

			_, err = tx.Exec(`UPDATE members SET name = ?, email = ?, role = ?, updated_at = ? WHERE id = ?`,
				m.Name, m.Email, m.Role, encodeTime(now), id)
			if err != nil {
				return fmt.Errorf("failed to update member: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
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
func (s *sqliteStore) RemoveMember(id string) error {
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		now := s.timeFunc()
		err := s.withTx(func(tx *sql.Tx) error {
			ok, err := txRefs{tx}.memberExists(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("member %s: %w", id, ErrNotFound)
			}

			if _, err := tx.Exec(`UPDATE tasks SET assignee_id = '', updated_at = ? WHERE assignee_id = ?`, encodeTime(now), id); err != nil {
				return fmt.Errorf("failed to clear assignments: %w", err)
			}
			if _, err := tx.Exec(`UPDATE projects SET owner_id = '', updated_at = ? WHERE owner_id = ?`, encodeTime(now), id); err != nil {
				return fmt.Errorf("failed to clear ownerships: %w", err)
			}
			if _, err := tx.Exec(`DELETE FROM members WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete member: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
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

// Snapshot returns the whole board as one envelope. The schema carries
// no envelope metadata, so Metadata is stamped fresh.
func (s *sqliteStore) Snapshot() (*storage.BoardData, error) {
	result, err := s.lockManager.ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		if s.closed {
			return nil, ErrClosed
		}
		data := storage.NewBoardData(s.timeFunc())
		var err error
		if data.Projects, err = collectProjects(s.db.Query(`SELECT ` + projectCols + ` FROM projects ORDER BY id`)); err != nil {
			return nil, err
		}
		if data.Tasks, err = collectTasks(s.db.Query(`SELECT ` + taskCols + ` FROM tasks ORDER BY id`)); err != nil {
			return nil, err
		}
		if data.Milestones, err = collectMilestones(s.db.Query(`SELECT ` + milestoneCols + ` FROM milestones ORDER BY id`)); err != nil {
			return nil, err
		}
		if data.Members, err = collectMembers(s.db.Query(`SELECT ` + memberCols + ` FROM members ORDER BY id`)); err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*storage.BoardData), nil
}

// Restore replaces the board's contents with data inside one transaction.
func (s *sqliteStore) Restore(data *storage.BoardData) error {
	if data.Metadata.Version != "" && data.Metadata.Version != storage.FormatVersion {
		return fmt.Errorf("unsupported board format version %q", data.Metadata.Version)
	}
	var change types.Change
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		now := s.timeFunc()
		err := s.withTx(func(tx *sql.Tx) error {
			// Children before parents on delete, parents first on insert;
			// tasks and milestones hang off projects with cascading keys.
			for _, table := range []string{"tasks", "milestones", "projects", "members"} {
				if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
					return fmt.Errorf("failed to clear %s: %w", table, err)
				}
			}
			for _, p := range data.Projects {
				if err := insertProject(tx, p); err != nil {
					return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
				}
			}
			for _, m := range data.Members {
				if err := insertMember(tx, m); err != nil {
					return fmt.Errorf("failed to insert member %s: %w", m.ID, err)
				}
			}
			for _, m := range data.Milestones {
				if err := insertMilestone(tx, m); err != nil {
					return fmt.Errorf("failed to insert milestone %s: %w", m.ID, err)
				}
			}
			for _, t := range data.Tasks {
				if err := insertTask(tx, t); err != nil {
					return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
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

// Close closes the database. Closing twice is a no-op.
func (s *sqliteStore) Close() error {
	var closeErr error
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return nil
		}
		s.closed = true
		closeErr = s.db.Close()
		return nil
	})
	if err != nil {
		return err
	}
	return closeErr
}
