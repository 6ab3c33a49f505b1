// Package imports loads tasks into a board from external data. CSV is
// the wire format: the header row names columns, a ColumnMapping (or
// header auto-detection) binds them to task fields, and every valid row
// becomes a task appended to its column in file order. Bad rows are
// reported with their line numbers and never stop the rest of the file.
package imports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/lawrns/foco/types"
)

// aliasSets lists the header tokens recognized for each task field, in
// ColumnMapping field order.
var aliasSets = [][]string{
	{"title", "name", "task", "task_name", "summary"},
	{"status", "state", "column"},
	{"priority", "prio", "urgency"},
	{"due", "due_date", "due_at", "deadline"},
	{"assignee", "assigned_to", "owner", "member"},
	{"labels", "tags", "label"},
	{"estimate", "points", "effort"},
	{"project", "project_name", "board"},
}

// DetectMapping binds CSV headers to task fields by common aliases:
// "Due Date" maps to the due column, "Tags" to labels, and so on. The
// first header matching a field wins; headers matching nothing are
// ignored.
func DetectMapping(headers []string) ColumnMapping {
	var m ColumnMapping
	dst := m.fields()
	for _, h := range headers {
		token := normalize(h)
		for i, aliases := range aliasSets {
			if *dst[i] != "" {
				continue
			}
			for _, alias := range aliases {
				if token == alias {
					*dst[i] = h
					break
				}
			}
		}
	}
	return m
}

// CSV imports tasks from r into the store. The first record is the
// header; the effective mapping is header detection overlaid with
// opts.Mapping. A UTF-8 or UTF-16 byte order mark is tolerated. All
// valid rows are written in one atomic batch, so a store-level failure
// imports nothing.
func CSV(s types.Store, r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	mapping := DetectMapping(header)
	mapping.overlay(opts.Mapping)
	if mapping.Title == "" {
		return nil, errors.New("no title column: name a header \"title\" or map one explicitly")
	}
	cols, err := mapping.indexes(header)
	if err != nil {
		return nil, err
	}
	if cols.project < 0 && opts.ProjectID == "" {
		return nil, errors.New("no project column and no default project")
	}
	if opts.ProjectID != "" {
		if _, err := s.GetProject(opts.ProjectID); err != nil {
			return nil, fmt.Errorf("default project: %w", err)
		}
	}

	var projectByToken, memberByToken map[string]string
	if cols.project >= 0 {
		if projectByToken, err = projectTokens(s); err != nil {
			return nil, err
		}
	}
	if cols.assignee >= 0 {
		if memberByToken, err = memberTokens(s); err != nil {
			return nil, err
		}
	}

	res := &Result{DryRun: opts.DryRun}
	var drafts []types.TaskDraft
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Errored++
				res.Errors = append(res.Errors, RowError{Line: parseErr.Line, Reason: parseErr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		cell := func(i int) string {
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		rowErr := func(format string, args ...interface{}) {
			res.Errored++
			res.Errors = append(res.Errors, RowError{Line: line, Reason: fmt.Sprintf(format, args...)})
		}

		if allBlank(record) {
			res.Skipped++
			continue
		}

		title := cell(cols.title)
		if title == "" {
			rowErr("title is required")
			continue
		}
		draft := types.TaskDraft{ProjectID: opts.ProjectID, Title: title}

		if v := cell(cols.project); v != "" {
			id, ok := projectByToken[v]
			if !ok {
				id, ok = projectByToken[normalize(v)]
			}
			if !ok {
				rowErr("unknown project %q", v)
				continue
			}
			draft.ProjectID = id
		}
		if draft.ProjectID == "" {
			rowErr("project is required")
			continue
		}

		if v := cell(cols.status); v != "" {
			status, err := types.ParseStatus(v)
			if err != nil {
				rowErr("%v", err)
				continue
			}
			draft.Status = status
		}
		if v := cell(cols.priority); v != "" {
			priority, err := types.ParsePriority(v)
			if err != nil {
				rowErr("%v", err)
				continue
			}
			draft.Priority = priority
		}
		if v := cell(cols.due); v != "" {
			at, err := parseDate(v)
			if err != nil {
				rowErr("%v", err)
				continue
			}
			draft.DueAt = &at
		}
		if v := cell(cols.assignee); v != "" {
			id, ok := memberByToken[v]
			if !ok {
				id, ok = memberByToken[normalize(v)]
			}
			if !ok {
				id, ok = memberByToken[strings.ToLower(v)]
			}
			if !ok {
				rowErr("unknown assignee %q", v)
				continue
			}
			draft.AssigneeID = id
		}
		if v := cell(cols.labels); v != "" {
			draft.Labels = splitLabels(v)
		}
		if v := cell(cols.estimate); v != "" {
			estimate, err := strconv.ParseFloat(v, 64)
			if err != nil || estimate < 0 {
				rowErr("bad estimate %q", v)
				continue
			}
			draft.Estimate = estimate
		}

		drafts = append(drafts, draft)
		res.Created++
	}

	if opts.DryRun || len(drafts) == 0 {
		return res, nil
	}
	ids, err := s.AddTasks(drafts)
	if err != nil {
		return nil, fmt.Errorf("failed to import tasks: %w", err)
	}
	res.TaskIDs = ids
	return res, nil
}

// columnIndexes holds each mapped field's position in the header, -1
// when the field has no column.
type columnIndexes struct {
	title, status, priority, due, assignee, labels, estimate, project int
}

// indexes locates every mapped column in the header. An explicitly
// mapped column that is missing from the header is an error; unmapped
// fields come back as -1.
func (m ColumnMapping) indexes(header []string) (columnIndexes, error) {
	find := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("column %q is not in the csv header", name)
	}

	var idx columnIndexes
	targets := []struct {
		name string
		dst  *int
	}{
		{m.Title, &idx.title},
		{m.Status, &idx.status},
		{m.Priority, &idx.priority},
		{m.DueAt, &idx.due},
		{m.Assignee, &idx.assignee},
		{m.Labels, &idx.labels},
		{m.Estimate, &idx.estimate},
		{m.Project, &idx.project},
	}
	for _, t := range targets {
		i, err := find(t.name)
		if err != nil {
			return columnIndexes{}, err
		}
		*t.dst = i
	}
	return idx, nil
}

// projectTokens maps every project's ID and normalized name to its ID.
func projectTokens(s types.Store) (map[string]string, error) {
	projects, err := s.ListProjects(true)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	tokens := make(map[string]string, len(projects)*2)
	for _, p := range projects {
		tokens[p.ID] = p.ID
		tokens[normalize(p.Name)] = p.ID
	}
	return tokens, nil
}

// memberTokens maps every member's ID, normalized name, and lowercased
// email to their ID.
func memberTokens(s types.Store) (map[string]string, error) {
	members, err := s.ListMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	tokens := make(map[string]string, len(members)*3)
	for _, m := range members {
		tokens[m.ID] = m.ID
		tokens[normalize(m.Name)] = m.ID
		if m.Email != "" {
			tokens[strings.ToLower(m.Email)] = m.ID
		}
	}
	return tokens, nil
}

// dateFormats are tried in order when parsing due dates. A bare date
// lands at midnight UTC.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

// splitLabels splits a label cell on semicolons or commas, dropping
// blanks.
func splitLabels(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool {
		return r == ';' || r == ','
	})
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			labels = append(labels, p)
		}
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

// normalize folds a header or lookup token: lowercased, trimmed, spaces
// and dashes become underscores, so "Due Date" and "due-date" compare
// equal.
func normalize(v string) string {
	token := strings.ToLower(strings.TrimSpace(v))
	token = strings.ReplaceAll(token, " ", "_")
	return strings.ReplaceAll(token, "-", "_")
}

func allBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
