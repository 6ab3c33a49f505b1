package formats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lawrns/foco/types"
)

// metaKeyOrder fixes how known metadata keys render. Keys outside the
// list follow alphabetically, so output stays deterministic either way.
var metaKeyOrder = []string{
	"status", "priority", "assignee", "milestone", "parent",
	"labels", "estimate", "start", "due", "done", "created", "updated",
}

// FromTask builds the document for one task. Empty fields are left out
// of the metadata block.
func FromTask(t types.Task) Document {
	meta := map[string]string{
		"status": string(t.Status),
	}
	if t.Priority != "" && t.Priority != types.PriorityNone {
		meta["priority"] = string(t.Priority)
	}
	if t.AssigneeID != "" {
		meta["assignee"] = t.AssigneeID
	}
	if t.MilestoneID != "" {
		meta["milestone"] = t.MilestoneID
	}
	if t.ParentID != "" {
		meta["parent"] = t.ParentID
	}
	if len(t.Labels) > 0 {
		meta["labels"] = strings.Join(t.Labels, ", ")
	}
	if t.Estimate > 0 {
		meta["estimate"] = strconv.FormatFloat(t.Estimate, 'f', -1, 64)
	}
	if t.StartAt != nil {
		meta["start"] = t.StartAt.UTC().Format(time.RFC3339)
	}
	if t.DueAt != nil {
		meta["due"] = t.DueAt.UTC().Format(time.RFC3339)
	}
	if t.DoneAt != nil {
		meta["done"] = t.DoneAt.UTC().Format(time.RFC3339)
	}
	if !t.CreatedAt.IsZero() {
		meta["created"] = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !t.UpdatedAt.IsZero() {
		meta["updated"] = t.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return Document{Title: t.Title, Body: t.Body, Meta: meta}
}

// renderMeta writes the metadata block: known keys in canonical order,
// any others alphabetically after them.
func renderMeta(b *strings.Builder, meta map[string]string) {
	written := make(map[string]bool, len(meta))
	for _, key := range metaKeyOrder {
		if v, ok := meta[key]; ok {
			fmt.Fprintf(b, "%s: %s\n", key, v)
			written[key] = true
		}
	}
	rest := make([]string, 0, len(meta))
	for key := range meta {
		if !written[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(b, "%s: %s\n", key, meta[key])
	}
}

// parseMetaLines parses "key: value" lines into a map, nil when none
// parse.
func parseMetaLines(lines []string) map[string]string {
	meta := make(map[string]string, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, ": ", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) != "" {
			meta[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// metaBlockEnd finds the index of the metadata separator line. A block
// counts only when every line before the separator looks like
// "key: value" and the separator sits within the first 20 lines, so a
// body that merely contains a colon is never eaten.
func metaBlockEnd(lines []string) (int, bool) {
	for i := 0; i < len(lines) && i < 20; i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return i, i > 0
		}
		if !strings.Contains(lines[i], ": ") {
			return 0, false
		}
	}
	return 0, false
}
