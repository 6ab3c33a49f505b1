package board

import (
	"fmt"
	"sort"

	"github.com/lawrns/foco/fracindex"
	"github.com/lawrns/foco/types"
)

// entry pairs a record ID with its order key, the only two fields
// placement resolution needs. Both backends map their column rows into
// entries before computing a key.
type entry struct {
	id  string
	key string
}

// sortEntries orders a column by key, with ID as a deterministic
// tie-break should duplicate keys ever sneak in from outside writers.
func sortEntries(entries []entry) {
	sort.Slice(entries, func(i, j int) bool {
		if c := fracindex.Compare(entries[i].key, entries[j].key); c != 0 {
			return c < 0
		}
		return entries[i].id < entries[j].id
	})
}

// appendKey returns a key placing a new record after everything in the
// sorted column.
func appendKey(entries []entry) (string, error) {
	after := ""
	if len(entries) > 0 {
		after = entries[len(entries)-1].key
	}
	key, err := fracindex.KeyBetween(after, "")
	if err != nil {
		return "", err
	}
	return ensureUnique(entries, key, "")
}

// appendKeys returns count keys extending the sorted column, for bulk
// inserts.
func appendKeys(entries []entry, count int) ([]string, error) {
	after := ""
	if len(entries) > 0 {
		after = entries[len(entries)-1].key
	}
	return fracindex.KeysBetween(count, after, "")
}

// resolvePlacement turns neighbor IDs into a concrete order key for the
// sorted column. Both IDs empty appends; a single ID has its other
// neighbor derived from column order; two IDs use their keys directly,
// so naming non-adjacent neighbors surfaces as fracindex.ErrInvalidRange
// when they are inverted.
func resolvePlacement(entries []entry, afterID, beforeID string) (string, error) {
	if afterID == "" && beforeID == "" {
		return appendKey(entries)
	}

	index := func(id string) int {
		for i, e := range entries {
			if e.id == id {
				return i
			}
		}
		return -1
	}

	var after, before string
	switch {
	case afterID != "" && beforeID != "":
		i := index(afterID)
		if i < 0 {
			return "", fmt.Errorf("placement after %s: %w in target column", afterID, ErrNotFound)
		}
		j := index(beforeID)
		if j < 0 {
			return "", fmt.Errorf("placement before %s: %w in target column", beforeID, ErrNotFound)
		}
		after, before = entries[i].key, entries[j].key
	case afterID != "":
		i := index(afterID)
		if i < 0 {
			return "", fmt.Errorf("placement after %s: %w in target column", afterID, ErrNotFound)
		}
		after = entries[i].key
		if i+1 < len(entries) {
			before = entries[i+1].key
		}
	default:
		j := index(beforeID)
		if j < 0 {
			return "", fmt.Errorf("placement before %s: %w in target column", beforeID, ErrNotFound)
		}
		before = entries[j].key
		if j > 0 {
			after = entries[j-1].key
		}
	}

	key, err := fracindex.KeyBetween(after, before)
	if err != nil {
		return "", err
	}
	return ensureUnique(entries, key, before)
}

// ensureUnique nudges key past any collision already present in the
// column. Generation is deterministic, so a collision means the column
// holds keys written by another tool; each attempt walks the candidate
// further toward before until a free key appears or retries run out.
func ensureUnique(entries []entry, key, before string) (string, error) {
	taken := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		taken[e.key] = struct{}{}
	}

	for attempt := 0; attempt <= orderRetries; attempt++ {
		if _, dup := taken[key]; !dup {
			return key, nil
		}
		next, err := fracindex.KeyBetween(key, before)
		if err != nil {
			return "", fmt.Errorf("%w: no free key near %q", ErrOrderConflict, key)
		}
		key = next
	}
	return "", fmt.Errorf("%w: gave up after %d attempts", ErrOrderConflict, orderRetries)
}

// taskEntries projects one (project, status) column out of tasks, sorted
// by order key. selfID is excluded so a record repositioning inside its
// own column is not treated as its own neighbor.
func taskEntries(tasks []types.Task, projectID string, status types.Status, selfID string) []entry {
	var entries []entry
	for _, t := range tasks {
		if t.ProjectID != projectID || t.Status != status || t.ID == selfID {
			continue
		}
		entries = append(entries, entry{id: t.ID, key: t.OrderKey})
	}
	sortEntries(entries)
	return entries
}

// milestoneEntries projects one project's milestone order, sorted by
// order key, excluding selfID.
func milestoneEntries(milestones []types.Milestone, projectID string, selfID string) []entry {
	var entries []entry
	for _, m := range milestones {
		if m.ProjectID != projectID || m.ID == selfID {
			continue
		}
		entries = append(entries, entry{id: m.ID, key: m.OrderKey})
	}
	sortEntries(entries)
	return entries
}
