package export

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var dashRuns = regexp.MustCompile("-+")

// slugify turns a task title into a filename-safe slug:
// lowercased, spaces become dashes, only letters, digits, dash and
// underscore survive, dash runs collapse, capped at 40 runes. A title
// that sanitizes away entirely comes back as "untitled".
func slugify(title string) string {
	result := strings.ToLower(title)
	result = strings.ReplaceAll(result, " ", "-")

	var b strings.Builder
	for _, r := range result {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	result = dashRuns.ReplaceAllString(b.String(), "-")
	result = strings.Trim(result, "-")

	if runes := []rune(result); len(runes) > 40 {
		result = strings.Trim(string(runes[:40]), "-")
	}
	if result == "" {
		result = "untitled"
	}
	return result
}

// nameSet hands out unique task file names, sans extension. The normal
// shape is <slug>-<first 8 of the id>; when two tasks share both slug
// and id prefix the id suffix grows, and as a last resort a counter is
// appended.
type nameSet struct {
	taken map[string]bool
}

func newNameSet() *nameSet {
	return &nameSet{taken: make(map[string]bool)}
}

func (n *nameSet) assign(slug, id string) string {
	for _, width := range []int{8, 12, len(id)} {
		candidate := slug + "-" + shortID(id, width)
		if !n.taken[candidate] {
			n.taken[candidate] = true
			return candidate
		}
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%s-%d", slug, id, i)
		if !n.taken[candidate] {
			n.taken[candidate] = true
			return candidate
		}
	}
}

func shortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}
