package formats

import (
	"fmt"
	"regexp"
	"strings"
)

// markdownTitleRegex matches markdown h1 headers (must be at very start,
// no leading space).
var markdownTitleRegex = regexp.MustCompile(`^#\s+(.+?)[\s]*$`)

// Markdown renders a task as: "# Title", blank line, metadata block
// closed by a "---" separator, blank line, body. Sections a document
// lacks are simply omitted.
var Markdown = &Format{
	Name:      "markdown",
	Extension: ".md",
	Serialize: func(doc Document) string {
		var b strings.Builder
		if doc.Title != "" {
			b.WriteString("# " + doc.Title + "\n")
		}
		if len(doc.Meta) > 0 {
			if doc.Title != "" {
				b.WriteString("\n")
			}
			renderMeta(&b, doc.Meta)
			b.WriteString("---\n")
		}
		if doc.Body != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(doc.Body)
		}
		return b.String()
	},
	Deserialize: func(document string) (Document, error) {
		if strings.TrimSpace(document) == "" {
			return Document{}, fmt.Errorf("empty document: no title, metadata, or body")
		}
		var doc Document
		lines := strings.Split(document, "\n")

		if m := markdownTitleRegex.FindStringSubmatch(lines[0]); len(m) > 1 {
			doc.Title = strings.TrimSpace(m[1])
			lines = skipBlank(lines[1:])
		}
		if end, ok := metaBlockEnd(lines); ok {
			doc.Meta = parseMetaLines(lines[:end])
			lines = skipBlank(lines[end+1:])
		}
		doc.Body = strings.TrimSpace(strings.Join(lines, "\n"))
		return doc, nil
	},
}

// skipBlank drops leading blank lines.
func skipBlank(lines []string) []string {
	for len(lines) > 0 && isBlankLine(lines[0]) {
		lines = lines[1:]
	}
	return lines
}

func init() {
	if err := Register(Markdown); err != nil {
		panic(fmt.Sprintf("failed to register markdown format: %v", err))
	}
}
