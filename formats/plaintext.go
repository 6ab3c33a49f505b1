package formats

import (
	"fmt"
	"strings"
)

// PlainText renders a task as: metadata block closed by a "---"
// separator, blank line, title line, blank line, body. The title is
// structural rather than marked, so a one-line document parses as body.
var PlainText = &Format{
	Name:      "plaintext",
	Extension: ".txt",
	Serialize: func(doc Document) string {
		var b strings.Builder
		if len(doc.Meta) > 0 {
			renderMeta(&b, doc.Meta)
			b.WriteString("---\n\n")
		}
		if doc.Title != "" {
			b.WriteString(doc.Title + "\n\n")
		}
		b.WriteString(doc.Body)
		return b.String()
	},
	Deserialize: func(document string) (Document, error) {
		if strings.TrimSpace(document) == "" {
			return Document{}, fmt.Errorf("empty document: no title, metadata, or body")
		}
		var doc Document
		lines := strings.Split(document, "\n")

		if end, ok := metaBlockEnd(lines); ok {
			doc.Meta = parseMetaLines(lines[:end])
			lines = skipBlank(lines[end+1:])
		}

		// First line is the title when a blank line follows it.
		if len(lines) >= 2 && isBlankLine(lines[1]) {
			doc.Title = strings.TrimSpace(lines[0])
			lines = skipBlank(lines[2:])
		}
		doc.Body = strings.TrimSpace(strings.Join(lines, "\n"))
		return doc, nil
	},
}

func init() {
	if err := Register(PlainText); err != nil {
		panic(fmt.Sprintf("failed to register plaintext format: %v", err))
	}
}
