// Package formats renders tasks as portable text documents and parses
// them back. Formats register under a short name; the export archive and
// the CLI pick one by that name, markdown unless told otherwise.
package formats

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultFormat is the serializer used when none is named.
const DefaultFormat = "markdown"

// Document is the portable form of one task: a title, a flat metadata
// block, and the free-form body. Metadata values are plain strings; the
// canonical typed record travels in the archive's board snapshot, the
// document is for reading.
type Document struct {
	Title string
	Body  string
	Meta  map[string]string
}

// Format defines one document rendering.
type Format struct {
	// Name is the format identifier: lowercase alphanumeric plus dashes
	// and underscores.
	Name string

	// Extension is the file extension including the dot.
	Extension string

	// Serialize renders the document to text.
	Serialize func(doc Document) string

	// Deserialize parses a document back out of text. A document with no
	// title, body, or metadata is an error.
	Deserialize func(document string) (Document, error)
}

// registry holds all available formats.
var registry = make(map[string]*Format)

// Register adds a format to the registry.
func Register(format *Format) error {
	if !isValidFormatName(format.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", format.Name)
	}
	if !strings.HasPrefix(format.Extension, ".") {
		format.Extension = "." + format.Extension
	}
	if _, exists := registry[format.Name]; exists {
		return fmt.Errorf("format %q already registered", format.Name)
	}
	registry[format.Name] = format
	return nil
}

// Get returns a format by name.
func Get(name string) (*Format, error) {
	format, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(List(), ", "))
	}
	return format, nil
}

// List returns all registered format names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isValidFormatName checks if a format name is valid.
func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
