package search

import "github.com/lawrns/foco/types"

// Searchable field names accepted in SearchOptions.Fields.
const (
	FieldTitle  = "title"
	FieldBody   = "body"
	FieldLabels = "labels"
)

// SearchOptions configures search behavior.
type SearchOptions struct {
	// Query is the search term. It is split on whitespace and every
	// token must match the task somewhere, except under ExactMatch,
	// where the whole query is compared against whole field values.
	Query string

	// Fields restricts which fields are searched: "title", "body",
	// "labels". Empty searches all of them.
	Fields []string

	// CaseSensitive controls whether matching respects letter case.
	CaseSensitive bool

	// ExactMatch requires an entire field to equal the query instead
	// of containing it.
	ExactMatch bool

	// EnableHighlight includes marker-wrapped field text in results.
	EnableHighlight bool

	// HighlightStartMarker and HighlightEndMarker wrap matched text
	// when highlighting is on. Both default to "**".
	HighlightStartMarker string
	HighlightEndMarker   string

	// MaxResults caps how many results are returned. Zero means no cap.
	MaxResults int
}

// Result is one matched task with ranking metadata.
type Result struct {
	// Task is the matched task.
	Task types.Task

	// Score is match relevance from 0.0 to 1.0, higher is better.
	Score float64

	// MatchType describes the strongest match found.
	MatchType MatchType

	// MatchedFields lists every field that contained a match, in
	// title, body, labels order.
	MatchedFields []string

	// Highlights maps matched field names to their text with match
	// markers applied. Nil unless EnableHighlight was set.
	Highlights map[string]string
}

// MatchType names where and how strongly a query matched.
type MatchType string

const (
	MatchExactTitle   MatchType = "exact_title"
	MatchPrefixTitle  MatchType = "prefix_title"
	MatchPartialTitle MatchType = "partial_title"
	MatchBody         MatchType = "body"
	MatchLabel        MatchType = "label"
)
