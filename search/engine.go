// Package search ranks tasks against free-text queries. Matches on the
// title outrank matches in the body, which outrank label matches, so the
// task someone names is the task they find first.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lawrns/foco/types"
)

// Engine scores tasks against queries. It is stateless and safe for
// concurrent use.
type Engine struct{}

// NewEngine creates a search engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Search ranks the given tasks against the query and returns matches best
// first. Ties break on title, then ID, so results are stable across runs.
// An empty or all-whitespace query matches nothing.
func (e *Engine) Search(tasks []types.Task, opts SearchOptions) ([]Result, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []string{FieldTitle, FieldBody, FieldLabels}
	}
	for _, field := range fields {
		switch field {
		case FieldTitle, FieldBody, FieldLabels:
		default:
			return nil, fmt.Errorf("unknown search field %q", field)
		}
	}

	// Under ExactMatch the query is one term compared whole, otherwise
	// every whitespace-separated token must match.
	tokens := []string{opts.Query}
	if !opts.ExactMatch {
		tokens = strings.Fields(opts.Query)
	}

	var results []Result
	for _, task := range tasks {
		if result := e.searchTask(task, tokens, fields, opts); result != nil {
			results = append(results, *result)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Task.Title != results[j].Task.Title {
			return results[i].Task.Title < results[j].Task.Title
		}
		return results[i].Task.ID < results[j].Task.ID
	})

	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results, nil
}

// searchTask scores one task, or returns nil when any token fails to
// match. The task score is the mean of each token's best field score, so
// a query the task only half-satisfies ranks below one it satisfies well
// everywhere.
func (e *Engine) searchTask(task types.Task, tokens, fields []string, opts SearchOptions) *Result {
	var (
		total     float64
		best      float64
		bestType  MatchType
		hitTokens = make(map[string][]string, len(fields))
	)

	for _, token := range tokens {
		tokenBest := 0.0
		for _, field := range fields {
			score, matchType, ok := e.scoreField(task, field, token, opts)
			if !ok {
				continue
			}
			hitTokens[field] = append(hitTokens[field], token)
			if score > tokenBest {
				tokenBest = score
			}
			if score > best {
				best = score
				bestType = matchType
			}
		}
		if tokenBest == 0 {
			return nil
		}
		total += tokenBest
	}

	result := &Result{
		Task:      task,
		Score:     total / float64(len(tokens)),
		MatchType: bestType,
	}
	for _, field := range fields {
		if len(hitTokens[field]) > 0 {
			result.MatchedFields = append(result.MatchedFields, field)
		}
	}
	if opts.EnableHighlight {
		result.Highlights = make(map[string]string, len(result.MatchedFields))
		for _, field := range result.MatchedFields {
			result.Highlights[field] = highlight(fieldText(task, field), hitTokens[field], opts)
		}
	}
	return result
}

// scoreField scores one token against one field.
func (e *Engine) scoreField(task types.Task, field, token string, opts SearchOptions) (float64, MatchType, bool) {
	switch field {
	case FieldTitle:
		return scoreTitle(task.Title, token, opts)
	case FieldBody:
		return scoreBody(task.Body, token, opts)
	case FieldLabels:
		return scoreLabels(task.Labels, token, opts)
	}
	return 0, "", false
}

func scoreTitle(title, token string, opts SearchOptions) (float64, MatchType, bool) {
	value, query := fold(title, token, opts.CaseSensitive)
	switch {
	case value == query:
		return 1.0, MatchExactTitle, true
	case opts.ExactMatch:
		return 0, "", false
	case strings.HasPrefix(value, query):
		return 0.9, MatchPrefixTitle, true
	case strings.Contains(value, query):
		return 0.7 + coverageBoost(query, value), MatchPartialTitle, true
	}
	return 0, "", false
}

func scoreBody(body, token string, opts SearchOptions) (float64, MatchType, bool) {
	if body == "" {
		return 0, "", false
	}
	value, query := fold(body, token, opts.CaseSensitive)
	switch {
	case value == query:
		return 0.6, MatchBody, true
	case opts.ExactMatch:
		return 0, "", false
	case strings.Contains(value, query):
		return 0.5 + coverageBoost(query, value), MatchBody, true
	}
	return 0, "", false
}

func scoreLabels(labels []string, token string, opts SearchOptions) (float64, MatchType, bool) {
	var best float64
	for _, label := range labels {
		value, query := fold(label, token, opts.CaseSensitive)
		switch {
		case value == query:
			if best < 0.45 {
				best = 0.45
			}
		case !opts.ExactMatch && strings.Contains(value, query):
			if best < 0.4 {
				best = 0.4
			}
		}
	}
	if best == 0 {
		return 0, "", false
	}
	return best, MatchLabel, true
}

// coverageBoost nudges a match covering most of its field above the same
// match buried in long text.
func coverageBoost(query, value string) float64 {
	if float64(len(query))/float64(len(value)) > 0.5 {
		return 0.05
	}
	return 0
}

func fold(value, token string, caseSensitive bool) (string, string) {
	if caseSensitive {
		return value, token
	}
	return strings.ToLower(value), strings.ToLower(token)
}

func fieldText(task types.Task, field string) string {
	switch field {
	case FieldTitle:
		return task.Title
	case FieldBody:
		return task.Body
	case FieldLabels:
		return strings.Join(task.Labels, ", ")
	}
	return ""
}

// highlight wraps every token occurrence in the text with the configured
// markers. Overlapping occurrences merge into one span so markers never
// nest.
func highlight(text string, tokens []string, opts SearchOptions) string {
	startMarker := opts.HighlightStartMarker
	endMarker := opts.HighlightEndMarker
	if startMarker == "" {
		startMarker = "**"
	}
	if endMarker == "" {
		endMarker = "**"
	}

	spans := findSpans(text, tokens, opts.CaseSensitive)
	if len(spans) == 0 {
		return text
	}

	var builder strings.Builder
	last := 0
	for _, sp := range spans {
		builder.WriteString(text[last:sp.start])
		builder.WriteString(startMarker)
		builder.WriteString(text[sp.start:sp.end])
		builder.WriteString(endMarker)
		last = sp.end
	}
	builder.WriteString(text[last:])
	return builder.String()
}

type span struct {
	start, end int
}

// findSpans locates every occurrence of every token, sorted and with
// overlaps merged.
func findSpans(text string, tokens []string, caseSensitive bool) []span {
	haystack := text
	if !caseSensitive {
		lowered := strings.ToLower(text)
		// ToLower changes byte length for a few characters; keep the
		// original casing there so span offsets stay valid.
		if len(lowered) == len(text) {
			haystack = lowered
		}
	}

	var spans []span
	for _, token := range tokens {
		needle := token
		if !caseSensitive {
			needle = strings.ToLower(token)
		}
		if needle == "" {
			continue
		}
		for i := 0; i+len(needle) <= len(haystack); {
			j := strings.Index(haystack[i:], needle)
			if j < 0 {
				break
			}
			spans = append(spans, span{i + j, i + j + len(needle)})
			i += j + len(needle)
		}
	}
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}
