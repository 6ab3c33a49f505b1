package search

import (
	"strings"
	"testing"

	"github.com/lawrns/foco/types"
)

func task(id, title, body string, labels ...string) types.Task {
	return types.Task{ID: id, Title: title, Body: body, Labels: labels}
}

// rankingFixture covers every match tier for the token "deploy".
func rankingFixture() []types.Task {
	return []types.Task{
		task("t-label", "Chores", "", "deploy"),
		task("t-body", "Write docs", "Notes on how we deploy to production."),
		task("t-partial", "Redeploy everything", ""),
		task("t-prefix", "Deploy the site", ""),
		task("t-exact", "Deploy", ""),
		task("t-miss", "Refactor parser", "No relevant words here."),
	}
}

func TestSearchRanking(t *testing.T) {
	results, err := NewEngine().Search(rankingFixture(), SearchOptions{Query: "deploy"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	want := []struct {
		id        string
		score     float64
		matchType MatchType
	}{
		{"t-exact", 1.0, MatchExactTitle},
		{"t-prefix", 0.9, MatchPrefixTitle},
		{"t-partial", 0.7, MatchPartialTitle},
		{"t-body", 0.5, MatchBody},
		{"t-label", 0.45, MatchLabel},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, w := range want {
		got := results[i]
		if got.Task.ID != w.id {
			t.Errorf("rank %d: got %s, want %s", i, got.Task.ID, w.id)
		}
		if got.Score != w.score {
			t.Errorf("rank %d (%s): score = %v, want %v", i, w.id, got.Score, w.score)
		}
		if got.MatchType != w.matchType {
			t.Errorf("rank %d (%s): match type = %s, want %s", i, w.id, got.MatchType, w.matchType)
		}
	}
}

func TestSearchCoverageBoost(t *testing.T) {
	tasks := []types.Task{
		task("short", "A", "deploy it"),
		task("long", "B", "we deploy across three regions"),
	}
	results, err := NewEngine().Search(tasks, SearchOptions{Query: "deploy", Fields: []string{FieldBody}})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Task.ID != "short" || results[0].Score != 0.55 {
		t.Errorf("results[0] = %s at %v, want short at 0.55", results[0].Task.ID, results[0].Score)
	}
	if results[1].Task.ID != "long" || results[1].Score != 0.5 {
		t.Errorf("results[1] = %s at %v, want long at 0.5", results[1].Task.ID, results[1].Score)
	}
}

func TestSearchMultipleTokens(t *testing.T) {
	tasks := []types.Task{
		task("both-title", "Deploy the site", ""),
		task("title-and-body", "Deploy", "The site needs a green build first."),
		task("one-token", "Deploy", ""),
	}
	results, err := NewEngine().Search(tasks, SearchOptions{Query: "deploy site"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (a task matching one token only must drop out)", len(results))
	}
	if results[0].Task.ID != "both-title" || results[1].Task.ID != "title-and-body" {
		t.Errorf("order = [%s %s], want [both-title title-and-body]", results[0].Task.ID, results[1].Task.ID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores = %v then %v, want strictly decreasing", results[0].Score, results[1].Score)
	}
}

func TestSearchExactMatch(t *testing.T) {
	tasks := []types.Task{
		task("whole-title", "Deploy the site", ""),
		task("longer-title", "Deploy the site now", ""),
		task("whole-body", "Runbook", "deploy the site"),
	}
	results, err := NewEngine().Search(tasks, SearchOptions{Query: "deploy the site", ExactMatch: true})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Task.ID != "whole-title" || results[0].MatchType != MatchExactTitle {
		t.Errorf("results[0] = %s (%s), want whole-title as exact_title", results[0].Task.ID, results[0].MatchType)
	}
	if results[1].Task.ID != "whole-body" || results[1].Score != 0.6 {
		t.Errorf("results[1] = %s at %v, want whole-body at 0.6", results[1].Task.ID, results[1].Score)
	}
}

func TestSearchCaseSensitive(t *testing.T) {
	tasks := []types.Task{
		task("upper", "Deploy tools", ""),
		task("lower", "deploy tools", ""),
	}

	results, err := NewEngine().Search(tasks, SearchOptions{Query: "Deploy", CaseSensitive: true})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Task.ID != "upper" {
		t.Fatalf("case-sensitive search returned %d results, want only upper", len(results))
	}

	results, err = NewEngine().Search(tasks, SearchOptions{Query: "Deploy"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("case-insensitive search returned %d results, want both", len(results))
	}
}

func TestSearchFieldRestriction(t *testing.T) {
	tasks := []types.Task{
		task("in-title", "Deploy", ""),
		task("in-body", "Other", "deploy notes"),
		task("in-label", "Other", "", "deploy"),
	}

	results, err := NewEngine().Search(tasks, SearchOptions{Query: "deploy", Fields: []string{FieldTitle}})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Task.ID != "in-title" {
		t.Errorf("title-only search returned %d results, want only in-title", len(results))
	}

	if _, err := NewEngine().Search(tasks, SearchOptions{Query: "deploy", Fields: []string{"assignee"}}); err == nil ||
		!strings.Contains(err.Error(), "unknown search field") {
		t.Errorf("error = %v, want unknown search field", err)
	}
}

func TestSearchMatchedFieldOrder(t *testing.T) {
	tasks := []types.Task{
		task("all", "Web relaunch", "All the webby things.", "web"),
	}
	results, err := NewEngine().Search(tasks, SearchOptions{Query: "web"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if len(got.MatchedFields) != 3 ||
		got.MatchedFields[0] != FieldTitle || got.MatchedFields[1] != FieldBody || got.MatchedFields[2] != FieldLabels {
		t.Errorf("matched fields = %v, want [title body labels]", got.MatchedFields)
	}
	if got.MatchType != MatchPrefixTitle || got.Score != 0.9 {
		t.Errorf("best match = %s at %v, want prefix_title at 0.9", got.MatchType, got.Score)
	}
}

func TestSearchHighlights(t *testing.T) {
	t.Run("default markers", func(t *testing.T) {
		tasks := []types.Task{task("nav", "Build navigation component", "")}
		results, err := NewEngine().Search(tasks, SearchOptions{Query: "nav", EnableHighlight: true})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		want := "Build **nav**igation component"
		if got := results[0].Highlights[FieldTitle]; got != want {
			t.Errorf("highlight = %q, want %q", got, want)
		}
	})

	t.Run("custom markers", func(t *testing.T) {
		tasks := []types.Task{task("nav", "Build navigation component", "")}
		results, err := NewEngine().Search(tasks, SearchOptions{
			Query:                "nav",
			EnableHighlight:      true,
			HighlightStartMarker: "[",
			HighlightEndMarker:   "]",
		})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		want := "Build [nav]igation component"
		if got := results[0].Highlights[FieldTitle]; got != want {
			t.Errorf("highlight = %q, want %q", got, want)
		}
	})

	t.Run("overlapping tokens merge", func(t *testing.T) {
		tasks := []types.Task{task("nav", "Build navigation component", "")}
		results, err := NewEngine().Search(tasks, SearchOptions{Query: "navi igat", EnableHighlight: true})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		want := "Build **navigat**ion component"
		if got := results[0].Highlights[FieldTitle]; got != want {
			t.Errorf("highlight = %q, want %q", got, want)
		}
	})

	t.Run("every occurrence is wrapped", func(t *testing.T) {
		tasks := []types.Task{task("rep", "Retry", "retry, then retry again")}
		results, err := NewEngine().Search(tasks, SearchOptions{Query: "retry", EnableHighlight: true})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		want := "**retry**, then **retry** again"
		if got := results[0].Highlights[FieldBody]; got != want {
			t.Errorf("body highlight = %q, want %q", got, want)
		}
	})

	t.Run("labels highlight joined text", func(t *testing.T) {
		tasks := []types.Task{task("lab", "Other", "", "search", "seo")}
		results, err := NewEngine().Search(tasks, SearchOptions{Query: "sea", EnableHighlight: true})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		want := "**sea**rch, seo"
		if got := results[0].Highlights[FieldLabels]; got != want {
			t.Errorf("labels highlight = %q, want %q", got, want)
		}
	})

	t.Run("no highlights unless asked", func(t *testing.T) {
		tasks := []types.Task{task("nav", "Build navigation component", "")}
		results, err := NewEngine().Search(tasks, SearchOptions{Query: "nav"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if results[0].Highlights != nil {
			t.Errorf("highlights = %v, want nil", results[0].Highlights)
		}
	})
}

func TestSearchMaxResults(t *testing.T) {
	results, err := NewEngine().Search(rankingFixture(), SearchOptions{Query: "deploy", MaxResults: 2})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Task.ID != "t-exact" || results[1].Task.ID != "t-prefix" {
		t.Errorf("order = [%s %s], want the top two ranks", results[0].Task.ID, results[1].Task.ID)
	}
}

func TestSearchStableTieBreak(t *testing.T) {
	tasks := []types.Task{
		task("b", "Deploy", ""),
		task("a", "Deploy", ""),
	}
	results, err := NewEngine().Search(tasks, SearchOptions{Query: "deploy"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 || results[0].Task.ID != "a" || results[1].Task.ID != "b" {
		t.Errorf("tied results not ordered by id: [%s %s]", results[0].Task.ID, results[1].Task.ID)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	for _, query := range []string{"", "   ", "\t"} {
		results, err := NewEngine().Search(rankingFixture(), SearchOptions{Query: query})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("query %q returned %d results, want none", query, len(results))
		}
	}
}
