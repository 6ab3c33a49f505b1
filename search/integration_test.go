package search

import (
	"errors"
	"strings"
	"testing"

	"github.com/lawrns/foco/testutil"
	"github.com/lawrns/foco/types"
)

type failingSource struct{}

func (failingSource) ListTasks(types.ListOptions) ([]types.Task, error) {
	return nil, errors.New("disk gone")
}

func TestSearchStore(t *testing.T) {
	u := testutil.NewUniverse(t)

	t.Run("finds tasks in the filtered project", func(t *testing.T) {
		results, err := SearchStore(u.Store, types.TaskFilter{ProjectID: u.Website.ID}, SearchOptions{Query: "navigation"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 1 || results[0].Task.Title != "Build navigation component" {
			t.Fatalf("results = %+v, want just the navigation task", results)
		}
	})

	t.Run("filter excludes other projects", func(t *testing.T) {
		results, err := SearchStore(u.Store, types.TaskFilter{ProjectID: u.Mobile.ID}, SearchOptions{Query: "navigation"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("got %d results from the wrong project", len(results))
		}
	})

	t.Run("propagates list errors", func(t *testing.T) {
		_, err := SearchStore(failingSource{}, types.TaskFilter{}, SearchOptions{Query: "anything"})
		if err == nil || !strings.Contains(err.Error(), "failed to list tasks") {
			t.Errorf("error = %v, want a wrapped list failure", err)
		}
	})
}
