package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lawrns/foco/testutil"
	"github.com/lawrns/foco/types"
)

func TestTaskLifecycle(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	due := testutil.Clock.Add(24 * time.Hour)
	rec := do(t, h, http.MethodPost, "/api/tasks", map[string]any{
		"project_id": u.Website.ID,
		"title":      "Refresh typography",
		"priority":   "medium",
		"labels":     []string{"design"},
		"due_at":     due,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decodeBody[types.Task](t, rec)
	if created.ID == "" || created.Status != types.StatusTodo || created.OrderKey == "" {
		t.Fatalf("created task = %+v", created)
	}
	if created.DueAt == nil || !created.DueAt.Equal(due) {
		t.Fatalf("created due = %v, want %v", created.DueAt, due)
	}
	testutil.AssertColumnOrder(t, u.Store, u.Website.ID, types.StatusTodo,
		"Design landing page", "Build navigation component", "Refresh typography")

	rec = do(t, h, http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{
		"status":      "in_progress",
		"assignee_id": u.Sam.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body)
	}
	patched := decodeBody[types.Task](t, rec)
	if patched.Status != types.StatusInProgress || patched.AssigneeID != u.Sam.ID {
		t.Fatalf("patched task = %+v", patched)
	}
	// The status change re-keyed the task onto the new column's end.
	testutil.AssertColumnOrder(t, u.Store, u.Website.ID, types.StatusInProgress,
		"Write homepage copy", "Fix login redirect loop", "Refresh typography")

	rec = do(t, h, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body)
	}
	testutil.AssertTaskGone(t, u.Store, created.ID)
}

func TestTaskCreateValidation(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing title", map[string]any{"project_id": u.Website.ID}, http.StatusBadRequest},
		{"missing project", map[string]any{"title": "Floating"}, http.StatusBadRequest},
		{"unknown status", map[string]any{"project_id": u.Website.ID, "title": "X", "status": "shipped"}, http.StatusBadRequest},
		{"negative estimate", map[string]any{"project_id": u.Website.ID, "title": "X", "estimate": -1}, http.StatusBadRequest},
		{"ghost assignee", map[string]any{"project_id": u.Website.ID, "title": "X", "assignee_id": uuid.NewString()}, http.StatusNotFound},
		{"ghost project", map[string]any{"project_id": uuid.NewString(), "title": "X"}, http.StatusNotFound},
		{"unknown field", map[string]any{"project_id": u.Website.ID, "titel": "X"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/tasks", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tc.want, rec.Body)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("truncated body status = %d, want 400", rec.Code)
	}
}

func TestTaskDeleteSubtaskConflict(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodDelete, "/api/tasks/"+u.DesignHome.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("delete with subtask status = %d, want 409", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/api/tasks/"+u.DesignHome.ID+"?cascade=true", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cascade delete status = %d, body %s", rec.Code, rec.Body)
	}
	testutil.AssertTaskGone(t, u.Store, u.DesignHome.ID)
	testutil.AssertTaskGone(t, u.Store, u.BuildNav.ID)
}

func TestMoveTaskEndpoint(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/tasks/"+u.BuildNav.ID+"/move", map[string]any{
		"before_id": u.DesignHome.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d, body %s", rec.Code, rec.Body)
	}
	moved := decodeBody[types.Task](t, rec)
	if moved.OrderKey == "" || moved.OrderKey == u.BuildNav.OrderKey {
		t.Fatalf("moved order key = %q, want a fresh key", moved.OrderKey)
	}
	testutil.AssertColumnOrder(t, u.Store, u.Website.ID, types.StatusTodo,
		"Build navigation component", "Design landing page")

	// Cross-column move.
	rec = do(t, h, http.MethodPost, "/api/tasks/"+u.WriteCopy.ID+"/move", map[string]any{
		"status": "review",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("cross-column move status = %d, body %s", rec.Code, rec.Body)
	}
	testutil.AssertTaskStatus(t, u.Store, u.WriteCopy.ID, types.StatusReview)

	// A neighbor from another column cannot anchor the move.
	rec = do(t, h, http.MethodPost, "/api/tasks/"+u.DesignHome.ID+"/move", map[string]any{
		"after_id": u.ScopeApp.ID,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign neighbor status = %d, want 404", rec.Code)
	}
}

func TestCompleteAndReopenEndpoints(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/tasks/"+u.WriteCopy.ID+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body)
	}
	completed := decodeBody[types.Task](t, rec)
	if completed.Status != types.StatusDone || completed.DoneAt == nil {
		t.Fatalf("completed task = %+v", completed)
	}

	rec = do(t, h, http.MethodPost, "/api/tasks/"+u.WriteCopy.ID+"/reopen", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reopen status = %d, body %s", rec.Code, rec.Body)
	}
	reopened := decodeBody[types.Task](t, rec)
	if reopened.Status != types.StatusTodo || reopened.DoneAt != nil {
		t.Fatalf("reopened task = %+v", reopened)
	}

	// Reopening an open task is a validation failure.
	rec = do(t, h, http.MethodPost, "/api/tasks/"+u.DesignHome.ID+"/reopen", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reopen open task status = %d, want 400", rec.Code)
	}
}

func TestListTasksFilters(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	cases := []struct {
		name   string
		target string
		want   int
	}{
		{"by project", "/api/tasks?project=" + u.Website.ID, 7},
		{"by status", "/api/tasks?project=" + u.Website.ID + "&status=todo", 2},
		{"status union", "/api/tasks?status=in_progress&status=review", 3},
		{"unassigned", "/api/tasks?project=" + u.Website.ID + "&assignee=unassigned", 4},
		{"by label", "/api/tasks?label=design", 2},
		{"overdue", "/api/tasks?overdue=true", 1},
		{"due before", "/api/tasks?due_before=" + testutil.Clock.Add(24*time.Hour).Format(time.RFC3339), 2},
		{"limited", "/api/tasks?project=" + u.Website.ID + "&limit=3", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tc.target, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			if got := decodeBody[[]types.Task](t, rec); len(got) != tc.want {
				t.Fatalf("tasks = %d, want %d", len(got), tc.want)
			}
		})
	}

	for _, target := range []string{
		"/api/tasks?status=shipped",
		"/api/tasks?priority=banana",
		"/api/tasks?overdue=perhaps",
		"/api/tasks?limit=many",
		"/api/tasks?due_before=soon",
	} {
		rec := do(t, h, http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestListTasksSearchRanked(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/tasks?q=design", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decodeBody[[]types.Task](t, rec)
	// Title prefix outranks the label-only hit.
	if len(got) != 2 || got[0].Title != "Design landing page" || got[1].Title != "Build navigation component" {
		titles := make([]string, len(got))
		for i, task := range got {
			titles[i] = task.Title
		}
		t.Fatalf("ranked titles = %v", titles)
	}

	// Search respects the filter, and a miss is an empty array.
	rec = do(t, h, http.MethodGet, "/api/tasks?q=design&project="+u.Mobile.ID, nil)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("empty search body = %q, want []", body)
	}

	rec = do(t, h, http.MethodGet, "/api/tasks?q=design&limit=1", nil)
	if got := decodeBody[[]types.Task](t, rec); len(got) != 1 || got[0].Title != "Design landing page" {
		t.Fatalf("limited search = %+v", got)
	}
}
