package httpapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lawrns/foco/testutil"
	"github.com/lawrns/foco/types"
)

func TestMilestoneEndpoints(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/milestones?project="+u.Website.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body)
	}
	listed := decodeBody[[]types.Milestone](t, rec)
	if len(listed) != 2 || listed[0].Name != "Public Beta" || listed[1].Name != "GA Launch" {
		t.Fatalf("milestones = %+v", listed)
	}

	due := testutil.Clock.Add(14 * 24 * time.Hour)
	rec = do(t, h, http.MethodPost, "/api/milestones", map[string]any{
		"project_id": u.Mobile.ID,
		"name":       "App Store Review",
		"due_at":     due,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decodeBody[types.Milestone](t, rec)
	if created.ID == "" || created.Name != "App Store Review" || created.OrderKey == "" {
		t.Fatalf("created milestone = %+v", created)
	}
	testutil.AssertMilestoneCount(t, u.Store, u.Mobile.ID, 2)

	rec = do(t, h, http.MethodPatch, "/api/milestones/"+created.ID, map[string]any{
		"name": "Store Review",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body)
	}

	// Move GA ahead of Beta and confirm the listing order follows.
	rec = do(t, h, http.MethodPost, "/api/milestones/"+u.GA.ID+"/move", map[string]any{
		"before_id": u.Beta.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d, body %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodGet, "/api/milestones?project="+u.Website.ID, nil)
	listed = decodeBody[[]types.Milestone](t, rec)
	if len(listed) != 2 || listed[0].Name != "GA Launch" {
		t.Fatalf("milestones after move = %+v", listed)
	}
}

func TestMilestoneListRequiresProject(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/milestones", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMilestoneDeleteReassignsTasks(t *testing.T) {
	srv, u, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodDelete, "/api/milestones/"+u.Beta.ID+"?reassign_to="+u.GA.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodGet, "/api/tasks/"+u.DesignHome.ID, nil)
	if got := decodeBody[types.Task](t, rec); got.MilestoneID != u.GA.ID {
		t.Fatalf("milestone after reassign = %q, want %q", got.MilestoneID, u.GA.ID)
	}

	rec = do(t, h, http.MethodDelete, "/api/milestones/"+u.GA.ID+"?reassign_to="+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("ghost reassign status = %d, want 404", rec.Code)
	}
}
