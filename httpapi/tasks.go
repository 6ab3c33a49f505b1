package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lawrns/foco/search"
	"github.com/lawrns/foco/types"
)

type placementPayload struct {
	AfterID  string `json:"after_id"`
	BeforeID string `json:"before_id"`
}

type taskPayload struct {
	ProjectID   string            `json:"project_id"`
	MilestoneID string            `json:"milestone_id"`
	ParentID    string            `json:"parent_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Status      types.Status      `json:"status"`
	Priority    types.Priority    `json:"priority"`
	AssigneeID  string            `json:"assignee_id"`
	Labels      []string          `json:"labels"`
	Estimate    float64           `json:"estimate"`
	StartAt     *time.Time        `json:"start_at"`
	DueAt       *time.Time        `json:"due_at"`
	Placement   *placementPayload `json:"placement"`
}

func (p taskPayload) draft() types.TaskDraft {
	draft := types.TaskDraft{
		ProjectID:   p.ProjectID,
		MilestoneID: p.MilestoneID,
		ParentID:    p.ParentID,
		Title:       p.Title,
		Body:        p.Body,
		Status:      p.Status,
		Priority:    p.Priority,
		AssigneeID:  p.AssigneeID,
		Labels:      p.Labels,
		Estimate:    p.Estimate,
		StartAt:     p.StartAt,
		DueAt:       p.DueAt,
	}
	if p.Placement != nil {
		draft.Placement = &types.Placement{
			AfterID:  p.Placement.AfterID,
			BeforeID: p.Placement.BeforeID,
		}
	}
	return draft
}

type taskPatch struct {
	Title        *string         `json:"title"`
	Body         *string         `json:"body"`
	Status       *types.Status   `json:"status"`
	Priority     *types.Priority `json:"priority"`
	AssigneeID   *string         `json:"assignee_id"`
	MilestoneID  *string         `json:"milestone_id"`
	ParentID     *string         `json:"parent_id"`
	Labels       *[]string       `json:"labels"`
	Estimate     *float64        `json:"estimate"`
	StartAt      *time.Time      `json:"start_at"`
	DueAt        *time.Time      `json:"due_at"`
	ClearStartAt bool            `json:"clear_start_at"`
	ClearDueAt   bool            `json:"clear_due_at"`
}

func (p taskPatch) update() types.TaskUpdate {
	return types.TaskUpdate{
		Title:        p.Title,
		Body:         p.Body,
		Status:       p.Status,
		Priority:     p.Priority,
		AssigneeID:   p.AssigneeID,
		MilestoneID:  p.MilestoneID,
		ParentID:     p.ParentID,
		Labels:       p.Labels,
		Estimate:     p.Estimate,
		StartAt:      p.StartAt,
		DueAt:        p.DueAt,
		ClearStartAt: p.ClearStartAt,
		ClearDueAt:   p.ClearDueAt,
	}
}

type movePayload struct {
	Status   *types.Status `json:"status"`
	AfterID  string        `json:"after_id"`
	BeforeID string        `json:"before_id"`
}

// handleListTasks serves filtered listings. With q present the results
// come back ranked by search score instead of board order.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := taskFilterFromQuery(q)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	offset, err := intParam(q, "offset")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	if query := strings.TrimSpace(q.Get("q")); query != "" {
		results, err := search.SearchStore(s.store, filter, search.SearchOptions{Query: query})
		if err != nil {
			s.failRead(w, err)
			return
		}
		tasks := make([]types.Task, 0, len(results))
		for _, res := range results {
			tasks = append(tasks, res.Task)
		}
		s.respond(w, http.StatusOK, pageOf(tasks, offset, limit))
		return
	}

	tasks, err := s.store.ListTasks(types.ListOptions{Filter: filter, Limit: limit, Offset: offset})
	if err != nil {
		s.failRead(w, err)
		return
	}
	if tasks == nil {
		tasks = []types.Task{}
	}
	s.respond(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var p taskPayload
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.store.AddTask(p.draft())
	if err != nil {
		s.fail(w, err)
		return
	}
	task, err := s.store.GetTask(id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var p taskPatch
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.UpdateTask(id, p.update()); err != nil {
		s.fail(w, err)
		return
	}
	task, err := s.store.GetTask(id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	cascade, err := boolParam(r.URL.Query(), "cascade")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteTask(chi.URLParam(r, "id"), cascade); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveTask repositions a task and returns it with the fresh order
// key, so drag-and-drop clients can reconcile without a refetch.
func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var p movePayload
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	task, err := s.store.MoveTask(chi.URLParam(r, "id"), types.MoveRequest{
		Status:   p.Status,
		AfterID:  p.AfterID,
		BeforeID: p.BeforeID,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, task)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.CompleteTask(id); err != nil {
		s.fail(w, err)
		return
	}
	task, err := s.store.GetTask(id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, task)
}

func (s *Server) handleReopenTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.ReopenTask(id); err != nil {
		s.fail(w, err)
		return
	}
	task, err := s.store.GetTask(id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, task)
}
