package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/types"
)

type milestonePayload struct {
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	DueAt     *time.Time `json:"due_at"`
}

type milestonePatch struct {
	Name       *string    `json:"name"`
	DueAt      *time.Time `json:"due_at"`
	ClearDueAt bool       `json:"clear_due_at"`
}

func (s *Server) handleListMilestones(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("project query parameter is required"))
		return
	}
	milestones, err := s.store.ListMilestones(projectID)
	if err != nil {
		s.failRead(w, err)
		return
	}
	if milestones == nil {
		milestones = []types.Milestone{}
	}
	s.respond(w, http.StatusOK, milestones)
}

func (s *Server) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	var p milestonePayload
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.store.AddMilestone(types.MilestoneDraft{
		ProjectID: p.ProjectID,
		Name:      p.Name,
		DueAt:     p.DueAt,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	milestone, err := s.milestoneByID(p.ProjectID, id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusCreated, milestone)
}

// handleUpdateMilestone answers 204: the store has no point lookup for
// milestones, so there is no refreshed record to return without the
// owning project.
func (s *Server) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	var p milestonePatch
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	err := s.store.UpdateMilestone(chi.URLParam(r, "id"), types.MilestoneUpdate{
		Name:       p.Name,
		DueAt:      p.DueAt,
		ClearDueAt: p.ClearDueAt,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMilestone(w http.ResponseWriter, r *http.Request) {
	reassignTo := r.URL.Query().Get("reassign_to")
	if err := s.store.DeleteMilestone(chi.URLParam(r, "id"), reassignTo); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveMilestone(w http.ResponseWriter, r *http.Request) {
	var p movePayload
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	milestone, err := s.store.MoveMilestone(chi.URLParam(r, "id"), types.MoveRequest{
		AfterID:  p.AfterID,
		BeforeID: p.BeforeID,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, milestone)
}

// milestoneByID finds one milestone in its project's listing.
func (s *Server) milestoneByID(projectID, id string) (types.Milestone, error) {
	milestones, err := s.store.ListMilestones(projectID)
	if err != nil {
		return types.Milestone{}, err
	}
	for _, m := range milestones {
		if m.ID == id {
			return m, nil
		}
	}
	return types.Milestone{}, fmt.Errorf("milestone %s: %w", id, board.ErrNotFound)
}
