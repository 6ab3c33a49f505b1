package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lawrns/foco/types"
)

type projectPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	OwnerID     string `json:"owner_id"`
}

type projectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	OwnerID     *string `json:"owner_id"`
	Archived    *bool   `json:"archived"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	includeArchived, err := boolParam(r.URL.Query(), "archived")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	projects, err := s.store.ListProjects(includeArchived)
	if err != nil {
		s.failRead(w, err)
		return
	}
	if projects == nil {
		projects = []types.Project{}
	}
	s.respond(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p projectPayload
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.store.AddProject(types.ProjectDraft{
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		OwnerID:     p.OwnerID,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	project, err := s.store.GetProject(id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var p projectPatch
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id := chi.URLParam(r, "id")
	err := s.store.UpdateProject(id, types.ProjectUpdate{
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		OwnerID:     p.OwnerID,
		Archived:    p.Archived,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	project, err := s.store.GetProject(id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	cascade, err := boolParam(r.URL.Query(), "cascade")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteProject(chi.URLParam(r, "id"), cascade); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
