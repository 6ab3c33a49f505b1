package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lawrns/foco/types"
	"github.com/lawrns/foco/views"
)

// projectTasks loads every task of one project for a view render. The
// project is fetched first so an unknown ID reads as 404, not as an
// empty board.
func (s *Server) projectTasks(projectID string) ([]types.Task, error) {
	if _, err := s.store.GetProject(projectID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(types.ListOptions{
		Filter: types.TaskFilter{ProjectID: projectID},
	})
}

func (s *Server) handleKanban(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.projectTasks(chi.URLParam(r, "id"))
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, views.Kanban(s.board, tasks))
}

func (s *Server) handleGantt(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	tasks, err := s.projectTasks(projectID)
	if err != nil {
		s.failRead(w, err)
		return
	}
	milestones, err := s.store.ListMilestones(projectID)
	if err != nil {
		s.failRead(w, err)
		return
	}

	q := r.URL.Query()
	from, err := timeParam(q, "from")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	to, err := timeParam(q, "to")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	var window views.Window
	if from != nil {
		window.From = *from
	}
	if to != nil {
		window.To = *to
	}

	s.respond(w, http.StatusOK, views.Gantt(tasks, milestones, window))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.projectTasks(chi.URLParam(r, "id"))
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, views.Summarize(tasks, s.timeFunc()))
}
