package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/types"
)

type memberPayload struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  types.Role `json:"role"`
}

type memberPatch struct {
	Name  *string     `json:"name"`
	Email *string     `json:"email"`
	Role  *types.Role `json:"role"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.ListMembers()
	if err != nil {
		s.failRead(w, err)
		return
	}
	if members == nil {
		members = []types.Member{}
	}
	s.respond(w, http.StatusOK, members)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var p memberPayload
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.store.AddMember(types.MemberDraft{
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	member, err := s.memberByID(id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusCreated, member)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var p memberPatch
	if err := decode(r, &p); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id := chi.URLParam(r, "id")
	err := s.store.UpdateMember(id, types.MemberUpdate{
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	member, err := s.memberByID(id)
	if err != nil {
		s.failRead(w, err)
		return
	}
	s.respond(w, http.StatusOK, member)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveMember(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// memberByID finds one member in the listing; the store has no point
// lookup for members.
func (s *Server) memberByID(id string) (types.Member, error) {
	members, err := s.store.ListMembers()
	if err != nil {
		return types.Member{}, err
	}
	for _, m := range members {
		if m.ID == id {
			return m, nil
		}
	}
	return types.Member{}, fmt.Errorf("member %s: %w", id, board.ErrNotFound)
}
