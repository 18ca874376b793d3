package http

import (
	"net/http"
	"strings"

	"horas/internal/core"
	"horas/internal/store"
)

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type updateUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, users, len(users))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := s.store.GetUserDetail(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, detail)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u := core.User{
		Email: strings.TrimSpace(req.Email),
		Name:  strings.TrimSpace(req.Name),
		Role:  core.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
	}

	created, err := s.store.CreateUser(r.Context(), u)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	s.invalidateCaches()
	respondData(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.UserPatch{Name: req.Name}
	if req.Role != nil {
		role := core.Role(strings.ToUpper(strings.TrimSpace(*req.Role)))
		if !role.Valid() {
			respondError(w, http.StatusBadRequest, core.ErrInvalidRole.Error())
			return
		}
		patch.Role = &role
	}

	updated, err := s.store.UpdateUser(r.Context(), id, patch)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	s.invalidateCaches()
	respondData(w, http.StatusOK, updated)
}

// handleDeleteUser removes the user; their activities go with them.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		respondStoreError(w, r, err)
		return
	}

	s.invalidateCaches()
	respondMessage(w, "user deleted")
}
