package http

import (
	"errors"
	"net/http"

	"horas/internal/core"
	"horas/internal/store"
)

type createActivityRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Hours       hoursValue `json:"hours"`
	Date        string     `json:"date"`
	UserID      int64      `json:"userId"`
	ProjectID   int64      `json:"projectId"`
	CatalogID   int64      `json:"catalogId"`
	PackageID   optionalID `json:"packageId"`
}

type updateActivityRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Hours       hoursValue `json:"hours"`
	Date        *string    `json:"date"`
	ProjectID   *int64     `json:"projectId"`
	CatalogID   *int64     `json:"catalogId"`
	PackageID   optionalID `json:"packageId"`
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	projectID, err := queryInt64(r, "projectId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := queryInt64(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := core.ActivityFilter{
		ProjectID: projectID,
		UserID:    userID,
		Date:      r.URL.Query().Get("date"),
	}

	activities, err := s.store.ListActivities(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, activities, len(activities))
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req createActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, core.ErrInvalidHours) {
			respondError(w, http.StatusBadRequest, core.ErrInvalidHours.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := core.Activity{
		Name:        req.Name,
		Description: req.Description,
		Hours:       req.Hours.value,
		Date:        req.Date,
		UserID:      req.UserID,
		ProjectID:   req.ProjectID,
		CatalogID:   req.CatalogID,
		PackageID:   req.PackageID.value,
	}

	created, err := s.store.CreateActivity(r.Context(), a)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	s.invalidateCaches()
	respondData(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.ActivityPatch{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		ProjectID:   req.ProjectID,
		CatalogID:   req.CatalogID,
	}
	if req.Hours.set {
		patch.Hours = &req.Hours.value
	}
	if req.PackageID.set {
		patch.PackageID = &req.PackageID.value
	}

	updated, err := s.store.UpdateActivity(r.Context(), id, patch)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	s.invalidateCaches()
	respondData(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteActivity(r.Context(), id); err != nil {
		respondStoreError(w, r, err)
		return
	}

	s.invalidateCaches()
	respondMessage(w, "activity deleted")
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, projects, len(projects))
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	packages, err := s.store.ListPackages(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, packages, len(packages))
}

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	catalog, err := s.store.ListCatalog(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, catalog, len(catalog))
}
