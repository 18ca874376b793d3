package http

import (
	"net/http"
	"strings"

	"horas/internal/core"
)

type createWorkPlanRequest struct {
	SupervisorID   int64   `json:"supervisorId"`
	ProjectID      int64   `json:"projectId"`
	Description    string  `json:"description"`
	EstimatedHours float64 `json:"estimatedHours"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	FileName       string  `json:"fileName"`
}

// handleListWorkPlans returns every plan with its actual and remaining hours
// so supervisors can compare estimates against logged work.
func (s *Server) handleListWorkPlans(w http.ResponseWriter, r *http.Request) {
	progress, err := s.progress.Progress(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, progress, len(progress))
}

func (s *Server) handleCreateWorkPlan(w http.ResponseWriter, r *http.Request) {
	var req createWorkPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan := core.WorkPlan{
		SupervisorID:   req.SupervisorID,
		ProjectID:      req.ProjectID,
		Description:    strings.TrimSpace(req.Description),
		EstimatedHours: req.EstimatedHours,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		FileName:       req.FileName,
	}

	created, err := s.store.CreateWorkPlan(r.Context(), plan)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}
