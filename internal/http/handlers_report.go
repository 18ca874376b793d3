package http

import (
	"fmt"
	"net/http"
	"time"

	"horas/internal/core"
)

// reportPayload is the server-side rendition of the report export: the
// filtered entries plus rollups by project and by user, with the filters that
// produced them.
type reportPayload struct {
	Activities []core.Activity   `json:"activities"`
	TotalHours float64           `json:"totalHours"`
	ByProject  []core.GroupTotal `json:"byProject"`
	ByUser     []core.GroupTotal `json:"byUser"`
	Filters    reportFilterEcho  `json:"filters"`
}

type reportFilterEcho struct {
	ProjectID *int64 `json:"projectId,omitempty"`
	UserID    *int64 `json:"userId,omitempty"`
}

// handleSummary returns day/week/month hour totals anchored at "now". The
// optional ?now= parameter (RFC3339) pins the anchor for reproducible
// dashboards.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	key := "now"
	if raw := r.URL.Query().Get("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid now '%s': expected RFC3339", raw))
			return
		}
		now = parsed
		key = raw
	}

	if cached, ok := s.summaryCache.Get(key); ok {
		respondData(w, http.StatusOK, cached)
		return
	}

	activities, err := s.store.ListActivities(r.Context(), core.ActivityFilter{})
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	totals := core.ComputePeriodTotals(activities, now)
	s.summaryCache.Set(key, totals)
	respondData(w, http.StatusOK, totals)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
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

	key := reportCacheKey(projectID, userID)
	if cached, ok := s.reportCache.Get(key); ok {
		respondData(w, http.StatusOK, cached)
		return
	}

	filter := core.ActivityFilter{ProjectID: projectID, UserID: userID}
	activities, err := s.store.ListActivities(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	var total float64
	for _, a := range activities {
		total += a.Hours
	}

	payload := reportPayload{
		Activities: activities,
		TotalHours: total,
		ByProject:  core.GroupTotalsList(core.SumByProject(activities)),
		ByUser:     core.GroupTotalsList(core.SumByUser(activities)),
		Filters:    reportFilterEcho{ProjectID: projectID, UserID: userID},
	}

	s.reportCache.Set(key, payload)
	respondData(w, http.StatusOK, payload)
}

func reportCacheKey(projectID, userID *int64) string {
	key := "report"
	if projectID != nil {
		key += fmt.Sprintf(":p%d", *projectID)
	}
	if userID != nil {
		key += fmt.Sprintf(":u%d", *userID)
	}
	return key
}
