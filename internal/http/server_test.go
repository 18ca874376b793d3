package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"horas/internal/core"
	"horas/internal/log"
	"horas/internal/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	srv := NewServer(":0", memory.NewSeeded(), logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func doRequest(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	var env testEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestListUsers(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/users", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !env.Success {
		t.Error("expected success")
	}
	if env.Count == nil || *env.Count != 4 {
		t.Errorf("expected count 4, got %v", env.Count)
	}

	var users []core.User
	if err := json.Unmarshal(env.Data, &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if users[0].ID != 103 {
		t.Errorf("expected newest user 103 first, got %d", users[0].ID)
	}
}

func TestCreateUser(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodPost, "/api/users",
		`{"email":"nueva@horas.dev","name":"Nueva"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created core.User
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if created.ID != 104 {
		t.Errorf("expected id 104, got %d", created.ID)
	}
	if created.Role != core.RoleEmployee {
		t.Errorf("expected default role EMPLOYEE, got %s", created.Role)
	}

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec, env := doRequest(t, srv, http.MethodPost, "/api/users",
			`{"email":"NUEVA@horas.dev","name":"Otra"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if env.Success || env.Error == "" {
			t.Error("expected failure envelope with error message")
		}
	})

	t.Run("missing email rejected", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodPost, "/api/users", `{"name":"Sin Correo"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodPost, "/api/users",
			`{"email":"rol@horas.dev","name":"Rol","role":"WIZARD"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetUserDetail(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/users/101", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var detail core.UserDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.RecentActivities) != 1 {
		t.Fatalf("expected 1 recent activity, got %d", len(detail.RecentActivities))
	}
	if detail.RecentActivities[0].ProjectName != "Proyecto Alpha" {
		t.Errorf("expected project name, got %q", detail.RecentActivities[0].ProjectName)
	}
	if len(detail.Projects) != 1 || detail.Projects[0].ProjectID != 1 {
		t.Errorf("unexpected memberships: %+v", detail.Projects)
	}

	t.Run("unknown user is 404", func(t *testing.T) {
		rec, env := doRequest(t, srv, http.MethodGet, "/api/users/999", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if env.Success {
			t.Error("expected failure envelope")
		}
	})

	t.Run("bad id is 400", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodGet, "/api/users/abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUpdateUser(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodPut, "/api/users/101", `{"name":"María L."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var updated core.User
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if updated.Name != "María L." {
		t.Errorf("expected renamed user, got %q", updated.Name)
	}

	t.Run("unknown user is 404", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodPut, "/api/users/999", `{"name":"Nadie"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestDeleteUserCascades(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodDelete, "/api/users/103", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !env.Success || env.Message == "" {
		t.Error("expected success message envelope")
	}

	_, listEnv := doRequest(t, srv, http.MethodGet, "/api/activities?userId=103", "")
	if listEnv.Count == nil || *listEnv.Count != 0 {
		t.Errorf("expected user's activities gone, count %v", listEnv.Count)
	}

	t.Run("unknown user is 404", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodDelete, "/api/users/999", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestReferenceData(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/projects", "")
	if rec.Code != http.StatusOK || env.Count == nil || *env.Count != 3 {
		t.Fatalf("expected 3 projects, got code %d count %v", rec.Code, env.Count)
	}

	_, env = doRequest(t, srv, http.MethodGet, "/api/projects/1/packages", "")
	if env.Count == nil || *env.Count != 2 {
		t.Errorf("expected 2 packages for project 1, got %v", env.Count)
	}

	_, env = doRequest(t, srv, http.MethodGet, "/api/projects/2/catalog", "")
	if env.Count == nil || *env.Count != 2 {
		t.Errorf("expected 2 catalog types for project 2, got %v", env.Count)
	}
}

func TestListActivitiesFilters(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"no filter", "", 3},
		{"by project", "?projectId=1", 1},
		{"by user", "?userId=103", 1},
		{"by date", "?date=2024-07-02", 1},
		{"combined no match", "?projectId=1&userId=103", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := doRequest(t, srv, http.MethodGet, "/api/activities"+tc.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if env.Count == nil || *env.Count != tc.want {
				t.Errorf("expected count %d, got %v", tc.want, env.Count)
			}
		})
	}

	t.Run("bad projectId is 400", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodGet, "/api/activities?projectId=abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCreateActivity(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodPost, "/api/activities",
		`{"name":"Desarrollo","description":"API de reportes","hours":"2,5","date":"2024-07-04","userId":101,"projectId":1,"catalogId":2,"packageId":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created core.Activity
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if created.ID != 4 {
		t.Errorf("expected id 4, got %d", created.ID)
	}
	if created.Hours != 2.5 {
		t.Errorf("expected comma decimal parsed to 2.5, got %v", created.Hours)
	}

	t.Run("invalid hours rejected", func(t *testing.T) {
		rec, env := doRequest(t, srv, http.MethodPost, "/api/activities",
			`{"name":"X","hours":25,"date":"2024-07-04","userId":101,"projectId":1,"catalogId":2}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if env.Error == "" {
			t.Error("expected error message")
		}
	})

	t.Run("bad date rejected", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodPost, "/api/activities",
			`{"name":"X","hours":2,"date":"04/07/2024","userId":101,"projectId":1,"catalogId":2}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("package from another project rejected", func(t *testing.T) {
		rec, env := doRequest(t, srv, http.MethodPost, "/api/activities",
			`{"name":"X","hours":2,"date":"2024-07-04","userId":101,"projectId":1,"catalogId":2,"packageId":3}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(env.Error, "different project") {
			t.Errorf("expected package mismatch error, got %q", env.Error)
		}
	})

	t.Run("empty body rejected", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodPost, "/api/activities", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUpdateActivity(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodPut, "/api/activities/1",
		`{"hours":5,"packageId":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated core.Activity
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if updated.Hours != 5 {
		t.Errorf("expected hours 5, got %v", updated.Hours)
	}
	if updated.PackageID != nil {
		t.Errorf("expected explicit null to clear the package, got %v", *updated.PackageID)
	}

	t.Run("absent field leaves package untouched", func(t *testing.T) {
		_, env := doRequest(t, srv, http.MethodPut, "/api/activities/1", `{"hours":6}`)
		var a core.Activity
		if err := json.Unmarshal(env.Data, &a); err != nil {
			t.Fatalf("decode activity: %v", err)
		}
		if a.PackageID != nil {
			t.Errorf("package should still be cleared, got %v", *a.PackageID)
		}
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodPut, "/api/activities/999", `{"hours":2}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestDeleteActivity(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodDelete, "/api/activities/2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	t.Run("second delete is 404", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodDelete, "/api/activities/2", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestSummary(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/summary?now=2024-07-03T12:00:00Z", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var totals core.PeriodTotals
	if err := json.Unmarshal(env.Data, &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if totals.Day != 2.5 {
		t.Errorf("expected day 2.5, got %v", totals.Day)
	}
	if totals.Week != 9.5 {
		t.Errorf("expected week 9.5, got %v", totals.Week)
	}
	if totals.Month != 9.5 {
		t.Errorf("expected month 9.5, got %v", totals.Month)
	}

	t.Run("bad now is 400", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodGet, "/api/summary?now=yesterday", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("mutation invalidates the cache", func(t *testing.T) {
		doRequest(t, srv, http.MethodPost, "/api/activities",
			`{"name":"Extra","hours":2,"date":"2024-07-03","userId":101,"projectId":1,"catalogId":1}`)

		_, env := doRequest(t, srv, http.MethodGet, "/api/summary?now=2024-07-03T12:00:00Z", "")
		var after core.PeriodTotals
		if err := json.Unmarshal(env.Data, &after); err != nil {
			t.Fatalf("decode totals: %v", err)
		}
		if after.Month != 11.5 {
			t.Errorf("expected month 11.5 after new entry, got %v", after.Month)
		}
	})
}

func TestReports(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/reports?projectId=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report reportPayload
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalHours != 3 {
		t.Errorf("expected total 3, got %v", report.TotalHours)
	}
	if len(report.ByProject) != 1 || report.ByProject[0].Key != 1 {
		t.Errorf("unexpected byProject: %+v", report.ByProject)
	}
	if report.Filters.ProjectID == nil || *report.Filters.ProjectID != 1 {
		t.Error("expected applied filter echoed back")
	}

	t.Run("unfiltered report covers everyone", func(t *testing.T) {
		_, env := doRequest(t, srv, http.MethodGet, "/api/reports", "")
		var report reportPayload
		if err := json.Unmarshal(env.Data, &report); err != nil {
			t.Fatalf("decode report: %v", err)
		}
		if report.TotalHours != 9.5 {
			t.Errorf("expected total 9.5, got %v", report.TotalHours)
		}
		if len(report.ByUser) != 3 {
			t.Errorf("expected 3 users in rollup, got %d", len(report.ByUser))
		}
	})
}

func TestWorkPlans(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodPost, "/api/workplans",
		`{"supervisorId":55,"projectId":1,"description":"Fase de análisis","estimatedHours":10,"startDate":"2024-07-01","endDate":"2024-07-31"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var plan core.WorkPlan
	if err := json.Unmarshal(env.Data, &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.ID != 1 {
		t.Errorf("expected id 1, got %d", plan.ID)
	}

	t.Run("progress compares against logged hours", func(t *testing.T) {
		_, env := doRequest(t, srv, http.MethodGet, "/api/workplans", "")
		var progress []core.PlanProgress
		if err := json.Unmarshal(env.Data, &progress); err != nil {
			t.Fatalf("decode progress: %v", err)
		}
		if len(progress) != 1 {
			t.Fatalf("expected 1 plan, got %d", len(progress))
		}
		if progress[0].ActualHours != 3 {
			t.Errorf("expected 3 actual hours, got %v", progress[0].ActualHours)
		}
		if progress[0].RemainingHours != 7 {
			t.Errorf("expected 7 remaining hours, got %v", progress[0].RemainingHours)
		}
	})

	t.Run("inverted window rejected", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodPost, "/api/workplans",
			`{"supervisorId":55,"projectId":1,"description":"X","estimatedHours":5,"startDate":"2024-08-01","endDate":"2024-07-01"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", rec.Code)
	}

	rec, _ = doRequest(t, srv, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz: expected 200, got %d", rec.Code)
	}

	rec, _ = doRequest(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("metrics missing request counter: %q", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/api/projects", "")
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff, got %q", got)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t)

	var limited bool
	for i := 0; i < 70; i++ {
		body := fmt.Sprintf(`{"email":"u%d@horas.dev","name":"U%d"}`, i, i)
		rec, _ := doRequest(t, srv, http.MethodPost, "/api/users", body)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			if rec.Header().Get("Retry-After") != "60" {
				t.Errorf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
			}
			break
		}
	}
	if !limited {
		t.Error("expected rate limit to trigger on repeated mutations")
	}

	rec, _ := doRequest(t, srv, http.MethodGet, "/api/users", "")
	if rec.Code != http.StatusOK {
		t.Errorf("reads should not be rate limited, got %d", rec.Code)
	}
}
