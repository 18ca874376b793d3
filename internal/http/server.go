// Package http exposes the JSON API: users, reference data, activities,
// period summaries, reports and work plans.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"horas/internal/cache"
	"horas/internal/core"
	"horas/internal/log"
	"horas/internal/middleware/ratelimit"
	"horas/internal/middleware/security"
	"horas/internal/middleware/trace"
	"horas/internal/services"
	"horas/internal/store"
)

// Store is everything the handlers need from the backend.
type Store interface {
	store.ActivityStore
	store.UserStore
	store.ReferenceReader
	store.WorkPlanStore
}

type Server struct {
	http.Server
	store    Store
	progress *services.PlanProgressService
	logger   *log.Logger
	limiter  *ratelimit.Limiter

	summaryCache *cache.LRU[core.PeriodTotals]
	reportCache  *cache.LRU[reportPayload]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, st Store, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:            st,
		progress:         services.NewPlanProgressService(st, st),
		logger:           logger.WithComponent(log.ComponentHTTP),
		limiter:          ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		summaryCache:     cache.NewLRU[core.PeriodTotals](100, 5*time.Minute),
		reportCache:      cache.NewLRU[reportPayload](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	// Rate limiting applies to mutations only; dashboard polling stays free.
	limited := s.limiter.Middleware(trace.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.Handle("POST /api/users", limited(http.HandlerFunc(s.handleCreateUser)))
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.Handle("PUT /api/users/{id}", limited(http.HandlerFunc(s.handleUpdateUser)))
	mux.Handle("DELETE /api/users/{id}", limited(http.HandlerFunc(s.handleDeleteUser)))

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}/packages", s.handleListPackages)
	mux.HandleFunc("GET /api/projects/{id}/catalog", s.handleListCatalog)

	mux.HandleFunc("GET /api/activities", s.handleListActivities)
	mux.Handle("POST /api/activities", limited(http.HandlerFunc(s.handleCreateActivity)))
	mux.Handle("PUT /api/activities/{id}", limited(http.HandlerFunc(s.handleUpdateActivity)))
	mux.Handle("DELETE /api/activities/{id}", limited(http.HandlerFunc(s.handleDeleteActivity)))

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/reports", s.handleReports)

	mux.HandleFunc("GET /api/workplans", s.handleListWorkPlans)
	mux.Handle("POST /api/workplans", limited(http.HandlerFunc(s.handleCreateWorkPlan)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	handler := trace.Middleware(logger)(
		security.HeadersMiddleware(security.DefaultHeadersConfig())(
			log.Middleware(logger)(mux)))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.startCacheCleanup()

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summaryCleaned := s.summaryCache.CleanExpired()
			reportCleaned := s.reportCache.CleanExpired()
			if summaryCleaned > 0 || reportCleaned > 0 {
				s.logger.Debug("Cache cleanup completed",
					"summary_entries_removed", summaryCleaned,
					"report_entries_removed", reportCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateCaches drops all cached rollups. Called after every mutation
// that can change totals.
func (s *Server) invalidateCaches() {
	s.summaryCache.Purge()
	s.reportCache.Purge()
}

// Shutdown stops the cleanup goroutines along with the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady probes the backend with a cheap read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := s.store.ListProjects(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("backend unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	tm := trace.GetMetrics()
	rm := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "http_errors_total %d\n", tm.TotalErrors)
	fmt.Fprintf(w, "rate_limit_hits_total %d\n", rm.TotalHits)
	fmt.Fprintf(w, "rate_limit_clients %d\n", rm.ClientCount)
	fmt.Fprintf(w, "cache_summary_entries %d\n", s.summaryCache.Size())
	fmt.Fprintf(w, "cache_report_entries %d\n", s.reportCache.Size())
}
