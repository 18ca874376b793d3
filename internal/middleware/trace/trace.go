// Package trace assigns a request ID to every request and logs its outcome.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"horas/internal/log"
)

// ContextKey type for context keys
type ContextKey string

// RequestIDKey is the context key for the request ID.
const RequestIDKey ContextKey = "request_id"

// Metrics counts requests and errors seen by the middleware.
type Metrics struct {
	TotalRequests int64
	TotalErrors   int64
}

var metrics Metrics

// GetMetrics returns a snapshot of the request counters.
func GetMetrics() Metrics {
	return Metrics{
		TotalRequests: atomic.LoadInt64(&metrics.TotalRequests),
		TotalErrors:   atomic.LoadInt64(&metrics.TotalErrors),
	}
}

// GenerateRequestID returns a short random request identifier.
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from a context, or "unknown".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// ClientIP resolves the client address, honoring X-Forwarded-For and
// X-Real-IP from a fronting proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware tags each request with an ID and logs method, path, status and
// duration once the handler returns.
func Middleware(logger *log.Logger) func(http.Handler) http.Handler {
	traceLogger := logger.WithComponent(log.ComponentTrace)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = GenerateRequestID()
			}

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			atomic.AddInt64(&metrics.TotalRequests, 1)
			if rw.statusCode >= 500 {
				atomic.AddInt64(&metrics.TotalErrors, 1)
			}

			duration := time.Since(start)
			attrs := []any{
				log.FieldRequestID, requestID,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, ClientIP(r),
				log.FieldStatusCode, rw.statusCode,
				log.FieldDuration, duration.Milliseconds(),
			}
			switch {
			case rw.statusCode >= 500:
				traceLogger.Error("request failed", attrs...)
			case rw.statusCode >= 400:
				traceLogger.Warn("request rejected", attrs...)
			default:
				traceLogger.Info("request completed", attrs...)
			}
		})
	}
}
