// Package security applies standard security headers to every response.
package security

import "net/http"

// HeadersConfig holds security header configuration
type HeadersConfig struct {
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeOptions    string
	ReferrerPolicy        string
	StrictTransportSec    string
}

// DefaultHeadersConfig returns a restrictive policy suited to a JSON API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		FrameOptions:          "DENY",
		ContentTypeOptions:    "nosniff",
		ReferrerPolicy:        "no-referrer",
		StrictTransportSec:    "max-age=31536000; includeSubDomains",
	}
}

// HeadersMiddleware sets the configured headers before the handler runs.
func HeadersMiddleware(config HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.ContentSecurityPolicy != "" {
				w.Header().Set("Content-Security-Policy", config.ContentSecurityPolicy)
			}
			if config.FrameOptions != "" {
				w.Header().Set("X-Frame-Options", config.FrameOptions)
			}
			if config.ContentTypeOptions != "" {
				w.Header().Set("X-Content-Type-Options", config.ContentTypeOptions)
			}
			if config.ReferrerPolicy != "" {
				w.Header().Set("Referrer-Policy", config.ReferrerPolicy)
			}
			// HSTS only makes sense over TLS
			if r.TLS != nil && config.StrictTransportSec != "" {
				w.Header().Set("Strict-Transport-Security", config.StrictTransportSec)
			}
			next.ServeHTTP(w, r)
		})
	}
}
