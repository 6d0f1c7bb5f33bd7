package middleware

import (
	"net/http"
	"time"

	"plexport/internal/observability"
)

// Metrics records request count, duration, and in-flight gauge per route.
// A nil metrics handle yields a pass-through, so metrics can be disabled
// by configuration without branching at every call site.
func Metrics(m *observability.HTTPMetrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RecordRequestStart(r.Context())

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}
			m.RecordRequestEnd(r.Context(), route, wrapped.statusCode, time.Since(start))
		})
	}
}
