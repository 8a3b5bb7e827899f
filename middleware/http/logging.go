// Package http provides standard HTTP middleware that works with http.Handler.
// These middleware can be applied globally to Chi routers via r.Use().
package http

import (
	"log/slog"
	"net/http"
	"time"
)

// WithLogging creates structured access-log middleware for Chi.
//
// One info record per request carries the final status, so error responses
// written by the translator show up with their 400/404 code.
//
// Use: Apply to chi router via r.Use(WithLogging(logger))
func WithLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(ww, r)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if requestID := GetRequestID(r); requestID != "" {
				fields = append(fields, "request_id", requestID)
			}
			logger.Info("HTTP Response", fields...)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}
