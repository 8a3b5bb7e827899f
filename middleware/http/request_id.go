package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/platform-smith-labs/japi-errors/core"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header name for request IDs
	RequestIDHeader = core.RequestIDHeader

	// RequestIDContextKey is the context key for storing request IDs
	RequestIDContextKey contextKey = "request_id"
)

// WithRequestID generates or propagates request IDs for correlation and tracing.
//
// This middleware:
// - Reads X-Request-ID from incoming request headers
// - Generates a new UUID if no request ID is present
// - Stores the request ID in the request context
// - Adds X-Request-ID to the response headers
//
// Use: Apply to chi router via r.Use(WithRequestID()), before logging
func WithRequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from the request context.
//
// IDs set by chi's middleware.RequestID are returned as well.
// Returns empty string if no request ID is found.
func GetRequestID(r *http.Request) string {
	if requestID, ok := r.Context().Value(RequestIDContextKey).(string); ok {
		return requestID
	}
	return middleware.GetReqID(r.Context())
}
