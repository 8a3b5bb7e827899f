package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// TestWithRequestID verifies generation and propagation of request IDs
func TestWithRequestID(t *testing.T) {
	t.Run("generates UUID when no request ID header present", func(t *testing.T) {
		var captured string
		h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

		if _, err := uuid.Parse(captured); err != nil {
			t.Errorf("Expected valid UUID, got %q: %v", captured, err)
		}
		if rec.Header().Get(RequestIDHeader) != captured {
			t.Errorf("Expected response header to match context request ID")
		}
	})

	t.Run("propagates existing X-Request-ID header", func(t *testing.T) {
		var captured string
		h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r)
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "test-request-id-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if captured != "test-request-id-123" {
			t.Errorf("Expected propagated request ID, got %q", captured)
		}
		if rec.Header().Get(RequestIDHeader) != "test-request-id-123" {
			t.Errorf("Expected response header to carry the request ID")
		}
	})

	t.Run("unique IDs per request", func(t *testing.T) {
		h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec1 := httptest.NewRecorder()
		h.ServeHTTP(rec1, httptest.NewRequest("GET", "/test", nil))
		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest("GET", "/test", nil))

		if rec1.Header().Get(RequestIDHeader) == rec2.Header().Get(RequestIDHeader) {
			t.Error("Expected unique request IDs")
		}
	})
}

// TestGetRequestID verifies lookup sources
func TestGetRequestID(t *testing.T) {
	t.Run("returns empty string when no request ID in context", func(t *testing.T) {
		if id := GetRequestID(httptest.NewRequest("GET", "/test", nil)); id != "" {
			t.Errorf("Expected empty string, got %s", id)
		}
	})

	t.Run("falls back to chi request ID", func(t *testing.T) {
		var captured string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))

		if captured == "" {
			t.Error("Expected chi request ID to be returned")
		}
	})
}

// BenchmarkWithRequestID benchmarks request ID middleware performance
func BenchmarkWithRequestID(b *testing.B) {
	h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = GetRequestID(r)
	}))

	req := httptest.NewRequest("GET", "/test", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
