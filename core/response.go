package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON sends a JSON response with the given status and data
func JSON[T any](w http.ResponseWriter, status int, data T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Success sends a 200 OK JSON response
func Success[T any](w http.ResponseWriter, data T) error {
	return JSON(w, http.StatusOK, data)
}

// Created sends a 201 Created JSON response
func Created[T any](w http.ResponseWriter, data T) error {
	return JSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Text sends a plain-text response
func Text(w http.ResponseWriter, status int, body string) error {
	w.Header().Set("Content-Type", ContentTypeText)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	return err
}

// WriteReport sends a translated error: the status and the bare message as body
func WriteReport(w http.ResponseWriter, report ErrorReport) error {
	return Text(w, report.Status, report.Message)
}

// WriteAPIError sends an error response for APIError types with request logging
func WriteAPIError(w http.ResponseWriter, r *http.Request, apiErr APIError) error {
	logFields := []any{
		"status", apiErr.Code,
		"message", apiErr.Message,
	}

	if apiErr.Detail != "" {
		logFields = append(logFields, "detail", apiErr.Detail)
	}

	logFields = append(logFields, extractAPIErrorContext(r)...)

	// Log based on status code
	if apiErr.Code >= 500 {
		slog.Error("API error response", logFields...)
	} else {
		slog.Warn("API error response", logFields...)
	}

	response := map[string]any{
		"error": apiErr,
	}
	return JSON(w, apiErr.Code, response)
}

// extractAPIErrorContext extracts useful request context for logging
func extractAPIErrorContext(r *http.Request) []any {
	logFields := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	}

	if r.URL.RawQuery != "" {
		logFields = append(logFields, "query", r.URL.RawQuery)
	}

	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		logFields = append(logFields, "request_id", requestID)
	}

	return logFields
}
