package core

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// HandlerFunc represents a handler that can return an error for cleaner composition
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP converts our custom HandlerFunc to standard http.Handler.
// Errors go through the default Translator, then Fallback.
func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		HandleError(DefaultTranslator(), w, r, err)
	}
}

var defaultTranslator atomic.Pointer[Translator]

// DefaultTranslator returns the translator used by HandlerFunc.
// Until SetDefaultTranslator is called it logs to slog.Default().
func DefaultTranslator() *Translator {
	if t := defaultTranslator.Load(); t != nil {
		return t
	}
	t := NewTranslator(nil)
	if defaultTranslator.CompareAndSwap(nil, t) {
		return t
	}
	return defaultTranslator.Load()
}

// SetDefaultTranslator replaces the translator used by HandlerFunc
func SetDefaultTranslator(t *Translator) {
	defaultTranslator.Store(t)
}

// HandleError is the centralized error hook: the translator gets the first
// chance at err, anything it does not recognize goes to Fallback.
// A nil translator uses DefaultTranslator().
func HandleError(t *Translator, w http.ResponseWriter, r *http.Request, err error) {
	if t == nil {
		t = DefaultTranslator()
	}
	if t.Handle(w, r, err) {
		return
	}
	Fallback(w, r, err)
}

// APIError represents a structured API error written as JSON by Fallback
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e APIError) Error() string {
	msg := fmt.Sprintf("API Error %d: %s", e.Code, e.Message)
	if e.Detail != "" {
		msg += fmt.Sprintf(" - %s", e.Detail)
	}
	return msg
}

// NewAPIError creates a new API error
func NewAPIError(code int, message string, detail ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
	}
	if len(detail) > 0 {
		err.Detail = detail[0]
	}
	return err
}

// Fallback handles errors no translation rule recognizes.
// APIError values keep their status and JSON envelope; anything else is a 500.
func Fallback(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		WriteAPIError(w, r, *apiErr)
		return
	}

	slog.Error("Unexpected error in handler",
		"original_error", err.Error(),
		"method", r.Method,
		"path", r.URL.Path,
	)

	WriteAPIError(w, r, *NewAPIError(http.StatusInternalServerError, "Internal Server Error"))
}
