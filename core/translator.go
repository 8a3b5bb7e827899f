package core

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorReport is the response produced for one translated error
type ErrorReport struct {
	Message string
	Status  int
}

// Rule is one row of the translation table. Match reports whether err is of
// the rule's kind and, if so, the response to send.
type Rule struct {
	Kind  Kind
	Match func(err error) (ErrorReport, bool)
}

// RuleFor builds a Rule matching any error in err's chain assignable to E.
//
// Example:
//
//	rule := core.RuleFor(core.KindNotFound, http.StatusNotFound,
//	    func(e *core.NotFoundError) string { return e.Message })
func RuleFor[E error](kind Kind, status int, message func(E) string) Rule {
	return Rule{
		Kind: kind,
		Match: func(err error) (ErrorReport, bool) {
			var target E
			if !errors.As(err, &target) {
				return ErrorReport{}, false
			}
			return newReport(message(target), status), true
		},
	}
}

// newReport keeps the message non-empty by falling back to the status text
func newReport(message string, status int) ErrorReport {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(status)
	}
	return ErrorReport{Message: message, Status: status}
}

// DefaultRules returns the translation table in match order
func DefaultRules() []Rule {
	return []Rule{
		RuleFor(KindNotFound, http.StatusNotFound,
			func(e *NotFoundError) string { return e.Message }),
		RuleFor(KindBadRequest, http.StatusBadRequest,
			func(e *IllegalStateError) string { return e.Message }),
		RuleFor(KindBadRequest, http.StatusBadRequest,
			func(e *IllegalArgumentError) string { return e.Message }),
		RuleFor(KindValidationFailure, http.StatusBadRequest,
			func(e *ValidationError) string { return e.joined() }),
		RuleFor(KindTypeMismatch, http.StatusBadRequest,
			func(*TypeMismatchError) string { return TypeMismatchMessage }),
		RuleFor(KindMissingParameter, http.StatusBadRequest,
			func(e *MissingParameterError) string { return e.Parameter + MissingParameterMessage }),
		RuleFor(KindMalformedBody, http.StatusBadRequest,
			func(*MalformedBodyError) string { return JSONTypeMismatchMessage }),
		RuleFor(KindResourceNotFound, http.StatusNotFound,
			func(*NoResourceError) string { return ResourceNotFoundMessage }),
	}
}

// Observer is notified of every error the Translator handles
type Observer interface {
	ObserveTranslation(r *http.Request, kind Kind, report ErrorReport)
}

// Option configures a Translator
type Option func(*Translator)

// WithRules appends rules after the default table. Defaults always match first.
func WithRules(rules ...Rule) Option {
	return func(t *Translator) {
		t.rules = append(t.rules, rules...)
	}
}

// WithObserver registers an observer called after each handled error
func WithObserver(observer Observer) Option {
	return func(t *Translator) {
		t.observers = append(t.observers, observer)
	}
}

// Translator converts errors raised during request handling into plain-text
// HTTP responses. It is immutable after construction and safe for concurrent use.
type Translator struct {
	logger    *slog.Logger
	rules     []Rule
	observers []Observer
}

// NewTranslator creates a Translator with the default rules.
// A nil logger uses slog.Default().
func NewTranslator(logger *slog.Logger, opts ...Option) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Translator{
		logger: logger,
		rules:  DefaultRules(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate finds the first rule matching err. It has no side effects.
func (t *Translator) Translate(err error) (ErrorReport, Kind, bool) {
	if err == nil {
		return ErrorReport{}, "", false
	}
	for _, rule := range t.rules {
		if report, ok := rule.Match(err); ok {
			return report, rule.Kind, true
		}
	}
	return ErrorReport{}, "", false
}

// Handle translates err, logs the message at error level and writes it as the
// response. It returns false, writing nothing, when no rule matches err.
func (t *Translator) Handle(w http.ResponseWriter, r *http.Request, err error) bool {
	report, kind, ok := t.Translate(err)
	if !ok {
		return false
	}

	logFields := append([]any{
		"status", report.Status,
		"kind", string(kind),
	}, extractRequestContext(w, r)...)
	t.logger.Error(report.Message, logFields...)

	for _, observer := range t.observers {
		observer.ObserveTranslation(r, kind, report)
	}

	WriteReport(w, report)
	return true
}

// extractRequestContext returns the request fields attached to every error record
func extractRequestContext(w http.ResponseWriter, r *http.Request) []any {
	logFields := []any{
		"method", r.Method,
		"path", r.URL.Path,
	}

	if r.URL.RawQuery != "" {
		logFields = append(logFields, "query", r.URL.RawQuery)
	}

	if id := requestID(w, r); id != "" {
		logFields = append(logFields, "request_id", id)
	}

	return logFields
}

// requestID finds the ID set by chi's middleware.RequestID, echoed on the
// response by the request ID middleware, or sent by the client
func requestID(w http.ResponseWriter, r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := w.Header().Get(RequestIDHeader); id != "" {
		return id
	}
	return r.Header.Get(RequestIDHeader)
}
