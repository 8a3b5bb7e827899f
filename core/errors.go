package core

import (
	"fmt"
	"strings"
)

// NotFoundError reports that a domain object requested by the client does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// NotFound creates a NotFoundError with the given message
func NotFound(message string) error {
	return &NotFoundError{Message: message}
}

// NotFoundf creates a NotFoundError with a formatted message
//
// Example:
//
//	return core.NotFoundf("user %d not found", id)
func NotFoundf(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// IllegalStateError reports an operation invoked while the target is in the wrong state
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string {
	return e.Message
}

// IllegalState creates an IllegalStateError
func IllegalState(message string) error {
	return &IllegalStateError{Message: message}
}

// IllegalArgumentError reports a caller-supplied value the handler refuses to work with
type IllegalArgumentError struct {
	Message string
}

func (e *IllegalArgumentError) Error() string {
	return e.Message
}

// IllegalArgument creates an IllegalArgumentError
func IllegalArgument(message string) error {
	return &IllegalArgumentError{Message: message}
}

// Violation is a single failed constraint on a request field.
type Violation struct {
	// Field is the path of the offending field as the client sees it (json or param name)
	Field string
	// Message is the default message of the failed constraint, e.g. "must not be blank"
	Message string
}

// ValidationError collects every constraint violation found while validating
// a request body or the handler's parameters. Violations keep the order in
// which the validator reported them.
type ValidationError struct {
	// Source is where the validated values came from: "body" or "params"
	Source     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	return e.Source + " validation failed: " + e.joined()
}

// Messages returns the default message of each violation, in order
func (e *ValidationError) Messages() []string {
	messages := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		messages[i] = v.Message
	}
	return messages
}

func (e *ValidationError) joined() string {
	return strings.Join(e.Messages(), ";")
}

// NewValidationError creates a ValidationError for the given source
func NewValidationError(source string, violations ...Violation) *ValidationError {
	return &ValidationError{Source: source, Violations: violations}
}

// Add appends a violation and returns the error for chaining
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Violations = append(e.Violations, Violation{Field: field, Message: message})
	return e
}

// TypeMismatchError reports a URL parameter whose value cannot be converted to the declared type.
type TypeMismatchError struct {
	Parameter string
	Value     string
	Type      string
	Err       error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("parameter '%s': cannot convert %q to %s", e.Parameter, e.Value, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error {
	return e.Err
}

// TypeMismatch creates a TypeMismatchError
func TypeMismatch(parameter, value, typeName string, err error) error {
	return &TypeMismatchError{Parameter: parameter, Value: value, Type: typeName, Err: err}
}

// MissingParameterError reports a required URL parameter absent from the request.
type MissingParameterError struct {
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return "required parameter '" + e.Parameter + "' is missing"
}

// MissingParameter creates a MissingParameterError
func MissingParameter(parameter string) error {
	return &MissingParameterError{Parameter: parameter}
}

// MalformedBodyError reports a request body that could not be decoded:
// absent when required, syntactically invalid, or carrying a field of the wrong type.
type MalformedBodyError struct {
	Err error
}

func (e *MalformedBodyError) Error() string {
	if e.Err == nil {
		return "malformed request body"
	}
	return "malformed request body: " + e.Err.Error()
}

func (e *MalformedBodyError) Unwrap() error {
	return e.Err
}

// MalformedBody creates a MalformedBodyError wrapping the decoder error
func MalformedBody(err error) error {
	return &MalformedBodyError{Err: err}
}

// NoResourceError reports a request that matched neither a route nor a static resource.
type NoResourceError struct {
	Method string
	Path   string
}

func (e *NoResourceError) Error() string {
	return "no resource for " + e.Method + " " + e.Path
}

// NoResource creates a NoResourceError
func NoResource(method, path string) error {
	return &NoResourceError{Method: method, Path: path}
}
