package core

// Fixed response messages for error kinds that do not carry their own message
const (
	TypeMismatchMessage     = "URL parameter has type mismatch"
	MissingParameterMessage = ": URL parameter is missing"
	JSONTypeMismatchMessage = "JSON contains field with type mismatch"
	ResourceNotFoundMessage = "The requested resource was not found"
)

// Kind names one row of the translation table. It is used as a metrics label
// and in log records.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindBadRequest        Kind = "bad_request"
	KindValidationFailure Kind = "validation_failure"
	KindTypeMismatch      Kind = "type_mismatch"
	KindMissingParameter  Kind = "missing_parameter"
	KindMalformedBody     Kind = "malformed_body"
	KindResourceNotFound  Kind = "resource_not_found"
)

// ContentTypeText is the content type of every translated error response
const ContentTypeText = "text/plain; charset=utf-8"

// RequestIDHeader is the HTTP header carrying the request ID
const RequestIDHeader = "X-Request-ID"
