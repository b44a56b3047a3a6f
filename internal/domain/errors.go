package domain

import (
	"errors"
	"net/http"
)

// Repository-level sentinels. Services translate these into *Error values.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateCodename = errors.New("codename already exists")
)

// Kind classifies an operational error.
type Kind string

const (
	KindValidationFailed Kind = "ValidationFailed"
	KindUnauthenticated  Kind = "Unauthenticated"
	KindUnauthorized     Kind = "Unauthorized"
	KindNotFound         Kind = "NotFound"
	KindConflict         Kind = "Conflict"
	KindBadRequest       Kind = "BadRequest"
	KindTooManyRequests  Kind = "TooManyRequests"
	KindInternal         Kind = "InternalError"
)

// StatusCode returns the HTTP status reported for the kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidationFailed, KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthenticated, KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes one violated input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an operational failure: anticipated, named, and safe to show
// to the caller verbatim. Anything that is not an *Error is unexpected.
type Error struct {
	Kind    Kind
	Message string
	Details []FieldError
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// StatusCode returns the HTTP status for the error's kind.
func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// AsError reports whether err is or wraps an operational *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an operational error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// NewValidationError reports the failed fields of a request input.
func NewValidationError(details []FieldError) *Error {
	return &Error{Kind: KindValidationFailed, Message: "validation failed", Details: details}
}

// Unauthenticated reports a missing or unusable session.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Unauthorized reports credentials that did not match.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NotFound reports that the addressed resource does not exist.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict reports a clash with existing state, such as a taken email.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// BadRequest reports a well-formed request that cannot be applied.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// TooManyRequests reports that the caller has been rate limited.
func TooManyRequests(message string) *Error {
	return &Error{Kind: KindTooManyRequests, Message: message}
}
