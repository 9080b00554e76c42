package errs

import (
	"errors"
	"net/http"
	"strings"
)

// Kind is the closed set of error categories exposed to API clients.
type Kind int

const (
	// KindInternal is any failure that could not be classified.
	KindInternal Kind = iota
	// KindValidationFailed is reported when the request does not match its schema.
	KindValidationFailed
	// KindNoChangesSpecified is reported by an update that carries no fields to change.
	KindNoChangesSpecified
	// KindMissingCredential is an absent or malformed bearer token.
	KindMissingCredential
	// KindExpiredCredential is a token that resolved but has expired.
	KindExpiredCredential
	// KindAuthInternal is an unexpected failure inside the authentication resolver.
	KindAuthInternal
	// KindInsufficientAccess is an identity lacking a scope required by the operation.
	KindInsufficientAccess
	// KindNotFound is a request no operation matches.
	KindNotFound
)

// DefaultStatus returns the HTTP status a kind maps to when the error does
// not carry one of its own.
func (k Kind) DefaultStatus() int {
	switch k {
	case KindValidationFailed, KindNoChangesSpecified:
		return http.StatusBadRequest
	case KindMissingCredential, KindExpiredCredential, KindAuthInternal:
		return http.StatusUnauthorized
	case KindInsufficientAccess:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable name of the kind, e.g. "VALIDATION_FAILED".
func (k Kind) Code() string {
	switch k {
	case KindValidationFailed:
		return "VALIDATION_FAILED"
	case KindNoChangesSpecified:
		return "NO_CHANGES_SPECIFIED"
	case KindMissingCredential:
		return "MISSING_CREDENTIAL"
	case KindExpiredCredential:
		return "EXPIRED_CREDENTIAL"
	case KindAuthInternal:
		return "AUTH_INTERNAL_ERROR"
	case KindInsufficientAccess:
		return "INSUFFICIENT_ACCESS"
	case KindNotFound:
		return MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound))
	case KindInternal:
		return MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError))
	}
	return "UNKNOWN"
}

func (k Kind) String() string {
	return k.Code()
}

// FieldError represents a field-level validation error.
//
//	{ "field": "age", "error": "must not exceed 150" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the single error type the dispatcher knows how to render.
//
// Status is explicit so that an error may carry a code different from its
// kind's default (an auth resolver failure that already knows its status).
type Error struct {
	Kind    Kind
	Status  int
	Message string

	// Data is optional client-visible detail, e.g. []FieldError.
	Data any

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status of the error.
func (e *Error) StatusCode() int {
	if e.Status >= 100 {
		return e.Status
	}
	return e.Kind.DefaultStatus()
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Envelope is the JSON body of every error response.
type Envelope struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// Envelope renders the error for a client.
func (e *Error) Envelope() Envelope {
	return Envelope{
		Error:      e.Kind.Code(),
		StatusCode: e.StatusCode(),
		Message:    e.Message,
		Data:       e.Data,
	}
}

// Classify maps any error onto the taxonomy. Errors that are not an *Error
// anywhere in their chain become a generic internal error; their text is
// never copied into the result.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) && e != nil {
		return e
	}

	return NewInternalServerError(err)
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
