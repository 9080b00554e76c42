package errs

import (
	"net/http"
)

// NewValidationError creates a 400 for a request that failed schema validation.
// fieldErrors is exposed to the client as the envelope's data.
func NewValidationError(message string, fieldErrors []FieldError) *Error {
	e := &Error{
		Kind:    KindValidationFailed,
		Status:  http.StatusBadRequest,
		Message: message,
	}
	if len(fieldErrors) > 0 {
		e.Data = fieldErrors
	}
	return e
}

// ValidationError wraps a decoding or validation failure into a 400.
func ValidationError(err error) *Error {
	return &Error{
		Kind:    KindValidationFailed,
		Status:  http.StatusBadRequest,
		Message: "Invalid request",
		Data:    []FieldError{{Field: "body", Error: err.Error()}},
		cause:   err,
	}
}

// NewNoChangesError creates the 400 returned by an update without fields.
func NewNoChangesError() *Error {
	return &Error{
		Kind:    KindNoChangesSpecified,
		Status:  http.StatusBadRequest,
		Message: "No changes to apply",
	}
}

// NewMissingCredentialError creates a 401 for an absent bearer token.
func NewMissingCredentialError(message string) *Error {
	return &Error{
		Kind:    KindMissingCredential,
		Status:  http.StatusUnauthorized,
		Message: message,
	}
}

// NewExpiredCredentialError creates a 401 for a token past its expiry.
func NewExpiredCredentialError(message string) *Error {
	return &Error{
		Kind:    KindExpiredCredential,
		Status:  http.StatusUnauthorized,
		Message: message,
	}
}

// NewAuthInternalError wraps an unexpected resolver failure. A status of 0
// falls back to 401.
func NewAuthInternalError(status int, message string, cause error) *Error {
	if status < 100 {
		status = http.StatusUnauthorized
	}
	return &Error{
		Kind:    KindAuthInternal,
		Status:  status,
		Message: message,
		cause:   cause,
	}
}

// NewForbiddenError creates a 403 for an identity without the required scopes.
func NewForbiddenError(message string) *Error {
	return &Error{
		Kind:    KindInsufficientAccess,
		Status:  http.StatusForbidden,
		Message: message,
	}
}

// NewNotFoundError creates a 404.
func NewNotFoundError(message string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: message,
	}
}

// NewInternalServerError creates a 500 with the generic status text as its
// message. cause is kept for logs only.
func NewInternalServerError(cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: http.StatusText(http.StatusInternalServerError),
		cause:   cause,
	}
}
