package dispatch

import (
	"context"

	"github.com/deppfellow/user-api/internal/auth"
	"github.com/deppfellow/user-api/internal/validation"
	"github.com/rs/zerolog"
)

// HandlerFunc is a business handler for one operation. It never sees the
// transport.
type HandlerFunc[Req, Res any] func(ctx context.Context, req Req, identity *auth.Identity, logger *zerolog.Logger) (Res, error)

// Operation is a named endpoint with a typed request shape and handler.
type Operation struct {
	ID     string
	Method string
	Path   string
	// Authenticated operations require a valid bearer token.
	Authenticated bool
	// Scopes the token must grant, on top of being valid.
	Scopes []string

	bind   func(NormalizedRequest) (any, error)
	invoke func(ctx context.Context, req any, identity *auth.Identity, logger *zerolog.Logger) (any, error)
}

// OperationOption configures an Operation.
type OperationOption func(*Operation)

// WithToken requires a valid bearer token, whatever its scopes.
func WithToken() OperationOption {
	return func(op *Operation) {
		op.Authenticated = true
	}
}

// WithScopes requires a bearer token granting every scope in scopes.
func WithScopes(scopes ...string) OperationOption {
	return func(op *Operation) {
		op.Authenticated = true
		op.Scopes = append(op.Scopes, scopes...)
	}
}

// Handle registers h as the operation id served at method and path. The
// normalized request is decoded into Req and validated against its tags
// before h runs.
func Handle[Req, Res any](id, method, path string, h HandlerFunc[Req, Res], opts ...OperationOption) *Operation {
	op := &Operation{
		ID:     id,
		Method: method,
		Path:   path,
		bind: func(in NormalizedRequest) (any, error) {
			var req Req
			if err := validation.BindAndValidate(in, &req); err != nil {
				return nil, err
			}
			return req, nil
		},
		invoke: func(ctx context.Context, req any, identity *auth.Identity, logger *zerolog.Logger) (any, error) {
			return h(ctx, req.(Req), identity, logger)
		},
	}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

// Secured reports whether the operation requires authentication.
func (op *Operation) Secured() bool {
	return op.Authenticated
}
