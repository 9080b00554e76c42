// Package auth resolves bearer tokens into identities and checks scopes.
//
// An Authenticator wraps a Resolver (the identity store) and guarantees
// that every failure leaving it is classified into the errs taxonomy.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/deppfellow/user-api/internal/errs"
)

const bearerPrefix = "Bearer "

var (
	// ErrExpired is returned by a Resolver for a token that is known but expired.
	ErrExpired = errors.New("auth: credential expired")
	// ErrInvalidCredential is returned by a Resolver for a token it does not recognise.
	ErrInvalidCredential = errors.New("auth: invalid credential")
)

// Identity is the principal behind a request and the scopes it was granted.
type Identity struct {
	Subject string   `json:"subject"`
	Scopes  []string `json:"scopes"`
}

// Resolver looks a token up in an identity store.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(ctx context.Context, token string) (*Identity, error)

func (f ResolverFunc) Resolve(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}

// Authenticator turns tokens into identities.
type Authenticator struct {
	resolver Resolver
}

// NewAuthenticator creates an Authenticator backed by resolver.
func NewAuthenticator(resolver Resolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// BearerToken extracts the token from an Authorization header value. It
// returns "" when the header does not carry a bearer token.
func BearerToken(header string) string {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// Authenticate resolves token. Every error it returns is an *errs.Error.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (identity *Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			identity = nil
			err = errs.NewAuthInternalError(500, "Whoops, something went seriously wrong.", panicError(r))
		}
	}()

	if token == "" {
		return nil, errs.NewMissingCredentialError("Missing auth token")
	}

	identity, err = a.resolver.Resolve(ctx, token)
	if err == nil && identity == nil {
		err = ErrInvalidCredential
	}
	if err != nil {
		return nil, classify(err)
	}

	return identity, nil
}

func classify(err error) error {
	if errors.Is(err, ErrExpired) {
		return errs.NewExpiredCredentialError("Token expired")
	}

	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, ErrInvalidCredential) {
		return errs.NewAuthInternalError(0, "Invalid auth token", err)
	}

	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return errs.NewAuthInternalError(sc.StatusCode(), err.Error(), err)
	}

	return errs.NewAuthInternalError(0, "Authentication failed", err)
}

// UserCanAccess reports whether identity holds every scope in required.
func UserCanAccess(identity *Identity, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if identity == nil {
		return false
	}
	for _, scope := range required {
		if !slices.Contains(identity.Scopes, scope) {
			return false
		}
	}
	return true
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic in auth resolver: %v", r)
}
