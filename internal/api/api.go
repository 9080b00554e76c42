// Package api declares the operation table and assembles the dispatcher
// that both transports share.
package api

import (
	_ "embed"
	"net/http"

	"github.com/deppfellow/user-api/internal/auth"
	"github.com/deppfellow/user-api/internal/config"
	"github.com/deppfellow/user-api/internal/dispatch"
	"github.com/deppfellow/user-api/internal/repository"
	"github.com/deppfellow/user-api/internal/server"
	"github.com/deppfellow/user-api/internal/service"
)

// OpenAPISpec is the API contract served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

const (
	ScopeUsersRead  = "users:read"
	ScopeUsersWrite = "users:write"
)

// Operations returns the operation table.
func Operations(services *service.Services) []*dispatch.Operation {
	users := services.Users
	return []*dispatch.Operation{
		dispatch.Handle("usersGet", http.MethodGet, "/users", users.List,
			dispatch.WithScopes(ScopeUsersRead)),
		dispatch.Handle("usersPost", http.MethodPost, "/users", users.Create,
			dispatch.WithScopes(ScopeUsersWrite)),
		dispatch.Handle("usersPatch", http.MethodPatch, "/users", users.Update,
			dispatch.WithScopes(ScopeUsersWrite)),
	}
}

// NewResolver builds the token resolver selected by auth.mode.
func NewResolver(s *server.Server) auth.Resolver {
	if s.Config.Auth.Mode == config.AuthModeRedis {
		return auth.NewRedisResolver(s.Redis)
	}
	return auth.NewJWTResolver(s.Config.Auth.SecretKey, s.Config.Auth.Issuer)
}

// New wires the repositories, services, resolver and storage connection
// into a dispatcher.
func New(s *server.Server) (*dispatch.Dispatcher, error) {
	repos := repository.NewRepositories(s)

	services, err := service.NewService(s, repos)
	if err != nil {
		return nil, err
	}

	opts := []dispatch.Option{
		dispatch.WithAuthenticator(auth.NewAuthenticator(NewResolver(s))),
		dispatch.WithLogger(s.Logger),
	}
	if s.DB != nil {
		opts = append(opts, dispatch.WithConnection(s.DB))
	}

	return dispatch.New(Operations(services), opts...), nil
}
