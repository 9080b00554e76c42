package handler

import (
	"github.com/deppfellow/user-api/internal/dispatch"
	"github.com/deppfellow/user-api/internal/server"
)

// Handlers groups all echo handlers.
type Handlers struct {
	Dispatch *DispatchHandler
	Health   *HealthHandler
	OpenAPI  *OpenAPIHandler
}

func NewHandlers(s *server.Server, d *dispatch.Dispatcher) *Handlers {
	return &Handlers{
		Dispatch: NewDispatchHandler(s, d),
		Health:   NewHealthHandler(s),
		OpenAPI:  NewOpenAPIHandler(s),
	}
}
