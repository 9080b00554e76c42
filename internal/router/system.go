package router

import (
	"github.com/deppfellow/user-api/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not API operations.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/openapi.yaml", h.OpenAPI.ServeOpenAPISpec)
}
