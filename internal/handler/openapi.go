package handler

import (
	"net/http"

	"github.com/deppfellow/user-api/internal/api"
	"github.com/deppfellow/user-api/internal/server"
	"github.com/labstack/echo/v4"
)

// OpenAPIHandler serves the API contract compiled into the binary.
type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPISpec writes the embedded openapi.yaml. Caching is disabled so
// clients always see the contract of the running build.
func (h *OpenAPIHandler) ServeOpenAPISpec(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.Blob(http.StatusOK, "application/yaml", api.OpenAPISpec)
}
