package handler

import (
	"io"

	"github.com/deppfellow/user-api/internal/dispatch"
	"github.com/deppfellow/user-api/internal/middleware"
	"github.com/deppfellow/user-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
)

// DispatchHandler serves every API operation through the dispatcher.
type DispatchHandler struct {
	Handler
	dispatcher *dispatch.Dispatcher
}

func NewDispatchHandler(s *server.Server, d *dispatch.Dispatcher) *DispatchHandler {
	return &DispatchHandler{
		Handler:    NewHandler(s),
		dispatcher: d,
	}
}

// Serve translates the echo request and lets the dispatcher write the
// response directly.
func (h *DispatchHandler) Serve(c echo.Context) error {
	req, err := newDispatchRequest(c)
	if err != nil {
		return err
	}

	if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
		txn.SetName(req.Method + " " + req.Path)
	}

	c.Set(middleware.DispatchedKey, true)
	return h.dispatcher.ServeDirect(c.Request().Context(), req, echoResponder{c})
}

func newDispatchRequest(c echo.Context) (*dispatch.Request, error) {
	r := c.Request()

	// BodyLimit wraps the body in a limited reader; exceeding it surfaces
	// here as an *echo.HTTPError.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, errors.Wrap(err, "reading request body")
	}

	values := r.URL.Query()
	query := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			query[k] = v[len(v)-1]
		}
	}

	return &dispatch.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Header:     r.Header,
		Query:      query,
		MultiQuery: values,
		Body:       body,
		RequestID:  middleware.GetRequestID(c),
	}, nil
}

// echoResponder writes dispatcher output to an echo response.
type echoResponder struct {
	c echo.Context
}

func (w echoResponder) SetHeader(key, value string) {
	w.c.Response().Header().Set(key, value)
}

func (w echoResponder) WriteResponse(status int, body []byte) error {
	w.c.Response().WriteHeader(status)
	_, err := w.c.Response().Write(body)
	return err
}
