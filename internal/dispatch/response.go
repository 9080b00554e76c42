package dispatch

import (
	"context"
	"encoding/json"

	"github.com/deppfellow/user-api/internal/errs"
)

// Response headers attached to every dispatched response.
var fixedHeaders = [][2]string{
	{"content-type", "application/json"},
	{"access-control-allow-headers", "authorization,Authorization,content-type,Content-Type,sentry-trace"},
	{"access-control-allow-origin", "*"},
	{"access-control-allow-methods", "get,post,patch,delete,put,GET,POST,PATCH,DELETE,PUT"},
}

// Result is the outcome of a dispatched request before serialization.
type Result struct {
	StatusCode int
	Body       any
}

// Response is the serialized outcome for transports that return a value.
type Response struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// DirectResponder is implemented by transports that write the response
// themselves.
type DirectResponder interface {
	SetHeader(key, value string)
	WriteResponse(status int, body []byte) error
}

// Headers returns a fresh copy of the fixed response headers.
func Headers() map[string]string {
	h := make(map[string]string, len(fixedHeaders))
	for _, kv := range fixedHeaders {
		h[kv[0]] = kv[1]
	}
	return h
}

// ServeDirect dispatches req and writes the outcome to w.
func (d *Dispatcher) ServeDirect(ctx context.Context, req *Request, w DirectResponder) error {
	status, body := d.encode(d.Dispatch(ctx, req))

	for _, kv := range fixedHeaders {
		w.SetHeader(kv[0], kv[1])
	}
	return w.WriteResponse(status, body)
}

// ServeStructured dispatches req and returns the outcome as a value.
func (d *Dispatcher) ServeStructured(ctx context.Context, req *Request) Response {
	status, body := d.encode(d.Dispatch(ctx, req))
	return Response{
		StatusCode: status,
		Body:       string(body),
		Headers:    Headers(),
	}
}

func (d *Dispatcher) encode(res Result) (int, []byte) {
	body, err := json.Marshal(res.Body)
	if err != nil {
		d.logger.Error().Err(err).Int("statusCode", res.StatusCode).Msg("failed to encode response body")
		internal := errs.NewInternalServerError(err)
		body, _ = json.Marshal(internal.Envelope())
		return internal.StatusCode(), body
	}
	return res.StatusCode, body
}
