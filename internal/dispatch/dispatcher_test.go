package dispatch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/deppfellow/user-api/internal/auth"
	"github.com/deppfellow/user-api/internal/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type greetRequest struct {
	Name  string   `json:"name" validate:"required"`
	Count int      `json:"count" validate:"omitempty,gte=1"`
	ID    []string `json:"id"`
}

type greetResponse struct {
	Greeting string   `json:"greeting"`
	Count    int      `json:"count"`
	IDs      []string `json:"ids"`
	Actor    string   `json:"actor"`
}

type countingConn struct {
	calls atomic.Int32
	err   error
}

func (c *countingConn) Ensure(context.Context) error {
	c.calls.Add(1)
	return c.err
}

type fixture struct {
	d       *Dispatcher
	conn    *countingConn
	invoked *atomic.Int32
	logs    *bytes.Buffer
	handler func(greetRequest) (*greetResponse, error)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		conn:    &countingConn{},
		invoked: &atomic.Int32{},
		logs:    &bytes.Buffer{},
	}

	greet := func(_ context.Context, req greetRequest, identity *auth.Identity, _ *zerolog.Logger) (*greetResponse, error) {
		f.invoked.Add(1)
		if f.handler != nil {
			return f.handler(req)
		}
		actor := ""
		if identity != nil {
			actor = identity.Subject
		}
		return &greetResponse{Greeting: "hello " + req.Name, Count: req.Count, IDs: req.ID, Actor: actor}, nil
	}

	resolver := auth.ResolverFunc(func(_ context.Context, token string) (*auth.Identity, error) {
		switch token {
		case "reader":
			return &auth.Identity{Subject: "reader", Scopes: []string{"greet:read"}}, nil
		case "writer":
			return &auth.Identity{Subject: "writer", Scopes: []string{"greet:read", "greet:write"}}, nil
		case "expired":
			return nil, auth.ErrExpired
		}
		return nil, auth.ErrInvalidCredential
	})

	logger := zerolog.New(f.logs)
	f.d = New([]*Operation{
		Handle("greetGet", http.MethodGet, "/greet", greet, WithScopes("greet:read")),
		Handle("greetPost", http.MethodPost, "/greet", greet, WithScopes("greet:write")),
		Handle("greetNamed", http.MethodPost, "/greet/{name}", greet),
		Handle("greetAnyone", http.MethodGet, "/greet/anyone", greet, WithToken()),
	},
		WithAuthenticator(auth.NewAuthenticator(resolver)),
		WithConnection(f.conn),
		WithLogger(&logger),
	)
	return f
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

func (f *fixture) serve(req *Request) Response {
	return f.d.ServeStructured(context.Background(), req)
}

func TestDispatch_HealthCheckAndPreflightBypass(t *testing.T) {
	f := newFixture(t)

	res := f.serve(&Request{Method: http.MethodGet, Path: HealthCheckPath})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body)

	res = f.serve(&Request{Method: http.MethodOptions, Path: "/greet"})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, int32(0), f.conn.calls.Load())
	assert.Equal(t, int32(0), f.invoked.Load())
}

func TestDispatch_NotFound(t *testing.T) {
	f := newFixture(t)

	for _, req := range []*Request{
		{Method: http.MethodGet, Path: "/nope"},
		{Method: http.MethodDelete, Path: "/greet"},
	} {
		res := f.serve(req)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, "NOT_FOUND", gjson.Get(res.Body, "error").String())
		assert.Equal(t, int64(404), gjson.Get(res.Body, "statusCode").Int())
	}
	assert.Equal(t, int32(0), f.conn.calls.Load())
}

func TestDispatch_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  *Request
	}{
		{"missing field", &Request{Method: http.MethodPost, Path: "/greet", Header: bearer("writer"), Body: []byte(`{}`)}},
		{"bad value", &Request{Method: http.MethodGet, Path: "/greet", Header: bearer("reader"), Query: map[string]string{"name": "a", "count": "-1"}}},
		{"not a number", &Request{Method: http.MethodGet, Path: "/greet", Header: bearer("reader"), Query: map[string]string{"name": "a", "count": "many"}}},
		{"malformed json", &Request{Method: http.MethodPost, Path: "/greet", Header: bearer("writer"), Body: []byte(`{"name":`)}},
		{"array body", &Request{Method: http.MethodPost, Path: "/greet", Header: bearer("writer"), Body: []byte(`["a"]`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.serve(tt.req)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.Equal(t, "VALIDATION_FAILED", gjson.Get(res.Body, "error").String())
			assert.True(t, gjson.Get(res.Body, "data").IsArray(), res.Body)
		})
	}
	assert.Equal(t, int32(0), f.invoked.Load())
}

func TestDispatch_ValidationRunsBeforeAuthentication(t *testing.T) {
	f := newFixture(t)

	res := f.serve(&Request{Method: http.MethodPost, Path: "/greet", Body: []byte(`{}`)})

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDispatch_AuthGating(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"name":"Ada"}`)

	tests := []struct {
		name       string
		header     http.Header
		wantStatus int
		wantError  string
	}{
		{"no header", nil, http.StatusUnauthorized, "MISSING_CREDENTIAL"},
		{"not bearer", http.Header{"Authorization": {"Basic abc"}}, http.StatusUnauthorized, "MISSING_CREDENTIAL"},
		{"unknown token", bearer("nobody"), http.StatusUnauthorized, "AUTH_INTERNAL_ERROR"},
		{"expired token", bearer("expired"), http.StatusUnauthorized, "EXPIRED_CREDENTIAL"},
		{"missing scope", bearer("reader"), http.StatusForbidden, "INSUFFICIENT_ACCESS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.serve(&Request{Method: http.MethodPost, Path: "/greet", Header: tt.header, Body: body})
			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantError, gjson.Get(res.Body, "error").String())
		})
	}
	assert.Equal(t, int32(0), f.invoked.Load())
	assert.Equal(t, int32(0), f.conn.calls.Load())

	res := f.serve(&Request{Method: http.MethodPost, Path: "/greet", Header: bearer("writer"), Body: body})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "writer", gjson.Get(res.Body, "actor").String())
	assert.Equal(t, int32(1), f.invoked.Load())
	assert.Equal(t, int32(1), f.conn.calls.Load())
}

func TestDispatch_TokenWithoutScopes(t *testing.T) {
	f := newFixture(t)
	query := map[string]string{"name": "Ada"}

	res := f.serve(&Request{Method: http.MethodGet, Path: "/greet/anyone", Query: query})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "MISSING_CREDENTIAL", gjson.Get(res.Body, "error").String())

	res = f.serve(&Request{Method: http.MethodGet, Path: "/greet/anyone", Header: bearer("nobody"), Query: query})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, int32(0), f.invoked.Load())

	res = f.serve(&Request{Method: http.MethodGet, Path: "/greet/anyone", Header: bearer("reader"), Query: query})
	require.Equal(t, http.StatusOK, res.StatusCode, res.Body)
	assert.Equal(t, "reader", gjson.Get(res.Body, "actor").String())
}

func TestDispatch_UnsecuredOperationWithPathParam(t *testing.T) {
	f := newFixture(t)

	res := f.serve(&Request{
		Method: http.MethodPost,
		Path:   "/greet/Grace",
		Body:   []byte(`{"name":"ignored","count":2}`),
	})

	require.Equal(t, http.StatusOK, res.StatusCode, res.Body)
	assert.Equal(t, "hello Grace", gjson.Get(res.Body, "greeting").String())
	assert.Equal(t, int64(2), gjson.Get(res.Body, "count").Int())
	assert.Equal(t, "", gjson.Get(res.Body, "actor").String())
}

func TestDispatch_QueryIsWeaklyTyped(t *testing.T) {
	f := newFixture(t)

	res := f.serve(&Request{
		Method:     http.MethodGet,
		Path:       "/greet",
		Header:     bearer("reader"),
		Query:      map[string]string{"name": "Ada", "count": "15", "id": "x"},
		MultiQuery: map[string][]string{"id": {"x"}},
	})

	require.Equal(t, http.StatusOK, res.StatusCode, res.Body)
	assert.Equal(t, int64(15), gjson.Get(res.Body, "count").Int())
	assert.Equal(t, `["x"]`, gjson.Get(res.Body, "ids").Raw)
}

func TestDispatch_HandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    func(greetRequest) (*greetResponse, error)
		wantStatus int
		wantError  string
		wantMsg    string
	}{
		{
			name:       "typed error passes through",
			handler:    func(greetRequest) (*greetResponse, error) { return nil, errs.NewNoChangesError() },
			wantStatus: http.StatusBadRequest,
			wantError:  "NO_CHANGES_SPECIFIED",
			wantMsg:    "No changes to apply",
		},
		{
			name:       "unclassified error is hidden",
			handler:    func(greetRequest) (*greetResponse, error) { return nil, errors.New("secret connection string") },
			wantStatus: http.StatusInternalServerError,
			wantError:  "INTERNAL_SERVER_ERROR",
			wantMsg:    "Internal Server Error",
		},
		{
			name:       "panic is recovered",
			handler:    func(greetRequest) (*greetResponse, error) { panic("boom") },
			wantStatus: http.StatusInternalServerError,
			wantError:  "INTERNAL_SERVER_ERROR",
			wantMsg:    "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.handler = tt.handler

			res := f.serve(&Request{Method: http.MethodPost, Path: "/greet", Header: bearer("writer"), Body: []byte(`{"name":"Ada"}`)})

			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantError, gjson.Get(res.Body, "error").String())
			assert.Equal(t, tt.wantMsg, gjson.Get(res.Body, "message").String())
			assert.NotContains(t, res.Body, "secret")
		})
	}
}

func TestDispatch_ConnectionFailure(t *testing.T) {
	f := newFixture(t)
	f.conn.err = errors.New("dial tcp: connection refused")

	res := f.serve(&Request{Method: http.MethodPost, Path: "/greet", Header: bearer("writer"), Body: []byte(`{"name":"Ada"}`)})

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, int32(0), f.invoked.Load())
	assert.NotContains(t, res.Body, "dial tcp")
}

func TestServeStructured_Headers(t *testing.T) {
	f := newFixture(t)

	res := f.serve(&Request{Method: http.MethodGet, Path: "/nope"})

	assert.Equal(t, "application/json", res.Headers["content-type"])
	assert.Equal(t, "*", res.Headers["access-control-allow-origin"])
	assert.Equal(t, "authorization,Authorization,content-type,Content-Type,sentry-trace", res.Headers["access-control-allow-headers"])
	assert.Equal(t, "get,post,patch,delete,put,GET,POST,PATCH,DELETE,PUT", res.Headers["access-control-allow-methods"])
}

type recorder struct {
	headers map[string]string
	status  int
	body    []byte
}

func (r *recorder) SetHeader(key, value string) {
	if r.headers == nil {
		r.headers = map[string]string{}
	}
	r.headers[key] = value
}

func (r *recorder) WriteResponse(status int, body []byte) error {
	r.status = status
	r.body = body
	return nil
}

func TestServeDirect(t *testing.T) {
	f := newFixture(t)
	w := &recorder{}

	err := f.d.ServeDirect(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/greet",
		Header: bearer("writer"),
		Body:   []byte(`{"name":"Ada"}`),
	}, w)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.status)
	assert.Equal(t, "hello Ada", gjson.GetBytes(w.body, "greeting").String())
	assert.Equal(t, Headers(), w.headers)
}

func TestDispatch_Logging(t *testing.T) {
	t.Run("reads are not logged", func(t *testing.T) {
		f := newFixture(t)
		f.serve(&Request{Method: http.MethodGet, Path: "/greet", Header: bearer("reader"), Query: map[string]string{"name": "Ada"}})
		assert.Empty(t, f.logs.String())
	})

	t.Run("mutations are logged at info", func(t *testing.T) {
		f := newFixture(t)
		f.serve(&Request{
			Method:    http.MethodPost,
			Path:      "/greet",
			Header:    bearer("writer"),
			Body:      []byte(`{"name":"Ada"}`),
			RequestID: "req-1",
		})

		line := f.logs.String()
		assert.Equal(t, "info", gjson.Get(line, "level").String())
		assert.Equal(t, "processed request", gjson.Get(line, "message").String())
		assert.Equal(t, "POST /greet", gjson.Get(line, "path").String())
		assert.Equal(t, int64(200), gjson.Get(line, "statusCode").Int())
		assert.Equal(t, "Ada", gjson.Get(line, "req.name").String())
		assert.Equal(t, "hello Ada", gjson.Get(line, "res.greeting").String())
		assert.Equal(t, "writer", gjson.Get(line, "actor").String())
		assert.Equal(t, "req-1", gjson.Get(line, "requestId").String())
	})

	t.Run("failures are logged at error with the cause", func(t *testing.T) {
		f := newFixture(t)
		f.handler = func(greetRequest) (*greetResponse, error) { return nil, errors.New("secret connection string") }
		f.serve(&Request{Method: http.MethodPost, Path: "/greet", Header: bearer("writer"), Body: []byte(`{"name":"Ada"}`)})

		line := f.logs.String()
		assert.Equal(t, "error", gjson.Get(line, "level").String())
		assert.Equal(t, int64(500), gjson.Get(line, "statusCode").Int())
		assert.Equal(t, "secret connection string", gjson.Get(line, "error").String())
	})

	t.Run("failed reads are logged", func(t *testing.T) {
		f := newFixture(t)
		f.serve(&Request{Method: http.MethodGet, Path: "/greet", Query: map[string]string{"name": "Ada"}})

		line := f.logs.String()
		assert.Equal(t, "error", gjson.Get(line, "level").String())
		assert.Equal(t, int64(401), gjson.Get(line, "statusCode").Int())
	})
}
