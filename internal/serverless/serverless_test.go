package serverless

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/deppfellow/user-api/internal/api"
	"github.com/deppfellow/user-api/internal/auth"
	"github.com/deppfellow/user-api/internal/config"
	"github.com/deppfellow/user-api/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const testSecret = "lambda-test-secret"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverMemory
	cfg.Auth.SecretKey = testSecret

	logger := zerolog.Nop()
	s, err := server.New(cfg, &logger, nil)
	require.NoError(t, err)

	d, err := api.New(s)
	require.NoError(t, err)
	return NewHandler(d, &logger)
}

func bearer(t *testing.T, scopes ...string) map[string]string {
	t.Helper()
	tok, err := auth.NewJWTResolver(testSecret, "").IssueToken("lambda-tester", scopes, time.Hour)
	require.NoError(t, err)
	// API Gateway forwards header names as the client sent them.
	return map[string]string{"authorization": "Bearer " + tok}
}

func TestHandle_Scenarios(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	res, err := h.Handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/health-check"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Headers["content-type"])

	res, err = h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/users",
		Headers:    bearer(t, api.ScopeUsersWrite),
		Body:       `{"name":"Ada","age":30}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode, res.Body)
	id := gjson.Get(res.Body, "id").String()
	assert.NotEmpty(t, id)
	assert.Equal(t, "Ada", gjson.Get(res.Body, "name").String())

	res, err = h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPatch,
		Path:       "/users",
		Headers:    bearer(t, api.ScopeUsersWrite),
		Body:       `{}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.False(t, gjson.Get(res.Body, "usersAffected").Exists())

	res, err = h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:                      http.MethodGet,
		Path:                            "/users",
		Headers:                         bearer(t, api.ScopeUsersRead),
		QueryStringParameters:           map[string]string{"id": id},
		MultiValueQueryStringParameters: map[string][]string{"id": {id}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode, res.Body)
	assert.Equal(t, id, gjson.Get(res.Body, "users.0.id").String())
}

func TestHandle_AuthGating(t *testing.T) {
	h := newTestHandler(t)
	event := events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/users"}

	res, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	event.Headers = bearer(t, api.ScopeUsersWrite)
	res, err = h.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestHandle_Base64Body(t *testing.T) {
	h := newTestHandler(t)

	res, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/users",
		Headers:         bearer(t, api.ScopeUsersWrite),
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"name":"Grace","age":45}`)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode, res.Body)
	assert.Equal(t, "Grace", gjson.Get(res.Body, "name").String())

	res, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/users",
		Body:            "%%%",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", gjson.Get(res.Body, "error").String())
}

func TestRequestID(t *testing.T) {
	event := events.APIGatewayProxyRequest{}
	event.RequestContext.RequestID = "gateway-id"

	assert.Equal(t, "gateway-id", requestID(context.Background(), event))

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "lambda-id"})
	assert.Equal(t, "lambda-id", requestID(ctx, event))

	assert.NotEmpty(t, requestID(context.Background(), events.APIGatewayProxyRequest{}))
}
