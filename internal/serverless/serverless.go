// Package serverless adapts API Gateway proxy events to the dispatcher.
package serverless

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/deppfellow/user-api/internal/dispatch"
	"github.com/deppfellow/user-api/internal/errs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler serves one API Gateway invocation per call.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	logger     *zerolog.Logger
}

func NewHandler(d *dispatch.Dispatcher, logger *zerolog.Logger) *Handler {
	return &Handler{dispatcher: d, logger: logger}
}

// Handle converts the event, dispatches it and returns the structured
// response. Errors are always rendered into the response, never returned.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := newDispatchRequest(ctx, event)
	if err != nil {
		h.logger.Error().Err(err).Str("path", event.HTTPMethod+" "+event.Path).Msg("failed to decode event")
		return errorResponse(errs.NewValidationError("Request body is not valid base64", nil)), nil
	}

	res := h.dispatcher.ServeStructured(ctx, req)
	return events.APIGatewayProxyResponse{
		StatusCode: res.StatusCode,
		Headers:    res.Headers,
		Body:       res.Body,
	}, nil
}

func newDispatchRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*dispatch.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	header := http.Header{}
	for k, v := range event.Headers {
		header.Set(k, v)
	}
	for k, values := range event.MultiValueHeaders {
		header.Del(k)
		for _, v := range values {
			header.Add(k, v)
		}
	}

	return &dispatch.Request{
		Method:     event.HTTPMethod,
		Path:       event.Path,
		Header:     header,
		Query:      event.QueryStringParameters,
		MultiQuery: event.MultiValueQueryStringParameters,
		Body:       body,
		RequestID:  requestID(ctx, event),
	}, nil
}

func requestID(ctx context.Context, event events.APIGatewayProxyRequest) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	if event.RequestContext.RequestID != "" {
		return event.RequestContext.RequestID
	}
	return uuid.New().String()
}

func errorResponse(e *errs.Error) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(e.Envelope())
	return events.APIGatewayProxyResponse{
		StatusCode: e.StatusCode(),
		Headers:    dispatch.Headers(),
		Body:       string(body),
	}
}
