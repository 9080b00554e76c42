// Package dispatch runs every API request through one pipeline: route,
// normalize, validate, authenticate, execute, map errors and respond. The
// transports only translate their native request into a Request and the
// outcome back.
package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/deppfellow/user-api/internal/errs"
)

// Request is a transport independent API request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	// Query holds the last value of each query parameter.
	Query map[string]string
	// MultiQuery holds every value of each query parameter.
	MultiQuery map[string][]string
	Body       []byte
	RequestID  string
}

// decodeBody parses a JSON object body. An empty body decodes to nil.
func decodeBody(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errs.NewValidationError("Request body is not valid JSON", []errs.FieldError{{Field: "body", Error: err.Error()}})
	}
	if dec.More() {
		return nil, errs.NewValidationError("Request body is not valid JSON", []errs.FieldError{{Field: "body", Error: "unexpected data after the JSON value"}})
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errs.NewValidationError("Request body must be a JSON object", []errs.FieldError{{Field: "body", Error: "must be an object"}})
	}
	return obj, nil
}
