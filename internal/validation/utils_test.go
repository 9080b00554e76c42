package validation

import (
	"encoding/json"
	"testing"

	"github.com/deppfellow/user-api/internal/errs"
	"github.com/deppfellow/user-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindAndValidate_URLValuesConvert(t *testing.T) {
	var req model.ListUsersRequest
	err := BindAndValidate(map[string]any{
		"count": Text("15"),
		"q":     Text("ada"),
		"id":    Text("0192f7a4-3c3e-7cc1-b0a4-0d6f7c1e2a10"),
	}, &req)

	require.NoError(t, err)
	assert.Equal(t, 15, req.Count)
	assert.Equal(t, "ada", req.Q)
	assert.Equal(t, []string{"0192f7a4-3c3e-7cc1-b0a4-0d6f7c1e2a10"}, req.ID)
}

func TestBindAndValidate_URLValuesIntoPointers(t *testing.T) {
	var req model.UpdateUsersRequest
	err := BindAndValidate(map[string]any{
		"id":   TextList{"0192f7a4-3c3e-7cc1-b0a4-0d6f7c1e2a10", "0192f7a4-3c3e-7cc1-b0a4-0d6f7c1e2a11"},
		"age":  Text("42"),
		"name": Text("Ada"),
	}, &req)

	require.NoError(t, err)
	require.NotNil(t, req.Age)
	require.NotNil(t, req.Name)
	assert.Equal(t, 42, *req.Age)
	assert.Equal(t, "Ada", *req.Name)
	assert.Len(t, req.ID, 2)
}

func TestBindAndValidate_BodyTypesAreStrict(t *testing.T) {
	validID := "0192f7a4-3c3e-7cc1-b0a4-0d6f7c1e2a10"

	tests := []struct {
		name      string
		input     map[string]any
		payload   any
		wantField string
		wantMsg   string
	}{
		{
			name:      "boolean age",
			input:     map[string]any{"name": "Ada", "age": true},
			payload:   &model.CreateUserRequest{},
			wantField: "age",
			wantMsg:   "must be an integer",
		},
		{
			name:      "string age",
			input:     map[string]any{"name": "Ada", "age": "30"},
			payload:   &model.CreateUserRequest{},
			wantField: "age",
			wantMsg:   "must be an integer",
		},
		{
			name:      "numeric name",
			input:     map[string]any{"name": json.Number("123"), "age": json.Number("30")},
			payload:   &model.CreateUserRequest{},
			wantField: "name",
			wantMsg:   "must be a string",
		},
		{
			name:      "fractional age",
			input:     map[string]any{"name": "Ada", "age": json.Number("30.5")},
			payload:   &model.CreateUserRequest{},
			wantField: "age",
			wantMsg:   "must be an integer",
		},
		{
			name:      "string age in update",
			input:     map[string]any{"id": []any{validID}, "age": "30"},
			payload:   &model.UpdateUsersRequest{},
			wantField: "age",
			wantMsg:   "must be an integer",
		},
		{
			name:      "numeric name in update",
			input:     map[string]any{"id": []any{validID}, "name": json.Number("7")},
			payload:   &model.UpdateUsersRequest{},
			wantField: "name",
			wantMsg:   "must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BindAndValidate(tt.input, tt.payload)
			require.Error(t, err)

			classified := errs.Classify(err)
			assert.Equal(t, errs.KindValidationFailed, classified.Kind)
			assert.Equal(t, 400, classified.StatusCode())

			fieldErrors, ok := classified.Data.([]errs.FieldError)
			require.True(t, ok)
			require.Len(t, fieldErrors, 1)
			assert.Equal(t, tt.wantField, fieldErrors[0].Field)
			assert.Equal(t, tt.wantMsg, fieldErrors[0].Error)
		})
	}
}

func TestBindAndValidate_JSONNumberIntoInt(t *testing.T) {
	var req model.CreateUserRequest
	err := BindAndValidate(map[string]any{"name": "Ada", "age": json.Number("30")}, &req)

	require.NoError(t, err)
	assert.Equal(t, 30, *req.Age)
}

func TestBindAndValidate_JSONNumbers(t *testing.T) {
	var req model.CreateUserRequest
	err := BindAndValidate(map[string]any{"name": "Ada", "age": float64(30)}, &req)

	require.NoError(t, err)
	require.NotNil(t, req.Age)
	assert.Equal(t, 30, *req.Age)
}

func TestBindAndValidate_ZeroAgeIsPresent(t *testing.T) {
	var req model.CreateUserRequest
	err := BindAndValidate(map[string]any{"name": "Newborn", "age": float64(0)}, &req)

	require.NoError(t, err)
	assert.Equal(t, 0, *req.Age)
}

func TestBindAndValidate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]any
		payload   any
		wantField string
	}{
		{
			name:      "missing required field",
			input:     map[string]any{"name": "Ada"},
			payload:   &model.CreateUserRequest{},
			wantField: "age",
		},
		{
			name:      "age out of range",
			input:     map[string]any{"name": "Ada", "age": float64(151)},
			payload:   &model.CreateUserRequest{},
			wantField: "age",
		},
		{
			name:      "non numeric count",
			input:     map[string]any{"count": Text("many")},
			payload:   &model.ListUsersRequest{},
			wantField: "count",
		},
		{
			name:      "malformed cursor",
			input:     map[string]any{"page": Text("not-a-cursor")},
			payload:   &model.ListUsersRequest{},
			wantField: "page",
		},
		{
			name:      "update without ids",
			input:     map[string]any{},
			payload:   &model.UpdateUsersRequest{},
			wantField: "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BindAndValidate(tt.input, tt.payload)
			require.Error(t, err)

			classified := errs.Classify(err)
			assert.Equal(t, errs.KindValidationFailed, classified.Kind)
			assert.Equal(t, 400, classified.StatusCode())

			fieldErrors, ok := classified.Data.([]errs.FieldError)
			require.True(t, ok)
			require.NotEmpty(t, fieldErrors)
			assert.Equal(t, tt.wantField, fieldErrors[0].Field)
		})
	}
}
