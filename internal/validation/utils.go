// Package validation decodes a normalized request into an operation's
// typed request and checks it against the operation's schema tags.
package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/deppfellow/user-api/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their wire names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Text is a string value taken from the URL, a query or path parameter.
// Unlike JSON body values it converts to the type of the field it binds to.
type Text string

// TextList is a repeated query parameter.
type TextList []Text

// BindAndValidate decodes input into payload (a pointer to a struct) and
// validates it. Body values must already have the field's JSON type, except
// that a lone string reaches a string list. Text values are converted, so
// "15" reaches an int field and a lone value reaches a slice field. Every
// failure is a ValidationFailed error carrying per-field details.
func BindAndValidate(input map[string]any, payload any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		DecodeHook: decodeHook,
		Result:     payload,
	})
	if err != nil {
		return errs.NewInternalServerError(err)
	}

	if err := decoder.Decode(input); err != nil {
		return errs.NewValidationError("Invalid request", decodeFieldErrors(err, payload))
	}

	if err := structValidator().Struct(payload); err != nil {
		if msg, fieldErrors := extractValidationError(err); fieldErrors != nil {
			return errs.NewValidationError(msg, fieldErrors)
		}
		return errs.ValidationError(err)
	}

	return nil
}

var jsonNumberType = reflect.TypeOf(json.Number(""))

func decodeHook(from, to reflect.Type, data any) (any, error) {
	if text, ok := data.(Text); ok {
		return convertText(string(text), to)
	}
	// ids are declared as one id or a list of ids
	if s, ok := data.(string); ok && to.Kind() == reflect.Slice && to.Elem().Kind() == reflect.String {
		return []string{s}, nil
	}
	if from == jsonNumberType {
		return convertNumber(data.(json.Number), to)
	}
	return data, nil
}

func convertNumber(n json.Number, to reflect.Type) (any, error) {
	switch to.Kind() {
	case reflect.String:
		// json.Number has a string kind and would otherwise land in string fields.
		return nil, fmt.Errorf("expected a string, got number %s", n)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return n.Int64()
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	}
	return n, nil
}

func convertText(s string, to reflect.Type) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(s, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(s, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(s, 64)
	case reflect.Bool:
		return strconv.ParseBool(s)
	case reflect.Slice:
		return TextList{Text(s)}, nil
	case reflect.Pointer:
		// converted once the pointer's element is allocated
		return Text(s), nil
	}
	return s, nil
}

func decodeFieldErrors(err error, payload any) []errs.FieldError {
	var fieldErrors []errs.FieldError
	seen := map[string]bool{}

	for _, line := range strings.Split(err.Error(), "\n") {
		field := decodeErrorField(line)
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		fieldErrors = append(fieldErrors, errs.FieldError{Field: field, Error: typeMessage(payload, field)})
	}

	if len(fieldErrors) == 0 {
		fieldErrors = append(fieldErrors, errs.FieldError{Error: "has an invalid type"})
	}

	return fieldErrors
}

// decodeErrorField pulls the quoted field name out of a mapstructure
// message such as `'age' expected type 'int', got unconvertible type 'string'`.
func decodeErrorField(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// typeMessage describes the type a field expects: "age" -> "must be an integer".
func typeMessage(payload any, field string) string {
	name, element := field, false
	if i := strings.IndexByte(field, '['); i >= 0 {
		name, element = field[:i], true
	}

	t := reflect.TypeOf(payload)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return "has an invalid type"
	}

	sf, ok := fieldByTag(t, name)
	if !ok {
		return "has an invalid type"
	}

	ft := sf.Type
	for ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	if element && ft.Kind() == reflect.Slice {
		ft = ft.Elem()
	}

	switch ft.Kind() {
	case reflect.String:
		return "must be a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "must be an integer"
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.Bool:
		return "must be a boolean"
	case reflect.Slice, reflect.Array:
		return "must be a list"
	}
	return "has an invalid type"
}

func fieldByTag(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := range t.NumField() {
		sf := t.Field(i)
		if strings.SplitN(sf.Tag.Get("json"), ",", 2)[0] == name {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

func extractValidationError(err error) (string, []errs.FieldError) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return "", nil
	}

	var fieldErrors []errs.FieldError

	for _, err := range validationErrors {
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "min", "gte":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else if err.Type().Kind() == reflect.Slice {
				msg = fmt.Sprintf("must contain at least %s items", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max", "lte":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "uuid":
			msg = "must be a valid UUID"

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s:%s", err.Tag(), err.Param())
			} else {
				msg = err.Tag()
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: fieldPath(err),
			Error: msg,
		})
	}

	return "Validation failed", fieldErrors
}

// fieldPath drops the struct name from the namespace: "ListUsersRequest.id[1]" -> "id[1]".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}
