package dispatch

import "github.com/deppfellow/user-api/internal/validation"

// NormalizedRequest is the flat parameter map handed to validation: query,
// body and path parameters merged into one object.
type NormalizedRequest map[string]any

// Normalize merges the parts of a request into one map. The multi-value
// query view overlays the single-value one, and a one-element list collapses
// to its only value, so a parameter sent once normalizes the same whether or
// not the transport reported it as a list. Body fields overlay the query and
// path parameters overlay both.
//
// Query and path values are kept as validation.Text so they may be converted
// to numbers or lists when bound. Body values keep their JSON types.
func Normalize(rawQuery map[string]string, rawMultiValueQuery map[string][]string, rawPathParams map[string]string, rawBody map[string]any) NormalizedRequest {
	out := make(NormalizedRequest, len(rawQuery)+len(rawBody)+len(rawPathParams))

	for k, v := range rawQuery {
		out[k] = validation.Text(v)
	}
	for k, values := range rawMultiValueQuery {
		switch len(values) {
		case 0:
		case 1:
			out[k] = validation.Text(values[0])
		default:
			list := make(validation.TextList, len(values))
			for i, v := range values {
				list[i] = validation.Text(v)
			}
			out[k] = list
		}
	}
	for k, v := range rawBody {
		out[k] = v
	}
	for k, v := range rawPathParams {
		out[k] = validation.Text(v)
	}

	return out
}
