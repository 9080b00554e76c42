package dispatch

import "strings"

type route struct {
	op       *Operation
	segments []string
}

// Router matches a method and path against operation path templates.
// A template segment written as {name} captures that segment.
type Router struct {
	routes []route
}

func NewRouter(ops ...*Operation) *Router {
	r := &Router{}
	for _, op := range ops {
		r.Add(op)
	}
	return r
}

func (r *Router) Add(op *Operation) {
	r.routes = append(r.routes, route{op: op, segments: splitPath(op.Path)})
}

// Match returns the first operation registered for method and path along
// with the captured path parameters.
func (r *Router) Match(method, path string) (*Operation, map[string]string, bool) {
	segments := splitPath(path)
	for _, rt := range r.routes {
		if !strings.EqualFold(rt.op.Method, method) {
			continue
		}
		if params, ok := matchSegments(rt.segments, segments); ok {
			return rt.op, params, true
		}
	}
	return nil, nil, false
}

// Operations lists the registered operations in registration order.
func (r *Router) Operations() []*Operation {
	ops := make([]*Operation, len(r.routes))
	for i, rt := range r.routes {
		ops[i] = rt.op
	}
	return ops
}

func matchSegments(template, segments []string) (map[string]string, bool) {
	if len(template) != len(segments) {
		return nil, false
	}

	params := map[string]string{}
	for i, t := range template {
		if len(t) > 2 && t[0] == '{' && t[len(t)-1] == '}' {
			params[t[1:len(t)-1]] = segments[i]
			continue
		}
		if t != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
