// Package middleware stores the global echo middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as request ids, request-scoped logging, tracing, body
// size limits and panic recovery.
package middleware
