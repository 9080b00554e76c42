// Package errs defines the error taxonomy of the API.
//
// Every failure a client can observe is one of a closed set of kinds,
// each carrying an HTTP status code. The dispatcher is the only place
// that turns errors into responses, and it does so through Classify.
package errs
