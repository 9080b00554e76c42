// Package handler is the echo layer. It turns echo requests into dispatcher
// requests and serves the system endpoints that sit outside the dispatcher.
package handler
