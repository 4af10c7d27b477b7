// Package httpserver builds the http.Server used by cmd/server. Handler
// timeouts are enforced per-route by the middleware chain; the server itself
// only guards against slow-header clients.
package httpserver

import (
	"net/http"
	"time"
)

func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
