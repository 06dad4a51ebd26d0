// Package httpserver wraps the stdlib HTTP server with the timeouts and
// shutdown behavior the service expects.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long graceful shutdown may take.
var ShutdownTimeout = 10 * time.Second

// Server is a thin wrapper around http.Server.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port. There is no full
// read timeout because upload bodies can be large; the header timeout guards
// against idle connections instead.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start begins serving HTTP traffic and blocks until the listener closes.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
