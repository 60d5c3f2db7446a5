package httpserver

import (
	"net/http"
	"time"
)

// New builds the registry's HTTP server. Timeouts are generous enough for
// verify requests carrying document content, tight enough to shed idle
// connections.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
