package httpserver

import (
	"net/http"
	"time"
)

// New builds the terminal-facing HTTP server. Flow endpoints answer quickly
// (verification and uploads run asynchronously and are polled via the state
// endpoint), so the timeouts only need to cover inline selfie and audit photo
// payloads.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}
