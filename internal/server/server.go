package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
}

const (
	defaultPort       = "8080"
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	// WebSocket writes set their own deadline after the upgrade.
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// normalizeAddr accepts "8080", ":8080" or "host:8080"; empty means the default port.
func normalizeAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		port = defaultPort
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// Run listens on port and blocks until the server stops. A graceful Shutdown
// is not reported as an error.
func (s *Server) Run(port string, handler http.Handler) error {
	srv := newHTTPServer(normalizeAddr(port), handler)
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
