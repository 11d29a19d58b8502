package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/c360/panicstore/errors"
	"github.com/c360/panicstore/pkg/security"
	"github.com/c360/panicstore/pkg/tlsutil"
)

// Server runs the dashboard API listener
type Server struct {
	addr     string
	handler  http.Handler
	security security.Config
	logger   *slog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a server for handler on addr (host:port)
func NewServer(addr string, handler http.Handler, securityCfg security.Config, logger *slog.Logger) (*Server, error) {
	if addr == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "APIServer", "NewServer", "address required")
	}
	if handler == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "APIServer", "NewServer", "handler required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:     addr,
		handler:  handler,
		security: securityCfg,
		logger:   logger.With("component", "api_server"),
	}, nil
}

// Listen binds the listener so Addr is known before Serve
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "APIServer", "Listen", "bind listener")
	}

	tlsConfig, err := tlsutil.LoadServerTLSConfig(s.security.TLS.Server)
	if err != nil {
		return errors.WrapFatal(err, "APIServer", "Listen", "load TLS config")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.WrapFatal(err, "APIServer", "Listen", fmt.Sprintf("listen on %s", s.addr))
	}

	s.server = &http.Server{
		Handler:           s.handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.listener = ln
	return nil
}

// Serve blocks until Shutdown. It calls Listen if needed.
func (s *Server) Serve() error {
	s.mu.Lock()
	needsListen := s.server == nil
	s.mu.Unlock()
	if needsListen {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	server, ln := s.server, s.listener
	s.mu.Unlock()

	s.logger.Info("dashboard API listening", "addr", ln.Addr().String(), "tls", server.TLSConfig != nil)

	var err error
	if server.TLSConfig != nil {
		err = server.ServeTLS(ln, "", "")
	} else {
		err = server.Serve(ln)
	}
	if err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "APIServer", "Serve", "serve HTTP")
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "APIServer", "Shutdown", "drain HTTP server")
	}
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
