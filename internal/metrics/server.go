package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/logging"
)

// Server exposes /metrics and, optionally, the pprof endpoints.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int
}

// NewServer builds a server for port. Port 0 picks a free port on Start.
func NewServer(port int, withPprof bool) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	if withPprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return &Server{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		port: port,
	}
}

// Start listens and serves in the background. It returns an error if the
// listener cannot be created or serving fails immediately.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	actualPort := listener.Addr().(*net.TCPAddr).Port
	logger := logging.Component("metrics")
	logger.Info().Int("port", actualPort).Msg("starting metrics server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger := logging.Component("metrics")
	logger.Info().Msg("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}
