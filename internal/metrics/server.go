package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dtroode/salesdesk/internal/model"
)

var _ model.Server = (*HTTPServer)(nil)

// HTTPServer serves /metrics on its own port.
type HTTPServer struct {
	server *http.Server
	addr   string
}

func NewHTTPServer(registry *prometheus.Registry, addr string) *HTTPServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(registry))

	return &HTTPServer{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr: addr,
	}
}

func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) Address() string {
	return s.addr
}
