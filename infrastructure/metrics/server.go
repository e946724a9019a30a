package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the collected metrics over HTTP at /metrics
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// NewServer binds listenAddress and returns a server ready to Start
func NewServer(listenAddress string) (*Server, error) {
	initPrometheusMetrics()

	listener, err := net.Listen("tcp", listenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", listenAddress)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
	}, nil
}

// Address returns the address the server listens on
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

// Start serves requests in the background until Stop is called
func (s *Server) Start() {
	spawn("metrics.Server.Start", func() {
		log.Infof("Metrics server listening on %s", s.listener.Addr())
		err := s.httpServer.Serve(s.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %s", err)
		}
	})
}

// Stop shuts the server down
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
