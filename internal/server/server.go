// Package server exposes chunk pruning over HTTP: a planning endpoint, a
// health check, and Prometheus metrics.
package server

import (
	"context"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chronodb/chronodb/internal/catalog"
)

// Server is the chronodb HTTP server.
type Server struct {
	cat     catalog.Catalog
	addr    string
	logger  log.Logger
	handler *PlanHandler
}

// NewServer creates a server over a catalog.
func NewServer(cat catalog.Catalog, addr string, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Server{
		cat:     cat,
		addr:    addr,
		logger:  logger,
		handler: NewPlanHandler(cat, logger),
	}
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/plan", s.handler.HandlePlan)
	mux.HandleFunc("/ping", s.handler.HandlePing)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	level.Info(s.logger).Log("msg", "listening", "addr", s.addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
