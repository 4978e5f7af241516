// Package api serves the listing, upload and summary endpoints over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/runnerr0/dnslens/internal/config"
	"github.com/runnerr0/dnslens/internal/engine"
	"github.com/runnerr0/dnslens/internal/logging"
)

// Server is the dnslens HTTP daemon.
type Server struct {
	cfg      config.ServerConfig
	engine   *engine.Engine
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	handler  http.Handler
}

// NewServer wires routes for eng. A nil logger discards output.
func NewServer(cfg config.ServerConfig, mcfg config.MetricsConfig, eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		cfg:      cfg,
		engine:   eng,
		logger:   logger,
		registry: reg,
		metrics:  NewMetrics(reg),
	}

	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/log", s.handleList).Methods("GET")
	api.HandleFunc("/log/upload", s.handleUpload).Methods("POST")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if mcfg.Enabled {
		router.Handle(mcfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	s.handler = cors(cfg.CORSOrigin)(s.instrument(router))
	return s
}

// Handler returns the root handler, for mounting or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
