// Package httpserv exposes the ops endpoint: health, status and
// Prometheus metrics.
package httpserv

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ervin-khamoido/saga-telegram-bot/logger"
	"github.com/ervin-khamoido/saga-telegram-bot/services/worker"
)

// StatusProvider supplies the current worker status
type StatusProvider interface {
	Status() worker.Status
}

// Server serves the ops endpoint
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// New creates the ops HTTP server on addr
func New(addr string, status StatusProvider) *Server {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status.Status())
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		log: logger.ForComponent("httpserv"),
	}
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() {
	s.log.Info().Str("addr", s.srv.Addr).Msg("Ops endpoint listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error().Err(err).Msg("Ops endpoint failed")
	}
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
