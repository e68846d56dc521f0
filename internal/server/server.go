package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/ioc-monitor/internal/api/middleware"
	"github.com/theblitlabs/ioc-monitor/internal/monitoring/health"
	"github.com/theblitlabs/ioc-monitor/internal/services"
	"github.com/theblitlabs/ioc-monitor/internal/telemetry"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

// Server exposes metrics, health and the live sample stream over HTTP.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	health     *health.HealthChecker
	status     *services.StatusTracker
	stream     *StreamHub
	log        zerolog.Logger
}

func NewServer(addr string, hc *health.HealthChecker, status *services.StatusTracker, stream *StreamHub) *Server {
	s := &Server{
		router: mux.NewRouter(),
		health: hc,
		status: status,
		stream: stream,
		log:    logger.WithComponent("server"),
	}

	s.router.Use(middleware.Logging, telemetry.MetricsMiddleware)
	s.router.Handle("/metrics", telemetry.MetricsHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", stream.ServeWS).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

type healthResponse struct {
	Status     health.Status                      `json:"status"`
	Components map[string]*health.ComponentHealth `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     s.health.Overall(),
		Components: s.health.GetAllHealth(),
	}

	code := http.StatusOK
	if resp.Status == health.StatusError {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.status.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server...")
	s.stream.Close()
	return s.httpServer.Shutdown(ctx)
}
