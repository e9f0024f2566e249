// Package http exposes the gateway's inbound API: the forecast endpoint
// plus health, service metadata, and metrics routes.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wildebeast/forecast-gateway/internal/domain"
	"github.com/wildebeast/forecast-gateway/internal/observability"
)

const (
	serviceName    = "forecast-gateway"
	serviceVersion = "1.0.0"
)

// ForecastHandler answers a forecast question or fails with a classifiable error.
type ForecastHandler interface {
	Forecast(ctx context.Context, question string) (domain.ForecastResult, error)
}

// errorBody is the structured error envelope. Every failed response carries
// one so agent callers can branch on the kind instead of parsing prose.
type errorBody struct {
	Error          string  `json:"error"`
	Message        string  `json:"message"`
	StatusCode     int     `json:"status_code,omitempty"`
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty"`
}

// Server exposes the forecast, health, metadata, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	handler    ForecastHandler
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the gateway HTTP server. Write timeout leaves headroom
// over the upstream call budget so slow upstream responses are reported as
// timeout_error bodies rather than cut connections.
func NewServer(addr string, handler ForecastHandler, upstreamTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: upstreamTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		handler: handler,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("POST /api/v1/forecast", s.handleForecast)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var question domain.ForecastQuestion
	if err := json.NewDecoder(r.Body).Decode(&question); err != nil || strings.TrimSpace(question.Question) == "" {
		s.metrics.Requests.WithLabelValues("validation_error").Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "validation_error",
			Message: "request body must be a JSON object with a non-empty \"question\" field",
		})
		return
	}

	result, err := s.handler.Forecast(r.Context(), question.Question)
	if err != nil {
		classified := domain.Classify(err)
		s.metrics.Requests.WithLabelValues(string(classified.Kind)).Inc()
		s.logger.Error("forecast request failed",
			"kind", classified.Kind,
			"status", classified.HTTPStatus(),
			"error", classified.Message,
		)
		writeJSON(w, classified.HTTPStatus(), errorBody{
			Error:          string(classified.Kind),
			Message:        classified.Message,
			StatusCode:     classified.UpstreamStatus,
			TimeoutSeconds: classified.TimeoutSeconds,
		})
		return
	}

	s.metrics.Requests.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": serviceName,
		"version": serviceVersion,
		"status":  "operational",
		"endpoints": map[string]string{
			"forecast": "/api/v1/forecast",
			"health":   "/health",
			"metrics":  "/metrics",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
