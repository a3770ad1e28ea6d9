// Package http exposes the impact simulation API plus health, readiness,
// and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skyfall-io/impact-sim-service/internal/adapter/neo"
	"github.com/skyfall-io/impact-sim-service/internal/domain"
	"github.com/skyfall-io/impact-sim-service/internal/observability"
)

const maxRequestBody = 1 << 20 // 1 MiB

// ScenarioAPI is the service surface the HTTP layer exposes.
type ScenarioAPI interface {
	Simulate(ctx context.Context, inputs domain.ImpactInputs) (domain.ImpactScenario, error)
	ListImpacts(ctx context.Context, source string) ([]domain.ImpactScenario, error)
	DeleteImpact(ctx context.Context, id string) error
	FetchAsteroids(ctx context.Context, days int) ([]domain.ImpactScenario, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the scenario API over HTTP.
type Server struct {
	httpServer *http.Server
	api        ScenarioAPI
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all API and operational routes.
func NewServer(addr string, api ScenarioAPI, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:     api,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /{$}", s.instrument("/", s.handleIndex))
	mux.HandleFunc("GET /get_impacts", s.instrument("/get_impacts", s.handleGetImpacts))
	mux.HandleFunc("POST /simulate_impact", s.instrument("/simulate_impact", s.handleSimulateImpact))
	mux.HandleFunc("GET /nasa_asteroids", s.instrument("/nasa_asteroids", s.handleNASAAsteroids))
	mux.HandleFunc("DELETE /delete_impact/{id}", s.instrument("/delete_impact", s.handleDeleteImpact))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
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

// instrument wraps a handler with per-route request counting.
func (s *Server) instrument(route string, next func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := next(w, r)
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) int {
	return writeJSON(w, http.StatusOK, map[string]any{
		"api_name":    "Asteroid Impact Simulation API",
		"description": "Simulate asteroid impacts, view live asteroid data, and manage saved simulations.",
		"routes": map[string]string{
			"/":                   "API index - lists all routes and their purpose.",
			"/get_impacts":        "GET historical + user-simulated impacts.",
			"/simulate_impact":    "POST: Simulate an asteroid impact and save it.",
			"/nasa_asteroids":     "GET: Fetch live asteroid data from the NASA NEO feed.",
			"/delete_impact/{id}": "DELETE: Remove a saved simulation by ID.",
			"/healthz":            "GET: Liveness probe.",
			"/readyz":             "GET: Readiness probe.",
			"/metrics":            "GET: Prometheus metrics.",
		},
	})
}

func (s *Server) handleGetImpacts(w http.ResponseWriter, r *http.Request) int {
	scenarios, err := s.api.ListImpacts(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		return s.writeError(w, err)
	}
	if scenarios == nil {
		scenarios = []domain.ImpactScenario{}
	}
	return writeJSON(w, http.StatusOK, scenarios)
}

// simulateRequest accepts both size_m and the older diameter_m field name.
// Pointers distinguish absent fields from explicit zeros.
type simulateRequest struct {
	SizeM            *float64 `json:"size_m"`
	DiameterM        *float64 `json:"diameter_m"`
	VelocityKmS      *float64 `json:"velocity_km_s"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	DensityKgM3      float64  `json:"density_kg_m3"`
	PopDensityPerKm2 float64  `json:"pop_density_per_km2"`
}

func (s *Server) handleSimulateImpact(w http.ResponseWriter, r *http.Request) int {
	var req simulateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(&req); err != nil {
		return s.writeError(w, fmt.Errorf("%w: decode request body: %v", domain.ErrInvalidInput, err))
	}

	size := req.SizeM
	if size == nil {
		size = req.DiameterM
	}
	if size == nil || req.VelocityKmS == nil {
		return s.writeError(w, fmt.Errorf("%w: size_m and velocity_km_s are required", domain.ErrInvalidInput))
	}
	if req.Latitude == nil || req.Longitude == nil {
		return s.writeError(w, fmt.Errorf("%w: latitude and longitude are required", domain.ErrInvalidInput))
	}

	scenario, err := s.api.Simulate(r.Context(), domain.ImpactInputs{
		DiameterM:        *size,
		VelocityKmS:      *req.VelocityKmS,
		DensityKgM3:      req.DensityKgM3,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		PopDensityPerKm2: req.PopDensityPerKm2,
	})
	if err != nil {
		return s.writeError(w, err)
	}
	return writeJSON(w, http.StatusOK, scenario)
}

func (s *Server) handleNASAAsteroids(w http.ResponseWriter, r *http.Request) int {
	days := neo.MaxWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return s.writeError(w, fmt.Errorf("%w: days must be an integer, got %q", domain.ErrInvalidInput, raw))
		}
		days = parsed
	}

	scenarios, err := s.api.FetchAsteroids(r.Context(), days)
	if err != nil {
		return s.writeError(w, err)
	}
	if scenarios == nil {
		scenarios = []domain.ImpactScenario{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(scenarios),
		"asteroids": scenarios,
	})
}

func (s *Server) handleDeleteImpact(w http.ResponseWriter, r *http.Request) int {
	id := r.PathValue("id")
	if err := s.api.DeleteImpact(r.Context(), id); err != nil {
		return s.writeError(w, err)
	}
	return writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Impact %s deleted", id),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.api.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeError maps domain sentinel errors onto HTTP statuses. Anything
// unmapped is treated as an internal failure.
func (s *Server) writeError(w http.ResponseWriter, err error) int {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrUpstreamMalformed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	return writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
	return status
}
