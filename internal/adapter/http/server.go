// Package http exposes the epoch query API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/iss-telemetry/internal/observability"
	"github.com/couchcryptid/iss-telemetry/internal/service"
	"github.com/couchcryptid/iss-telemetry/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the epoch query routes and operational endpoints.
type Server struct {
	httpServer *http.Server
	queries    *service.Service
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the API server.
func NewServer(addr string, queries *service.Service, ready ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		queries: queries,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /epochs", s.instrument("/epochs", s.handleListEpochs))
	mux.HandleFunc("GET /epochs/{index}", s.instrument("/epochs/{index}", s.handleGetEpoch))
	mux.HandleFunc("GET /epochs/{index}/speed", s.instrument("/epochs/{index}/speed", s.handleGetSpeed))
	mux.HandleFunc("GET /epochs/{index}/location", s.instrument("/epochs/{index}/location", s.handleGetLocation))
	mux.HandleFunc("GET /now", s.instrument("/now", s.handleNow))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
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

// instrument records request count and duration per route.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next(sw, r)

		s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleListEpochs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	page, err := s.queries.ListEpochs(r.Context(), limit, offset)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	meta, err := s.queries.Metadata(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := listResponse{
		Object:   meta.ObjectName,
		RefFrame: meta.RefFrame,
		Limit:    page.Limit,
		Offset:   page.Offset,
		Total:    page.Total,
		Epochs:   make([]epochPayload, 0, len(page.Records)),
	}
	for _, rec := range page.Records {
		resp.Epochs = append(resp.Epochs, toEpochPayload(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEpoch(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	rec, err := s.queries.GetEpoch(r.Context(), index)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	meta, err := s.queries.Metadata(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, epochResponse{
		Object:       meta.ObjectName,
		RefFrame:     meta.RefFrame,
		epochPayload: toEpochPayload(rec),
	})
}

func (s *Server) handleGetSpeed(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	speed, err := s.queries.GetSpeed(r.Context(), index)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, speedResponse{Index: index, Speed: speed, Units: "km/s"})
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	loc, err := s.queries.GetLocation(r.Context(), index)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, locationResponse{
		Index:      index,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		AltitudeKm: loc.Altitude,
		Place:      loc.Place,
	})
}

func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	snap, err := s.queries.Nearest(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	meta, err := s.queries.Metadata(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nowResponse{
		Object:       meta.ObjectName,
		RefFrame:     meta.RefFrame,
		epochPayload: toEpochPayload(snap.Record),
		Speed:        snap.Speed,
		SpeedUnits:   "km/s",
		Location: locationResponse{
			Index:      snap.Record.Index,
			Latitude:   snap.Location.Latitude,
			Longitude:  snap.Location.Longitude,
			AltitudeKm: snap.Location.Altitude,
			Place:      snap.Location.Place,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// writeServiceError maps service/store errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "epoch index out of range")
	case errors.Is(err, service.ErrEmpty):
		writeError(w, http.StatusServiceUnavailable, "no ephemeris data available")
	default:
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "epoch index must be an integer")
		return 0, false
	}
	return index, true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
