// Package handler provides HTTP handlers for all API endpoints.
// Handlers call the tournament service; reads are cached with ETags and the
// cache is purged whenever the service commits a write.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/albapepper/swiss-tournament/internal/api/respond"
	"github.com/albapepper/swiss-tournament/internal/cache"
	"github.com/albapepper/swiss-tournament/internal/config"
	"github.com/albapepper/swiss-tournament/internal/model"
	"github.com/albapepper/swiss-tournament/internal/tournament"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	svc   *tournament.Service
	cache *cache.Cache
	cfg   *config.Config
}

// New creates a Handler with shared dependencies.
func New(svc *tournament.Service, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		svc:   svc,
		cache: c,
		cfg:   cfg,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the active store driver.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Swiss Tournament API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"store":   h.cfg.StoreDriver,
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies store connectivity.
// @Summary Database health check
// @Description Verifies the record store is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps service errors onto the JSON error envelope.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	detail := ""
	if h.cfg.Debug {
		detail = err.Error()
	}
	switch {
	case errors.Is(err, model.ErrEmptyName):
		respond.WriteError(w, http.StatusBadRequest, "INVALID_NAME", "Player name is empty after sanitizing")
	case errors.Is(err, model.ErrSelfMatch):
		respond.WriteError(w, http.StatusUnprocessableEntity, "SELF_MATCH", "Winner and loser must be different players")
	case errors.Is(err, model.ErrConstraint):
		respond.WriteErrorDetail(w, http.StatusConflict, "CONSTRAINT_VIOLATION",
			"Operation violates a store constraint", detail)
	default:
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_ERROR",
			"Record store operation failed", detail)
	}
}
