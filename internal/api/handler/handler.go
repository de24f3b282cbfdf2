// Package handler provides HTTP handlers for all API endpoints: health
// checks, the notification read contract for the dashboard UI, and the
// on-demand maintenance triggers.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atra-dev/aegis-notify/internal/api/respond"
	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/config"
	"github.com/atra-dev/aegis-notify/internal/notify"
	"github.com/atra-dev/aegis-notify/internal/shift"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool         *pgxpool.Pool
	cfg          *config.Config
	store        *notify.Store
	orchestrator *shift.Orchestrator
	clock        *clock.Resolver
	logger       *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(pool *pgxpool.Pool, cfg *config.Config, store *notify.Store, orchestrator *shift.Orchestrator, resolver *clock.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		pool:         pool,
		cfg:          cfg,
		store:        store,
		orchestrator: orchestrator,
		clock:        resolver,
		logger:       logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns service name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":     "Aegis Notify API",
		"version":  "1.0.0",
		"status":   "running",
		"timezone": h.clock.Location().String(),
		"docs":     "/docs",
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

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
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

// ListNotifications serves the newest notification records.
// @Summary List notifications
// @Description Returns the newest notification records, optionally filtered by role label.
// @Tags notifications
// @Produce json
// @Param role query string false "Role label filter"
// @Param limit query int false "Maximum records (default 50)"
// @Success 200 {array} notify.Record
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.store.Recent(r.Context(), role, limit)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError,
			"Failed to list notifications", err.Error())
		return
	}
	if records == nil {
		records = []notify.Record{}
	}
	respond.WriteJSONObject(w, http.StatusOK, records)
}

// RunShiftTick runs one orchestrator pass on demand.
// @Summary Run one shift tick
// @Description Evaluates every shift rule against the current wall clock and returns the tick summary.
// @Tags maintenance
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/shift/run [post]
func (h *Handler) RunShiftTick(w http.ResponseWriter, r *http.Request) {
	result := h.orchestrator.RunTick(r.Context())
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success":   len(result.Errors) == 0,
		"evaluated": result.Evaluated,
		"matched":   result.Matched,
		"deduped":   result.Deduped,
		"created":   result.Created,
		"errors":    result.Errors,
	})
}
