package handler

import (
	"net/http"
	"time"

	"github.com/atra-dev/aegis-notify/internal/api/respond"
	"github.com/atra-dev/aegis-notify/internal/reaper"
	"github.com/atra-dev/aegis-notify/internal/usage"
)

// cleanupResponse is the on-demand reaper summary contract.
type cleanupResponse struct {
	Success             bool `json:"success"`
	TotalNotifications  int  `json:"totalNotifications"`
	UniqueNotifications int  `json:"uniqueNotifications"`
	DuplicatesRemoved   int  `json:"duplicatesRemoved"`
	BatchesProcessed    int  `json:"batchesProcessed"`
}

// CleanupDuplicates runs the duplicate reaper synchronously over the full
// table (no lookback limit) and returns its summary.
// @Summary Remove duplicate notifications
// @Description Scans all notification records, keeps the most recent of each duplicate group, and deletes the rest in bounded batches.
// @Tags maintenance
// @Produce json
// @Success 200 {object} cleanupResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/maintenance/cleanup-duplicates [post]
func (h *Handler) CleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	result, err := reaper.Reap(r.Context(), h.store, h.clock, 0,
		h.cfg.DeleteBatchSize, h.logger)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError,
			"Duplicate cleanup failed", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, cleanupResponse{
		Success:             len(result.Errors) == 0,
		TotalNotifications:  result.Total,
		UniqueNotifications: result.Unique,
		DuplicatesRemoved:   result.DuplicatesRemoved,
		BatchesProcessed:    result.Batches,
	})
}

// ResetUsage runs the daily usage reset on demand.
// @Summary Reset usage counters
// @Description Zeroes every usage counter and stamps today's local date, in batched writes.
// @Tags maintenance
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/maintenance/reset-usage [post]
func (h *Handler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	result, err := usage.Reset(r.Context(), h.pool, h.clock, h.logger)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError,
			"Usage reset failed", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"totalEntities":    result.Total,
		"entitiesReset":    result.Reset,
		"batchesProcessed": result.Batches,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}
