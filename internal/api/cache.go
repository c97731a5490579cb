package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettingsInvalidator drops cached reseller settings.
type SettingsInvalidator interface {
	Invalidate(ctx context.Context, resellerID int64) error
}

// CacheHandler lets operators force a settings reload after editing a
// reseller's sender, recipients or locale in Postgres.
type CacheHandler struct {
	cache  SettingsInvalidator
	logger *zap.Logger
}

func NewCacheHandler(cache SettingsInvalidator, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, logger: logger}
}

// InvalidateSettings handles DELETE /v1/resellers/{resellerID}/settings/cache.
func (h *CacheHandler) InvalidateSettings(w http.ResponseWriter, r *http.Request) {
	resellerID, err := strconv.ParseInt(chi.URLParam(r, "resellerID"), 10, 64)
	if err != nil || resellerID <= 0 {
		writeProblem(w, http.StatusBadRequest, "invalid_request", "Invalid reseller ID", "resellerID must be a positive integer")
		return
	}

	if err := h.cache.Invalidate(r.Context(), resellerID); err != nil {
		h.logger.Error("failed to invalidate settings cache",
			zap.Error(err),
			zap.Int64("reseller_id", resellerID),
		)
		writeProblem(w, http.StatusInternalServerError, "internal_error", "Failed to invalidate settings cache", "")
		return
	}

	h.logger.Info("settings cache invalidated", zap.Int64("reseller_id", resellerID))
	w.WriteHeader(http.StatusNoContent)
}
