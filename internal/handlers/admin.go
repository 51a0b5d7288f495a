package handlers

import (
	"net/http"

	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

// AdminHandler exposes ops-only endpoints. Routes mounting it must be
// gated behind RequireRole(admin).
type AdminHandler struct {
	storage models.CacheStorage
	logger  models.Logger
}

func NewAdminHandler(storage models.CacheStorage, logger models.Logger) *AdminHandler {
	return &AdminHandler{
		storage: storage,
		logger:  logger,
	}
}

// ResetCache clears every entry under the cache namespace, including rate
// limit counters. Never called on the request path.
func (h *AdminHandler) ResetCache(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Reset(r.Context()); err != nil {
		h.logger.Error("cache reset failed", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to reset cache", internalError)
		return
	}

	h.logger.Info("cache reset by admin")
	util.SuccessResponse(w, http.StatusOK, "cache cleared", nil)
}
