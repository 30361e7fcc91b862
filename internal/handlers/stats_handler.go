package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
)

// StatsHandler serves aggregate store statistics
type StatsHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(storage interfaces.StorageManager, logger arbor.ILogger) *StatsHandler {
	return &StatsHandler{
		storage: storage,
		logger:  logger,
	}
}

// GetStatsHandler returns record counts, the latest capture timestamp and the
// approximate store size
func (h *StatsHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats, err := h.storage.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute store stats")
		WriteError(w, http.StatusInternalServerError, "Failed to compute store stats")
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
