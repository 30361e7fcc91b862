package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// SnapshotsHandler handles snapshot capture, listing and resolution
type SnapshotsHandler struct {
	snapshotService interfaces.SnapshotService
	logger          arbor.ILogger
}

// NewSnapshotsHandler creates a new snapshots handler
func NewSnapshotsHandler(snapshotService interfaces.SnapshotService, logger arbor.ILogger) *SnapshotsHandler {
	return &SnapshotsHandler{
		snapshotService: snapshotService,
		logger:          logger,
	}
}

// SnapshotsHandler routes /api/snapshots by method: POST captures, GET lists.
// Manual capture always runs regardless of the configured snapshot policy.
func (h *SnapshotsHandler) SnapshotsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createSnapshot(w, r)
	case http.MethodGet:
		h.listSnapshots(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// GetSnapshotHandler resolves a snapshot ID into its records
func (h *SnapshotsHandler) GetSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/snapshots/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Snapshot ID is required")
		return
	}

	resolved, err := h.snapshotService.Resolve(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Snapshot not found: "+id)
			return
		}
		h.logger.Error().Err(err).Str("snapshot_id", id).Msg("Failed to resolve snapshot")
		WriteError(w, http.StatusInternalServerError, "Failed to resolve snapshot")
		return
	}

	WriteJSON(w, http.StatusOK, resolved)
}

func (h *SnapshotsHandler) createSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshotService.Capture(r.Context(), models.SnapshotTriggerManual)
	if err != nil {
		h.logger.Error().Err(err).Msg("Manual snapshot failed")
		WriteError(w, http.StatusInternalServerError, "Failed to capture snapshot")
		return
	}

	WriteJSON(w, http.StatusCreated, snapshot)
}

func (h *SnapshotsHandler) listSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.snapshotService.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list snapshots")
		WriteError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
