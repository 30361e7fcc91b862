package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
)

// ExportHandler serves the full store as a downloadable JSON bundle
type ExportHandler struct {
	exportService interfaces.ExportService
	logger        arbor.ILogger
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService interfaces.ExportService, logger arbor.ILogger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// DownloadHandler assembles the export bundle and serves it as an attachment.
// Credentials in the bundle are already redacted by the export service.
func (h *ExportHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	bundle, err := h.exportService.Bundle(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to assemble export bundle")
		WriteError(w, http.StatusInternalServerError, "Failed to assemble export bundle")
		return
	}

	filename := h.exportService.Filename(time.Now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(bundle); err != nil {
		h.logger.Warn().Err(err).Msg("Export download aborted mid-stream")
	}
}
