package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
)

// ExtractionHandler handles extraction trigger and progress endpoints
type ExtractionHandler struct {
	extractionService interfaces.ExtractionService
	logger            arbor.ILogger
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(extractionService interfaces.ExtractionService, logger arbor.ILogger) *ExtractionHandler {
	return &ExtractionHandler{
		extractionService: extractionService,
		logger:            logger,
	}
}

// ExtractAllHandler runs a full extraction across the endpoint catalog and
// returns the captured records. The run is synchronous; progress streams out
// over the event bus while this request is in flight.
func (h *ExtractionHandler) ExtractAllHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	started := time.Now()
	records, err := h.extractionService.FetchAll(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrExtractionRunning):
			WriteError(w, http.StatusConflict, "An extraction run is already in progress")
		case errors.Is(err, interfaces.ErrNoCredentials):
			WriteError(w, http.StatusUnauthorized, "No credentials configured")
		default:
			h.logger.Error().Err(err).Msg("Extraction run failed")
			WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	succeeded := 0
	for _, record := range records {
		if record.Success {
			succeeded++
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records":     records,
		"total":       len(records),
		"succeeded":   succeeded,
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

// ExtractEndpointHandler fetches a single endpoint by ID. Simulated upstream
// failures still produce a record, so they answer 200 with success=false.
func (h *ExtractionHandler) ExtractEndpointHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	endpointID := strings.TrimPrefix(r.URL.Path, "/api/extract/")
	if endpointID == "" {
		WriteError(w, http.StatusBadRequest, "Endpoint ID is required")
		return
	}

	record, err := h.extractionService.FetchEndpoint(r.Context(), endpointID)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrUnknownEndpoint):
			WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, interfaces.ErrNoCredentials):
			WriteError(w, http.StatusUnauthorized, "No credentials configured")
		default:
			h.logger.Error().Err(err).Str("endpoint", endpointID).Msg("Endpoint fetch failed")
			WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// ProgressHandler returns the current extraction progress
func (h *ExtractionHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, h.extractionService.Progress())
}
