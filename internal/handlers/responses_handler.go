package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// ResponsesHandler serves and clears captured endpoint responses
type ResponsesHandler struct {
	responseStorage interfaces.ResponseStorage
	logger          arbor.ILogger
}

// NewResponsesHandler creates a new responses handler
func NewResponsesHandler(responseStorage interfaces.ResponseStorage, logger arbor.ILogger) *ResponsesHandler {
	return &ResponsesHandler{
		responseStorage: responseStorage,
		logger:          logger,
	}
}

// ResponsesHandler routes /api/responses by method: GET lists, DELETE clears.
// Both accept an optional ?endpoint= filter.
func (h *ResponsesHandler) ResponsesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listResponses(w, r)
	case http.MethodDelete:
		h.deleteResponses(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// LatestHandler returns the most recent record per endpoint
func (h *ResponsesHandler) LatestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	latest, err := h.responseStorage.GetLatestPerEndpoint(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load latest responses")
		WriteError(w, http.StatusInternalServerError, "Failed to load latest responses")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"responses": latest,
		"count":     len(latest),
	})
}

func (h *ResponsesHandler) listResponses(w http.ResponseWriter, r *http.Request) {
	endpointID := r.URL.Query().Get("endpoint")

	var (
		records []*models.ResponseRecord
		err     error
	)
	if endpointID != "" {
		if _, ok := models.EndpointByID(endpointID); !ok {
			WriteError(w, http.StatusNotFound, "Unknown endpoint: "+endpointID)
			return
		}
		records, err = h.responseStorage.GetResponsesByEndpoint(r.Context(), endpointID)
	} else {
		records, err = h.responseStorage.GetAllResponses(r.Context())
	}
	if err != nil {
		h.logger.Error().Err(err).Str("endpoint", endpointID).Msg("Failed to list responses")
		WriteError(w, http.StatusInternalServerError, "Failed to list responses")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"responses": records,
		"count":     len(records),
	})
}

func (h *ResponsesHandler) deleteResponses(w http.ResponseWriter, r *http.Request) {
	endpointID := r.URL.Query().Get("endpoint")

	if endpointID != "" {
		if _, ok := models.EndpointByID(endpointID); !ok {
			WriteError(w, http.StatusNotFound, "Unknown endpoint: "+endpointID)
			return
		}
		deleted, err := h.responseStorage.DeleteResponsesByEndpoint(r.Context(), endpointID)
		if err != nil {
			h.logger.Error().Err(err).Str("endpoint", endpointID).Msg("Failed to delete responses")
			WriteError(w, http.StatusInternalServerError, "Failed to delete responses")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"deleted":  deleted,
			"endpoint": endpointID,
		})
		return
	}

	if err := h.responseStorage.ClearAll(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to clear responses")
		WriteError(w, http.StatusInternalServerError, "Failed to clear responses")
		return
	}
	WriteSuccess(w, "All responses cleared")
}
