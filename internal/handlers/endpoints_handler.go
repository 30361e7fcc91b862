package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/models"
)

// EndpointsHandler serves the fixed endpoint catalog
type EndpointsHandler struct {
	logger arbor.ILogger
}

// NewEndpointsHandler creates a new endpoints handler
func NewEndpointsHandler(logger arbor.ILogger) *EndpointsHandler {
	return &EndpointsHandler{
		logger: logger,
	}
}

// ListEndpointsHandler returns the catalog in its fixed order
func (h *EndpointsHandler) ListEndpointsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	catalog := models.EndpointCatalog()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"endpoints": catalog,
		"count":     len(catalog),
	})
}
