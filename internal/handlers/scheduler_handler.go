package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
)

// SchedulerHandler reports scheduled job state
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
	logger           arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// JobsHandler returns the status of every registered job
func (h *SchedulerHandler) JobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.schedulerService.IsRunning(),
		"jobs":    h.schedulerService.GetAllJobStatuses(),
	})
}
