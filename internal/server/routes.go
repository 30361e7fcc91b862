// -----------------------------------------------------------------------
// Last Modified: Tuesday, 25th August 2026 3:05:41 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Credentials
	mux.HandleFunc("/api/credentials", s.handleCredentialsRoute) // GET (redacted view), POST (save)

	// API routes - Catalog and status
	mux.HandleFunc("/api/endpoints", s.app.EndpointsHandler.ListEndpointsHandler)
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)

	// API routes - Extraction
	// The exact /api/extract/progress pattern wins over the /api/extract/
	// prefix, so the single-endpoint dispatcher only ever sees endpoint IDs.
	mux.HandleFunc("/api/extract", s.app.ExtractionHandler.ExtractAllHandler)        // POST - full run
	mux.HandleFunc("/api/extract/progress", s.app.ExtractionHandler.ProgressHandler) // GET - run progress
	mux.HandleFunc("/api/extract/", s.app.ExtractionHandler.ExtractEndpointHandler)  // POST /{endpointID}

	// API routes - Responses
	mux.HandleFunc("/api/responses", s.app.ResponsesHandler.ResponsesHandler) // GET (list), DELETE (clear)
	mux.HandleFunc("/api/responses/latest", s.app.ResponsesHandler.LatestHandler)

	// API routes - Snapshots
	mux.HandleFunc("/api/snapshots", s.app.SnapshotsHandler.SnapshotsHandler) // POST (capture), GET (list)
	mux.HandleFunc("/api/snapshots/", s.app.SnapshotsHandler.GetSnapshotHandler)

	// API routes - Store
	mux.HandleFunc("/api/stats", s.app.StatsHandler.GetStatsHandler)
	mux.HandleFunc("/api/export", s.app.ExportHandler.DownloadHandler)

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/jobs", s.app.SchedulerHandler.JobsHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (local tooling)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	// Root index; everything else unmatched falls through here
	mux.HandleFunc("/", s.app.APIHandler.IndexHandler)

	return mux
}

// handleCredentialsRoute routes /api/credentials requests (view and save)
func (s *Server) handleCredentialsRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET":  s.app.CredentialsHandler.GetCredentialsHandler,
		"POST": s.app.CredentialsHandler.UpdateCredentialsHandler,
	})
}
