package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// CredentialsHandler handles the stored partner credential set. Secret fields
// never leave the store unredacted.
type CredentialsHandler struct {
	authService     interfaces.AuthService
	snapshotService interfaces.SnapshotService
	logger          arbor.ILogger
}

// NewCredentialsHandler creates a new credentials handler
func NewCredentialsHandler(
	authService interfaces.AuthService,
	snapshotService interfaces.SnapshotService,
	logger arbor.ILogger,
) *CredentialsHandler {
	return &CredentialsHandler{
		authService:     authService,
		snapshotService: snapshotService,
		logger:          logger,
	}
}

// GetCredentialsHandler returns whether credentials are configured, plus the
// redacted set when one exists
func (h *CredentialsHandler) GetCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	response := map[string]interface{}{
		"configured": h.authService.HasCredentials(),
	}
	if creds := h.authService.Credentials(); creds != nil {
		response["credentials"] = creds.Redacted()
	}

	lastLogin, err := h.authService.LastLogin(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read last login")
	} else if lastLogin > 0 {
		response["last_login"] = lastLogin
	}

	WriteJSON(w, http.StatusOK, response)
}

// UpdateCredentialsHandler validates and stores a credential set. A valid set
// counts as a login: the login timestamp is stamped and the login snapshot
// policy runs.
func (h *CredentialsHandler) UpdateCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.SetCredentials(r.Context(), &creds); err != nil {
		if errors.Is(err, interfaces.ErrInvalidCredentials) {
			WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"accepted": false,
				"error":    err.Error(),
			})
			return
		}
		h.logger.Error().Err(err).Msg("Failed to store credentials")
		WriteError(w, http.StatusInternalServerError, "Failed to store credentials")
		return
	}

	loginAt, err := h.authService.RecordLogin(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to record login timestamp")
	}

	// A failed snapshot never fails the login
	if _, err := h.snapshotService.CaptureIfEnabled(r.Context(), models.SnapshotTriggerLogin); err != nil {
		h.logger.Warn().Err(err).Msg("Login snapshot failed")
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accepted":    true,
		"credentials": creds.Redacted(),
		"last_login":  loginAt,
	})
}
