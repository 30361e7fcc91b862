package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
	"golang.org/x/oauth2"
)

// mockAuthService implements interfaces.AuthService for testing
type mockAuthService struct {
	creds         *models.Credentials
	setFunc       func(ctx context.Context, creds *models.Credentials) error
	lastLogin     int64
	recordedLogin int64
}

func (m *mockAuthService) HasCredentials() bool {
	return m.creds != nil
}

func (m *mockAuthService) Credentials() *models.Credentials {
	return m.creds.Clone()
}

func (m *mockAuthService) SetCredentials(ctx context.Context, creds *models.Credentials) error {
	if m.setFunc != nil {
		if err := m.setFunc(ctx, creds); err != nil {
			return err
		}
	}
	m.creds = creds.Clone()
	return nil
}

func (m *mockAuthService) Token(ctx context.Context) (*oauth2.Token, error) {
	return nil, interfaces.ErrNoCredentials
}

func (m *mockAuthService) RecordLogin(ctx context.Context) (int64, error) {
	m.recordedLogin = 1756100000000
	m.lastLogin = m.recordedLogin
	return m.recordedLogin, nil
}

func (m *mockAuthService) LastLogin(ctx context.Context) (int64, error) {
	return m.lastLogin, nil
}

// mockSnapshotService implements interfaces.SnapshotService for testing
type mockSnapshotService struct {
	captureFunc func(ctx context.Context, trigger string) (*models.Snapshot, error)
	listFunc    func(ctx context.Context) ([]*models.Snapshot, error)
	resolveFunc func(ctx context.Context, id string) (*models.ResolvedSnapshot, error)
	triggers    []string
}

func (m *mockSnapshotService) Capture(ctx context.Context, trigger string) (*models.Snapshot, error) {
	m.triggers = append(m.triggers, trigger)
	if m.captureFunc != nil {
		return m.captureFunc(ctx, trigger)
	}
	return &models.Snapshot{ID: "snap-1", Trigger: trigger}, nil
}

func (m *mockSnapshotService) CaptureIfEnabled(ctx context.Context, trigger string) (*models.Snapshot, error) {
	return m.Capture(ctx, trigger)
}

func (m *mockSnapshotService) List(ctx context.Context) ([]*models.Snapshot, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockSnapshotService) Resolve(ctx context.Context, id string) (*models.ResolvedSnapshot, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, id)
	}
	return nil, interfaces.ErrNotFound
}

func validCredentialsBody() *bytes.Buffer {
	body, _ := json.Marshal(models.Credentials{
		ClientID:     "amzn1.application-oa2-client.abc123",
		ClientSecret: "secret-value",
		RefreshToken: "Atzr|refresh-value",
	})
	return bytes.NewBuffer(body)
}

func TestGetCredentialsHandler_NotConfigured(t *testing.T) {
	handler := NewCredentialsHandler(&mockAuthService{}, &mockSnapshotService{}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/credentials", nil)
	rec := httptest.NewRecorder()
	handler.GetCredentialsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["configured"] != false {
		t.Errorf("Expected configured false, got %v", response["configured"])
	}
	if _, ok := response["credentials"]; ok {
		t.Error("Unconfigured response should not carry credentials")
	}
}

func TestGetCredentialsHandler_RedactsSecrets(t *testing.T) {
	auth := &mockAuthService{
		creds: &models.Credentials{
			ClientID:     "amzn1.application-oa2-client.abc123",
			ClientSecret: "secret-value",
			RefreshToken: "Atzr|refresh-value",
		},
	}
	handler := NewCredentialsHandler(auth, &mockSnapshotService{}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/credentials", nil)
	rec := httptest.NewRecorder()
	handler.GetCredentialsHandler(rec, req)

	body := rec.Body.String()
	if bytes.Contains([]byte(body), []byte("secret-value")) {
		t.Error("Response leaked the client secret")
	}
	if bytes.Contains([]byte(body), []byte("Atzr|refresh-value")) {
		t.Error("Response leaked the refresh token")
	}
	if !bytes.Contains([]byte(body), []byte(models.RedactedPlaceholder)) {
		t.Error("Expected redaction placeholder in response")
	}
	if !bytes.Contains([]byte(body), []byte("amzn1.application-oa2-client.abc123")) {
		t.Error("Client ID should survive redaction")
	}
}

func TestUpdateCredentialsHandler_AcceptsValidSet(t *testing.T) {
	auth := &mockAuthService{}
	snapshots := &mockSnapshotService{}
	handler := NewCredentialsHandler(auth, snapshots, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/credentials", validCredentialsBody())
	rec := httptest.NewRecorder()
	handler.UpdateCredentialsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["accepted"] != true {
		t.Errorf("Expected accepted true, got %v", response["accepted"])
	}
	if auth.recordedLogin == 0 {
		t.Error("Accepting credentials should record a login")
	}
	if len(snapshots.triggers) != 1 || snapshots.triggers[0] != models.SnapshotTriggerLogin {
		t.Errorf("Expected one login snapshot trigger, got %v", snapshots.triggers)
	}
}

func TestUpdateCredentialsHandler_RejectsInvalidSet(t *testing.T) {
	auth := &mockAuthService{
		setFunc: func(ctx context.Context, creds *models.Credentials) error {
			return interfaces.ErrInvalidCredentials
		},
	}
	snapshots := &mockSnapshotService{}
	handler := NewCredentialsHandler(auth, snapshots, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/credentials", validCredentialsBody())
	rec := httptest.NewRecorder()
	handler.UpdateCredentialsHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["accepted"] != false {
		t.Errorf("Expected accepted false, got %v", response["accepted"])
	}
	if len(snapshots.triggers) != 0 {
		t.Errorf("Rejected credentials must not trigger a snapshot, got %v", snapshots.triggers)
	}
}

func TestUpdateCredentialsHandler_RejectsBadBody(t *testing.T) {
	handler := NewCredentialsHandler(&mockAuthService{}, &mockSnapshotService{}, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/credentials", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	handler.UpdateCredentialsHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateCredentialsHandler_MethodNotAllowed(t *testing.T) {
	handler := NewCredentialsHandler(&mockAuthService{}, &mockSnapshotService{}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/credentials", nil)
	rec := httptest.NewRecorder()
	handler.UpdateCredentialsHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected status 405, got %d", rec.Code)
	}
}
