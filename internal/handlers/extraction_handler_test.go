package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// mockExtractionService implements interfaces.ExtractionService for testing
type mockExtractionService struct {
	fetchEndpointFunc func(ctx context.Context, endpointID string) (*models.ResponseRecord, error)
	fetchAllFunc      func(ctx context.Context) (map[string]*models.ResponseRecord, error)
	progress          models.ExtractionProgress
}

func (m *mockExtractionService) FetchEndpoint(ctx context.Context, endpointID string) (*models.ResponseRecord, error) {
	if m.fetchEndpointFunc != nil {
		return m.fetchEndpointFunc(ctx, endpointID)
	}
	return &models.ResponseRecord{ID: endpointID + ":1", EndpointID: endpointID, Success: true}, nil
}

func (m *mockExtractionService) FetchAll(ctx context.Context) (map[string]*models.ResponseRecord, error) {
	if m.fetchAllFunc != nil {
		return m.fetchAllFunc(ctx)
	}
	return map[string]*models.ResponseRecord{}, nil
}

func (m *mockExtractionService) Progress() models.ExtractionProgress {
	return m.progress
}

func TestExtractEndpointHandler_Success(t *testing.T) {
	handler := NewExtractionHandler(&mockExtractionService{}, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/extract/orders", nil)
	rec := httptest.NewRecorder()
	handler.ExtractEndpointHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var record models.ResponseRecord
	if err := json.NewDecoder(rec.Body).Decode(&record); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if record.EndpointID != "orders" {
		t.Errorf("Expected endpoint orders, got %q", record.EndpointID)
	}
}

func TestExtractEndpointHandler_UnknownEndpoint(t *testing.T) {
	service := &mockExtractionService{
		fetchEndpointFunc: func(ctx context.Context, endpointID string) (*models.ResponseRecord, error) {
			return nil, interfaces.ErrUnknownEndpoint
		},
	}
	handler := NewExtractionHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/extract/nope", nil)
	rec := httptest.NewRecorder()
	handler.ExtractEndpointHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
}

func TestExtractEndpointHandler_NoCredentials(t *testing.T) {
	service := &mockExtractionService{
		fetchEndpointFunc: func(ctx context.Context, endpointID string) (*models.ResponseRecord, error) {
			return nil, interfaces.ErrNoCredentials
		},
	}
	handler := NewExtractionHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/extract/orders", nil)
	rec := httptest.NewRecorder()
	handler.ExtractEndpointHandler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rec.Code)
	}
}

func TestExtractAllHandler_ReturnsSummary(t *testing.T) {
	service := &mockExtractionService{
		fetchAllFunc: func(ctx context.Context) (map[string]*models.ResponseRecord, error) {
			return map[string]*models.ResponseRecord{
				"orders":    {ID: "orders:1", EndpointID: "orders", Success: true},
				"inventory": {ID: "inventory:1", EndpointID: "inventory", Success: false, Error: "quota exceeded"},
			}, nil
		},
	}
	handler := NewExtractionHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/extract", nil)
	rec := httptest.NewRecorder()
	handler.ExtractAllHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if int(response["total"].(float64)) != 2 {
		t.Errorf("Expected total 2, got %v", response["total"])
	}
	if int(response["succeeded"].(float64)) != 1 {
		t.Errorf("Expected succeeded 1, got %v", response["succeeded"])
	}
}

func TestExtractAllHandler_ConflictWhileRunning(t *testing.T) {
	service := &mockExtractionService{
		fetchAllFunc: func(ctx context.Context) (map[string]*models.ResponseRecord, error) {
			return nil, interfaces.ErrExtractionRunning
		},
	}
	handler := NewExtractionHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/extract", nil)
	rec := httptest.NewRecorder()
	handler.ExtractAllHandler(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rec.Code)
	}
}

func TestProgressHandler(t *testing.T) {
	service := &mockExtractionService{
		progress: models.ExtractionProgress{
			State:     models.ExtractionStateRunning,
			Endpoint:  "Orders",
			Completed: 3,
			Total:     8,
		},
	}
	handler := NewExtractionHandler(service, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/extract/progress", nil)
	rec := httptest.NewRecorder()
	handler.ProgressHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var progress models.ExtractionProgress
	if err := json.NewDecoder(rec.Body).Decode(&progress); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if progress.State != models.ExtractionStateRunning || progress.Completed != 3 {
		t.Errorf("Unexpected progress payload: %+v", progress)
	}
}
