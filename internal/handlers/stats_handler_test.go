package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// mockStorageManager implements interfaces.StorageManager for testing. Only
// the aggregate methods matter here; the accessor methods return nil.
type mockStorageManager struct {
	statsFunc  func(ctx context.Context) (*models.StoreStats, error)
	exportFunc func(ctx context.Context) (*models.ExportBundle, error)
}

func (m *mockStorageManager) CredentialStorage() interfaces.CredentialStorage { return nil }
func (m *mockStorageManager) ResponseStorage() interfaces.ResponseStorage     { return nil }
func (m *mockStorageManager) SnapshotStorage() interfaces.SnapshotStorage     { return nil }
func (m *mockStorageManager) MetaStorage() interfaces.MetaStorage             { return nil }

func (m *mockStorageManager) Stats(ctx context.Context) (*models.StoreStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return &models.StoreStats{}, nil
}

func (m *mockStorageManager) Export(ctx context.Context) (*models.ExportBundle, error) {
	if m.exportFunc != nil {
		return m.exportFunc(ctx)
	}
	return &models.ExportBundle{}, nil
}

func (m *mockStorageManager) DB() interface{} { return nil }
func (m *mockStorageManager) Close() error    { return nil }

func TestGetStatsHandler(t *testing.T) {
	storage := &mockStorageManager{
		statsFunc: func(ctx context.Context) (*models.StoreStats, error) {
			return &models.StoreStats{
				EndpointCount:   8,
				ResponseCount:   24,
				SnapshotCount:   3,
				LatestTimestamp: 1756100000000,
				SizeBytes:       2048,
				SizeHuman:       "2.0 KB",
			}, nil
		},
	}
	handler := NewStatsHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rec := httptest.NewRecorder()
	handler.GetStatsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var stats models.StoreStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats.ResponseCount != 24 {
		t.Errorf("Expected 24 responses, got %d", stats.ResponseCount)
	}
	if stats.SizeHuman != "2.0 KB" {
		t.Errorf("Expected human size 2.0 KB, got %q", stats.SizeHuman)
	}
}

func TestGetStatsHandler_StorageFailure(t *testing.T) {
	storage := &mockStorageManager{
		statsFunc: func(ctx context.Context) (*models.StoreStats, error) {
			return nil, errors.New("store closed")
		},
	}
	handler := NewStatsHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rec := httptest.NewRecorder()
	handler.GetStatsHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
}

func TestGetStatsHandler_MethodNotAllowed(t *testing.T) {
	handler := NewStatsHandler(&mockStorageManager{}, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/stats", nil)
	rec := httptest.NewRecorder()
	handler.GetStatsHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected status 405, got %d", rec.Code)
	}
}
