package badger

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/models"
)

func TestMigrateStampsFreshStore(t *testing.T) {
	db := newTestDB(t)
	meta := NewMetaStorage(db, arbor.NewLogger())

	version, err := meta.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("Expected fresh store stamped to %d, got %d", CurrentSchemaVersion, version)
	}
}

func TestMigrateIsIdempotentAcrossReopen(t *testing.T) {
	logger := arbor.NewLogger()
	config := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "data")}
	ctx := context.Background()

	db, err := NewBadgerDB(logger, config)
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}

	storage := NewResponseStorage(db, logger)
	record := &models.ResponseRecord{
		EndpointID: "orders",
		Timestamp:  1234,
		Payload:    json.RawMessage(`{"payload":{}}`),
		Success:    true,
	}
	if err := storage.SaveResponse(ctx, record); err != nil {
		t.Fatalf("Failed to seed response: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Re-open runs the migration pass again against existing data
	db, err = NewBadgerDB(logger, config)
	if err != nil {
		t.Fatalf("Re-open failed: %v", err)
	}
	defer db.Close()

	storage = NewResponseStorage(db, logger)
	got, err := storage.GetResponse(ctx, record.ID)
	if err != nil {
		t.Fatalf("Record lost across migration re-run: %v", err)
	}
	if got.Timestamp != 1234 {
		t.Errorf("Record mutated across migration re-run: %+v", got)
	}

	version, err := NewMetaStorage(db, logger).SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("Expected version %d after re-open, got %d", CurrentSchemaVersion, version)
	}
}

func TestMigrateRefusesNewerStore(t *testing.T) {
	logger := arbor.NewLogger()
	config := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "data")}

	db, err := NewBadgerDB(logger, config)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.setSchemaVersion(CurrentSchemaVersion + 1); err != nil {
		t.Fatalf("Failed to fake newer version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = NewBadgerDB(logger, config)
	if err == nil {
		t.Fatal("Expected open to fail against newer-versioned store")
	}
	if !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("Expected ErrSchemaTooNew, got %v", err)
	}
}
