package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
	"github.com/ternarybob/vendo/internal/services/events"
	"github.com/ternarybob/vendo/internal/storage/badger"
)

func newTestSetup(t *testing.T, config common.SnapshotConfig) (*Service, interfaces.StorageManager) {
	t.Helper()
	logger := arbor.NewLogger()

	mgr, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create storage manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	eventService := events.NewService(logger)
	t.Cleanup(func() { eventService.Close() })

	svc := NewService(mgr.ResponseStorage(), mgr.SnapshotStorage(), eventService, config, logger)
	return svc, mgr
}

func seedResponse(t *testing.T, mgr interfaces.StorageManager, endpointID string, ts int64) *models.ResponseRecord {
	t.Helper()
	record := &models.ResponseRecord{
		EndpointID: endpointID,
		Timestamp:  ts,
		Payload:    json.RawMessage(`{"seed":true}`),
		Success:    true,
	}
	if err := mgr.ResponseStorage().SaveResponse(context.Background(), record); err != nil {
		t.Fatalf("Failed to seed response: %v", err)
	}
	return record
}

func TestCaptureOrdersIDsByCatalog(t *testing.T) {
	svc, mgr := newTestSetup(t, common.SnapshotConfig{OnLogin: true, OnExtraction: true})
	ctx := context.Background()

	// Seed out of catalog order, with an older superseded record
	finances := seedResponse(t, mgr, models.EndpointFinances, 300)
	seedResponse(t, mgr, models.EndpointOrders, 100)
	orders := seedResponse(t, mgr, models.EndpointOrders, 200)
	inventory := seedResponse(t, mgr, models.EndpointInventory, 150)

	snapshot, err := svc.Capture(ctx, models.SnapshotTriggerManual)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if snapshot.ID == "" || snapshot.Timestamp == 0 {
		t.Errorf("Snapshot missing identity: %+v", snapshot)
	}
	if snapshot.Trigger != models.SnapshotTriggerManual {
		t.Errorf("Trigger mismatch: %s", snapshot.Trigger)
	}

	want := []string{orders.ID, inventory.ID, finances.ID}
	if len(snapshot.ResponseIDs) != len(want) {
		t.Fatalf("Expected %d IDs, got %d: %v", len(want), len(snapshot.ResponseIDs), snapshot.ResponseIDs)
	}
	for i, id := range want {
		if snapshot.ResponseIDs[i] != id {
			t.Errorf("ID %d: expected %s, got %s", i, id, snapshot.ResponseIDs[i])
		}
	}
}

func TestCaptureEmptyStore(t *testing.T) {
	svc, _ := newTestSetup(t, common.SnapshotConfig{})

	snapshot, err := svc.Capture(context.Background(), models.SnapshotTriggerManual)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if len(snapshot.ResponseIDs) != 0 {
		t.Errorf("Empty store should capture zero IDs, got %v", snapshot.ResponseIDs)
	}
}

func TestCaptureIfEnabledHonorsPolicy(t *testing.T) {
	svc, _ := newTestSetup(t, common.SnapshotConfig{OnLogin: false, OnExtraction: true})
	ctx := context.Background()

	skipped, err := svc.CaptureIfEnabled(ctx, models.SnapshotTriggerLogin)
	if err != nil {
		t.Fatalf("CaptureIfEnabled failed: %v", err)
	}
	if skipped != nil {
		t.Error("Disabled login trigger should not capture")
	}

	captured, err := svc.CaptureIfEnabled(ctx, models.SnapshotTriggerExtraction)
	if err != nil {
		t.Fatalf("CaptureIfEnabled failed: %v", err)
	}
	if captured == nil {
		t.Error("Enabled extraction trigger should capture")
	}

	// Manual capture bypasses the policy entirely
	manual, err := svc.CaptureIfEnabled(ctx, models.SnapshotTriggerManual)
	if err != nil {
		t.Fatalf("CaptureIfEnabled failed: %v", err)
	}
	if manual == nil {
		t.Error("Manual trigger should always capture")
	}
}

func TestListNewestFirst(t *testing.T) {
	svc, _ := newTestSetup(t, common.SnapshotConfig{})
	ctx := context.Background()

	first, err := svc.Capture(ctx, models.SnapshotTriggerManual)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	second, err := svc.Capture(ctx, models.SnapshotTriggerManual)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(list))
	}
	if list[0].Timestamp < list[1].Timestamp {
		t.Errorf("Snapshots not newest first: %d then %d", list[0].Timestamp, list[1].Timestamp)
	}
	_ = first
	_ = second
}

func TestResolveReportsMissing(t *testing.T) {
	svc, mgr := newTestSetup(t, common.SnapshotConfig{})
	ctx := context.Background()

	orders := seedResponse(t, mgr, models.EndpointOrders, 100)
	inventory := seedResponse(t, mgr, models.EndpointInventory, 200)

	snapshot, err := svc.Capture(ctx, models.SnapshotTriggerManual)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	// Delete one referenced endpoint's responses after capture
	if _, err := mgr.ResponseStorage().DeleteResponsesByEndpoint(ctx, models.EndpointOrders); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	resolved, err := svc.Resolve(ctx, snapshot.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(resolved.Records) != 1 || resolved.Records[0].ID != inventory.ID {
		t.Errorf("Expected only the inventory record, got %+v", resolved.Records)
	}
	if len(resolved.Missing) != 1 || resolved.Missing[0] != orders.ID {
		t.Errorf("Expected %s reported missing, got %v", orders.ID, resolved.Missing)
	}
}

func TestResolveUnknownSnapshot(t *testing.T) {
	svc, _ := newTestSetup(t, common.SnapshotConfig{})

	_, err := svc.Resolve(context.Background(), "snap_missing")
	if !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
