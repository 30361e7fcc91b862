package badger

import (
	"context"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

func TestSnapshotSaveAssignsID(t *testing.T) {
	db := newTestDB(t)
	storage := NewSnapshotStorage(db, arbor.NewLogger())
	ctx := context.Background()

	snap := &models.Snapshot{
		ResponseIDs: []string{"orders_100", "inventory_200"},
		Trigger:     models.SnapshotTriggerManual,
	}
	if err := storage.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	if !strings.HasPrefix(snap.ID, "snap_") {
		t.Errorf("Expected generated snap_ ID, got %q", snap.ID)
	}
	if snap.Timestamp == 0 {
		t.Error("Expected timestamp to be assigned")
	}

	got, err := storage.GetSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Failed to get snapshot: %v", err)
	}
	if len(got.ResponseIDs) != 2 || got.ResponseIDs[0] != "orders_100" {
		t.Errorf("Snapshot round-trip mismatch: %+v", got)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	storage := NewSnapshotStorage(db, arbor.NewLogger())
	ctx := context.Background()

	for i, ts := range []int64{100, 300, 200} {
		snap := &models.Snapshot{
			Timestamp:   ts,
			ResponseIDs: []string{},
			Trigger:     models.SnapshotTriggerExtraction,
		}
		if err := storage.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("Failed to save snapshot %d: %v", i, err)
		}
	}

	snapshots, err := storage.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(snapshots))
	}

	want := []int64{300, 200, 100}
	for i, snap := range snapshots {
		if snap.Timestamp != want[i] {
			t.Errorf("Position %d: expected timestamp %d, got %d", i, want[i], snap.Timestamp)
		}
	}

	count, err := storage.CountSnapshots(ctx)
	if err != nil {
		t.Fatalf("CountSnapshots failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	db := newTestDB(t)
	storage := NewSnapshotStorage(db, arbor.NewLogger())

	if _, err := storage.GetSnapshot(context.Background(), "snap_missing"); err != interfaces.ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
