package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SnapshotStorage implements the SnapshotStorage interface for Badger
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSnapshot persists a snapshot. Snapshots are written once and never
// updated afterwards.
func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = common.NewSnapshotID()
	}
	if snapshot.Timestamp == 0 {
		snapshot.Timestamp = time.Now().UnixMilli()
	}

	if err := s.db.Store().Upsert(snapshot.ID, *snapshot); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.logger.Debug().
		Str("id", snapshot.ID).
		Str("trigger", snapshot.Trigger).
		Int("responses", len(snapshot.ResponseIDs)).
		Msg("BadgerDB: Stored snapshot")
	return nil
}

func (s *SnapshotStorage) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := s.db.Store().Get(id, &snapshot); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListSnapshots returns all snapshots newest first.
func (s *SnapshotStorage) ListSnapshots(ctx context.Context) ([]*models.Snapshot, error) {
	var snapshots []models.Snapshot
	query := badgerhold.Where("ID").Ne("").SortBy("Timestamp").Reverse()
	if err := s.db.Store().Find(&snapshots, query); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	result := make([]*models.Snapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	return result, nil
}

func (s *SnapshotStorage) CountSnapshots(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Snapshot{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return int(count), nil
}
