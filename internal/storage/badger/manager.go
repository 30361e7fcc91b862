package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	credential interfaces.CredentialStorage
	response   interfaces.ResponseStorage
	snapshot   interfaces.SnapshotStorage
	meta       interfaces.MetaStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		credential: NewCredentialStorage(db, logger),
		response:   NewResponseStorage(db, logger),
		snapshot:   NewSnapshotStorage(db, logger),
		meta:       NewMetaStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// CredentialStorage returns the Credential storage interface
func (m *Manager) CredentialStorage() interfaces.CredentialStorage {
	return m.credential
}

// ResponseStorage returns the Response storage interface
func (m *Manager) ResponseStorage() interfaces.ResponseStorage {
	return m.response
}

// SnapshotStorage returns the Snapshot storage interface
func (m *Manager) SnapshotStorage() interfaces.SnapshotStorage {
	return m.snapshot
}

// MetaStorage returns the Meta storage interface
func (m *Manager) MetaStorage() interfaces.MetaStorage {
	return m.meta
}

// Stats aggregates what the store currently holds. The byte size sums
// serialized record lengths, not on-disk footprint.
func (m *Manager) Stats(ctx context.Context) (*models.StoreStats, error) {
	responses, err := m.response.GetAllResponses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses for stats: %w", err)
	}

	endpoints := make(map[string]struct{})
	var size int64
	var latest int64
	for _, rec := range responses {
		endpoints[rec.EndpointID] = struct{}{}
		size += rec.SerializedSize()
		if rec.Timestamp > latest {
			latest = rec.Timestamp
		}
	}

	snapshots, err := m.snapshot.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots for stats: %w", err)
	}
	for _, snap := range snapshots {
		if b, err := json.Marshal(snap); err == nil {
			size += int64(len(b))
		}
	}

	return &models.StoreStats{
		EndpointCount:   len(endpoints),
		ResponseCount:   len(responses),
		SnapshotCount:   len(snapshots),
		LatestTimestamp: latest,
		SizeBytes:       size,
		SizeHuman:       humanize.Bytes(uint64(size)),
	}, nil
}

// Export assembles the full store contents. Credentials always go out
// redacted; raw secrets never leave the store through this path.
func (m *Manager) Export(ctx context.Context) (*models.ExportBundle, error) {
	creds, err := m.credential.GetCredentials(ctx)
	if err != nil && err != interfaces.ErrNotFound {
		return nil, fmt.Errorf("failed to export credentials: %w", err)
	}

	responses, err := m.response.GetAllResponses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export responses: %w", err)
	}

	snapshots, err := m.snapshot.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export snapshots: %w", err)
	}

	lastLogin, err := m.meta.GetLastLogin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export last login: %w", err)
	}

	bundle := &models.ExportBundle{
		Version:     common.GetVersion(),
		ExportedAt:  time.Now().UnixMilli(),
		LastLogin:   lastLogin,
		Credentials: creds.Redacted(),
		Responses:   make([]models.ResponseRecord, len(responses)),
		Snapshots:   make([]models.Snapshot, len(snapshots)),
	}
	for i, r := range responses {
		bundle.Responses[i] = *r
	}
	for i, s := range snapshots {
		bundle.Snapshots[i] = *s
	}

	m.logger.Info().
		Int("responses", len(bundle.Responses)).
		Int("snapshots", len(bundle.Snapshots)).
		Msg("Assembled store export")

	return bundle, nil
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
