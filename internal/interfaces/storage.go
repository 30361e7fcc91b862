// -----------------------------------------------------------------------
// Last Modified: Tuesday, 25th August 2026 9:05:12 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/vendo/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// CredentialStorage - persistence for the credentials singleton
type CredentialStorage interface {
	StoreCredentials(ctx context.Context, credentials *models.Credentials) error
	GetCredentials(ctx context.Context) (*models.Credentials, error)
	HasCredentials(ctx context.Context) (bool, error)

	// DeleteCredentials exists for tests and maintenance tooling; no
	// application flow removes credentials.
	DeleteCredentials(ctx context.Context) error
}

// ResponseStorage - persistence for captured endpoint responses
type ResponseStorage interface {
	// SaveResponse derives the record key from endpoint and timestamp and
	// upserts, so a same-key save replaces the prior record.
	SaveResponse(ctx context.Context, record *models.ResponseRecord) error
	GetResponse(ctx context.Context, id string) (*models.ResponseRecord, error)
	GetResponsesByEndpoint(ctx context.Context, endpointID string) ([]*models.ResponseRecord, error)
	GetAllResponses(ctx context.Context) ([]*models.ResponseRecord, error)

	// GetLatestPerEndpoint groups responses by endpoint and keeps the record
	// with the maximum timestamp in each group.
	GetLatestPerEndpoint(ctx context.Context) (map[string]*models.ResponseRecord, error)
	GetMostRecentTimestamp(ctx context.Context) (int64, error)

	CountResponses(ctx context.Context) (int, error)
	CountResponsesByEndpoint(ctx context.Context, endpointID string) (int, error)
	DeleteResponsesByEndpoint(ctx context.Context, endpointID string) (int, error)
	ClearAll(ctx context.Context) error
}

// SnapshotStorage - persistence for point-in-time snapshots
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)

	// ListSnapshots returns snapshots newest first.
	ListSnapshots(ctx context.Context) ([]*models.Snapshot, error)
	CountSnapshots(ctx context.Context) (int, error)
}

// MetaStorage - small fixed-key markers (last login, schema version)
type MetaStorage interface {
	SetLastLogin(ctx context.Context, ts int64) error

	// GetLastLogin returns 0 when no login has been recorded.
	GetLastLogin(ctx context.Context) (int64, error)

	// SchemaVersion returns 0 for a store that has never been stamped.
	SchemaVersion(ctx context.Context) (int, error)
	SetSchemaVersion(ctx context.Context, version int) error
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	CredentialStorage() CredentialStorage
	ResponseStorage() ResponseStorage
	SnapshotStorage() SnapshotStorage
	MetaStorage() MetaStorage

	// Stats aggregates store contents; Export assembles the full redacted
	// bundle. Both live here because they span every table.
	Stats(ctx context.Context) (*models.StoreStats, error)
	Export(ctx context.Context) (*models.ExportBundle, error)

	DB() interface{}
	Close() error
}
