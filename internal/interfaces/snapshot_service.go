package interfaces

import (
	"context"

	"github.com/ternarybob/vendo/internal/models"
)

// SnapshotService records point-in-time markers over the latest extracted
// responses.
type SnapshotService interface {
	// Capture writes a snapshot of the latest response per endpoint, in
	// catalog order. An empty store yields a snapshot with zero IDs.
	Capture(ctx context.Context, trigger string) (*models.Snapshot, error)

	// CaptureIfEnabled captures only when the configured policy enables the
	// trigger. Returns nil without error when the trigger is disabled.
	CaptureIfEnabled(ctx context.Context, trigger string) (*models.Snapshot, error)

	// List returns all snapshots, newest first.
	List(ctx context.Context) ([]*models.Snapshot, error)

	// Resolve returns a snapshot with its response records in stored order.
	// IDs that no longer resolve are reported in Missing.
	Resolve(ctx context.Context, id string) (*models.ResolvedSnapshot, error)
}
