// Package snapshots records point-in-time markers over the latest extracted
// responses.
package snapshots

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// Service implements interfaces.SnapshotService.
type Service struct {
	responseStorage interfaces.ResponseStorage
	snapshotStorage interfaces.SnapshotStorage
	eventService    interfaces.EventService
	config          common.SnapshotConfig
	logger          arbor.ILogger
}

// Compile-time assertion
var _ interfaces.SnapshotService = (*Service)(nil)

// NewService creates the snapshot service.
func NewService(
	responseStorage interfaces.ResponseStorage,
	snapshotStorage interfaces.SnapshotStorage,
	eventService interfaces.EventService,
	config common.SnapshotConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		responseStorage: responseStorage,
		snapshotStorage: snapshotStorage,
		eventService:    eventService,
		config:          config,
		logger:          logger,
	}
}

// Capture writes a snapshot of the latest response per endpoint. IDs follow
// catalog order; endpoints never fetched are simply absent. An empty store
// yields a snapshot with zero IDs.
func (s *Service) Capture(ctx context.Context, trigger string) (*models.Snapshot, error) {
	latest, err := s.responseStorage.GetLatestPerEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest responses: %w", err)
	}

	ids := make([]string, 0, len(latest))
	for _, ep := range models.EndpointCatalog() {
		if record, ok := latest[ep.ID]; ok {
			ids = append(ids, record.ID)
		}
	}

	snapshot := &models.Snapshot{
		ResponseIDs: ids,
		Trigger:     trigger,
	}
	if err := s.snapshotStorage.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Info().
		Str("snapshot_id", snapshot.ID).
		Str("trigger", trigger).
		Int("response_count", len(ids)).
		Msg("Snapshot captured")

	if s.eventService != nil {
		s.eventService.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventSnapshotCreated,
			Payload: snapshot,
		})
	}

	return snapshot, nil
}

// CaptureIfEnabled applies the configured trigger policy. A disabled trigger
// returns nil without error; triggers outside the policy (manual) always
// capture.
func (s *Service) CaptureIfEnabled(ctx context.Context, trigger string) (*models.Snapshot, error) {
	switch trigger {
	case models.SnapshotTriggerLogin:
		if !s.config.OnLogin {
			s.logger.Debug().Str("trigger", trigger).Msg("Snapshot trigger disabled")
			return nil, nil
		}
	case models.SnapshotTriggerExtraction:
		if !s.config.OnExtraction {
			s.logger.Debug().Str("trigger", trigger).Msg("Snapshot trigger disabled")
			return nil, nil
		}
	}
	return s.Capture(ctx, trigger)
}

// List returns all snapshots, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Snapshot, error) {
	return s.snapshotStorage.ListSnapshots(ctx)
}

// Resolve loads a snapshot and its records in stored order. Records that were
// deleted since capture are reported in Missing rather than failing the whole
// resolution.
func (s *Service) Resolve(ctx context.Context, id string) (*models.ResolvedSnapshot, error) {
	snapshot, err := s.snapshotStorage.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	resolved := &models.ResolvedSnapshot{
		Snapshot: snapshot,
		Records:  make([]models.ResponseRecord, 0, len(snapshot.ResponseIDs)),
	}
	for _, responseID := range snapshot.ResponseIDs {
		record, err := s.responseStorage.GetResponse(ctx, responseID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				resolved.Missing = append(resolved.Missing, responseID)
				continue
			}
			return nil, fmt.Errorf("failed to resolve response %s: %w", responseID, err)
		}
		resolved.Records = append(resolved.Records, *record)
	}

	if len(resolved.Missing) > 0 {
		s.logger.Warn().
			Str("snapshot_id", id).
			Int("missing", len(resolved.Missing)).
			Msg("Snapshot references deleted responses")
	}

	return resolved, nil
}
