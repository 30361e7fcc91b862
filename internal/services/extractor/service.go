// -----------------------------------------------------------------------
// Last Modified: Tuesday, 25th August 2026 11:42:08 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package extractor pulls endpoint data from the partner API into the local
// store and drives the bulk extraction run the dashboard observes.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// Service implements interfaces.ExtractionService.
type Service struct {
	authService     interfaces.AuthService
	client          interfaces.PartnerClient
	responseStorage interfaces.ResponseStorage
	snapshotService interfaces.SnapshotService
	eventService    interfaces.EventService
	logger          arbor.ILogger

	running atomic.Bool

	mu       sync.RWMutex
	progress models.ExtractionProgress
}

// Compile-time assertion
var _ interfaces.ExtractionService = (*Service)(nil)

// NewService creates the extraction service.
func NewService(
	authService interfaces.AuthService,
	client interfaces.PartnerClient,
	responseStorage interfaces.ResponseStorage,
	snapshotService interfaces.SnapshotService,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		authService:     authService,
		client:          client,
		responseStorage: responseStorage,
		snapshotService: snapshotService,
		eventService:    eventService,
		logger:          logger,
		progress:        models.ExtractionProgress{State: models.ExtractionStateIdle},
	}
}

// FetchEndpoint fetches a single catalog endpoint and persists the result.
// Partner API failures become failure records rather than errors; only
// storage problems propagate.
func (s *Service) FetchEndpoint(ctx context.Context, endpointID string) (*models.ResponseRecord, error) {
	endpoint, ok := models.EndpointByID(endpointID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnknownEndpoint, endpointID)
	}
	if !s.authService.HasCredentials() {
		return nil, interfaces.ErrNoCredentials
	}
	return s.fetchOne(ctx, endpoint)
}

// FetchAll walks the catalog strictly in order, one endpoint at a time. For a
// catalog of N endpoints a successful run publishes exactly N+1 progress
// events: one running event per endpoint and a final completed event.
func (s *Service) FetchAll(ctx context.Context) (map[string]*models.ResponseRecord, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, interfaces.ErrExtractionRunning
	}
	defer s.running.Store(false)

	if !s.authService.HasCredentials() {
		return nil, interfaces.ErrNoCredentials
	}

	catalog := models.EndpointCatalog()
	total := len(catalog)
	results := make(map[string]*models.ResponseRecord, total)

	s.logger.Info().Int("endpoints", total).Msg("Bulk extraction started")
	started := time.Now()

	for i, endpoint := range catalog {
		s.setProgress(ctx, models.ExtractionProgress{
			State:     models.ExtractionStateRunning,
			Endpoint:  endpoint.Name,
			Completed: i,
			Total:     total,
		})

		record, err := s.fetchOne(ctx, endpoint)
		if err != nil {
			s.setProgress(ctx, models.ExtractionProgress{
				State:     models.ExtractionStateError,
				Endpoint:  endpoint.Name,
				Completed: i,
				Total:     total,
				Message:   err.Error(),
			})
			return nil, err
		}
		results[endpoint.ID] = record
	}

	s.setProgress(ctx, models.ExtractionProgress{
		State:     models.ExtractionStateCompleted,
		Completed: total,
		Total:     total,
	})

	s.logger.Info().
		Int("endpoints", total).
		Str("duration", time.Since(started).Round(time.Millisecond).String()).
		Msg("Bulk extraction completed")

	if s.snapshotService != nil {
		if _, err := s.snapshotService.CaptureIfEnabled(ctx, models.SnapshotTriggerExtraction); err != nil {
			// The run itself succeeded; a snapshot problem is not fatal
			s.logger.Warn().Str("error", err.Error()).Msg("Post-extraction snapshot failed")
		}
	}

	return results, nil
}

// Progress returns the current extraction progress state.
func (s *Service) Progress() models.ExtractionProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// fetchOne runs the shared single-fetch path: token, partner call, persist.
// A partner failure is stored as a failure record; a cancelled context
// propagates instead of being persisted.
func (s *Service) fetchOne(ctx context.Context, endpoint models.Endpoint) (*models.ResponseRecord, error) {
	record := &models.ResponseRecord{
		EndpointID: endpoint.ID,
		Timestamp:  time.Now().UnixMilli(),
	}

	payload, err := s.fetch(ctx, endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		record.Success = false
		record.Error = err.Error()
		s.logger.Warn().
			Str("endpoint", endpoint.ID).
			Str("error", err.Error()).
			Msg("Endpoint fetch failed")
	} else {
		record.Success = true
		record.Payload = payload
		s.logger.Debug().
			Str("endpoint", endpoint.ID).
			Int("bytes", len(payload)).
			Msg("Endpoint fetched")
	}

	if err := s.responseStorage.SaveResponse(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save response for %s: %w", endpoint.ID, err)
	}
	return record, nil
}

func (s *Service) fetch(ctx context.Context, endpoint models.Endpoint) (json.RawMessage, error) {
	token, err := s.authService.Token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.FetchEndpoint(ctx, token, endpoint)
}

// setProgress records a transition and publishes it synchronously so event
// ordering matches the run.
func (s *Service) setProgress(ctx context.Context, progress models.ExtractionProgress) {
	progress.UpdatedAt = time.Now().UnixMilli()

	s.mu.Lock()
	s.progress = progress
	s.mu.Unlock()

	if s.eventService == nil {
		return
	}
	event := interfaces.Event{
		Type:    interfaces.EventExtractionProgress,
		Payload: progress,
	}
	if err := s.eventService.PublishSync(ctx, event); err != nil {
		s.logger.Warn().Str("error", err.Error()).Msg("Progress event handler failed")
	}
}
