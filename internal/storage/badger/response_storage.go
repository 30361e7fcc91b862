// -----------------------------------------------------------------------
// Last Modified: Tuesday, 25th August 2026 9:41:03 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

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

// ResponseStorage implements the ResponseStorage interface for Badger
type ResponseStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResponseStorage creates a new ResponseStorage instance
func NewResponseStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResponseStorage {
	return &ResponseStorage{
		db:     db,
		logger: logger,
	}
}

// SaveResponse persists a captured response. The key derives from endpoint
// and timestamp, so saving the same pair twice overwrites the earlier record.
func (s *ResponseStorage) SaveResponse(ctx context.Context, record *models.ResponseRecord) error {
	if record.EndpointID == "" {
		return fmt.Errorf("response endpoint ID is required")
	}

	if record.Timestamp == 0 {
		record.Timestamp = time.Now().UnixMilli()
	}
	if record.ID == "" {
		record.ID = common.ResponseID(record.EndpointID, record.Timestamp)
	}

	if err := s.db.Store().Upsert(record.ID, *record); err != nil {
		return fmt.Errorf("failed to store response: %w", err)
	}

	s.logger.Debug().
		Str("id", record.ID).
		Str("endpoint", record.EndpointID).
		Bool("success", record.Success).
		Msg("BadgerDB: Stored response record")
	return nil
}

func (s *ResponseStorage) GetResponse(ctx context.Context, id string) (*models.ResponseRecord, error) {
	var record models.ResponseRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return &record, nil
}

// GetResponsesByEndpoint returns all responses for one endpoint, newest first.
func (s *ResponseStorage) GetResponsesByEndpoint(ctx context.Context, endpointID string) ([]*models.ResponseRecord, error) {
	var records []models.ResponseRecord
	query := badgerhold.Where("EndpointID").Eq(endpointID).SortBy("Timestamp").Reverse()
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to get responses by endpoint: %w", err)
	}

	result := make([]*models.ResponseRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

// GetAllResponses returns every stored response ordered by capture time.
func (s *ResponseStorage) GetAllResponses(ctx context.Context) ([]*models.ResponseRecord, error) {
	var records []models.ResponseRecord
	query := badgerhold.Where("EndpointID").Ne("").SortBy("Timestamp")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	result := make([]*models.ResponseRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

// GetLatestPerEndpoint groups responses by endpoint and keeps the one with
// the maximum timestamp per group. Endpoints with no responses are absent
// from the map.
func (s *ResponseStorage) GetLatestPerEndpoint(ctx context.Context) (map[string]*models.ResponseRecord, error) {
	var records []models.ResponseRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	latest := make(map[string]*models.ResponseRecord)
	for i := range records {
		rec := &records[i]
		current, ok := latest[rec.EndpointID]
		if !ok || rec.Timestamp > current.Timestamp {
			latest[rec.EndpointID] = rec
		}
	}
	return latest, nil
}

// GetMostRecentTimestamp returns the newest capture timestamp, 0 when the
// store holds no responses.
func (s *ResponseStorage) GetMostRecentTimestamp(ctx context.Context) (int64, error) {
	var records []models.ResponseRecord
	query := badgerhold.Where("EndpointID").Ne("").SortBy("Timestamp").Reverse().Limit(1)
	if err := s.db.Store().Find(&records, query); err != nil {
		return 0, fmt.Errorf("failed to get most recent timestamp: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return records[0].Timestamp, nil
}

func (s *ResponseStorage) CountResponses(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ResponseRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return int(count), nil
}

func (s *ResponseStorage) CountResponsesByEndpoint(ctx context.Context, endpointID string) (int, error) {
	count, err := s.db.Store().Count(&models.ResponseRecord{}, badgerhold.Where("EndpointID").Eq(endpointID))
	if err != nil {
		return 0, fmt.Errorf("failed to count responses by endpoint: %w", err)
	}
	return int(count), nil
}

// DeleteResponsesByEndpoint removes all responses for one endpoint and
// returns how many were removed.
func (s *ResponseStorage) DeleteResponsesByEndpoint(ctx context.Context, endpointID string) (int, error) {
	count, err := s.CountResponsesByEndpoint(ctx, endpointID)
	if err != nil {
		return 0, err
	}

	if err := s.db.Store().DeleteMatching(&models.ResponseRecord{}, badgerhold.Where("EndpointID").Eq(endpointID)); err != nil {
		return 0, fmt.Errorf("failed to delete responses by endpoint: %w", err)
	}

	s.logger.Debug().Str("endpoint", endpointID).Int("count", count).Msg("BadgerDB: Deleted endpoint responses")
	return count, nil
}

func (s *ResponseStorage) ClearAll(ctx context.Context) error {
	return s.db.Store().DeleteMatching(&models.ResponseRecord{}, nil)
}
