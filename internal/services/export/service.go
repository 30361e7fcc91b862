// Package export assembles downloadable store exports with secrets redacted.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

const defaultFilenamePrefix = "vendo-export"

// Service implements interfaces.ExportService.
type Service struct {
	storage interfaces.StorageManager
	config  common.ExportConfig
	logger  arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ExportService = (*Service)(nil)

// NewService creates the export service.
func NewService(storage interfaces.StorageManager, config common.ExportConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// Bundle builds the full export. Credential secrets are redacted by the
// storage layer before the bundle ever leaves it.
func (s *Service) Bundle(ctx context.Context) (*models.ExportBundle, error) {
	bundle, err := s.storage.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble export: %w", err)
	}

	s.logger.Info().
		Int("responses", len(bundle.Responses)).
		Int("snapshots", len(bundle.Snapshots)).
		Msg("Export assembled")

	return bundle, nil
}

// Filename returns the dated attachment filename, e.g.
// vendo-export-2026-08-25.json.
func (s *Service) Filename(now time.Time) string {
	prefix := s.config.FilenamePrefix
	if prefix == "" {
		prefix = defaultFilenamePrefix
	}
	return fmt.Sprintf("%s-%s.json", prefix, now.Format("2006-01-02"))
}
