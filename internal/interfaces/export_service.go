package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vendo/internal/models"
)

// ExportService assembles downloadable store exports.
type ExportService interface {
	// Bundle builds the full export with secrets redacted.
	Bundle(ctx context.Context) (*models.ExportBundle, error)

	// Filename returns the dated attachment filename for a download started
	// at the given instant.
	Filename(now time.Time) string
}
