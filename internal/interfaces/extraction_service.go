package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/vendo/internal/models"
)

// ErrUnknownEndpoint is returned when an endpoint ID is not in the catalog.
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// ErrExtractionRunning is returned when a bulk extraction is requested while
// another one is still in flight.
var ErrExtractionRunning = errors.New("extraction already running")

// ExtractionService pulls endpoint data from the partner API into the local
// store.
type ExtractionService interface {
	// FetchEndpoint fetches a single catalog endpoint and persists the result.
	// Client failures are persisted as failure records and returned without an
	// error; only storage problems propagate.
	FetchEndpoint(ctx context.Context, endpointID string) (*models.ResponseRecord, error)

	// FetchAll fetches every catalog endpoint strictly in catalog order and
	// returns the persisted records keyed by endpoint ID. A second concurrent
	// call returns ErrExtractionRunning.
	FetchAll(ctx context.Context) (map[string]*models.ResponseRecord, error)

	// Progress returns the current extraction progress state.
	Progress() models.ExtractionProgress
}
