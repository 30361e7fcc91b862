package interfaces

import (
	"context"
	"encoding/json"

	"golang.org/x/oauth2"

	"github.com/ternarybob/vendo/internal/models"
)

// PartnerClient is the Selling Partner API surface the extractor depends on.
// The shipped implementation is a simulator; no real network calls leave the
// process.
type PartnerClient interface {
	// ExchangeToken trades LWA credentials for a bearer token with a
	// one-hour expiry.
	ExchangeToken(ctx context.Context, credentials *models.Credentials) (*oauth2.Token, error)

	// FetchEndpoint retrieves one endpoint payload using the given token.
	FetchEndpoint(ctx context.Context, token *oauth2.Token, endpoint models.Endpoint) (json.RawMessage, error)
}
