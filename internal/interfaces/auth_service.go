package interfaces

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	"github.com/ternarybob/vendo/internal/models"
)

// ErrNoCredentials is returned by operations that need a stored credential set
// when none is held.
var ErrNoCredentials = errors.New("no credentials configured")

// ErrInvalidCredentials is returned when a submitted credential set fails
// validation. The previously stored set, if any, is left untouched.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService holds the seller's LWA credential set and manages the access
// token derived from it.
type AuthService interface {
	// HasCredentials reports whether a credential set is held.
	HasCredentials() bool

	// Credentials returns a copy of the held credential set, nil when none.
	Credentials() *models.Credentials

	// SetCredentials validates and stores a credential set, replacing any
	// previous one. Validation failure returns ErrInvalidCredentials and
	// leaves the previous set untouched.
	SetCredentials(ctx context.Context, creds *models.Credentials) error

	// Token returns a valid access token, exchanging a new one when the
	// cached token is missing or close to expiry.
	// Returns ErrNoCredentials when no credential set is held.
	Token(ctx context.Context) (*oauth2.Token, error)

	// RecordLogin stamps the session start in the meta table and returns the
	// timestamp in Unix milliseconds.
	RecordLogin(ctx context.Context) (int64, error)

	// LastLogin returns the most recent login timestamp in Unix milliseconds,
	// 0 when no login has been recorded.
	LastLogin(ctx context.Context) (int64, error)
}
