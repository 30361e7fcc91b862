// Package auth manages the seller's LWA credential set and the simulated
// access token derived from it.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// Service implements interfaces.AuthService over the credential and meta
// tables.
type Service struct {
	credStorage  interfaces.CredentialStorage
	metaStorage  interfaces.MetaStorage
	client       interfaces.PartnerClient
	eventService interfaces.EventService
	config       common.SimulatorConfig
	logger       arbor.ILogger

	mu    sync.RWMutex
	creds *models.Credentials
	token *oauth2.Token
}

// Compile-time assertion
var _ interfaces.AuthService = (*Service)(nil)

// NewService creates the auth service and loads any stored credential set.
func NewService(
	credStorage interfaces.CredentialStorage,
	metaStorage interfaces.MetaStorage,
	client interfaces.PartnerClient,
	eventService interfaces.EventService,
	config common.SimulatorConfig,
	logger arbor.ILogger,
) *Service {
	s := &Service{
		credStorage:  credStorage,
		metaStorage:  metaStorage,
		client:       client,
		eventService: eventService,
		config:       config,
		logger:       logger,
	}

	if err := s.loadStoredCredentials(); err != nil {
		logger.Debug().Str("error", err.Error()).Msg("No stored credentials found")
	}

	return s
}

func (s *Service) loadStoredCredentials() error {
	creds, err := s.credStorage.GetCredentials(context.Background())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()

	s.logger.Info().Str("client_id", creds.ClientID).Msg("Loaded stored credentials")
	return nil
}

// HasCredentials reports whether a credential set is held.
func (s *Service) HasCredentials() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds != nil
}

// Credentials returns a copy of the held credential set, nil when none.
func (s *Service) Credentials() *models.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Clone()
}

// SetCredentials validates and stores a credential set. The validation delay
// simulates the round-trip the real dashboard makes to verify a seller app.
// Validation failure leaves any previously stored set untouched.
func (s *Service) SetCredentials(ctx context.Context, creds *models.Credentials) error {
	if err := sleepContext(ctx, s.config.ValidationDelay); err != nil {
		return err
	}

	if creds == nil {
		return fmt.Errorf("%w: missing credentials", interfaces.ErrInvalidCredentials)
	}

	validate := validator.New()
	if err := validate.Struct(creds); err != nil {
		s.logger.Warn().Str("error", err.Error()).Msg("Credential validation failed")
		return fmt.Errorf("%w: %s", interfaces.ErrInvalidCredentials, err.Error())
	}

	stored := creds.Clone()
	if err := s.credStorage.StoreCredentials(ctx, stored); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	s.mu.Lock()
	s.creds = stored
	// A new credential set invalidates any token from the old one
	s.token = nil
	s.mu.Unlock()

	s.logger.Info().Str("client_id", stored.ClientID).Msg("Credentials updated")

	if s.eventService != nil {
		s.eventService.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventCredentialsUpdated,
			Payload: map[string]interface{}{"client_id": stored.ClientID},
		})
	}

	return nil
}

// Token returns a valid access token, exchanging a new one when the cached
// token is missing or inside the refresh window.
func (s *Service) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	creds := s.creds
	token := s.token
	s.mu.RUnlock()

	if creds == nil {
		return nil, interfaces.ErrNoCredentials
	}

	if token != nil && !s.needsRefresh(token) {
		return token, nil
	}

	fresh, err := s.client.ExchangeToken(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	s.mu.Lock()
	s.token = fresh
	s.mu.Unlock()

	s.logger.Debug().
		Str("expires", fresh.Expiry.Format(time.RFC3339)).
		Msg("Access token refreshed")

	return fresh, nil
}

// needsRefresh reports whether the token is expired or inside the configured
// refresh window.
func (s *Service) needsRefresh(token *oauth2.Token) bool {
	if !token.Valid() {
		return true
	}
	window := s.config.TokenRefreshWindow
	if window <= 0 {
		return false
	}
	return time.Until(token.Expiry) < window
}

// RecordLogin stamps the session start in the meta table.
func (s *Service) RecordLogin(ctx context.Context) (int64, error) {
	now := time.Now().UnixMilli()
	if err := s.metaStorage.SetLastLogin(ctx, now); err != nil {
		return 0, fmt.Errorf("failed to record login: %w", err)
	}

	s.logger.Info().Msg("Session login recorded")
	return now, nil
}

// LastLogin returns the most recent login timestamp, 0 when never recorded.
func (s *Service) LastLogin(ctx context.Context) (int64, error) {
	return s.metaStorage.GetLastLogin(ctx)
}

// sleepContext waits for the delay unless the context ends first.
func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
