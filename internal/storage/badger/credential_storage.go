package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// credentialsKey is the fixed key for the credentials singleton. The app
// holds exactly one credential set; storing again overwrites.
const credentialsKey = "lwa"

// CredentialStorage implements the CredentialStorage interface for Badger
type CredentialStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCredentialStorage creates a new CredentialStorage instance
func NewCredentialStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CredentialStorage {
	return &CredentialStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CredentialStorage) StoreCredentials(ctx context.Context, credentials *models.Credentials) error {
	now := time.Now().UnixMilli()
	if credentials.CreatedAt == 0 {
		credentials.CreatedAt = now
	}
	credentials.UpdatedAt = now

	if err := s.db.Store().Upsert(credentialsKey, credentials); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	s.logger.Debug().Str("client_id", credentials.ClientID).Msg("BadgerDB: Stored credentials")
	return nil
}

func (s *CredentialStorage) GetCredentials(ctx context.Context) (*models.Credentials, error) {
	var creds models.Credentials
	if err := s.db.Store().Get(credentialsKey, &creds); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return &creds, nil
}

func (s *CredentialStorage) HasCredentials(ctx context.Context) (bool, error) {
	_, err := s.GetCredentials(ctx)
	if err == interfaces.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CredentialStorage) DeleteCredentials(ctx context.Context) error {
	if err := s.db.Store().Delete(credentialsKey, &models.Credentials{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
