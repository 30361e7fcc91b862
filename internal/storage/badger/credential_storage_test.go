package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// newTestDB opens a migrated BadgerDB in a per-test directory.
func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "data"),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialSingleton(t *testing.T) {
	db := newTestDB(t)
	storage := NewCredentialStorage(db, arbor.NewLogger())
	ctx := context.Background()

	creds := &models.Credentials{
		ClientID:     "amzn1.application-oa2-client.abc123",
		ClientSecret: "secret-1",
		RefreshToken: "Atzr|token-1",
	}
	if err := storage.StoreCredentials(ctx, creds); err != nil {
		t.Fatalf("Failed to store credentials: %v", err)
	}
	if creds.CreatedAt == 0 || creds.UpdatedAt == 0 {
		t.Error("Expected audit timestamps to be set on store")
	}

	got, err := storage.GetCredentials(ctx)
	if err != nil {
		t.Fatalf("Failed to get credentials: %v", err)
	}
	if got.ClientID != creds.ClientID || got.ClientSecret != "secret-1" {
		t.Errorf("Stored credentials mismatch: %+v", got)
	}

	// Storing again overwrites the singleton
	replacement := &models.Credentials{
		ClientID:     "amzn1.application-oa2-client.def456",
		ClientSecret: "secret-2",
		RefreshToken: "Atzr|token-2",
	}
	if err := storage.StoreCredentials(ctx, replacement); err != nil {
		t.Fatalf("Failed to overwrite credentials: %v", err)
	}

	got, err = storage.GetCredentials(ctx)
	if err != nil {
		t.Fatalf("Failed to get credentials after overwrite: %v", err)
	}
	if got.ClientSecret != "secret-2" {
		t.Errorf("Expected overwritten secret, got %s", got.ClientSecret)
	}
}

func TestGetCredentialsNotFound(t *testing.T) {
	db := newTestDB(t)
	storage := NewCredentialStorage(db, arbor.NewLogger())
	ctx := context.Background()

	if _, err := storage.GetCredentials(ctx); err != interfaces.ErrNotFound {
		t.Errorf("Expected ErrNotFound on empty store, got %v", err)
	}

	has, err := storage.HasCredentials(ctx)
	if err != nil {
		t.Fatalf("HasCredentials failed: %v", err)
	}
	if has {
		t.Error("Expected HasCredentials false on empty store")
	}
}

func TestDeleteCredentials(t *testing.T) {
	db := newTestDB(t)
	storage := NewCredentialStorage(db, arbor.NewLogger())
	ctx := context.Background()

	creds := &models.Credentials{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "token",
	}
	if err := storage.StoreCredentials(ctx, creds); err != nil {
		t.Fatalf("Failed to store credentials: %v", err)
	}

	if err := storage.DeleteCredentials(ctx); err != nil {
		t.Fatalf("Failed to delete credentials: %v", err)
	}

	has, err := storage.HasCredentials(ctx)
	if err != nil {
		t.Fatalf("HasCredentials failed: %v", err)
	}
	if has {
		t.Error("Expected credentials gone after delete")
	}

	// Deleting again is not an error
	if err := storage.DeleteCredentials(ctx); err != nil {
		t.Errorf("Expected repeat delete to be a no-op, got %v", err)
	}
}
