package badger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// Fixed keys for the meta table
const (
	metaKeySchemaVersion = "schema_version"
	metaKeyLastLogin     = "last_login"
)

// metaEntry is the stored form of a fixed-key marker
type metaEntry struct {
	Key       string `badgerhold:"key"`
	Value     string
	UpdatedAt time.Time
}

func newIntMetaEntry(key string, value int) metaEntry {
	return metaEntry{
		Key:       key,
		Value:     strconv.Itoa(value),
		UpdatedAt: time.Now(),
	}
}

// IntValue parses the entry value as an int, returning 0 when unparsable
func (e metaEntry) IntValue() int {
	v, err := strconv.Atoi(e.Value)
	if err != nil {
		return 0
	}
	return v
}

// Int64Value parses the entry value as an int64, returning 0 when unparsable
func (e metaEntry) Int64Value() int64 {
	v, err := strconv.ParseInt(e.Value, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// MetaStorage implements the MetaStorage interface for Badger
type MetaStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMetaStorage creates a new MetaStorage instance
func NewMetaStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MetaStorage {
	return &MetaStorage{
		db:     db,
		logger: logger,
	}
}

func (s *MetaStorage) SetLastLogin(ctx context.Context, ts int64) error {
	entry := metaEntry{
		Key:       metaKeyLastLogin,
		Value:     strconv.FormatInt(ts, 10),
		UpdatedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(metaKeyLastLogin, entry); err != nil {
		return fmt.Errorf("failed to store last login: %w", err)
	}

	s.logger.Debug().Int64("timestamp", ts).Msg("Recorded last login")
	return nil
}

func (s *MetaStorage) GetLastLogin(ctx context.Context) (int64, error) {
	var entry metaEntry
	err := s.db.Store().Get(metaKeyLastLogin, &entry)
	if err == badgerhold.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last login: %w", err)
	}
	return entry.Int64Value(), nil
}

func (s *MetaStorage) SchemaVersion(ctx context.Context) (int, error) {
	return s.db.schemaVersion()
}

func (s *MetaStorage) SetSchemaVersion(ctx context.Context, version int) error {
	return s.db.setSchemaVersion(version)
}
