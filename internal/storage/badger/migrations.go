// -----------------------------------------------------------------------
// Schema Migrations - Versioned, idempotent store upgrades
// -----------------------------------------------------------------------

package badger

import (
	"errors"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/models"
)

// CurrentSchemaVersion is stamped into the meta table after a successful
// migration pass. Bump it when adding a migration step.
const CurrentSchemaVersion = 2

// ErrSchemaTooNew is returned when the store was written by a newer build
// than the one opening it.
var ErrSchemaTooNew = errors.New("store schema is newer than this build")

// migration is one idempotent upgrade step. Steps run in version order and
// each must be safe to re-run against a store that already satisfies it.
type migration struct {
	version int
	name    string
	run     func(b *BadgerDB) error
}

var migrations = []migration{
	{version: 1, name: "baseline", run: migrateBaseline},
	{version: 2, name: "reindex_responses", run: migrateReindexResponses},
}

// migrate brings the store up to CurrentSchemaVersion. A store with no
// version record is treated as version 0; every step is idempotent, so a
// brand-new store just passes straight through and gets stamped.
func (b *BadgerDB) migrate() error {
	stored, err := b.schemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if stored > CurrentSchemaVersion {
		return fmt.Errorf("store at version %d, build supports %d: %w", stored, CurrentSchemaVersion, ErrSchemaTooNew)
	}

	if stored == CurrentSchemaVersion {
		b.logger.Debug().Int("version", stored).Msg("Schema up to date")
		return nil
	}

	for _, m := range migrations {
		if m.version <= stored {
			continue
		}

		b.logger.Info().
			Int("from", stored).
			Int("to", m.version).
			Str("migration", m.name).
			Msg("Running schema migration")

		if err := m.run(b); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		if err := b.setSchemaVersion(m.version); err != nil {
			return fmt.Errorf("failed to stamp schema version %d: %w", m.version, err)
		}
		stored = m.version
	}

	return nil
}

// schemaVersion reads the stored version, returning 0 for an unstamped store.
func (b *BadgerDB) schemaVersion() (int, error) {
	var entry metaEntry
	err := b.store.Get(metaKeySchemaVersion, &entry)
	if err == badgerhold.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.IntValue(), nil
}

func (b *BadgerDB) setSchemaVersion(version int) error {
	return b.store.Upsert(metaKeySchemaVersion, newIntMetaEntry(metaKeySchemaVersion, version))
}

// migrateBaseline establishes version 1. Tables in badgerhold materialize on
// first write, so there is nothing to create up front.
func migrateBaseline(b *BadgerDB) error {
	return nil
}

// migrateReindexResponses re-upserts every response record so badgerhold
// rebuilds the EndpointID and Timestamp indexes added after version 1. Also
// backfills derived keys on records written before keys were deterministic.
func migrateReindexResponses(b *BadgerDB) error {
	var records []models.ResponseRecord
	if err := b.store.Find(&records, nil); err != nil {
		return fmt.Errorf("failed to load responses for reindex: %w", err)
	}

	for i := range records {
		rec := records[i]
		if rec.ID == "" {
			rec.ID = common.ResponseID(rec.EndpointID, rec.Timestamp)
		}
		if err := b.store.Upsert(rec.ID, rec); err != nil {
			return fmt.Errorf("failed to reindex response %s: %w", rec.ID, err)
		}
	}

	if len(records) > 0 {
		b.logger.Info().Int("count", len(records)).Msg("Reindexed response records")
	}

	return nil
}
