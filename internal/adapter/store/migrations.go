package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

// ErrNewerSchema is returned when the database was written by a newer build.
var ErrNewerSchema = errors.New("database created by a newer schema version")

// SchemaVersion returns the version recorded in db, or 0 for a fresh file.
func SchemaVersion(db *bbolt.DB) (int, error) {
	var version int
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSchema)
		if b == nil {
			return nil
		}
		data := b.Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	return version, err
}

func ensureSchema(db *bbolt.DB) error {
	version, err := SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	switch {
	case version > CurrentSchemaVersion:
		return fmt.Errorf("%w (v%d > v%d)", ErrNewerSchema, version, CurrentSchemaVersion)
	case version == CurrentSchemaVersion:
		return nil
	}

	// v0 -> v1 needs no data changes: OpenDB has already created the buckets.
	// Stepwise migrations go here once the format changes.

	return db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(CurrentSchemaVersion)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketSchema).Put(keySchemaVersion, data)
	})
}
