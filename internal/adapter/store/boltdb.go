package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"repoindex/internal/domain"
)

var (
	bucketChunks = []byte("chunks")
	bucketPaths  = []byte("paths")
	bucketSchema = []byte("schema")
)

// openTimeout bounds the wait for bolt's file lock, which another
// repoindex process (typically `serve`) holds for as long as it runs.
var openTimeout = 5 * time.Second

// pathSep separates the path and the chunk id in keys of the paths bucket.
const pathSep = "\x00"

// OpenDB opens (or creates) the bolt database at path, creates the buckets
// and checks the schema version.
func OpenDB(path string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if errors.Is(err, bbolt.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s is held by another repoindex process", domain.ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketPaths, bucketSchema} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func pathKey(path, id string) []byte {
	return []byte(path + pathSep + id)
}

func pathPrefix(path string) []byte {
	return []byte(path + pathSep)
}
