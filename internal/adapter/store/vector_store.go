package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"
	"repoindex/internal/domain"
	"repoindex/internal/port"
)

// BoltVectorStore implements VectorStore using BoltDB for persistence.
// Uses brute-force search over an in-memory copy of every vector.
type BoltVectorStore struct {
	db        *bbolt.DB
	mu        sync.RWMutex
	dimension int
	vectors   map[string]vectorEntry
}

type vectorEntry struct {
	vector   []float32
	document string
	metadata domain.ChunkMetadata
}

type storedVector struct {
	Vector   []float32            `json:"v"`
	Document string               `json:"d"`
	Metadata domain.ChunkMetadata `json:"m"`
}

// Open opens the database at path and loads it into memory.
func Open(path string) (*BoltVectorStore, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, &domain.VectorStoreError{Op: "open", Err: err}
	}
	s, err := NewBoltVectorStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewBoltVectorStore wraps an opened database.
func NewBoltVectorStore(db *bbolt.DB) (*BoltVectorStore, error) {
	store := &BoltVectorStore{
		db:      db,
		vectors: make(map[string]vectorEntry),
	}

	if err := store.loadVectors(); err != nil {
		return nil, &domain.VectorStoreError{Op: "load", Err: err}
	}

	return store, nil
}

func (s *BoltVectorStore) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return fmt.Errorf("chunks bucket not found")
		}

		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt entry %q: %w", k, err)
			}
			if s.dimension == 0 {
				s.dimension = len(stored.Vector)
			}
			s.vectors[string(k)] = vectorEntry{
				vector:   stored.Vector,
				document: stored.Document,
				metadata: stored.Metadata,
			}
			return nil
		})
	})
}

// Upsert adds or replaces items in one transaction. An item with a vector of
// the wrong dimension fails the whole batch.
func (s *BoltVectorStore) Upsert(items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dimension := s.dimension
	for _, item := range items {
		if dimension == 0 {
			dimension = len(item.Vector)
		}
		if len(item.Vector) == 0 || len(item.Vector) != dimension {
			return &domain.VectorStoreError{
				Op:  "upsert",
				Err: fmt.Errorf("vector dimension mismatch: expected %d, got %d", dimension, len(item.Vector)),
			}
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		chunks := tx.Bucket(bucketChunks)
		paths := tx.Bucket(bucketPaths)

		for _, item := range items {
			if old, ok := s.vectors[item.ID]; ok && old.metadata.Path != item.Metadata.Path {
				if err := paths.Delete(pathKey(old.metadata.Path, item.ID)); err != nil {
					return err
				}
			}

			data, err := json.Marshal(storedVector{
				Vector:   item.Vector,
				Document: item.Document,
				Metadata: item.Metadata,
			})
			if err != nil {
				return err
			}
			if err := chunks.Put([]byte(item.ID), data); err != nil {
				return err
			}
			if err := paths.Put(pathKey(item.Metadata.Path, item.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.VectorStoreError{Op: "upsert", Err: err}
	}

	s.dimension = dimension
	for _, item := range items {
		vec := make([]float32, len(item.Vector))
		copy(vec, item.Vector)
		s.vectors[item.ID] = vectorEntry{
			vector:   vec,
			document: item.Document,
			metadata: item.Metadata,
		}
	}
	return nil
}

// DeleteByPath removes every item stored for path and returns how many were
// removed.
func (s *BoltVectorStore) DeleteByPath(path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		chunks := tx.Bucket(bucketChunks)
		paths := tx.Bucket(bucketPaths)
		prefix := pathPrefix(path)

		var keys [][]byte
		c := paths.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}

		for _, k := range keys {
			id := string(k[len(prefix):])
			if err := chunks.Delete([]byte(id)); err != nil {
				return err
			}
			if err := paths.Delete(k); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return 0, &domain.VectorStoreError{Op: "delete", Err: err}
	}

	for _, id := range ids {
		delete(s.vectors, id)
	}
	if len(s.vectors) == 0 {
		s.dimension = 0
	}
	return len(ids), nil
}

// Query finds the k nearest vectors by cosine distance.
func (s *BoltVectorStore) Query(vector []float32, k int) ([]port.VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.vectors) == 0 {
		return []port.VectorResult{}, nil
	}
	if len(vector) != s.dimension {
		return nil, &domain.VectorStoreError{
			Op:  "query",
			Err: fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector)),
		}
	}

	results := make([]port.VectorResult, 0, len(s.vectors))
	for id, entry := range s.vectors {
		results = append(results, port.VectorResult{
			ID:       id,
			Document: entry.document,
			Metadata: entry.metadata,
			Distance: CosineDistance(vector, entry.vector),
		})
	}

	return TopK(results, k), nil
}

func (s *BoltVectorStore) Exists(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vectors[id]
	return ok, nil
}

func (s *BoltVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Reset removes every stored item. The schema bucket is kept.
func (s *BoltVectorStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketPaths} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.VectorStoreError{Op: "reset", Err: err}
	}

	s.vectors = make(map[string]vectorEntry)
	s.dimension = 0
	return nil
}

func (s *BoltVectorStore) Close() error {
	return s.db.Close()
}

// TopK sorts results by ascending distance, breaking ties by id, and keeps
// the first k.
func TopK(results []port.VectorResult, k int) []port.VectorResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}

// CosineDistance returns 1 - cosine similarity. A zero vector is at
// distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
}
