package memstore

import (
	"fmt"
	"sync"

	"repoindex/internal/adapter/store"
	"repoindex/internal/domain"
	"repoindex/internal/port"
)

// MemoryVectorStore is a non-persistent VectorStore for tests and dry runs.
type MemoryVectorStore struct {
	mu        sync.RWMutex
	dimension int
	items     map[string]port.VectorItem
	byPath    map[string]map[string]struct{}
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{
		items:  make(map[string]port.VectorItem),
		byPath: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryVectorStore) Upsert(items []port.VectorItem) error {
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
	s.dimension = dimension

	for _, item := range items {
		if old, ok := s.items[item.ID]; ok {
			delete(s.byPath[old.Metadata.Path], item.ID)
		}
		vec := make([]float32, len(item.Vector))
		copy(vec, item.Vector)
		item.Vector = vec
		s.items[item.ID] = item

		ids, ok := s.byPath[item.Metadata.Path]
		if !ok {
			ids = make(map[string]struct{})
			s.byPath[item.Metadata.Path] = ids
		}
		ids[item.ID] = struct{}{}
	}
	return nil
}

func (s *MemoryVectorStore) DeleteByPath(path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byPath[path]
	for id := range ids {
		delete(s.items, id)
	}
	delete(s.byPath, path)
	if len(s.items) == 0 {
		s.dimension = 0
	}
	return len(ids), nil
}

func (s *MemoryVectorStore) Query(vector []float32, k int) ([]port.VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.items) == 0 {
		return []port.VectorResult{}, nil
	}
	if len(vector) != s.dimension {
		return nil, &domain.VectorStoreError{
			Op:  "query",
			Err: fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector)),
		}
	}

	results := make([]port.VectorResult, 0, len(s.items))
	for id, item := range s.items {
		results = append(results, port.VectorResult{
			ID:       id,
			Document: item.Document,
			Metadata: item.Metadata,
			Distance: store.CosineDistance(vector, item.Vector),
		})
	}
	return store.TopK(results, k), nil
}

func (s *MemoryVectorStore) Exists(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok, nil
}

func (s *MemoryVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *MemoryVectorStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]port.VectorItem)
	s.byPath = make(map[string]map[string]struct{})
	s.dimension = 0
	return nil
}

// IDs returns the stored ids for path.
func (s *MemoryVectorStore) IDs(path string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.byPath[path]))
	for id := range s.byPath[path] {
		ids = append(ids, id)
	}
	return ids
}

func (s *MemoryVectorStore) Close() error {
	return nil
}
