package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"repoindex/internal/adapter/chunker"
	"repoindex/internal/adapter/embedding"
	"repoindex/internal/adapter/fs"
	"repoindex/internal/adapter/memstore"
	"repoindex/internal/port"
)

type countingEmbedder struct {
	next  port.Embedder
	calls atomic.Int64
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	return e.next.Embed(ctx, text)
}

func (e *countingEmbedder) ModelName() string { return e.next.ModelName() }

type countingStore struct {
	*memstore.MemoryVectorStore
	mu      sync.Mutex
	upserts int
	deletes int
	resets  int
}

func (s *countingStore) Upsert(items []port.VectorItem) error {
	s.mu.Lock()
	s.upserts++
	s.mu.Unlock()
	return s.MemoryVectorStore.Upsert(items)
}

func (s *countingStore) DeleteByPath(path string) (int, error) {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.MemoryVectorStore.DeleteByPath(path)
}

func (s *countingStore) Reset() error {
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
	return s.MemoryVectorStore.Reset()
}

func (s *countingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts + s.deletes + s.resets
}

type harness struct {
	root     string
	store    *countingStore
	embedder *countingEmbedder
	indexer  *IndexUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		root:     root,
		store:    &countingStore{MemoryVectorStore: memstore.NewMemoryVectorStore()},
		embedder: &countingEmbedder{next: embedding.NewMockEmbedder(128)},
	}
	h.indexer = NewIndexUseCase(
		root,
		fs.NewWalker([]string{".go", ".md", ".ts", ".txt"}, []string{".git", "node_modules"}, 1<<20),
		fs.NewReader(),
		chunker.NewWindowChunker(60, 10),
		h.embedder,
		h.store,
		4,
	)
	return h
}

var fileClock = time.Now().Add(-time.Hour)

// write creates or replaces a file and gives it a fresh, distinct mtime.
func (h *harness) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(h.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	fileClock = fileClock.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, fileClock, fileClock))
	return path
}

func (h *harness) count(t *testing.T) int {
	t.Helper()
	n, err := h.store.Count()
	require.NoError(t, err)
	return n
}
