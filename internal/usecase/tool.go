package usecase

import (
	"context"

	"repoindex/internal/domain"
	"repoindex/internal/port"
)

// MaxTopK bounds k for Tool.Search.
const MaxTopK = 20

var _ port.SearchTool = (*Tool)(nil)

// Tool exposes search and indexing to collaborators through port.SearchTool.
type Tool struct {
	retrieve *RetrieveUseCase
	index    *IndexUseCase
	lock     port.Locker
}

// NewTool creates a tool. lock may be nil; when set, IndexPaths holds it for
// the duration of the run.
func NewTool(retrieve *RetrieveUseCase, index *IndexUseCase, lock port.Locker) *Tool {
	return &Tool{retrieve: retrieve, index: index, lock: lock}
}

// Search returns the formatted top-k matches for query.
func (t *Tool) Search(ctx context.Context, query string, k int) (string, error) {
	if k < 1 || k > MaxTopK {
		return "", domain.ErrInvalidTopK
	}
	hits, err := t.retrieve.Search(ctx, query, k)
	if err != nil {
		return "", err
	}
	return FormatHits(hits), nil
}

// IndexPaths indexes the files selected by the globs, stopping after
// maxFiles newly indexed files when maxFiles > 0.
func (t *Tool) IndexPaths(ctx context.Context, includes, excludes []string, maxFiles int) (*domain.IndexResult, error) {
	if t.lock != nil {
		release, err := t.lock.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}
	return t.index.IndexPaths(ctx, IndexRequest{
		Includes: includes,
		Excludes: excludes,
		MaxFiles: maxFiles,
	})
}
