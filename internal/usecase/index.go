package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"repoindex/internal/domain"
	"repoindex/internal/port"
)

// ProgressFunc is called after each newly indexed file.
type ProgressFunc func(indexed int, path string)

// IndexRequest selects what one IndexPaths call works on.
type IndexRequest struct {
	Includes []string
	Excludes []string
	MaxFiles int // <= 0 means unlimited
	Progress ProgressFunc
}

// IndexUseCase handles file indexing operations.
type IndexUseCase struct {
	root     string
	selector port.FileSelector
	reader   port.FileReader
	chunker  port.Chunker
	embedder port.Embedder
	store    port.VectorStore
	workers  int
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	root string,
	selector port.FileSelector,
	reader port.FileReader,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.VectorStore,
	workers int,
) *IndexUseCase {
	if workers < 1 {
		workers = 1
	}
	return &IndexUseCase{
		root:     root,
		selector: selector,
		reader:   reader,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		workers:  workers,
	}
}

// IndexPaths indexes every selected file that is not already stored for its
// current mtime and size. An embedding or upsert failure stops the run; the
// counts gathered so far are returned with the error.
func (u *IndexUseCase) IndexPaths(ctx context.Context, req IndexRequest) (*domain.IndexResult, error) {
	start := time.Now()
	result := &domain.IndexResult{}
	defer func() { result.Elapsed = time.Since(start) }()

	if len(req.Includes) == 0 {
		slog.Info("include globs empty, nothing indexed")
		return result, nil
	}

	for file := range u.selector.Files(u.root, req.Includes, req.Excludes) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		exists, err := u.store.Exists(domain.ChunkID(file.Path, 0, file.ModTime, file.Size))
		if err != nil {
			return result, fmt.Errorf("failed to probe %s: %w", file.Path, err)
		}
		if exists {
			result.SkippedAlreadyIndexed++
			continue
		}

		content, err := u.reader.ReadFile(file.Path)
		if err != nil {
			slog.Debug("skipping unreadable file", "path", file.Path, "error", err)
			result.SkippedUnreadable++
			continue
		}

		chunks := domain.NewIndexedChunks(file.Path, file.ModTime, file.Size, u.chunker.Chunk(content))
		if len(chunks) == 0 {
			continue
		}

		if n, err := u.store.DeleteByPath(file.Path); err != nil {
			slog.Warn("failed to remove previous chunks", "path", file.Path, "error", err)
		} else if n > 0 {
			slog.Debug("removed previous chunks", "path", file.Path, "count", n)
		}

		vectors, err := u.embedChunks(ctx, chunks)
		if err != nil {
			return result, fmt.Errorf("failed to embed %s: %w", file.Path, err)
		}

		items := make([]port.VectorItem, len(chunks))
		for i, c := range chunks {
			items[i] = port.VectorItem{
				ID:       c.ID,
				Vector:   vectors[i],
				Document: c.Content,
				Metadata: c.Metadata(),
			}
		}
		if err := u.store.Upsert(items); err != nil {
			return result, fmt.Errorf("failed to store %s: %w", file.Path, err)
		}

		result.FilesIndexed++
		result.ChunksAdded += len(items)
		if req.Progress != nil {
			req.Progress(result.FilesIndexed, file.Path)
		}

		if req.MaxFiles > 0 && result.FilesIndexed >= req.MaxFiles {
			slog.Info("per-run file limit reached", "limit", req.MaxFiles)
			break
		}
	}

	return result, nil
}

// embedChunks embeds chunks on at most u.workers goroutines. vectors[i]
// always belongs to chunks[i].
func (u *IndexUseCase) embedChunks(ctx context.Context, chunks []domain.IndexedChunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for i, c := range chunks {
		g.Go(func() error {
			vec, err := u.embedder.Embed(gctx, c.Content)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var svcErr *domain.EmbeddingServiceError
		if errors.As(err, &svcErr) {
			return nil, err
		}
		return nil, &domain.EmbeddingServiceError{Err: err}
	}
	return vectors, nil
}
