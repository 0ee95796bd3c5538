package usecase

import (
	"context"
	"fmt"
	"strings"

	"repoindex/internal/domain"
	"repoindex/internal/port"
)

const previewChars = 1200

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	embedder port.Embedder
	store    port.VectorStore
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(embedder port.Embedder, store port.VectorStore) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder: embedder,
		store:    store,
	}
}

// Search returns up to k chunks nearest to query, closest first. An empty
// index yields an empty slice.
func (u *RetrieveUseCase) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		return []domain.SearchHit{}, nil
	}

	count, err := u.store.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []domain.SearchHit{}, nil
	}

	vec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := u.store.Query(vec, k)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, domain.SearchHit{
			Path:       r.Metadata.Path,
			ChunkIndex: r.Metadata.Chunk,
			Document:   r.Document,
			Distance:   r.Distance,
		})
	}
	return hits, nil
}

// FormatHits renders hits as numbered markdown sections with a preview of
// each chunk.
func FormatHits(hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return "No results."
	}

	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "### %d) %s (chunk %d)\n%s\n", i+1, h.Path, h.ChunkIndex, truncateRunes(h.Document, previewChars))
		if i < len(hits)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
