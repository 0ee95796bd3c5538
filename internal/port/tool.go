package port

import (
	"context"

	"repoindex/internal/domain"
)

// SearchTool is the surface handed to collaborators that need code search.
type SearchTool interface {
	// Search returns a formatted listing of the top-k matches.
	Search(ctx context.Context, query string, k int) (string, error)

	// IndexPaths indexes the files selected by the globs.
	IndexPaths(ctx context.Context, includes, excludes []string, maxFiles int) (*domain.IndexResult, error)
}
