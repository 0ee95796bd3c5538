package port

import (
	"context"

	"repoindex/internal/domain"
)

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore is a persistent collection of embedded chunks.
type VectorStore interface {
	// Upsert adds or replaces items by id.
	Upsert(items []VectorItem) error

	// DeleteByPath removes every item whose metadata path equals path.
	DeleteByPath(path string) (int, error)

	// Query returns up to k items ordered by ascending distance.
	Query(vector []float32, k int) ([]VectorResult, error)

	// Exists reports whether an item with the id is stored. A missing id is
	// not an error.
	Exists(id string) (bool, error)

	// Count returns the number of stored items.
	Count() (int, error)

	// Reset removes every item.
	Reset() error
}

// VectorItem represents an embedded chunk to be stored.
type VectorItem struct {
	ID       string
	Vector   []float32
	Document string
	Metadata domain.ChunkMetadata
}

// VectorResult represents a query match.
type VectorResult struct {
	ID       string
	Document string
	Metadata domain.ChunkMetadata
	Distance float64 // Cosine distance (lower is closer)
}
