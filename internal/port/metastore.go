package port

import "repoindex/internal/domain"

// MetadataStore persists the record of the last indexing run.
type MetadataStore interface {
	// Load returns nil without error when no metadata has been written yet.
	Load() (*domain.IndexMetadata, error)

	// Save replaces the stored metadata as a whole.
	Save(meta domain.IndexMetadata) error
}
