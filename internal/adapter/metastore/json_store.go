package metastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"repoindex/internal/domain"
)

// JSONStore keeps the index metadata in a single JSON document.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string {
	return s.path
}

// Load returns nil when the file is missing or cannot be decoded; both are
// treated as "never indexed".
func (s *JSONStore) Load() (*domain.IndexMetadata, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		slog.Warn("failed to read index metadata", "path", s.path, "error", err)
		return nil, nil
	}

	var meta domain.IndexMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		slog.Warn("ignoring corrupt index metadata", "path", s.path, "error", err)
		return nil, nil
	}
	if meta.Settings == nil {
		meta.Settings = domain.SettingsSnapshot{}
	}
	return &meta, nil
}

// Save replaces the document atomically.
func (s *JSONStore) Save(meta domain.IndexMetadata) error {
	if meta.Settings == nil {
		meta.Settings = domain.SettingsSnapshot{}
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index metadata: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index.meta-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index metadata: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync index metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index metadata: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace index metadata: %w", err)
	}
	return nil
}
