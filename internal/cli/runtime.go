package cli

import (
	"fmt"
	"os/exec"

	"repoindex/config"
	"repoindex/internal/adapter/chunker"
	"repoindex/internal/adapter/embedding"
	"repoindex/internal/adapter/fs"
	"repoindex/internal/adapter/metastore"
	"repoindex/internal/adapter/store"
	"repoindex/internal/adapter/vcs"
	"repoindex/internal/port"
	"repoindex/internal/usecase"
)

// runtime holds every component built from the configuration. It is created
// once per command and passed to whatever needs it.
type runtime struct {
	cfg       *config.Config
	store     *store.BoltVectorStore
	embedder  port.Embedder
	indexer   *usecase.IndexUseCase
	retriever *usecase.RetrieveUseCase
	freshness *usecase.FreshnessUseCase
	detector  *usecase.ChangeDetector
	meta      *metastore.JSONStore
	lock      *fs.IndexLock
	tool      *usecase.Tool
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Timeout), nil
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// categories converts the configured categories for the use cases.
func categories(cfg *config.Config) []usecase.Category {
	out := make([]usecase.Category, 0, len(cfg.Index.Categories))
	for _, c := range cfg.Index.Categories {
		out = append(out, usecase.Category{
			Name:     c.Name,
			Includes: c.Includes,
			Excludes: c.Excludes,
			MaxFiles: c.MaxFilesPerRun,
		})
	}
	return out
}

func openRuntime(cfg *config.Config) (*runtime, error) {
	if err := cfg.EnsureIndexDir(); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.VectorDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	root := cfg.Project.Path
	indexer := usecase.NewIndexUseCase(
		root,
		fs.NewWalker(cfg.Index.Extensions, cfg.Index.ExcludeDirs, cfg.Index.MaxFileBytes),
		fs.NewReader(),
		chunker.NewWindowChunker(cfg.Index.ChunkChars, cfg.Index.ChunkOverlap),
		emb,
		st,
		cfg.Embedding.Workers,
	)

	// Query embeddings go through a cache; indexing always hits the service.
	retriever := usecase.NewRetrieveUseCase(
		embedding.NewCachingEmbedder(emb, cfg.Embedding.CacheSize, 0),
		st,
	)

	var rc port.RevisionControl
	if _, err := exec.LookPath("git"); err == nil {
		rc = vcs.NewGit(root)
	}

	lock := fs.NewIndexLock(cfg.LockPath(), cfg.Index.LockTimeout)
	cats := categories(cfg)
	detector := usecase.NewChangeDetector(rc, cats)
	meta := metastore.NewJSONStore(cfg.MetaPath())
	freshness := usecase.NewFreshnessUseCase(
		detector,
		indexer,
		meta,
		st,
		lock,
		usecase.FreshnessOptions{
			Settings:        cfg.Snapshot(),
			Categories:      cats,
			Force:           cfg.Index.Force,
			IndexWithoutVCS: cfg.Index.IndexWithoutVCS,
		},
	)

	return &runtime{
		cfg:       cfg,
		store:     st,
		embedder:  emb,
		indexer:   indexer,
		retriever: retriever,
		freshness: freshness,
		detector:  detector,
		meta:      meta,
		lock:      lock,
		tool:      usecase.NewTool(retriever, indexer, lock),
	}, nil
}

func (r *runtime) Close() error {
	return r.store.Close()
}
