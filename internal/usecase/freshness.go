package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"repoindex/internal/domain"
	"repoindex/internal/port"
)

// FreshnessOptions are the knobs EnsureIndexFresh reads on every call.
type FreshnessOptions struct {
	Settings        domain.SettingsSnapshot
	Categories      []Category
	Force           bool
	IndexWithoutVCS bool
}

// FreshnessUseCase keeps the index in step with the working tree.
type FreshnessUseCase struct {
	detector *ChangeDetector
	indexer  *IndexUseCase
	meta     port.MetadataStore
	store    port.VectorStore
	lock     port.Locker
	opts     FreshnessOptions

	// OnProgress, when set, receives per-file progress of a reindex.
	OnProgress func(category string, indexed int, path string)
}

func NewFreshnessUseCase(
	detector *ChangeDetector,
	indexer *IndexUseCase,
	meta port.MetadataStore,
	store port.VectorStore,
	lock port.Locker,
	opts FreshnessOptions,
) *FreshnessUseCase {
	return &FreshnessUseCase{
		detector: detector,
		indexer:  indexer,
		meta:     meta,
		store:    store,
		lock:     lock,
		opts:     opts,
	}
}

// EnsureIndexFresh checks whether the index is current and rebuilds it when
// not. force is combined with the configured force flag.
func (u *FreshnessUseCase) EnsureIndexFresh(ctx context.Context, force bool) (*domain.FreshnessStatus, error) {
	if u.lock != nil {
		release, err := u.lock.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	meta, err := u.meta.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load index metadata: %w", err)
	}

	decision := u.detector.Detect(ctx, DetectInput{
		Meta:            meta,
		Settings:        u.opts.Settings,
		Force:           force || u.opts.Force,
		IndexWithoutVCS: u.opts.IndexWithoutVCS,
	})
	slog.Info("freshness check",
		"state", decision.State,
		"action", decision.Action,
		"changed", len(decision.Changed),
	)

	status := &domain.FreshnessStatus{
		State:   decision.State,
		Action:  decision.Action,
		Head:    decision.Head,
		Message: decision.Message(),
	}

	if decision.Action == domain.ActionSkip {
		if decision.State == domain.StateHeadChangedIrrelevant {
			err := u.meta.Save(domain.IndexMetadata{
				LastIndexedRevision: decision.Head,
				Settings:            meta.Settings,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to save index metadata: %w", err)
			}
		}
		return status, nil
	}

	if decision.ResetIndex {
		slog.Info("clearing vector collection", "state", decision.State)
		if err := u.store.Reset(); err != nil {
			return nil, fmt.Errorf("failed to reset index: %w", err)
		}
	}

	for _, cat := range u.opts.Categories {
		req := IndexRequest{
			Includes: cat.Includes,
			Excludes: cat.Excludes,
			MaxFiles: cat.MaxFiles,
		}
		if u.OnProgress != nil {
			name := cat.Name
			req.Progress = func(indexed int, path string) {
				u.OnProgress(name, indexed, path)
			}
		}

		res, err := u.indexer.IndexPaths(ctx, req)
		status.Results = append(status.Results, domain.CategoryResult{Category: cat.Name, Result: res})
		if err != nil {
			return status, fmt.Errorf("indexing %s failed: %w", cat.Name, err)
		}
		slog.Info("category indexed", "category", cat.Name, "result", res.String())
	}

	err = u.meta.Save(domain.IndexMetadata{
		LastIndexedRevision: decision.Head,
		Settings:            u.opts.Settings,
	})
	if err != nil {
		return status, fmt.Errorf("failed to save index metadata: %w", err)
	}

	return status, nil
}
