package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"repoindex/internal/adapter/fs"
	"repoindex/internal/domain"
	"repoindex/internal/port"
)

// Category is a named include/exclude glob set indexed as one unit.
type Category struct {
	Name     string
	Includes []string
	Excludes []string
	MaxFiles int
}

// DetectInput carries the persisted and current state compared by Detect.
type DetectInput struct {
	Meta            *domain.IndexMetadata
	Settings        domain.SettingsSnapshot
	Force           bool
	IndexWithoutVCS bool
}

// Decision is the outcome of a freshness check.
type Decision struct {
	State  domain.FreshnessState
	Action domain.Action
	Head   *string

	// ResetIndex clears the collection before reindexing so unchanged files
	// are embedded again under the new settings.
	ResetIndex bool

	// Changed is the union of committed and uncommitted changes; only set
	// once the head has moved.
	Changed    []string
	DirtyCount int
}

// Message renders the decision for humans.
func (d Decision) Message() string {
	switch d.State {
	case domain.StateForced:
		if d.Head == nil {
			return "Index updated (forced, no git detected)."
		}
		return fmt.Sprintf("Index updated (forced). HEAD=%s…", shortRev(*d.Head))
	case domain.StateNoMeta:
		return "Index created (first run)."
	case domain.StateSettingsChanged:
		return "Index updated (settings changed)."
	case domain.StateNoVCSHead:
		if d.Action == domain.ActionReindex {
			return "Index updated (AUTO_INDEX_NO_GIT=1)."
		}
		return "Index check skipped (no git detected). Set AUTO_INDEX_NO_GIT=1 or FORCE_REINDEX=1."
	case domain.StateHeadUnchanged:
		return fmt.Sprintf("Index up-to-date (git HEAD unchanged: %s…).", shortRev(deref(d.Head)))
	case domain.StateHeadChangedIrrelevant:
		return fmt.Sprintf("Index skipped (git changed but not relevant). HEAD=%s…, dirty_files=%d",
			shortRev(deref(d.Head)), d.DirtyCount)
	case domain.StateHeadChangedRelevant:
		return fmt.Sprintf("Index updated. HEAD=%s…", shortRev(deref(d.Head)))
	default:
		return string(d.State)
	}
}

// ChangeDetector decides whether the index must be rebuilt.
type ChangeDetector struct {
	vcs        port.RevisionControl
	categories []Category
}

// NewChangeDetector creates a detector. vcs may be nil when the project is
// not under version control.
func NewChangeDetector(vcs port.RevisionControl, categories []Category) *ChangeDetector {
	return &ChangeDetector{vcs: vcs, categories: categories}
}

// Head returns the current revision or nil when it cannot be determined.
func (d *ChangeDetector) Head(ctx context.Context) *string {
	if d.vcs == nil {
		return nil
	}
	head, err := d.vcs.Head(ctx)
	if err != nil {
		if !errors.Is(err, port.ErrNoRevision) {
			slog.Warn("failed to read revision", "error", err)
		} else {
			slog.Debug("no revision", "error", err)
		}
		return nil
	}
	return &head
}

// Detect walks the freshness rules in order: force, missing metadata,
// settings change, missing head, unchanged head, then relevance of the
// changed files.
func (d *ChangeDetector) Detect(ctx context.Context, in DetectInput) Decision {
	head := d.Head(ctx)

	if in.Force {
		return Decision{State: domain.StateForced, Action: domain.ActionReindex, Head: head, ResetIndex: true}
	}

	if in.Meta == nil {
		return Decision{State: domain.StateNoMeta, Action: domain.ActionReindex, Head: head}
	}

	if !in.Meta.Settings.Equal(in.Settings) {
		return Decision{State: domain.StateSettingsChanged, Action: domain.ActionReindex, Head: head, ResetIndex: true}
	}

	if head == nil {
		if in.IndexWithoutVCS {
			return Decision{State: domain.StateNoVCSHead, Action: domain.ActionReindex}
		}
		return Decision{State: domain.StateNoVCSHead, Action: domain.ActionSkip}
	}

	old := in.Meta.LastIndexedRevision
	if old != nil && *old == *head {
		return Decision{State: domain.StateHeadUnchanged, Action: domain.ActionSkip, Head: head}
	}

	var committed []string
	if old != nil {
		var err error
		committed, err = d.vcs.ChangedFiles(ctx, *old, *head)
		if err != nil {
			slog.Warn("failed to list changed files", "from", *old, "to", *head, "error", err)
			committed = nil
		}
	}
	dirty, err := d.vcs.DirtyFiles(ctx)
	if err != nil {
		slog.Warn("failed to list dirty files", "error", err)
		dirty = nil
	}

	changed := union(committed, dirty)
	decision := Decision{
		Head:       head,
		Changed:    changed,
		DirtyCount: len(dirty),
	}
	if len(changed) > 0 && !d.IsRelevant(changed) {
		decision.State = domain.StateHeadChangedIrrelevant
		decision.Action = domain.ActionSkip
		return decision
	}

	decision.State = domain.StateHeadChangedRelevant
	decision.Action = domain.ActionReindex
	return decision
}

// IsRelevant reports whether any path is selected by some category: it
// must match no exclude glob of any category and an include glob of at least
// one.
func (d *ChangeDetector) IsRelevant(paths []string) bool {
	for _, p := range paths {
		excluded := false
		for _, cat := range d.categories {
			if fs.MatchAny(cat.Excludes, p) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		for _, cat := range d.categories {
			if fs.MatchAny(cat.Includes, p) {
				return true
			}
		}
	}
	return false
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func shortRev(rev string) string {
	if len(rev) > 10 {
		return rev[:10]
	}
	return rev
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
