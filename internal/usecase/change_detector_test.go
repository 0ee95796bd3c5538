package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"repoindex/internal/domain"
	"repoindex/internal/port"
)

type fakeVCS struct {
	head       string
	headErr    error
	changed    []string
	changedErr error
	dirty      []string
	dirtyErr   error
}

func (f *fakeVCS) Head(ctx context.Context) (string, error) {
	if f.headErr != nil {
		return "", f.headErr
	}
	return f.head, nil
}

func (f *fakeVCS) ChangedFiles(ctx context.Context, from, to string) ([]string, error) {
	return f.changed, f.changedErr
}

func (f *fakeVCS) DirtyFiles(ctx context.Context) ([]string, error) {
	return f.dirty, f.dirtyErr
}

var testCategories = []Category{
	{Name: "backend", Includes: []string{"src/main/java/**", "**/*.sql"}, Excludes: []string{"**/target/**"}},
	{Name: "frontend", Includes: []string{"src/**", "**/*.ts"}, Excludes: []string{"**/node_modules/**"}},
}

func strPtr(s string) *string { return &s }

func TestChangeDetectorDetect(t *testing.T) {
	settings := domain.SettingsSnapshot{"chunk_chars": 1800}
	meta := func(head *string) *domain.IndexMetadata {
		return &domain.IndexMetadata{LastIndexedRevision: head, Settings: domain.SettingsSnapshot{"chunk_chars": 1800}}
	}
	noHead := &fakeVCS{headErr: port.ErrNoRevision}

	tests := []struct {
		name   string
		vcs    *fakeVCS
		in     DetectInput
		state  domain.FreshnessState
		action domain.Action
		reset  bool
	}{
		{
			name:  "force wins over everything",
			vcs:   &fakeVCS{head: "aaa"},
			in:    DetectInput{Meta: meta(strPtr("aaa")), Settings: settings, Force: true},
			state: domain.StateForced, action: domain.ActionReindex, reset: true,
		},
		{
			name:  "no metadata",
			vcs:   &fakeVCS{head: "aaa"},
			in:    DetectInput{Settings: settings},
			state: domain.StateNoMeta, action: domain.ActionReindex,
		},
		{
			name:  "no metadata without git",
			vcs:   noHead,
			in:    DetectInput{Settings: settings},
			state: domain.StateNoMeta, action: domain.ActionReindex,
		},
		{
			name:  "settings changed with same head",
			vcs:   &fakeVCS{head: "aaa"},
			in:    DetectInput{Meta: meta(strPtr("aaa")), Settings: domain.SettingsSnapshot{"chunk_chars": 900}},
			state: domain.StateSettingsChanged, action: domain.ActionReindex, reset: true,
		},
		{
			name:  "no head skips",
			vcs:   noHead,
			in:    DetectInput{Meta: meta(nil), Settings: settings},
			state: domain.StateNoVCSHead, action: domain.ActionSkip,
		},
		{
			name:  "no head with index anyway flag",
			vcs:   noHead,
			in:    DetectInput{Meta: meta(nil), Settings: settings, IndexWithoutVCS: true},
			state: domain.StateNoVCSHead, action: domain.ActionReindex,
		},
		{
			name:  "head unchanged",
			vcs:   &fakeVCS{head: "aaa", dirty: []string{"src/app.ts"}},
			in:    DetectInput{Meta: meta(strPtr("aaa")), Settings: settings},
			state: domain.StateHeadUnchanged, action: domain.ActionSkip,
		},
		{
			name:  "irrelevant change",
			vcs:   &fakeVCS{head: "bbb", changed: []string{"README"}, dirty: []string{"target/classes/x.sql"}},
			in:    DetectInput{Meta: meta(strPtr("aaa")), Settings: settings},
			state: domain.StateHeadChangedIrrelevant, action: domain.ActionSkip,
		},
		{
			name:  "relevant committed change",
			vcs:   &fakeVCS{head: "bbb", changed: []string{"README", "src/main/java/App.java"}},
			in:    DetectInput{Meta: meta(strPtr("aaa")), Settings: settings},
			state: domain.StateHeadChangedRelevant, action: domain.ActionReindex,
		},
		{
			name:  "relevant dirty change",
			vcs:   &fakeVCS{head: "bbb", changed: []string{"README"}, dirty: []string{"web/app.ts"}},
			in:    DetectInput{Meta: meta(strPtr("aaa")), Settings: settings},
			state: domain.StateHeadChangedRelevant, action: domain.ActionReindex,
		},
		{
			name:  "empty change set reindexes",
			vcs:   &fakeVCS{head: "bbb"},
			in:    DetectInput{Meta: meta(strPtr("aaa")), Settings: settings},
			state: domain.StateHeadChangedRelevant, action: domain.ActionReindex,
		},
		{
			name:  "diff failure degrades to empty list",
			vcs:   &fakeVCS{head: "bbb", changedErr: errors.New("bad revision"), dirtyErr: errors.New("no status")},
			in:    DetectInput{Meta: meta(strPtr("aaa")), Settings: settings},
			state: domain.StateHeadChangedRelevant, action: domain.ActionReindex,
		},
		{
			name:  "head appears after indexing without git",
			vcs:   &fakeVCS{head: "bbb", changed: []string{"README"}},
			in:    DetectInput{Meta: meta(nil), Settings: settings},
			state: domain.StateHeadChangedRelevant, action: domain.ActionReindex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewChangeDetector(tt.vcs, testCategories)
			got := d.Detect(context.Background(), tt.in)

			assert.Equal(t, tt.state, got.State)
			assert.Equal(t, tt.action, got.Action)
			assert.Equal(t, tt.reset, got.ResetIndex)
			assert.NotEmpty(t, got.Message())
		})
	}
}

func TestChangeDetectorHeadChangedCarriesDetails(t *testing.T) {
	vcs := &fakeVCS{
		head:    "0123456789abcdef",
		changed: []string{"docs/notes.txt", "README"},
		dirty:   []string{"README", "scratch.log"},
	}
	d := NewChangeDetector(vcs, testCategories)

	got := d.Detect(context.Background(), DetectInput{
		Meta:     &domain.IndexMetadata{LastIndexedRevision: strPtr("fedcba"), Settings: domain.SettingsSnapshot{}},
		Settings: domain.SettingsSnapshot{},
	})

	assert.Equal(t, domain.StateHeadChangedIrrelevant, got.State)
	assert.Equal(t, []string{"README", "docs/notes.txt", "scratch.log"}, got.Changed)
	assert.Equal(t, 2, got.DirtyCount)
	assert.Equal(t, "0123456789abcdef", *got.Head)
	assert.Equal(t, "Index skipped (git changed but not relevant). HEAD=0123456789…, dirty_files=2", got.Message())
}

func TestChangeDetectorNilVCS(t *testing.T) {
	d := NewChangeDetector(nil, testCategories)

	got := d.Detect(context.Background(), DetectInput{
		Meta:     &domain.IndexMetadata{Settings: domain.SettingsSnapshot{}},
		Settings: domain.SettingsSnapshot{},
	})
	assert.Equal(t, domain.StateNoVCSHead, got.State)
	assert.Equal(t, domain.ActionSkip, got.Action)
	assert.Equal(t, "Index check skipped (no git detected). Set AUTO_INDEX_NO_GIT=1 or FORCE_REINDEX=1.", got.Message())
}

func TestChangeDetectorIsRelevant(t *testing.T) {
	d := NewChangeDetector(nil, testCategories)

	tests := []struct {
		paths []string
		want  bool
	}{
		{[]string{"src/main/java/App.java"}, true},
		{[]string{"db/schema.sql"}, true},
		{[]string{"README.md"}, false},
		{[]string{"target/gen/schema.sql"}, false},
		{[]string{"src/node_modules/lib/index.ts"}, false},
		// an exclude in one category removes the path for all of them
		{[]string{"src/target/out.ts"}, false},
		{[]string{"README.md", "web/app.ts"}, true},
		{nil, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, d.IsRelevant(tt.paths), "paths %v", tt.paths)
	}
}

func TestDecisionMessages(t *testing.T) {
	head := strPtr("0123456789abcdef")

	assert.Equal(t, "Index created (first run).", Decision{State: domain.StateNoMeta}.Message())
	assert.Equal(t, "Index updated (settings changed).", Decision{State: domain.StateSettingsChanged}.Message())
	assert.Equal(t, "Index up-to-date (git HEAD unchanged: 0123456789…).",
		Decision{State: domain.StateHeadUnchanged, Head: head}.Message())
	assert.Equal(t, "Index updated. HEAD=0123456789…",
		Decision{State: domain.StateHeadChangedRelevant, Head: head}.Message())
	assert.Equal(t, "Index updated (AUTO_INDEX_NO_GIT=1).",
		Decision{State: domain.StateNoVCSHead, Action: domain.ActionReindex}.Message())
	assert.Equal(t, "Index updated (forced, no git detected).",
		Decision{State: domain.StateForced}.Message())
	assert.Equal(t, "Index updated (forced). HEAD=0123456789…",
		Decision{State: domain.StateForced, Head: head}.Message())
}
