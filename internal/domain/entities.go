package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// IndexedChunk is one window of a file version, the unit of embedding and storage.
type IndexedChunk struct {
	ID         string
	FilePath   string
	ChunkIndex int
	Content    string
	FileMtime  int64
	FileSize   int64
}

// ChunkID returns the deterministic id of a chunk. Any change to the file's
// mtime or size yields new ids for every chunk of that file.
func ChunkID(path string, chunkIndex int, mtime, size int64) string {
	return fmt.Sprintf("%s::%d::mtime=%d::size=%d", path, chunkIndex, mtime, size)
}

// NewIndexedChunks numbers the chunk texts of one file version in order.
func NewIndexedChunks(path string, mtime, size int64, texts []string) []IndexedChunk {
	chunks := make([]IndexedChunk, len(texts))
	for i, text := range texts {
		chunks[i] = IndexedChunk{
			ID:         ChunkID(path, i, mtime, size),
			FilePath:   path,
			ChunkIndex: i,
			Content:    text,
			FileMtime:  mtime,
			FileSize:   size,
		}
	}
	return chunks
}

// Metadata returns what is stored next to the chunk's vector.
func (c IndexedChunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		Path:  c.FilePath,
		Chunk: c.ChunkIndex,
		Mtime: c.FileMtime,
		Size:  c.FileSize,
	}
}

// ChunkMetadata is stored next to every vector.
type ChunkMetadata struct {
	Path  string `json:"path"`
	Chunk int    `json:"chunk"`
	Mtime int64  `json:"mtime"`
	Size  int64  `json:"size"`
}

// SettingsSnapshot is the flattened set of knobs that affect indexing output.
type SettingsSnapshot map[string]any

// Equal compares two snapshots structurally. Both sides are rendered as
// canonical JSON so a snapshot decoded from disk equals a freshly built one.
func (s SettingsSnapshot) Equal(other SettingsSnapshot) bool {
	a, errA := json.Marshal(s)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// IndexMetadata is the persisted record of the last indexing run.
type IndexMetadata struct {
	LastIndexedRevision *string          `json:"git_head"`
	Settings            SettingsSnapshot `json:"settings"`
}

// IndexResult summarises one IndexPaths call.
type IndexResult struct {
	FilesIndexed          int           `json:"files_indexed"`
	ChunksAdded           int           `json:"chunks_added"`
	SkippedAlreadyIndexed int           `json:"skipped_already_indexed"`
	SkippedUnreadable     int           `json:"skipped_unreadable"`
	Elapsed               time.Duration `json:"elapsed"`
}

// Add accumulates counters from another result.
func (r *IndexResult) Add(other *IndexResult) {
	if other == nil {
		return
	}
	r.FilesIndexed += other.FilesIndexed
	r.ChunksAdded += other.ChunksAdded
	r.SkippedAlreadyIndexed += other.SkippedAlreadyIndexed
	r.SkippedUnreadable += other.SkippedUnreadable
	r.Elapsed += other.Elapsed
}

func (r *IndexResult) String() string {
	return fmt.Sprintf("indexed %d files / %d chunks in %.1fs (skipped already=%d, unreadable=%d)",
		r.FilesIndexed, r.ChunksAdded, r.Elapsed.Seconds(), r.SkippedAlreadyIndexed, r.SkippedUnreadable)
}

// SearchHit is one nearest-neighbour result.
type SearchHit struct {
	Path       string  `json:"path"`
	ChunkIndex int     `json:"chunk"`
	Document   string  `json:"document"`
	Distance   float64 `json:"distance"`
}

// FreshnessState names the branch taken by the change detector.
type FreshnessState string

const (
	StateNoMeta                FreshnessState = "NO_META"
	StateSettingsChanged       FreshnessState = "SETTINGS_CHANGED"
	StateNoVCSHead             FreshnessState = "NO_VCS_HEAD"
	StateHeadUnchanged         FreshnessState = "HEAD_UNCHANGED"
	StateHeadChangedIrrelevant FreshnessState = "HEAD_CHANGED_IRRELEVANT"
	StateHeadChangedRelevant   FreshnessState = "HEAD_CHANGED_RELEVANT"
	StateForced                FreshnessState = "FORCED"
)

// Action is what the freshness check decided to do.
type Action string

const (
	ActionSkip    Action = "SKIP"
	ActionReindex Action = "REINDEX"
)

// CategoryResult is the pipeline outcome for one glob category.
type CategoryResult struct {
	Category string       `json:"category"`
	Result   *IndexResult `json:"result"`
}

// FreshnessStatus is returned by EnsureIndexFresh.
type FreshnessStatus struct {
	State   FreshnessState   `json:"state"`
	Action  Action           `json:"action"`
	Message string           `json:"message"`
	Head    *string          `json:"head,omitempty"`
	Results []CategoryResult `json:"results,omitempty"`
}

func (s *FreshnessStatus) String() string {
	return s.Message
}
