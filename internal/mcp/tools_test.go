package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoindex/internal/domain"
)

type fakeTool struct {
	query    string
	k        int
	includes []string
	excludes []string
	maxFiles int
	partial  *domain.IndexResult
	err      error
}

func (f *fakeTool) Search(ctx context.Context, query string, k int) (string, error) {
	f.query, f.k = query, k
	if f.err != nil {
		return "", f.err
	}
	return "### 1) /repo/a.go (chunk 0)\npackage a\n", nil
}

func (f *fakeTool) IndexPaths(ctx context.Context, includes, excludes []string, maxFiles int) (*domain.IndexResult, error) {
	f.includes, f.excludes, f.maxFiles = includes, excludes, maxFiles
	if f.err != nil {
		return f.partial, f.err
	}
	return &domain.IndexResult{FilesIndexed: 2, ChunksAdded: 5}, nil
}

type fakeFreshener struct {
	force   bool
	partial *domain.FreshnessStatus
	err     error
}

func (f *fakeFreshener) EnsureIndexFresh(ctx context.Context, force bool) (*domain.FreshnessStatus, error) {
	f.force = force
	if f.err != nil {
		return f.partial, f.err
	}
	return &domain.FreshnessStatus{
		State:   domain.StateNoMeta,
		Action:  domain.ActionReindex,
		Message: "Index created (first run).",
		Results: []domain.CategoryResult{{Category: "backend", Result: &domain.IndexResult{FilesIndexed: 1, ChunksAdded: 1}}},
	}, nil
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	content, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestHandleSearch(t *testing.T) {
	tool := &fakeTool{}
	s := NewServer(tool, nil)

	res, err := s.handleSearch(context.Background(), call(toolSearch, map[string]interface{}{
		"query": "parse error",
		"k":     float64(3),
	}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "/repo/a.go (chunk 0)")
	assert.Equal(t, "parse error", tool.query)
	assert.Equal(t, 3, tool.k)

	_, err = s.handleSearch(context.Background(), call(toolSearch, map[string]interface{}{"query": "x"}))
	require.NoError(t, err)
	assert.Equal(t, defaultTopK, tool.k)
}

func TestHandleSearchErrors(t *testing.T) {
	s := NewServer(&fakeTool{}, nil)

	_, err := s.handleSearch(context.Background(), call(toolSearch, map[string]interface{}{"query": "  "}))
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)

	s = NewServer(&fakeTool{err: domain.ErrInvalidTopK}, nil)
	_, err = s.handleSearch(context.Background(), call(toolSearch, map[string]interface{}{"query": "q", "k": float64(50)}))
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleIndexPaths(t *testing.T) {
	tool := &fakeTool{}
	s := NewServer(tool, nil)

	res, err := s.handleIndexPaths(context.Background(), call(toolIndexPaths, map[string]interface{}{
		"include_globs":     []interface{}{"src/**"},
		"exclude_globs":     []interface{}{"**/dist/**"},
		"max_files_per_run": float64(10),
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"src/**"}, tool.includes)
	assert.Equal(t, []string{"**/dist/**"}, tool.excludes)
	assert.Equal(t, 10, tool.maxFiles)
	assert.Contains(t, text(t, res), "index_paths: indexed 2 files / 5 chunks")
}

func TestHandleIndexPathsEmptyIncludes(t *testing.T) {
	tool := &fakeTool{}
	s := NewServer(tool, nil)

	res, err := s.handleIndexPaths(context.Background(), call(toolIndexPaths, map[string]interface{}{
		"include_globs": []interface{}{},
	}))
	require.NoError(t, err)
	assert.Equal(t, "index_paths: include_globs is empty. Nothing indexed.", text(t, res))
	assert.Nil(t, tool.includes)

	_, err = s.handleIndexPaths(context.Background(), call(toolIndexPaths, map[string]interface{}{
		"include_globs": []interface{}{"ok", 3},
	}))
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleEnsureIndexFresh(t *testing.T) {
	fresh := &fakeFreshener{}
	s := NewServer(&fakeTool{}, fresh)

	res, err := s.handleEnsureIndexFresh(context.Background(), call(toolEnsureFresh, map[string]interface{}{"force": true}))
	require.NoError(t, err)
	assert.True(t, fresh.force)

	out := text(t, res)
	assert.Contains(t, out, "Index created (first run).")
	assert.Contains(t, out, "- backend: indexed 1 files / 1 chunks")
}

func TestHandleEnsureIndexFreshLocked(t *testing.T) {
	s := NewServer(&fakeTool{}, &fakeFreshener{err: domain.ErrLocked})

	_, err := s.handleEnsureIndexFresh(context.Background(), call(toolEnsureFresh, nil))
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrorCodeIndexingInProgress, mcpErr.Code)
}

func TestHandleIndexPathsPartialFailure(t *testing.T) {
	tool := &fakeTool{
		partial: &domain.IndexResult{FilesIndexed: 7, ChunksAdded: 30},
		err:     &domain.EmbeddingServiceError{StatusCode: 500, Body: "model not loaded"},
	}
	s := NewServer(tool, nil)

	res, err := s.handleIndexPaths(context.Background(), call(toolIndexPaths, map[string]interface{}{
		"include_globs": []interface{}{"src/**"},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	out := text(t, res)
	assert.Contains(t, out, "indexed 7 files / 30 chunks")
	assert.Contains(t, out, "model not loaded")
}

func TestHandleEnsureIndexFreshPartialFailure(t *testing.T) {
	fresh := &fakeFreshener{
		partial: &domain.FreshnessStatus{
			State:   domain.StateHeadChangedRelevant,
			Action:  domain.ActionReindex,
			Message: "Index updated.",
			Results: []domain.CategoryResult{{Category: "backend", Result: &domain.IndexResult{FilesIndexed: 7, ChunksAdded: 30}}},
		},
		err: errors.New("indexing frontend failed: embedding service unavailable"),
	}
	s := NewServer(&fakeTool{}, fresh)

	res, err := s.handleEnsureIndexFresh(context.Background(), call(toolEnsureFresh, nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	out := text(t, res)
	assert.Contains(t, out, "- backend: indexed 7 files / 30 chunks")
	assert.Contains(t, out, "embedding service unavailable")
}
