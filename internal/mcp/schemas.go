package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	toolSearch      = "local_directory_rag_search"
	toolIndexPaths  = "index_paths"
	toolEnsureFresh = "ensure_index_fresh"

	defaultTopK     = 5
	defaultMaxFiles = 500
)

// searchTool returns the tool definition for local_directory_rag_search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name: toolSearch,
		Description: "Semantic search over the local project using embeddings. " +
			"Call ensure_index_fresh or index_paths first if the index may be stale.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language or code query",
				},
				"k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of chunks to return (1-20)",
					"default":     defaultTopK,
					"minimum":     1,
					"maximum":     20,
				},
			},
			Required: []string{"query"},
		},
	}
}

// indexPathsTool returns the tool definition for index_paths
func indexPathsTool() mcp.Tool {
	return mcp.Tool{
		Name:        toolIndexPaths,
		Description: "Incrementally index files matching the include globs (relative to the project root)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"include_globs": map[string]interface{}{
					"type":        "array",
					"description": "Globs selecting files, e.g. src/**/*.ts",
					"items":       map[string]interface{}{"type": "string"},
				},
				"exclude_globs": map[string]interface{}{
					"type":        "array",
					"description": "Globs removing files from the selection; they win over includes",
					"items":       map[string]interface{}{"type": "string"},
				},
				"max_files_per_run": map[string]interface{}{
					"type":        "integer",
					"description": "Stop after this many newly indexed files (0 = unlimited)",
					"default":     defaultMaxFiles,
					"minimum":     0,
				},
			},
			Required: []string{"include_globs"},
		},
	}
}

// ensureIndexFreshTool returns the tool definition for ensure_index_fresh
func ensureIndexFreshTool() mcp.Tool {
	return mcp.Tool{
		Name:        toolEnsureFresh,
		Description: "Reindex the project if git HEAD, working tree changes or index settings require it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "Rebuild the whole index regardless of detected changes",
					"default":     false,
				},
			},
		},
	}
}
