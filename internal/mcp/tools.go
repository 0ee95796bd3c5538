package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"repoindex/internal/domain"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleSearch handles the local_directory_rag_search tool invocation
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	k := getIntDefault(args, "k", defaultTopK)
	out, err := s.tool.Search(ctx, query, k)
	if err != nil {
		return nil, toMCPError("search failed", err)
	}
	return mcp.NewToolResultText(out), nil
}

// handleIndexPaths handles the index_paths tool invocation
func (s *Server) handleIndexPaths(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	includes, err := getStringSlice(args, "include_globs")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), map[string]interface{}{"param": "include_globs"})
	}
	if len(includes) == 0 {
		return mcp.NewToolResultText("index_paths: include_globs is empty. Nothing indexed."), nil
	}
	excludes, err := getStringSlice(args, "exclude_globs")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), map[string]interface{}{"param": "exclude_globs"})
	}
	maxFiles := getIntDefault(args, "max_files_per_run", defaultMaxFiles)

	res, err := s.tool.IndexPaths(ctx, includes, excludes, maxFiles)
	if err != nil {
		if res == nil {
			return nil, toMCPError("indexing failed", err)
		}
		return partialResult("index_paths: "+res.String(), err), nil
	}
	return mcp.NewToolResultText("index_paths: " + res.String()), nil
}

// handleEnsureIndexFresh handles the ensure_index_fresh tool invocation
func (s *Server) handleEnsureIndexFresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	force := getBoolDefault(args, "force", false)

	status, err := s.fresh.EnsureIndexFresh(ctx, force)
	if err != nil && status == nil {
		return nil, toMCPError("index refresh failed", err)
	}

	var b strings.Builder
	b.WriteString(status.Message)
	for _, r := range status.Results {
		fmt.Fprintf(&b, "\n- %s: %s", r.Category, r.Result)
	}
	if err != nil {
		return partialResult(b.String(), err), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

// partialResult reports the work done before err stopped the run. The
// result is flagged as an error so clients do not treat the index as fresh.
func partialResult(summary string, err error) *mcp.CallToolResult {
	result := mcp.NewToolResultText(fmt.Sprintf("%s\nfailed: %v", summary, err))
	result.IsError = true
	return result
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// toMCPError maps domain errors onto MCP error codes.
func toMCPError(message string, err error) error {
	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, domain.ErrInvalidTopK):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), map[string]interface{}{"param": "k"})
	case errors.Is(err, domain.ErrLocked):
		return newMCPError(ErrorCodeIndexingInProgress, "another index refresh is in progress", data)
	default:
		return newMCPError(ErrorCodeInternalError, message, data)
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts an optional array of strings.
func getStringSlice(args map[string]interface{}, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be an array of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
}
