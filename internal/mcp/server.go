package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"repoindex/internal/domain"
	"repoindex/internal/port"
)

const (
	// ServerName is the MCP server name
	ServerName = "repoindex"
	// ServerVersion is the current server version
	ServerVersion = "0.3.0"
)

// Freshener brings the index up to date.
type Freshener interface {
	EnsureIndexFresh(ctx context.Context, force bool) (*domain.FreshnessStatus, error)
}

// Server exposes search and indexing as MCP tools.
type Server struct {
	mcp   *server.MCPServer
	tool  port.SearchTool
	fresh Freshener
}

// NewServer creates a new MCP server instance. fresh may be nil, in which
// case the ensure_index_fresh tool is not registered.
func NewServer(tool port.SearchTool, fresh Freshener) *Server {
	s := &Server{
		mcp:   server.NewMCPServer(ServerName, ServerVersion),
		tool:  tool,
		fresh: fresh,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(indexPathsTool(), s.handleIndexPaths)
	if s.fresh != nil {
		s.mcp.AddTool(ensureIndexFreshTool(), s.handleEnsureIndexFresh)
	}
}
