package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"repoindex/internal/mcp"
)

var serveRefresh bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search tools over MCP stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing
local_directory_rag_search, index_paths and ensure_index_fresh.

The server keeps the vector database open for its whole lifetime. Other
repoindex commands against the same index directory (index, query, status)
fail with "index refresh already in progress" until it exits; use the MCP
tools instead while it runs.

Examples:
  repoindex serve
  repoindex serve --refresh   # refresh the index before accepting requests`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveRefresh, "refresh", false, "run ensure_index_fresh once before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(GetConfig())
	if err != nil {
		return err
	}
	defer rt.Close()

	if serveRefresh {
		status, err := rt.freshness.EnsureIndexFresh(cmd.Context(), false)
		if err != nil {
			slog.Error("initial refresh failed", "error", err)
		} else {
			slog.Info("initial refresh", "state", status.State, "action", status.Action)
		}
	}

	slog.Info("serving MCP on stdio", "project", GetConfig().Project.Path)
	return mcp.NewServer(rt.tool, rt.freshness).Serve(cmd.Context())
}
