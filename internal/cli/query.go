package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the index",
	Long: `Embed a natural-language query and print the nearest indexed chunks,
closest first. The index is not refreshed; run 'repoindex index' for that.

Examples:
  repoindex query -q "where are sessions validated"
  repoindex query -q "database connection" --top-k 10 --json`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 5, "number of results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(GetConfig())
	if err != nil {
		return err
	}
	defer rt.Close()

	if queryJSON {
		hits, err := rt.retriever.Search(cmd.Context(), queryText, queryTopK)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		output, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	// The tool path validates k the same way MCP clients see it.
	text, err := rt.tool.Search(cmd.Context(), queryText, queryTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	fmt.Println(text)
	return nil
}
