package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"repoindex/internal/usecase"
)

var (
	indexPathsInclude  []string
	indexPathsExclude  []string
	indexPathsMaxFiles int
)

var indexPathsCmd = &cobra.Command{
	Use:   "index-paths",
	Short: "Index files matching the given globs",
	Long: `Index the files selected by explicit include/exclude globs without
consulting git. Files whose current version is already stored are skipped.

Examples:
  repoindex index-paths --include "src/**" --exclude "**/testdata/**"
  repoindex index-paths --include "**/*.sql" --max-files 50`,
	Args: cobra.NoArgs,
	RunE: runIndexPaths,
}

func init() {
	rootCmd.AddCommand(indexPathsCmd)
	indexPathsCmd.Flags().StringSliceVar(&indexPathsInclude, "include", nil, "include glob (repeatable)")
	indexPathsCmd.Flags().StringSliceVar(&indexPathsExclude, "exclude", nil, "exclude glob (repeatable)")
	indexPathsCmd.Flags().IntVar(&indexPathsMaxFiles, "max-files", 500, "stop after this many newly indexed files (0 = unlimited)")
	indexPathsCmd.MarkFlagRequired("include")
}

func runIndexPaths(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	rt, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	release, err := rt.lock.Acquire(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	progress := newIndexProgress(func(string) int {
		if indexPathsMaxFiles > 0 {
			return indexPathsMaxFiles
		}
		return -1
	})

	result, err := rt.indexer.IndexPaths(cmd.Context(), usecase.IndexRequest{
		Includes: indexPathsInclude,
		Excludes: indexPathsExclude,
		MaxFiles: indexPathsMaxFiles,
		Progress: func(indexed int, path string) {
			progress.update("paths", indexed, path)
		},
	})
	progress.finish()
	if result != nil {
		fmt.Printf("\nIndexing complete:\n")
		printResult(result)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return nil
}
