package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"repoindex/config"
)

var initOverwrite bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a repoindex.yaml with the default settings",
	Long: `Write repoindex.yaml into the project directory so the extensions,
categories and embedding settings can be edited. Environment variables still
override the file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initOverwrite, "overwrite", false, "replace an existing repoindex.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(GetConfig().Project.Path, "repoindex.yaml")

	if _, err := os.Stat(path); err == nil && !initOverwrite {
		return fmt.Errorf("%s already exists (use --overwrite to replace it)", path)
	}

	// Defaults only: the loaded config carries env overrides and absolute paths.
	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
