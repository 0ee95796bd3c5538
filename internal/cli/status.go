package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index location, size and last indexed revision",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

type statusReport struct {
	Project     string  `json:"project"`
	Inputs      string  `json:"inputs,omitempty"`
	IndexDir    string  `json:"index_dir"`
	Provider    string  `json:"embed_provider"`
	Model       string  `json:"embed_model"`
	Chunks      int     `json:"chunks"`
	IndexedHead *string `json:"indexed_head"`
	CurrentHead *string `json:"current_head"`
	HasMeta     bool    `json:"has_meta"`
	SettingsOK  bool    `json:"settings_current"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	rt, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	count, err := rt.store.Count()
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}
	meta, err := rt.meta.Load()
	if err != nil {
		return fmt.Errorf("failed to read index metadata: %w", err)
	}

	report := statusReport{
		Project:     cfg.Project.Path,
		Inputs:      cfg.Project.InputsPath,
		IndexDir:    cfg.IndexDir(),
		Provider:    cfg.Embedding.Provider,
		Model:       rt.embedder.ModelName(),
		Chunks:      count,
		CurrentHead: rt.detector.Head(cmd.Context()),
	}
	if meta != nil {
		report.HasMeta = true
		report.IndexedHead = meta.LastIndexedRevision
		report.SettingsOK = meta.Settings.Equal(cfg.Snapshot())
	}

	if statusJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Project:      %s\n", report.Project)
	if report.Inputs != "" {
		fmt.Printf("Inputs:       %s\n", report.Inputs)
	}
	fmt.Printf("Index:        %s\n", report.IndexDir)
	fmt.Printf("Embedding:    %s (%s)\n", report.Provider, report.Model)
	fmt.Printf("Chunks:       %d\n", report.Chunks)
	fmt.Printf("Indexed head: %s\n", revOrNone(report.IndexedHead))
	fmt.Printf("Current head: %s\n", revOrNone(report.CurrentHead))
	switch {
	case !report.HasMeta:
		fmt.Println("State:        never indexed")
	case !report.SettingsOK:
		fmt.Println("State:        settings changed, next refresh rebuilds")
	}
	return nil
}

func revOrNone(rev *string) string {
	if rev == nil {
		return "(none)"
	}
	return *rev
}
