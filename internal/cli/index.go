package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"repoindex/internal/domain"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Bring the index up to date",
	Long: `Check whether the index matches the current git revision and settings,
and re-embed the project when it does not. Unchanged files are skipped.

Examples:
  repoindex index            # Refresh when git reports relevant changes
  repoindex index --force    # Rebuild everything`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "rebuild the whole index")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	rt, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	fmt.Printf("Checking %s...\n", cfg.Project.Path)

	progress := newIndexProgress(func(category string) int {
		if c, ok := cfg.Category(category); ok && c.MaxFilesPerRun > 0 {
			return c.MaxFilesPerRun
		}
		return -1
	})
	rt.freshness.OnProgress = progress.update

	status, err := rt.freshness.EnsureIndexFresh(cmd.Context(), indexForce)
	progress.finish()
	if status != nil {
		printStatus(status)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndex stored at: %s\n", cfg.IndexDir())
	return nil
}

func printStatus(status *domain.FreshnessStatus) {
	fmt.Println(status.Message)
	if len(status.Results) == 0 {
		return
	}

	fmt.Printf("\nIndexing complete:\n")
	total := &domain.IndexResult{}
	for _, r := range status.Results {
		if r.Result == nil {
			continue
		}
		fmt.Printf("  [%s]\n", r.Category)
		printResult(r.Result)
		total.Add(r.Result)
	}
	if len(status.Results) > 1 {
		fmt.Printf("  [total]\n")
		printResult(total)
	}
}

func printResult(r *domain.IndexResult) {
	fmt.Printf("    Files indexed:  %d\n", r.FilesIndexed)
	fmt.Printf("    Chunks added:   %d\n", r.ChunksAdded)
	fmt.Printf("    Skipped:        %d (already indexed)\n", r.SkippedAlreadyIndexed)
	fmt.Printf("    Unreadable:     %d\n", r.SkippedUnreadable)
	fmt.Printf("    Elapsed:        %s\n", formatDuration(r.Elapsed))
}

// indexProgress draws one bar per category. Categories without a file cap
// get an open-ended spinner.
type indexProgress struct {
	mu       sync.Mutex
	total    func(category string) int
	bar      *progressbar.ProgressBar
	category string
	start    time.Time
}

func newIndexProgress(total func(category string) int) *indexProgress {
	return &indexProgress{total: total}
}

func (p *indexProgress) update(category string, indexed int, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.category != category {
		if p.bar != nil {
			_ = p.bar.Finish()
		}
		p.category = category
		p.start = time.Now()
		p.bar = progressbar.NewOptions(p.total(category),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan]Indexing %s[reset]", category)),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	_ = p.bar.Set(indexed)

	if indexed > 0 {
		elapsed := time.Since(p.start)
		rate := float64(indexed) / elapsed.Seconds()
		p.bar.Describe(fmt.Sprintf("[cyan]Indexing %s[reset] %.1f files/s", category, rate))
	}
}

func (p *indexProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
