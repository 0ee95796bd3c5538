// Command benchmark reports retrieval quality for one query against an
// existing index: distance spread, per-file diversity and embedding latency.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"repoindex/config"
	"repoindex/internal/adapter/embedding"
	"repoindex/internal/adapter/store"
	"repoindex/internal/port"
	"repoindex/internal/usecase"
)

func main() {
	projectPath := flag.String("dir", ".", "Project directory")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir ./project -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Embedding service latency")
		fmt.Println("  2. Cosine distance of the top-k chunks")
		fmt.Println("  3. How many distinct files the results span")
		os.Exit(1)
	}

	cfg, err := loadConfig(*projectPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.VectorDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	count, _ := st.Count()
	if count == 0 {
		fmt.Fprintln(os.Stderr, "Index is empty - run 'repoindex index' first")
		os.Exit(1)
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding not available: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	ctx := context.Background()
	timed := &timedEmbedder{next: embedder}
	hits, err := usecase.NewRetrieveUseCase(timed, st).Search(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Query embedded in %s\n\n", timed.elapsed.Round(time.Millisecond))

	if len(hits) == 0 {
		fmt.Println("No results.")
		return
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(hits))

	totalDistance := 0.0
	files := make(map[string]struct{})
	for i, h := range hits {
		preview := []rune(h.Document)
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}
		text := strings.ReplaceAll(string(preview), "\n", " ")

		totalDistance += h.Distance
		files[h.Path] = struct{}{}

		fmt.Printf("%d. [%s %.3f] %s (chunk %d)\n", i+1, rating(h.Distance), h.Distance, shortPath(cfg.Project.Path, h.Path), h.ChunkIndex)
		fmt.Printf("   %s\n\n", text)
	}

	avgDistance := totalDistance / float64(len(hits))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average distance: %.3f\n", avgDistance)
	fmt.Printf("  Top-1 distance:   %.3f\n", hits[0].Distance)
	fmt.Printf("  Distinct files:   %d of %d results\n", len(files), len(hits))

	switch {
	case avgDistance < 0.5:
		fmt.Println("  Status: GOOD - semantic search working well")
	case avgDistance < 0.7:
		fmt.Println("  Status: OK - results are somewhat related")
	default:
		fmt.Println("  Status: POOR - may need a better model or re-indexing")
	}
}

// rating buckets a cosine distance; lower is closer.
func rating(distance float64) string {
	switch {
	case distance < 0.3:
		return "HIGH"
	case distance < 0.5:
		return "GOOD"
	case distance < 0.7:
		return "OK"
	default:
		return "LOW"
	}
}

func shortPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func loadConfig(dir string) (*config.Config, error) {
	if err := config.LoadDotEnv(dir); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Resolve(dir); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Timeout), nil
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}

// timedEmbedder records how long the last Embed call took.
type timedEmbedder struct {
	next    port.Embedder
	elapsed time.Duration
}

func (t *timedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := t.next.Embed(ctx, text)
	t.elapsed = time.Since(start)
	return vec, err
}

func (t *timedEmbedder) ModelName() string {
	return t.next.ModelName()
}
