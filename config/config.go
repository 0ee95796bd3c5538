package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"repoindex/internal/domain"
)

// Config holds all configuration for repoindex.
type Config struct {
	Project   ProjectConfig   `yaml:"project"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProjectConfig locates the indexed tree and the index itself. Relative
// paths are resolved against the project path.
type ProjectConfig struct {
	Path       string `yaml:"path"`
	InputsPath string `yaml:"inputs_path"`
	IndexDir   string `yaml:"index_dir"`
}

// CategoryConfig is one named set of globs indexed together.
type CategoryConfig struct {
	Name           string   `yaml:"name"`
	Includes       []string `yaml:"includes"`
	Excludes       []string `yaml:"excludes"`
	MaxFilesPerRun int      `yaml:"max_files_per_run"` // <= 0 means unlimited
}

// IndexConfig holds file selection and chunking configuration.
type IndexConfig struct {
	Extensions      []string         `yaml:"extensions"`
	ExcludeDirs     []string         `yaml:"exclude_dirs"`
	MaxFileBytes    int64            `yaml:"max_file_bytes"`
	ChunkChars      int              `yaml:"chunk_chars"`
	ChunkOverlap    int              `yaml:"chunk_overlap"`
	Categories      []CategoryConfig `yaml:"categories"`
	Force           bool             `yaml:"force"`
	IndexWithoutVCS bool             `yaml:"index_without_vcs"`
	LockTimeout     time.Duration    `yaml:"lock_timeout"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // "ollama", "mock"
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Workers   int           `yaml:"workers"`
	Dimension int           `yaml:"dimension"`  // mock provider only
	CacheSize int           `yaml:"cache_size"` // query embedding cache
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Extensions: []string{
				".java", ".xml", ".properties", ".yml", ".yaml", ".sql", ".md",
				".ts", ".tsx", ".html", ".scss", ".css", ".json",
				".gradle", ".toml", ".txt", ".py", ".go",
			},
			ExcludeDirs: []string{
				".git", ".venv", "node_modules", "dist", "build", "target", ".idea",
				"__pycache__", ".pytest_cache", ".repoindex",
			},
			MaxFileBytes: 2_000_000,
			ChunkChars:   1800,
			ChunkOverlap: 200,
			Categories: []CategoryConfig{
				{
					Name: "backend",
					Includes: []string{
						"src/main/java/**", "src/test/java/**", "src/main/resources/**",
						"**/pom.xml", "**/*.gradle", "**/*.properties", "**/*.yml",
						"**/*.yaml", "**/*.xml", "**/*.sql",
					},
					Excludes:       []string{"**/target/**", "**/build/**"},
					MaxFilesPerRun: 4000,
				},
				{
					Name: "frontend",
					Includes: []string{
						"src/**", "projects/**", "angular.json", "package.json", "tsconfig*.json",
						"**/*.ts", "**/*.html", "**/*.scss", "**/*.css", "**/*.md",
					},
					Excludes:       []string{"**/node_modules/**", "**/dist/**", "**/.angular/**", "**/.cache/**"},
					MaxFilesPerRun: 4000,
				},
			},
			LockTimeout: 30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "nomic-embed-text:latest",
			BaseURL:   "http://localhost:11434",
			Timeout:   120 * time.Second,
			Workers:   4,
			Dimension: 256,
			CacheSize: 256,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for repoindex.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "repoindex.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".repoindex", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadDotEnv loads dir/.env into the process environment. Variables that are
// already set keep their value.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigurationError{Field: key, Reason: fmt.Sprintf("not an integer: %q", v)}
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v) == "1"
		}
	}

	str("PROJECT_PATH", &c.Project.Path)
	str("INPUTS_PATH", &c.Project.InputsPath)
	str("INDEX_DIR", &c.Project.IndexDir)
	str("EMBED_PROVIDER", &c.Embedding.Provider)
	str("EMBED_MODEL", &c.Embedding.Model)
	str("OLLAMA_BASE_URL", &c.Embedding.BaseURL)
	str("LOG_LEVEL", &c.Logging.Level)
	flag("FORCE_REINDEX", &c.Index.Force)
	flag("AUTO_INDEX_NO_GIT", &c.Index.IndexWithoutVCS)

	if v, ok := lookup("EMBED_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		d, err := parseTimeout(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigurationError{Field: "EMBED_TIMEOUT", Reason: err.Error()}
		}
		c.Embedding.Timeout = d
	}

	var errs []error
	errs = append(errs,
		num("EMBED_WORKERS", &c.Embedding.Workers),
		num("CHUNK_CHARS", &c.Index.ChunkChars),
		num("CHUNK_OVERLAP", &c.Index.ChunkOverlap),
	)

	if v, ok := lookup("MAX_FILE_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, &domain.ConfigurationError{Field: "MAX_FILE_BYTES", Reason: fmt.Sprintf("not an integer: %q", v)})
		} else {
			c.Index.MaxFileBytes = n
		}
	}

	for i := range c.Index.Categories {
		key := "INDEX_MAX_FILES_" + strings.ToUpper(c.Index.Categories[i].Name)
		errs = append(errs, num(key, &c.Index.Categories[i].MaxFilesPerRun))
	}

	return errors.Join(errs...)
}

// parseTimeout accepts a Go duration ("90s") or a plain number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

// Resolve fills in the project path (falling back to defaultProject) and
// makes every path absolute.
func (c *Config) Resolve(defaultProject string) error {
	if c.Project.Path == "" {
		c.Project.Path = defaultProject
	}
	if c.Project.Path == "" {
		return &domain.ConfigurationError{Field: "PROJECT_PATH", Reason: "not set"}
	}

	abs, err := filepath.Abs(c.Project.Path)
	if err != nil {
		return &domain.ConfigurationError{Field: "PROJECT_PATH", Reason: err.Error()}
	}
	c.Project.Path = abs

	if c.Project.IndexDir == "" {
		c.Project.IndexDir = ".repoindex"
	}
	c.Project.IndexDir = c.resolvePath(c.Project.IndexDir)
	if c.Project.InputsPath != "" {
		c.Project.InputsPath = c.resolvePath(c.Project.InputsPath)
	}
	return nil
}

func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Project.Path, p)
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Project.Path == "" {
		return &domain.ConfigurationError{Field: "PROJECT_PATH", Reason: "not set"}
	}
	info, err := os.Stat(c.Project.Path)
	if err != nil {
		return &domain.ConfigurationError{Field: "PROJECT_PATH", Reason: err.Error()}
	}
	if !info.IsDir() {
		return &domain.ConfigurationError{Field: "PROJECT_PATH", Reason: "not a directory"}
	}

	switch c.Embedding.Provider {
	case "ollama":
		if c.Embedding.Model == "" {
			return &domain.ConfigurationError{Field: "EMBED_MODEL", Reason: "not set"}
		}
		if c.Embedding.BaseURL == "" {
			return &domain.ConfigurationError{Field: "OLLAMA_BASE_URL", Reason: "not set"}
		}
	case "mock":
	default:
		return &domain.ConfigurationError{Field: "EMBED_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", c.Embedding.Provider)}
	}

	if c.Index.ChunkChars < 1 {
		return &domain.ConfigurationError{Field: "CHUNK_CHARS", Reason: "must be positive"}
	}
	if c.Index.ChunkOverlap < 0 {
		return &domain.ConfigurationError{Field: "CHUNK_OVERLAP", Reason: "must not be negative"}
	}
	if c.Index.MaxFileBytes < 1 {
		return &domain.ConfigurationError{Field: "MAX_FILE_BYTES", Reason: "must be positive"}
	}
	if len(c.Index.Extensions) == 0 {
		return &domain.ConfigurationError{Field: "index.extensions", Reason: "empty"}
	}

	seen := make(map[string]bool)
	for _, cat := range c.Index.Categories {
		if cat.Name == "" {
			return &domain.ConfigurationError{Field: "index.categories", Reason: "category without name"}
		}
		if seen[cat.Name] {
			return &domain.ConfigurationError{Field: "index.categories", Reason: fmt.Sprintf("duplicate category %q", cat.Name)}
		}
		seen[cat.Name] = true
	}
	return nil
}

// Snapshot returns every setting that influences what ends up in the index.
// A change in any of them forces a full reindex.
func (c *Config) Snapshot() domain.SettingsSnapshot {
	s := domain.SettingsSnapshot{
		"project_dir":     c.Project.Path,
		"index_dir":       c.Project.IndexDir,
		"embed_provider":  c.Embedding.Provider,
		"embed_model":     c.Embedding.Model,
		"ollama_base_url": c.Embedding.BaseURL,
		"chunk_chars":     c.Index.ChunkChars,
		"chunk_overlap":   c.Index.ChunkOverlap,
		"max_file_bytes":  c.Index.MaxFileBytes,
		"extensions":      nonNil(c.Index.Extensions),
		"exclude_dirs":    nonNil(c.Index.ExcludeDirs),
	}
	if c.Embedding.Provider == "mock" {
		s["embed_dimension"] = c.Embedding.Dimension
	}
	for _, cat := range c.Index.Categories {
		s[cat.Name+"_include"] = nonNil(cat.Includes)
		s[cat.Name+"_exclude"] = nonNil(cat.Excludes)
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Category returns the category with the given name.
func (c *Config) Category(name string) (CategoryConfig, bool) {
	for _, cat := range c.Index.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return CategoryConfig{}, false
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDir returns the directory holding every index artefact.
func (c *Config) IndexDir() string {
	return c.Project.IndexDir
}

// MetaPath returns the path of the index metadata document.
func (c *Config) MetaPath() string {
	return filepath.Join(c.Project.IndexDir, "index.meta.json")
}

// VectorDBPath returns the path to the vector database.
func (c *Config) VectorDBPath() string {
	return filepath.Join(c.Project.IndexDir, "vectors.db")
}

// LockPath returns the path of the refresh lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Project.IndexDir, "index.lock")
}

// EnsureIndexDir ensures the index directory exists.
func (c *Config) EnsureIndexDir() error {
	return os.MkdirAll(c.Project.IndexDir, 0755)
}
