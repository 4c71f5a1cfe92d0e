package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables read by FromEnv
const (
	EnvConfig     = "CODEINDEX_CONFIG"      // Path to a TOML config file
	EnvRoots      = "CODEINDEX_ROOTS"       // Root directories, os.PathListSeparator separated
	EnvExportPath = "CODEINDEX_EXPORT_PATH" // SQLite export destination
	EnvWatch      = "CODEINDEX_WATCH"       // "true" or "false"
)

// Defaults applied by Default
const (
	DefaultMaxResults       = 50
	DefaultSnippetLines     = 3
	DefaultSnippetCacheSize = 1024
	DefaultDebounceMs       = 100
	DefaultExportPath       = "~/.codeindex/index.db"
)

// ErrInvalidConfig is wrapped by every load and validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete runtime configuration
type Config struct {
	Roots  []string     `toml:"roots"`
	Index  IndexConfig  `toml:"index"`
	Search SearchConfig `toml:"search"`
	Export ExportConfig `toml:"export"`
	Watch  WatchConfig  `toml:"watch"`
}

// IndexConfig controls which files are indexed
type IndexConfig struct {
	Ignore           []string `toml:"ignore"`            // Extra doublestar globs
	IgnoreExtensions []string `toml:"ignore_extensions"` // Extra extensions, without the dot
	RespectGitignore bool     `toml:"respect_gitignore"`
}

// SearchConfig controls search results
type SearchConfig struct {
	MaxResults       int `toml:"max_results"`
	SnippetLines     int `toml:"snippet_lines"` // Lines of context on each side of a hit
	SnippetCacheSize int `toml:"snippet_cache_size"`
}

// ExportConfig controls the SQLite export
type ExportConfig struct {
	Path string `toml:"path"`
}

// WatchConfig controls file system watching in serve mode
type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			RespectGitignore: true,
		},
		Search: SearchConfig{
			MaxResults:       DefaultMaxResults,
			SnippetLines:     DefaultSnippetLines,
			SnippetCacheSize: DefaultSnippetCacheSize,
		},
		Export: ExportConfig{
			Path: DefaultExportPath,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: DefaultDebounceMs,
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for _, e := range strict.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv loads the file named by CODEINDEX_CONFIG (or the defaults) and
// applies the remaining environment overrides
func FromEnv() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfig); path != "" {
		loaded, err := Load(expandHome(path))
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CODEINDEX_ROOTS, CODEINDEX_EXPORT_PATH and CODEINDEX_WATCH
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvRoots); v != "" {
		c.Roots = nil
		for _, root := range filepath.SplitList(v) {
			if root = strings.TrimSpace(root); root != "" {
				c.Roots = append(c.Roots, root)
			}
		}
	}
	if v := os.Getenv(EnvExportPath); v != "" {
		c.Export.Path = v
	}
	if v := os.Getenv(EnvWatch); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvWatch, v)
		}
		c.Watch.Enabled = enabled
	}
	return nil
}

// Validate checks value ranges and glob syntax
func (c *Config) Validate() error {
	for _, root := range c.Roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("%w: empty root directory", ErrInvalidConfig)
		}
	}
	for _, g := range c.Index.Ignore {
		if !doublestar.ValidatePattern(g) {
			return fmt.Errorf("%w: bad ignore pattern %q", ErrInvalidConfig, g)
		}
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("%w: max_results must be positive, got %d", ErrInvalidConfig, c.Search.MaxResults)
	}
	if c.Search.SnippetLines < 0 {
		return fmt.Errorf("%w: snippet_lines must not be negative, got %d", ErrInvalidConfig, c.Search.SnippetLines)
	}
	if c.Search.SnippetCacheSize <= 0 {
		return fmt.Errorf("%w: snippet_cache_size must be positive, got %d", ErrInvalidConfig, c.Search.SnippetCacheSize)
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("%w: debounce_ms must not be negative, got %d", ErrInvalidConfig, c.Watch.DebounceMs)
	}
	return nil
}

// ResolvedRoots returns the roots with "~" expanded
func (c *Config) ResolvedRoots() []string {
	out := make([]string, len(c.Roots))
	for i, r := range c.Roots {
		out[i] = expandHome(r)
	}
	return out
}

// ExportPath returns the export path with "~" expanded
func (c *Config) ExportPath() string {
	return expandHome(c.Export.Path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
