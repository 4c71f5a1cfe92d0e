package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dshills/codeindex/internal/config"
	"github.com/dshills/codeindex/internal/index"
	"github.com/dshills/codeindex/internal/langdetect"
	"github.com/dshills/codeindex/internal/parser"
	"github.com/dshills/codeindex/internal/snippet"
)

var errNoRoots = errors.New("no root directories configured; use --root or " + config.EnvRoots)

// loadConfig reads the config file, then environment overrides, then flags
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if roots := c.StringSlice("root"); len(roots) > 0 {
		cfg.Roots = nil
		for _, root := range roots {
			abs, err := filepath.Abs(root)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
			}
			cfg.Roots = append(cfg.Roots, abs)
		}
	}
	cfg.Index.Ignore = append(cfg.Index.Ignore, c.StringSlice("ignore")...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context) *log.Logger {
	if c.Bool("quiet") {
		return log.New(io.Discard, "", 0)
	}
	return log.New(c.App.ErrWriter, "", log.LstdFlags)
}

// engine is an indexer wired to the collaborators one config describes
type engine struct {
	cfg      *config.Config
	detector *langdetect.Detector
	index    *index.Indexer
	logger   *log.Logger
}

func newEngine(cfg *config.Config, logger *log.Logger) (*engine, error) {
	detector := langdetect.New(&langdetect.Options{
		IgnoreGlobs:      cfg.Index.Ignore,
		IgnoreExtensions: cfg.Index.IgnoreExtensions,
		RespectGitignore: cfg.Index.RespectGitignore,
	})

	snippets, err := snippet.New(cfg.Search.SnippetLines, cfg.Search.SnippetCacheSize)
	if err != nil {
		return nil, err
	}

	ix := index.New(detector, parser.NewRegistry(), &index.Options{
		Logger:   logger,
		Snippets: snippets,
	})

	return &engine{cfg: cfg, detector: detector, index: ix, logger: logger}, nil
}

// indexRoots registers the configured roots and blocks until the scan settles
func (e *engine) indexRoots(ctx context.Context, timeout time.Duration) error {
	roots := e.cfg.ResolvedRoots()
	if len(roots) == 0 {
		return errNoRoots
	}
	if err := e.index.Initialize(roots); err != nil {
		return err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	if err := e.index.WaitIdle(ctx); err != nil {
		return fmt.Errorf("indexing did not finish: %w", err)
	}

	stats := e.index.Stats()
	e.logger.Printf("indexed %d files (%d skipped, %d failed), %d symbols in %s",
		stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.Symbols, time.Since(start).Round(time.Millisecond))
	return nil
}

func (e *engine) close() {
	e.index.Shutdown()
}
