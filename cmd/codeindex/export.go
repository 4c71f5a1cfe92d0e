package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/dshills/codeindex/internal/export"
)

func exportCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path := c.String("output")
	if path == "" {
		path = cfg.ExportPath()
	}

	eng, err := newEngine(cfg, newLogger(c))
	if err != nil {
		return err
	}
	defer eng.close()

	if err := eng.indexRoots(c.Context, c.Duration("timeout")); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	exp, err := export.Open(c.Context, path)
	if err != nil {
		return err
	}
	defer func() { _ = exp.Close() }()

	if err := exp.Write(c.Context, eng.index.Snapshot()); err != nil {
		return err
	}
	counts, err := exp.Counts(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "exported %d files, %d symbols, %d references, %d relations to %s\n",
		counts.Files, counts.Symbols, counts.References, counts.Relations, path)
	return nil
}
