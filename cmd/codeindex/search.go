package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dshills/codeindex/pkg/types"
)

// searchHit is the JSON form of one search result
type searchHit struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	SymbolID string `json:"symbol_id,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: codeindex search <query>")
	}
	query := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, newLogger(c))
	if err != nil {
		return err
	}
	defer eng.close()

	if err := eng.indexRoots(c.Context, c.Duration("timeout")); err != nil {
		return err
	}

	limit := c.Int("limit")
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}
	results := eng.index.Search(query, limit)
	if c.Bool("no-snippets") {
		for i := range results {
			results[i].Snippet = ""
		}
	}

	out := c.App.Writer
	if c.Bool("json") {
		hits := make([]searchHit, 0, len(results))
		for _, r := range results {
			hits = append(hits, searchHit{
				Type:     string(r.Type),
				Name:     r.Name,
				Kind:     r.Kind,
				File:     r.FilePath,
				Line:     r.Line,
				Column:   r.Column,
				SymbolID: r.SymbolID,
				Snippet:  r.Snippet,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	for _, r := range results {
		if r.Type == types.ResultFile {
			fmt.Fprintf(out, "%s [file]\n", r.FilePath)
			continue
		}
		fmt.Fprintf(out, "%s:%d:%d %s %s\n", r.FilePath, r.Line, r.Column, r.Kind, r.Name)
		if r.Snippet != "" {
			fmt.Fprint(out, r.Snippet)
		}
	}
	fmt.Fprintf(out, "%d results\n", len(results))
	return nil
}
