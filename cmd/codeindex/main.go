package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dshills/codeindex/internal/config"
	"github.com/dshills/codeindex/internal/export"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func init() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "codeindex\n")
		fmt.Fprintf(c.App.Writer, "Version: %s\n", version)
		fmt.Fprintf(c.App.Writer, "Build Time: %s\n", buildTime)
		fmt.Fprintf(c.App.Writer, "Build Mode: %s\n", export.BuildMode)
		fmt.Fprintf(c.App.Writer, "SQLite Driver: %s\n", export.DriverName)
	}
}

func main() {
	// Log to stderr; stdout is reserved for the MCP protocol in serve mode
	log.SetOutput(os.Stderr)

	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("codeindex: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "codeindex",
		Usage:   "In-memory source code index with an MCP server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file",
				EnvVars: []string{config.EnvConfig},
			},
			&cli.StringSliceFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Root directory to index, repeatable (overrides config and environment)",
			},
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "Extra doublestar ignore pattern, repeatable (e.g. --ignore '**/testdata/**')",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress log output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Index the roots and serve MCP tools over stdio",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-watch",
						Usage: "Do not watch the roots for changes",
					},
				},
				Action: serveCommand,
			},
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Index the roots and search symbol names and file paths",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (0 uses search.max_results)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
					&cli.BoolFlag{
						Name:  "no-snippets",
						Usage: "Omit code snippets",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Give up if indexing takes longer than this",
						Value: 5 * time.Minute,
					},
				},
				Action: searchCommand,
			},
			{
				Name:  "export",
				Usage: "Index the roots and write a SQLite snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Destination database (defaults to export.path)",
						EnvVars: []string{config.EnvExportPath},
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Give up if indexing takes longer than this",
						Value: 5 * time.Minute,
					},
				},
				Action: exportCommand,
			},
		},
	}
}
