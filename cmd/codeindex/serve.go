package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codeindex/internal/mcp"
	"github.com/dshills/codeindex/internal/watcher"
)

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c)

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Roots are optional in serve mode; clients can add them with add_root
	if err := eng.index.Initialize(cfg.ResolvedRoots()); err != nil {
		return err
	}

	opts := &mcp.Options{
		MaxResults: cfg.Search.MaxResults,
		ExportPath: cfg.ExportPath(),
		Logger:     logger,
	}

	var w *watcher.Watcher
	if cfg.Watch.Enabled && !c.Bool("no-watch") {
		w, err = watcher.New(eng.index, eng.detector, &watcher.Options{
			Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()

		for _, root := range eng.index.GetRootDirectories() {
			if err := w.AddRoot(root); err != nil {
				logger.Printf("watch %s: %v", root, err)
			}
		}
		opts.Watcher = w
	}

	server, err := mcp.NewServer(eng.index, opts)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Closing stdin ends the whole server
		defer stop()
		return server.Serve(gctx)
	})
	if w != nil {
		g.Go(func() error {
			if err := w.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			return w.Stop()
		})
	}

	logger.Printf("codeindex %s ready, %d roots, watching=%t, listening on stdio",
		version, len(eng.index.GetRootDirectories()), w != nil)

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Println("server stopped")
	return err
}
