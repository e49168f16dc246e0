package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/mcpserver"
	"github.com/starford/chefgenie/internal/netcheck"
	"github.com/starford/chefgenie/internal/remote"
	"github.com/starford/chefgenie/internal/storage"
)

// RunMCP serves the recipe tools over stdio. The catalog is read from the
// local static directory and kept current while the server runs.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger(app.stderr)

	store, err := storage.NewFS(cfg.Static.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	holder := catalog.NewHolder(catalog.LoadFile(store, cfg.Catalog.File, logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Catalog.Watch {
		go func() {
			if err := catalog.Watch(ctx, holder, store, cfg.Catalog.File, logger, nil); err != nil {
				logger.Error("catalog watcher failed", slog.String("error", err.Error()))
			}
		}()
	}

	conn, err := netcheck.FromMode(cfg.Client.Connectivity, cfg.Client.ServerURL, cfg.Client.ProbeTimeout)
	if err != nil {
		return err
	}
	client := remote.NewClient(strings.TrimRight(cfg.Client.ServerURL, "/")+"/process",
		remote.WithTimeout(cfg.Client.Timeout))

	srv := mcpserver.New(holder, client, conn, logger)
	logger.Info("MCP server starting on stdio", slog.String("static_dir", cfg.Static.Dir))
	return srv.ServeStdio()
}
