// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/chefgenie/internal/api"
	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/processor"
	"github.com/starford/chefgenie/internal/spoonacular"
	"github.com/starford/chefgenie/internal/sse"
	"github.com/starford/chefgenie/internal/storage"
)

// Run starts the recipe server: the app shell, POST /process, the catalog
// listing and catalog change events.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger(app.stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("static_dir", cfg.Static.Dir),
		slog.String("catalog_file", cfg.Catalog.File),
		slog.Bool("spoonacular", cfg.Provider.Spoonacular.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Static.Dir, 0o755); err != nil {
		return fmt.Errorf("create static dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Static.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	holder := catalog.NewHolder(catalog.LoadFile(store, cfg.Catalog.File, logger))

	broker := sse.NewBroker(cfg.Catalog.Throttle)
	defer broker.Close()

	var provider processor.Provider
	if sp := cfg.Provider.Spoonacular; sp.Enabled() {
		provider = spoonacular.NewClient(sp.APIKey,
			spoonacular.WithBaseURL(sp.BaseURL),
			spoonacular.WithTimeout(sp.Timeout),
			spoonacular.WithRate(sp.RPS),
		)
	} else {
		logger.Warn("spoonacular api key not set, answering from the catalog only")
	}
	proc := processor.New(provider, holder, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, `{"status":"ok"}`)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, fmt.Sprintf(`{"status":"ok","recipes":%d}`, holder.Current().Len()))
	})

	r.Mount("/", api.NewRouter(proc, holder, store, cfg.App.HTTP.CORSOrigin, broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	ctx, stop := withSignals(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Catalog.Watch {
		g.Go(func() error {
			err := catalog.Watch(gCtx, holder, store, cfg.Catalog.File, logger, func(c *catalog.Catalog) {
				broker.PublishCatalogUpdate(sse.CatalogUpdate{Recipes: c.Len(), Keys: c.Keys()})
			})
			if err != nil {
				logger.Error("catalog watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(listen(httpServer, logger))
	g.Go(shutdownOnDone(gCtx, httpServer, logger, broker.Close))

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
