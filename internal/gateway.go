package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/chefgenie/internal/cachestore"
	"github.com/starford/chefgenie/internal/gateway"
)

// RunGateway starts the offline cache gateway in front of the configured
// upstream. Install is retried until it succeeds; until then requests pass
// straight through.
func RunGateway(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger(app.stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Gateway.Address()),
		slog.String("upstream", cfg.Gateway.Upstream),
		slog.String("store", cfg.Gateway.Name),
		slog.String("driver", cfg.Gateway.Driver))

	storage, err := cachestore.New(ctx, cfg.Gateway.Driver, cfg.Gateway.DSN)
	if err != nil {
		return fmt.Errorf("init cache storage: %w", err)
	}
	defer storage.Close()

	gw, err := app.newGateway(storage, cfg.Gateway.Upstream, logger)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, `{"status":"ok"}`)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !gw.Active() {
			writeStatus(w, http.StatusServiceUnavailable, `{"status":"installing"}`)
			return
		}
		writeStatus(w, http.StatusOK, `{"status":"ok"}`)
	})
	r.Handle("/*", gw)

	httpServer := &http.Server{
		Addr:    cfg.Gateway.Address(),
		Handler: r,
	}

	ctx, stop := withSignals(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return installLoop(gCtx, gw, cfg.Gateway.InstallRetry, cfg.Gateway.InstallTimeout, logger)
	})
	g.Go(listen(httpServer, logger))
	g.Go(shutdownOnDone(gCtx, httpServer, logger, nil))

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Gateway stopped successfully")
	return nil
}

func (a *application) newGateway(storage cachestore.Storage, origin string, logger *slog.Logger) (*gateway.Gateway, error) {
	gw, err := gateway.New(storage, a.config.Gateway.Name, origin,
		gateway.WithManifest(a.config.Gateway.Manifest),
		gateway.WithShell(a.config.Gateway.Shell),
		gateway.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init gateway: %w", err)
	}
	return gw, nil
}

// installLoop installs and activates gw, retrying install every interval
// until it succeeds or ctx ends. Each attempt is bounded by timeout.
func installLoop(ctx context.Context, gw *gateway.Gateway, interval, timeout time.Duration, logger *slog.Logger) error {
	for {
		err := install(ctx, gw, timeout)
		if err == nil {
			break
		}
		logger.Warn("gateway install failed, retrying",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", interval))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
	return activate(ctx, gw, logger)
}

// install runs one install attempt that gives up after timeout.
func install(ctx context.Context, gw *gateway.Gateway, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return gw.Install(ctx)
}

func activate(ctx context.Context, gw *gateway.Gateway, logger *slog.Logger) error {
	deleted, err := gw.Activate(ctx)
	if err != nil {
		return fmt.Errorf("activate gateway: %w", err)
	}
	logger.Info("gateway active", slog.String("store", gw.Name()), slog.Any("deleted", deleted))
	return nil
}

// installOnce installs gw once, giving up after timeout. When install fails
// it still activates a store of the same name left by an earlier run, so a
// previously installed shell keeps serving offline.
func installOnce(ctx context.Context, gw *gateway.Gateway, storage cachestore.Storage, timeout time.Duration, logger *slog.Logger) {
	if err := install(ctx, gw, timeout); err != nil {
		names, namesErr := storage.Names(ctx)
		if namesErr != nil || !slices.Contains(names, gw.Name()) {
			logger.Warn("gateway install failed, passing requests through", slog.String("error", err.Error()))
			return
		}
		logger.Warn("gateway install failed, keeping installed store", slog.String("error", err.Error()))
	}
	if err := activate(ctx, gw, logger); err != nil {
		logger.Warn("gateway activation failed", slog.String("error", err.Error()))
	}
}
