// Package gateway is the offline cache gateway: it installs a fixed set of
// shell assets into a named cache store, activates that store, and then
// answers GET requests from the store before the network.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/starford/chefgenie/internal/apperr"
	"github.com/starford/chefgenie/internal/cachestore"
)

// DefaultName is the store name of the current shell version.
const DefaultName = "chefgenie-v1"

// DefaultShell is the document served to navigations when the network fails.
const DefaultShell = "/index.html"

// DefaultManifest lists the assets installed ahead of use. Relative entries
// are resolved against the gateway origin.
var DefaultManifest = []string{
	"/",
	"/index.html",
	"/style.css",
	"/script.js",
	"/manifest.json",
	"/static/recipes.json",
	"https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css",
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithManifest replaces DefaultManifest.
func WithManifest(assets []string) Option {
	return func(g *Gateway) {
		g.manifest = assets
	}
}

// WithShell sets the navigation fallback document.
func WithShell(path string) Option {
	return func(g *Gateway) {
		g.shell = path
	}
}

// WithNetwork sets the transport used for network fetches.
// Defaults to http.DefaultTransport.
func WithNetwork(rt http.RoundTripper) Option {
	return func(g *Gateway) {
		g.network = rt
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// Gateway intercepts requests for one origin. Before Activate it passes every
// request straight to the network.
type Gateway struct {
	storage  cachestore.Storage
	name     string
	origin   *url.URL
	manifest []string
	shell    string
	network  http.RoundTripper
	logger   *slog.Logger

	active atomic.Bool
	mu     sync.RWMutex
	store  cachestore.Store

	proxy *httputil.ReverseProxy
}

// Verify *Gateway satisfies http.RoundTripper at compile time.
var _ http.RoundTripper = (*Gateway)(nil)

// New creates a gateway for origin (scheme://host[:port]) backed by storage.
func New(storage cachestore.Storage, name, origin string, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway: origin %q must be absolute", origin)
	}
	g := &Gateway{
		storage:  storage,
		name:     name,
		origin:   &url.URL{Scheme: u.Scheme, Host: u.Host},
		manifest: DefaultManifest,
		shell:    DefaultShell,
		network:  http.DefaultTransport,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.proxy = g.newProxy()
	return g, nil
}

// Name returns the current store name.
func (g *Gateway) Name() string { return g.name }

// Active reports whether the gateway has claimed control.
func (g *Gateway) Active() bool { return g.active.Load() }

// URL resolves ref against the gateway origin.
func (g *Gateway) URL(ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("gateway: parse %q: %w", ref, err)
	}
	return g.origin.ResolveReference(r).String(), nil
}

// Install fetches every manifest asset concurrently and writes them into the
// named store in one batch. Any transport error or non-2xx status fails the
// whole install and nothing is written. Install does not retry.
func (g *Gateway) Install(ctx context.Context) error {
	entries := make([]cachestore.Entry, len(g.manifest))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, asset := range g.manifest {
		eg.Go(func() error {
			e, err := g.fetchAsset(egCtx, asset)
			if err != nil {
				return err
			}
			entries[i] = e
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("gateway: install %q: %w: %w", g.name, apperr.ErrInstallFailed, err)
	}

	store, err := g.storage.Open(ctx, g.name)
	if err != nil {
		return fmt.Errorf("gateway: install %q: %w: %w", g.name, apperr.ErrInstallFailed, err)
	}
	if err := store.PutAll(ctx, entries); err != nil {
		return fmt.Errorf("gateway: install %q: %w: %w", g.name, apperr.ErrInstallFailed, err)
	}

	g.logger.Info("gateway: installed", slog.String("store", g.name), slog.Int("assets", len(entries)))
	return nil
}

func (g *Gateway) fetchAsset(ctx context.Context, asset string) (cachestore.Entry, error) {
	target, err := g.URL(asset)
	if err != nil {
		return cachestore.Entry{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return cachestore.Entry{}, err
	}
	resp, err := g.network.RoundTrip(req)
	if err != nil {
		return cachestore.Entry{}, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return cachestore.Entry{}, fmt.Errorf("fetch %s: HTTP %d", target, resp.StatusCode)
	}
	return cachestore.NewEntry(req, resp)
}

// Activate deletes every store other than the current one and starts
// intercepting requests. It returns the names it deleted; a second call
// deletes nothing.
func (g *Gateway) Activate(ctx context.Context) ([]string, error) {
	names, err := g.storage.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("gateway: activate: %w", err)
	}
	var deleted []string
	for _, n := range names {
		if n == g.name {
			continue
		}
		ok, err := g.storage.Delete(ctx, n)
		if err != nil {
			return deleted, fmt.Errorf("gateway: activate: %w", err)
		}
		if ok {
			deleted = append(deleted, n)
			g.logger.Info("gateway: deleted stale store", slog.String("store", n))
		}
	}

	store, err := g.storage.Open(ctx, g.name)
	if err != nil {
		return deleted, fmt.Errorf("gateway: activate: %w", err)
	}
	g.mu.Lock()
	g.store = store
	g.mu.Unlock()

	if !g.active.Swap(true) {
		g.logger.Info("gateway: activated", slog.String("store", g.name))
	}
	return deleted, nil
}

func (g *Gateway) current() cachestore.Store {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store
}
