package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/chefgenie/internal/apperr"
	"github.com/starford/chefgenie/internal/cachestore"
)

// RoundTrip implements http.RoundTripper with the gateway fetch policy.
func (g *Gateway) RoundTrip(req *http.Request) (*http.Response, error) {
	return g.Fetch(req)
}

// Fetch answers req:
//   - non-GET requests, and every request before activation, go to the
//     network untouched;
//   - a stored GET response is returned without a network call;
//   - otherwise the network answers, and a successful same-origin response
//     is stored before it is returned;
//   - when the network fails, navigations get the stored shell document and
//     everything else gets ErrFetchFailed.
func (g *Gateway) Fetch(req *http.Request) (*http.Response, error) {
	store := g.current()
	if !g.active.Load() || store == nil || req.Method != http.MethodGet {
		return g.network.RoundTrip(req)
	}

	ctx := req.Context()
	key := cachestore.RequestKey(req)

	e, ok, err := store.Match(ctx, key)
	if err != nil {
		g.logger.Warn("gateway: store lookup failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if ok {
		return e.Response(req), nil
	}

	resp, err := g.network.RoundTrip(req)
	if err != nil {
		return g.fallback(req, err)
	}
	if !g.storable(req, resp) {
		return resp, nil
	}

	entry, err := cachestore.NewEntry(req, resp)
	if err != nil {
		return g.fallback(req, err)
	}
	if err := store.Put(ctx, entry); err != nil {
		g.logger.Warn("gateway: store put failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return resp, nil
}

// storable reports whether resp may be kept: a complete 2xx answer from the
// gateway's own origin. Event streams never end and are not read.
func (g *Gateway) storable(req *http.Request, resp *http.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.StatusCode == http.StatusPartialContent {
		return false
	}
	if isStream(resp) || strings.Contains(resp.Header.Get("Cache-Control"), "no-store") {
		return false
	}
	return strings.EqualFold(req.URL.Scheme, g.origin.Scheme) && strings.EqualFold(req.URL.Host, g.origin.Host)
}

func (g *Gateway) fallback(req *http.Request, cause error) (*http.Response, error) {
	if isNavigation(req) {
		if store := g.current(); store != nil {
			shell, err := g.URL(g.shell)
			if err == nil {
				e, ok, _ := store.Match(req.Context(), cachestore.Key(http.MethodGet, shell))
				if ok {
					g.logger.Debug("gateway: serving shell", slog.String("url", req.URL.String()))
					return e.Response(req), nil
				}
			}
		}
	}
	return nil, fmt.Errorf("gateway: %s %s: %w: %w", req.Method, req.URL, apperr.ErrFetchFailed, cause)
}

func isStream(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream")
}

// isNavigation reports whether req loads a top-level document.
func isNavigation(req *http.Request) bool {
	return req.Header.Get("Sec-Fetch-Dest") == "document" || req.Header.Get("Sec-Fetch-Mode") == "navigate"
}
