package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"

	"github.com/starford/chefgenie/internal/apperr"
)

// ServeHTTP runs the gateway as an edge proxy in front of its origin.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.proxy.ServeHTTP(w, r)
}

// newProxy builds a reverse proxy whose transport is the gateway itself.
// Origin-form requests are rewritten onto the origin; absolute-form proxy
// requests keep their target and are never stored unless they address the
// origin. Event streams are flushed as they arrive.
func (g *Gateway) newProxy() *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			if pr.In.URL.IsAbs() {
				pr.Out.Host = ""
			} else {
				pr.SetURL(g.origin)
			}
			pr.SetXForwarded()
		},
		Transport: g,
		ErrorLog:  slog.NewLogLogger(g.logger.Handler(), slog.LevelDebug),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			g.logger.Warn("gateway: upstream failed",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("error", err.Error()),
			)
			status := http.StatusBadGateway
			if errors.Is(err, apperr.ErrFetchFailed) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, http.StatusText(status), status)
		},
	}
}
