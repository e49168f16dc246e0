package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/chefgenie/internal/storage"
)

// maxCatalogBytes caps the size of a catalog document.
const maxCatalogBytes = 8 << 20

// LoadFile reads and parses the catalog at path under store. Any failure is
// logged and yields an empty catalog so that local matching simply misses.
func LoadFile(store storage.Provider, path string, logger *slog.Logger) *Catalog {
	data, err := store.Read(path)
	if err != nil {
		logger.Warn("catalog: load failed", slog.String("path", path), slog.String("error", err.Error()))
		return Empty()
	}
	c, err := Parse(data)
	if err != nil {
		logger.Warn("catalog: parse failed", slog.String("path", path), slog.String("error", err.Error()))
		return Empty()
	}
	logger.Info("catalog: loaded", slog.String("path", path), slog.Int("recipes", c.Len()))
	return c
}

// Fetch downloads and parses the catalog from url with client. Like LoadFile
// it never fails: errors are logged and an empty catalog is returned.
func Fetch(ctx context.Context, client *http.Client, url string, logger *slog.Logger) *Catalog {
	c, err := fetch(ctx, client, url)
	if err != nil {
		logger.Warn("catalog: fetch failed", slog.String("url", url), slog.String("error", err.Error()))
		return Empty()
	}
	logger.Debug("catalog: fetched", slog.String("url", url), slog.Int("recipes", c.Len()))
	return c
}

func fetch(ctx context.Context, client *http.Client, url string) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
