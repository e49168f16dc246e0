// Package processor answers POST /process: stop words end the conversation,
// otherwise the dish is looked up with the upstream provider first and the
// server's own catalog second.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/chefgenie/internal/apperr"
	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/models"
	"github.com/starford/chefgenie/internal/resolver"
)

// StoppedMessage is returned for stop words.
const StoppedMessage = "ChefGenie conversation stopped."

var stopWords = map[string]struct{}{
	"stop":   {},
	"cancel": {},
	"exit":   {},
	"quit":   {},
}

// fillerPhrases are removed from the request before the dish is looked up.
var fillerPhrases = []string{"how to make", "recipe for", resolver.WakePhrase}

// Provider is an upstream recipe source.
type Provider interface {
	Lookup(ctx context.Context, dish string) (*models.RemoteRecipe, error)
}

// CatalogSource yields the catalog to fall back to.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// Processor implements the /process semantics. It also satisfies
// resolver.RemoteClient for in-process use.
type Processor struct {
	provider Provider
	catalog  CatalogSource
	logger   *slog.Logger
}

// Verify *Processor satisfies resolver.RemoteClient at compile time.
var _ resolver.RemoteClient = (*Processor)(nil)

// New creates a Processor. provider may be nil, in which case only the
// catalog is consulted.
func New(provider Provider, src CatalogSource, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{provider: provider, catalog: src, logger: logger}
}

// Dish lower-cases text, removes filler phrases and trims.
func Dish(text string) string {
	dish := strings.ToLower(text)
	for _, p := range fillerPhrases {
		dish = strings.ReplaceAll(dish, p, "")
	}
	return strings.TrimSpace(dish)
}

// Process answers one request. The error return is reserved for failures
// the caller should report as 500; misses are answers.
func (p *Processor) Process(ctx context.Context, text string) (*models.ProcessResponse, error) {
	command := strings.ToLower(text)
	if _, ok := stopWords[strings.TrimSpace(command)]; ok {
		return &models.ProcessResponse{Stopped: true, Message: StoppedMessage}, nil
	}

	dish := Dish(command)
	p.logger.Info("process: requested dish", slog.String("dish", dish))
	if dish == "" {
		return notFound(dish), nil
	}

	if p.provider != nil {
		r, err := p.provider.Lookup(ctx, dish)
		switch {
		case err == nil && r != nil:
			return &models.ProcessResponse{Recipe: r}, nil
		case errors.Is(err, apperr.ErrNotFound):
			p.logger.Debug("process: provider has no match", slog.String("dish", dish))
		case err != nil:
			p.logger.Warn("process: provider failed", slog.String("dish", dish), slog.String("error", err.Error()))
		}
	}

	if p.catalog != nil {
		if c := p.catalog.Current(); c != nil {
			if key, recipe, ok := c.Match(dish); ok {
				p.logger.Info("process: matched local recipe", slog.String("key", key), slog.String("name", recipe.Name))
				return &models.ProcessResponse{Recipe: models.FromLocal(recipe)}, nil
			}
		}
	}

	p.logger.Info("process: no recipe found", slog.String("dish", dish))
	return notFound(dish), nil
}

func notFound(dish string) *models.ProcessResponse {
	return &models.ProcessResponse{Error: fmt.Sprintf("No recipe found for '%s'", dish)}
}
