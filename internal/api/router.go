package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/chefgenie/internal/storage"
)

// NewRouter creates a chi router with every app route mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(proc Processor, src CatalogSource, static storage.Provider, corsOrigin string, sseHandler http.Handler) chi.Router {
	h := NewHandler(proc, src)
	sh := NewStaticHandler(static)

	r := chi.NewRouter()
	r.Use(corsHandler(corsOrigin))

	// Resolution.
	r.Post("/process", h.Process)

	// Catalog listing.
	r.Get("/api/recipes", h.ListRecipes)

	// Shell assets.
	r.Get("/", sh.File("index.html"))
	for _, name := range ShellFiles {
		r.Get("/"+name, sh.File(name))
	}
	r.Get("/static/*", sh.ServeFile)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
