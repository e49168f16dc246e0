package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/models"
)

// maxProcessBytes caps a /process request body.
const maxProcessBytes = 64 << 10

// Processor answers a /process request.
type Processor interface {
	Process(ctx context.Context, text string) (*models.ProcessResponse, error)
}

// CatalogSource yields the catalog currently served.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// Handler holds API route handlers.
type Handler struct {
	proc    Processor
	catalog CatalogSource
}

// NewHandler creates a new Handler.
func NewHandler(proc Processor, src CatalogSource) *Handler {
	return &Handler{proc: proc, catalog: src}
}

// Process handles POST /process.
//
//	@Summary		Resolve a recipe request
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.ProcessRequest	true	"Request text"
//	@Success		200		{object}	models.ProcessResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxProcessBytes)
	var req models.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.proc.Process(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRecipes handles GET /api/recipes.
//
//	@Summary		List the local recipe catalog
//	@Tags			recipes
//	@Produce		json
//	@Success		200	{object}	RecipeListResponse
//	@Router			/api/recipes [get]
func (h *Handler) ListRecipes(w http.ResponseWriter, _ *http.Request) {
	c := h.catalog.Current()
	items := make([]RecipeListItem, 0, c.Len())
	for _, key := range c.Keys() {
		recipe, _ := c.Get(key)
		items = append(items, newRecipeListItem(key, recipe))
	}
	writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: items, Total: len(items)})
}
