package api

import "github.com/starford/chefgenie/internal/models"

// RecipeListItem is one catalog entry in GET /api/recipes.
type RecipeListItem struct {
	Key         string            `json:"key" example:"pasta carbonara"`
	Name        string            `json:"name" example:"Pasta Carbonara"`
	Ingredients []string          `json:"ingredients"`
	Steps       []string          `json:"steps"`
	Nutrition   *models.Nutrition `json:"nutrition,omitempty"`
}

// RecipeListResponse lists the catalog in catalog order.
type RecipeListResponse struct {
	Recipes []RecipeListItem `json:"recipes"`
	Total   int              `json:"total" example:"3"`
}

func newRecipeListItem(key string, r models.Recipe) RecipeListItem {
	return RecipeListItem{
		Key:         key,
		Name:        r.Name,
		Ingredients: r.Ingredients,
		Steps:       r.Steps,
		Nutrition:   r.Nutrition,
	}
}
