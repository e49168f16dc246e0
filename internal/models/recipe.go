// Package models defines the domain types for ChefGenie.
package models

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Nutrition maps a nutrient name to a string or numeric amount.
// Insertion order is display order and survives a JSON round trip.
type Nutrition = orderedmap.OrderedMap[string, any]

// NewNutrition returns an empty Nutrition mapping.
func NewNutrition() *Nutrition {
	return orderedmap.New[string, any]()
}

// Recipe is an entry of the bundled offline catalog.
type Recipe struct {
	Name        string     `json:"name"`
	Ingredients []string   `json:"ingredients"`
	Steps       []string   `json:"steps"`
	Nutrition   *Nutrition `json:"nutrition,omitempty"`
}

// UnmarshalJSON decodes a catalog entry, falling back to the "instructions"
// field when "steps" is absent.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type alias Recipe
	aux := &struct {
		Instructions []string `json:"instructions"`
		*alias
	}{
		alias: (*alias)(r),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if r.Steps == nil {
		r.Steps = aux.Instructions
	}
	return nil
}

// RemoteRecipe is the recipe shape returned by POST /process.
type RemoteRecipe struct {
	Title       string     `json:"title"`
	Ingredients []string   `json:"ingredients"`
	Steps       []string   `json:"steps"`
	Nutrition   *Nutrition `json:"nutrition"`
}

// FromLocal converts a catalog recipe to the remote shape.
func FromLocal(r Recipe) *RemoteRecipe {
	n := r.Nutrition
	if n == nil {
		n = NewNutrition()
	}
	return &RemoteRecipe{
		Title:       r.Name,
		Ingredients: nonNil(r.Ingredients),
		Steps:       nonNil(r.Steps),
		Nutrition:   n,
	}
}

// ProcessRequest is the body of POST /process.
type ProcessRequest struct {
	Text string `json:"text"`
}

// ProcessResponse is the body answered by POST /process. Exactly one of
// Stopped, Recipe or Error is meaningful.
type ProcessResponse struct {
	Stopped bool          `json:"stopped,omitempty"`
	Message string        `json:"message,omitempty"`
	Recipe  *RemoteRecipe `json:"recipe,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
