// Package catalog holds the bundled offline recipe table.
//
// A Catalog is built once and never mutated afterwards. Key order is the
// order of the source document and decides which key wins when more than
// one matches a query.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/chefgenie/internal/models"
)

// Entry is a single key/recipe pair used to build a Catalog.
type Entry struct {
	Key    string
	Recipe models.Recipe
}

// Catalog is an ordered, read-only mapping from lookup key to recipe.
type Catalog struct {
	entries *orderedmap.OrderedMap[string, models.Recipe]
}

// Empty returns a catalog with no entries. Matching against it always misses.
func Empty() *Catalog {
	return &Catalog{entries: orderedmap.New[string, models.Recipe]()}
}

// New builds a catalog from entries, keeping their order. A later entry with
// a duplicate key replaces the earlier recipe but keeps the first position.
func New(entries ...Entry) (*Catalog, error) {
	c := Empty()
	for _, e := range entries {
		if err := validateRecipe(e.Key, e.Recipe); err != nil {
			return nil, err
		}
		c.entries.Set(e.Key, e.Recipe)
	}
	return c, nil
}

// Parse decodes a JSON object of key → recipe, preserving document order.
func Parse(data []byte) (*Catalog, error) {
	m := orderedmap.New[string, models.Recipe]()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if err := validateRecipe(pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	return &Catalog{entries: m}, nil
}

func validateRecipe(key string, r models.Recipe) error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("catalog: entry %q: %w", key, err)
	}
	return nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return c.entries.Len()
}

// Keys returns the lookup keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get returns the recipe stored under key.
func (c *Catalog) Get(key string) (models.Recipe, bool) {
	return c.entries.Get(key)
}

// Recipes returns every recipe in catalog order.
func (c *Catalog) Recipes() []models.Recipe {
	out := make([]models.Recipe, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Match returns the first entry whose lower-cased key is contained in query
// or contains query. query is expected to be lower-cased already.
func (c *Catalog) Match(query string) (string, models.Recipe, bool) {
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		k := strings.ToLower(pair.Key)
		if strings.Contains(query, k) || strings.Contains(k, query) {
			return pair.Key, pair.Value, true
		}
	}
	return "", models.Recipe{}, false
}

// MarshalJSON encodes the catalog as a JSON object in catalog order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return c.entries.MarshalJSON()
}
