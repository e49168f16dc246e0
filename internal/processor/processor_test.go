package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/chefgenie/internal/apperr"
	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/models"
)

type fakeProvider struct {
	calls  int
	dishes []string
	recipe *models.RemoteRecipe
	err    error
}

func (f *fakeProvider) Lookup(_ context.Context, dish string) (*models.RemoteRecipe, error) {
	f.calls++
	f.dishes = append(f.dishes, dish)
	return f.recipe, f.err
}

type staticCatalog struct{ c *catalog.Catalog }

func (s staticCatalog) Current() *catalog.Catalog { return s.c }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func localCatalog(t *testing.T) staticCatalog {
	t.Helper()
	c, err := catalog.Parse([]byte(`{
		"pancakes": {"name":"Pancakes","ingredients":["flour","milk"],"steps":["mix","fry"],"nutrition":{"calories":"350 kcal","protein":"8 g"}}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return staticCatalog{c}
}

func TestDish(t *testing.T) {
	cases := map[string]string{
		"How to make Pancakes":           "pancakes",
		"recipe for tacos":               "tacos",
		"Hey ChefGenie recipe for ramen": "ramen",
		"  soup  ":                       "soup",
	}
	for in, want := range cases {
		if got := Dish(in); got != want {
			t.Errorf("Dish(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProcess_StopWords(t *testing.T) {
	prov := &fakeProvider{}
	p := New(prov, localCatalog(t), testLogger())
	for _, w := range []string{"stop", "Cancel", "EXIT", "quit"} {
		resp, err := p.Process(context.Background(), w)
		if err != nil {
			t.Fatalf("Process(%q): %v", w, err)
		}
		if !resp.Stopped || resp.Message != StoppedMessage || resp.Recipe != nil {
			t.Errorf("Process(%q) = %+v", w, resp)
		}
	}
	if prov.calls != 0 {
		t.Errorf("provider calls = %d, want 0", prov.calls)
	}
}

func TestProcess_StopWordInsideSentenceIsADish(t *testing.T) {
	p := New(nil, localCatalog(t), testLogger())
	resp, _ := p.Process(context.Background(), "bus stop sandwich")
	if resp.Stopped {
		t.Error("only an exact stop word stops the conversation")
	}
}

func TestProcess_ProviderFirst(t *testing.T) {
	prov := &fakeProvider{recipe: &models.RemoteRecipe{Title: "Fluffy Pancakes", Ingredients: []string{}, Steps: []string{}, Nutrition: models.NewNutrition()}}
	p := New(prov, localCatalog(t), testLogger())

	resp, err := p.Process(context.Background(), "how to make pancakes")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Recipe == nil || resp.Recipe.Title != "Fluffy Pancakes" {
		t.Errorf("recipe = %+v", resp.Recipe)
	}
	if len(prov.dishes) != 1 || prov.dishes[0] != "pancakes" {
		t.Errorf("provider dishes = %v", prov.dishes)
	}
}

func TestProcess_FallsBackToCatalog(t *testing.T) {
	for name, err := range map[string]error{
		"not found": fmt.Errorf("spoonacular: %w", apperr.ErrNotFound),
		"failure":   errors.New("timeout"),
	} {
		t.Run(name, func(t *testing.T) {
			p := New(&fakeProvider{err: err}, localCatalog(t), testLogger())
			resp, perr := p.Process(context.Background(), "recipe for pancakes")
			if perr != nil {
				t.Fatalf("Process: %v", perr)
			}
			got, _ := json.Marshal(resp)
			want := `{"recipe":{"title":"Pancakes","ingredients":["flour","milk"],"steps":["mix","fry"],"nutrition":{"calories":"350 kcal","protein":"8 g"}}}`
			if string(got) != want {
				t.Errorf("response = %s\nwant %s", got, want)
			}
		})
	}
}

func TestProcess_NotFound(t *testing.T) {
	p := New(nil, localCatalog(t), testLogger())
	resp, err := p.Process(context.Background(), "sushi")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Error != "No recipe found for 'sushi'" || resp.Recipe != nil || resp.Stopped {
		t.Errorf("response = %+v", resp)
	}
}

func TestProcess_EmptyDishSkipsLookup(t *testing.T) {
	prov := &fakeProvider{}
	p := New(prov, localCatalog(t), testLogger())
	resp, _ := p.Process(context.Background(), "hey chefgenie")
	if resp.Error != "No recipe found for ''" {
		t.Errorf("response = %+v", resp)
	}
	if prov.calls != 0 {
		t.Errorf("provider calls = %d, want 0", prov.calls)
	}
}

func TestProcess_NilCatalog(t *testing.T) {
	p := New(nil, nil, testLogger())
	resp, _ := p.Process(context.Background(), "pancakes")
	if resp.Error == "" {
		t.Errorf("response = %+v", resp)
	}
}
