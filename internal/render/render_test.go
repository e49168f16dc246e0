package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/starford/chefgenie/internal/models"
	"github.com/starford/chefgenie/internal/resolver"
)

func TestSpeech(t *testing.T) {
	local := &models.Recipe{Name: "Pasta Carbonara"}
	remote := &models.RemoteRecipe{Title: "Tacos"}
	cases := []struct {
		res  resolver.Result
		want string
	}{
		{resolver.Result{Kind: resolver.KindLocalHit, Local: local}, "Here's the recipe for Pasta Carbonara"},
		{resolver.Result{Kind: resolver.KindRemoteHit, Remote: remote}, "Here's the recipe for Tacos"},
		{resolver.Result{Kind: resolver.KindOfflineMiss}, OfflineSpeech},
		{resolver.Result{Kind: resolver.KindRemoteMiss}, NoRecipeSpeech},
		{resolver.Result{Kind: resolver.KindRemoteMiss, Message: "No recipe found for 'zzz'"}, "No recipe found for 'zzz'"},
		{resolver.Result{Kind: resolver.KindStopped, Message: "ChefGenie conversation stopped."}, "ChefGenie conversation stopped."},
		{resolver.Result{Kind: resolver.KindConnectionError}, ConnectionSpeech},
	}
	for _, c := range cases {
		if got := Speech(c.res); got != c.want {
			t.Errorf("Speech(%s) = %q, want %q", c.res.Kind, got, c.want)
		}
	}
}

func TestRemoteRecipe_NutritionInOrder(t *testing.T) {
	var r models.RemoteRecipe
	data := `{"title":"Tacos","ingredients":["tortilla","beef"],"steps":["fill","fold"],"nutrition":{"protein":"20 g","calories":200,"fat":"9 g"}}`
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatal(err)
	}
	out := RemoteRecipe(r)
	for _, want := range []string{"Tacos", "- tortilla", "1. fill", "2. fold", "protein: 20 g", "calories: 200"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	p, c, f := strings.Index(out, "protein"), strings.Index(out, "calories"), strings.Index(out, "fat")
	if !(p < c && c < f) {
		t.Errorf("nutrition out of order:\n%s", out)
	}
}

func TestRecipe_NoNutritionSection(t *testing.T) {
	out := Recipe(models.Recipe{Name: "Toast", Ingredients: []string{"bread"}, Steps: []string{"toast"}})
	if strings.Contains(out, "Nutrition") {
		t.Errorf("unexpected nutrition section:\n%s", out)
	}
	if !strings.Contains(out, "Instructions") {
		t.Errorf("missing instructions:\n%s", out)
	}
}

func TestResult_Misses(t *testing.T) {
	if out := Result(resolver.Result{Kind: resolver.KindOfflineMiss}); !strings.Contains(out, "You are offline") {
		t.Errorf("offline card = %q", out)
	}
	if out := Result(resolver.Result{Kind: resolver.KindConnectionError}); !strings.Contains(out, "Failed to connect") {
		t.Errorf("connection card = %q", out)
	}
}

func TestRecipes(t *testing.T) {
	if out := Recipes(nil); !strings.Contains(out, "No recipes found.") {
		t.Errorf("empty listing = %q", out)
	}
	out := Recipes([]models.Recipe{{Name: "A"}, {Name: "B"}})
	if !strings.Contains(out, "A") || !strings.Contains(out, "B") {
		t.Errorf("listing = %q", out)
	}
	if RecipesSpeech(2) != "2 recipes found" || RecipesSpeech(0) != "No recipes found." {
		t.Error("unexpected listing speech")
	}
}
