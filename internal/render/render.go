// Package render turns resolver outcomes into the text shown and spoken to
// the user in a terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/chefgenie/internal/models"
	"github.com/starford/chefgenie/internal/resolver"
)

// Spoken lines.
const (
	OfflineSpeech    = "You are offline. And I couldn't find a local match."
	NoRecipeSpeech   = "No recipe found."
	ConnectionSpeech = "Couldn't connect to the server."
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fde68a"))
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#bae6fd")).Italic(true)
)

// Speech returns the sentence spoken for res.
func Speech(res resolver.Result) string {
	switch res.Kind {
	case resolver.KindLocalHit:
		return "Here's the recipe for " + res.Local.Name
	case resolver.KindRemoteHit:
		return "Here's the recipe for " + res.Remote.Title
	case resolver.KindOfflineMiss:
		return OfflineSpeech
	case resolver.KindRemoteMiss:
		if res.Message != "" {
			return res.Message
		}
		return NoRecipeSpeech
	case resolver.KindStopped:
		return res.Message
	default:
		return ConnectionSpeech
	}
}

// Result renders the card shown for res.
func Result(res resolver.Result) string {
	switch res.Kind {
	case resolver.KindLocalHit:
		return Recipe(*res.Local)
	case resolver.KindRemoteHit:
		return RemoteRecipe(*res.Remote)
	case resolver.KindOfflineMiss:
		return errorStyle.Render("You are offline. No matching local recipe found.")
	case resolver.KindRemoteMiss:
		msg := res.Message
		if msg == "" {
			msg = NoRecipeSpeech
		}
		return errorStyle.Render(msg)
	case resolver.KindStopped:
		return Status(res.Message)
	default:
		return errorStyle.Render("Failed to connect to server.")
	}
}

// Status renders a one-line status message.
func Status(msg string) string {
	return statusStyle.Render(msg)
}

// Recipe renders a catalog recipe.
func Recipe(r models.Recipe) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Name))
	b.WriteString("\n")
	writeList(&b, "Ingredients", r.Ingredients, false)
	writeList(&b, "Instructions", r.Steps, true)
	writeNutrition(&b, r.Nutrition)
	return strings.TrimRight(b.String(), "\n")
}

// RemoteRecipe renders a recipe answered by /process.
func RemoteRecipe(r models.RemoteRecipe) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Title))
	b.WriteString("\n")
	writeList(&b, "Ingredients", r.Ingredients, false)
	writeList(&b, "Steps", r.Steps, true)
	writeNutrition(&b, r.Nutrition)
	return strings.TrimRight(b.String(), "\n")
}

// Recipes renders the offline "all local recipes" listing.
func Recipes(recipes []models.Recipe) string {
	if len(recipes) == 0 {
		return errorStyle.Render("No recipes found.")
	}
	cards := make([]string, 0, len(recipes))
	for _, r := range recipes {
		cards = append(cards, Recipe(r))
	}
	return strings.Join(cards, "\n\n")
}

// RecipesSpeech is spoken after Recipes.
func RecipesSpeech(n int) string {
	if n == 0 {
		return "No recipes found."
	}
	return fmt.Sprintf("%d recipes found", n)
}

func writeList(b *strings.Builder, title string, items []string, numbered bool) {
	b.WriteString(sectionStyle.Render(title + ":"))
	b.WriteString("\n")
	for i, it := range items {
		if numbered {
			fmt.Fprintf(b, "  %d. %s\n", i+1, it)
		} else {
			fmt.Fprintf(b, "  - %s\n", it)
		}
	}
}

// writeNutrition prints nutrients in insertion order.
func writeNutrition(b *strings.Builder, n *models.Nutrition) {
	if n == nil || n.Len() == 0 {
		return
	}
	b.WriteString(sectionStyle.Render("Nutrition:"))
	b.WriteString("\n")
	for pair := n.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(b, "  %s: %v\n", pair.Key, pair.Value)
	}
}
