package mcpserver

// CatalogFormatGuide describes the recipes.json document served as the
// offline catalog.
const CatalogFormatGuide = `# ChefGenie Catalog Format

The offline catalog is a single JSON object. Each member is one recipe.

## Structure

` + "```" + `json
{
  "pasta carbonara": {
    "name": "Pasta Carbonara",
    "ingredients": ["200 g spaghetti", "2 eggs"],
    "steps": ["Boil the pasta.", "Mix with eggs off the heat."],
    "nutrition": {"calories": "650 kcal", "protein": "25 g"}
  }
}
` + "```" + `

## Rules

1. **Keys are lookup phrases.** A request matches a key when the request contains
   the key or the key contains the request (case-insensitive).
2. **Order matters.** Keys are tried in document order and the first match wins.
   Put more specific keys before general ones.
3. **` + "`" + `name` + "`" + ` is required** and is what gets displayed and spoken.
4. **` + "`" + `steps` + "`" + `** lists the instructions in order. Older documents may use
   ` + "`" + `instructions` + "`" + ` instead; it is read when ` + "`" + `steps` + "`" + ` is absent.
5. **` + "`" + `nutrition` + "`" + `** is optional. Values are strings or numbers and are shown in
   document order.
`
