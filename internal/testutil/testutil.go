// Package testutil provides shared test helpers for static directories and
// cache databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/chefgenie/internal/cachestore"
	"github.com/starford/chefgenie/internal/storage"
)

// CatalogJSON is the recipes.json written by TestStatic.
const CatalogJSON = `{
	"pasta carbonara": {
		"name": "Pasta Carbonara",
		"ingredients": ["spaghetti", "eggs", "pecorino", "guanciale"],
		"steps": ["Boil pasta.", "Fry guanciale.", "Toss with eggs and cheese."],
		"nutrition": {"calories": "650 kcal", "protein": "25 g"}
	},
	"pancakes": {
		"name": "Pancakes",
		"ingredients": ["flour", "milk", "egg"],
		"instructions": ["Whisk.", "Fry."]
	}
}`

// ShellFiles maps the shell assets written by TestStatic to their content.
var ShellFiles = map[string]string{
	"index.html":        "<!doctype html><title>ChefGenie</title>",
	"style.css":         "body{font-family:sans-serif}",
	"script.js":         "console.log('chefgenie')",
	"manifest.json":     `{"name":"ChefGenie"}`,
	"service-worker.js": "self.addEventListener('fetch', () => {})",
}

// TestCacheDB creates a temporary SQLite cache storage that is automatically cleaned up.
func TestCacheDB(t *testing.T) *cachestore.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "chefgenie-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := cachestore.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStatic creates a temporary static directory holding the shell assets
// and recipes.json, and returns it with a storage.Provider.
func TestStatic(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range ShellFiles {
		WriteFile(t, dir, name, content)
	}
	WriteFile(t, dir, "recipes.json", CatalogJSON)
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
