package api

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/chefgenie/internal/storage"
)

// ShellFiles are the top-level shell assets served from the static root.
var ShellFiles = []string{"index.html", "style.css", "script.js", "manifest.json", "service-worker.js"}

// StaticHandler serves files from the static directory.
type StaticHandler struct {
	store storage.Provider
}

// NewStaticHandler creates a handler rooted at store.
func NewStaticHandler(store storage.Provider) *StaticHandler {
	return &StaticHandler{store: store}
}

// File returns a handler that always serves name.
func (h *StaticHandler) File(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, name)
	}
}

// ServeFile handles GET /static/*.
func (h *StaticHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if name == "" {
		name = "index.html"
	}
	h.serve(w, r, name)
}

func (h *StaticHandler) serve(w http.ResponseWriter, r *http.Request, name string) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	info, err := h.store.Stat(name)
	if err == nil && info.IsDir() {
		name = path.Join(name, "index.html")
		info, err = h.store.Stat(name)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	data, err := h.store.Read(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	// ServeContent, unlike ServeFile, does not redirect /index.html.
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(data))
}
