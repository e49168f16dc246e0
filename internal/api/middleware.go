// Package api implements the ChefGenie HTTP surface using chi.
package api

import (
	"net/http"

	"github.com/go-chi/cors"
)

// corsHandler allows cross-origin calls from allowedOrigin with any header.
// An empty origin means any origin.
func corsHandler(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	})
}
