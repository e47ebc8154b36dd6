package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the storefront and admin frontends listed in origins. The
// localhost dev server is allowed when none are configured.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			IdempotencyKeyHeader,
			AdminKeyHeader,
			requestIDHeader,
		},
		ExposedHeaders:   []string{requestIDHeader, replayedHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
