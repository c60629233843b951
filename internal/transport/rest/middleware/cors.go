package middleware

import (
	"net/http"

	"hectoclash/internal/config"
)

// CORS sets the configured cross-origin headers and answers preflight
// requests.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := orDefault(cfg.AllowedOrigins, "*")
	methods := orDefault(cfg.AllowedMethods, "GET, POST, PUT, DELETE, OPTIONS")
	headers := orDefault(cfg.AllowedHeaders, "Content-Type, Authorization")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
