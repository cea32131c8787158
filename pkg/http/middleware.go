// Package http pkg/http/middleware.go
package http

import (
	"net/http"
	"strings"

	"github.com/craftdeck/craftdeck/pkg/logger"
)

// CORSConfig controls the CORS headers the middleware emits.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// CommonMiddleware logs every request and applies CORS headers, answering
// preflight requests directly.
func CommonMiddleware(next http.Handler, cors CORSConfig, log logger.Logger) http.Handler {
	allowedOrigin := "*"
	if len(cors.AllowedOrigins) > 0 {
		allowedOrigin = strings.Join(cors.AllowedOrigins, ", ")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().
			Str("remote", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request")

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if cors.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// APIKeyMiddleware guards routes behind a static API key when one is
// configured. An empty configured key disables the check.
func APIKeyMiddleware(apiKey string, log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			requestKey := r.Header.Get("X-API-Key")
			if requestKey == "" {
				requestKey = r.URL.Query().Get("api_key")
			}

			if requestKey != apiKey {
				log.Warn().Str("method", r.Method).Str("path", r.URL.Path).Msg("Unauthorized API access attempt")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
