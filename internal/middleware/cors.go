// Package middleware provides the HTTP middleware chain for the API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/tonybigdeals/dog-project/internal/logging"
)

var (
	corsMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodDelete, http.MethodOptions, http.MethodPatch,
	}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Requested-With"}
	corsExposed = []string{"Content-Range", "X-Content-Range"}
)

const corsMaxAge = 86400

// OriginAllowed reports whether a browser origin may call the API. Local development
// hosts on any port and Vercel preview deployments are always allowed; everything else
// must appear in allowed.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
		return true
	}
	if strings.Contains(origin, "vercel.app") {
		return true
	}
	for _, o := range allowed {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

// CORS returns the cross-origin policy. Credentials are allowed, so the matched origin is
// echoed back rather than "*".
func CORS(allowed []string, logger *logging.Logger) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if OriginAllowed(origin, allowed) {
				return true
			}
			if logger != nil {
				logger.LogSecurityEvent(r.Context(), "cors_origin_rejected", map[string]interface{}{
					"origin": origin,
					"path":   r.URL.Path,
				})
			}
			return false
		},
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		ExposedHeaders:   corsExposed,
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
}
