package middleware

import (
	"net/http"
	"strings"
)

// CORSMiddleware sets CORS headers on every response. allowOrigin is "*"
// (or empty), a single origin, or a comma separated list. With a list the
// request Origin is echoed back only when it is listed.
func CORSMiddleware(allowOrigin string) func(http.Handler) http.Handler {
	origins := parseOrigins(allowOrigin)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			switch {
			case origins == nil:
				h.Set("Access-Control-Allow-Origin", "*")
			case len(origins) == 1:
				h.Set("Access-Control-Allow-Origin", origins[0])
				h.Set("Access-Control-Allow-Credentials", "true")
			default:
				h.Add("Vary", "Origin")
				if origin := r.Header.Get("Origin"); containsOrigin(origins, origin) {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
			h.Set("Access-Control-Expose-Headers", "Retry-After")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// parseOrigins returns nil when any origin is allowed
func parseOrigins(allowOrigin string) []string {
	var origins []string
	for _, origin := range strings.Split(allowOrigin, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			return nil
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func containsOrigin(origins []string, origin string) bool {
	for _, o := range origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
