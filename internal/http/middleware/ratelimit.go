package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Limiter decides whether a client may make another request in a namespace
type Limiter interface {
	Allow(namespace, key string) (bool, time.Duration)
}

// KeyFunc names the client a request is counted against
type KeyFunc func(r *http.Request) string

// RateLimitMiddleware rejects requests over the namespace limit with 429
// and a Retry-After header. Clients are keyed by key, or by ClientIP when
// key is nil.
func RateLimitMiddleware(limiter Limiter, namespace string, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := limiter.Allow(namespace, key(r))
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are
// ignored since any client can set them.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ForwardedClientIP returns the first valid X-Forwarded-For address, falling
// back to ClientIP. Only use it behind a proxy that rewrites the header.
func ForwardedClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return ClientIP(r)
}
