package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	serve := func(allowOrigin, method, origin string) *httptest.ResponseRecorder {
		called = false
		req := httptest.NewRequest(method, "/api/templates.compile", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		CORSMiddleware(allowOrigin)(next).ServeHTTP(w, req)
		return w
	}

	t.Run("empty allows any origin", func(t *testing.T) {
		w := serve("", http.MethodGet, "https://anywhere.test")

		assert.True(t, called)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Accept, Content-Type, Content-Length, Accept-Encoding", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "Retry-After", w.Header().Get("Access-Control-Expose-Headers"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("single origin is always sent", func(t *testing.T) {
		w := serve("https://editor.example.com/", http.MethodGet, "")

		assert.Equal(t, "https://editor.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("listed origin is echoed", func(t *testing.T) {
		w := serve("https://a.example.com, https://b.example.com", http.MethodPost, "https://b.example.com")

		assert.True(t, called)
		assert.Equal(t, "https://b.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("unlisted origin gets no allow header", func(t *testing.T) {
		w := serve("https://a.example.com,https://b.example.com", http.MethodPost, "https://evil.test")

		assert.True(t, called)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("wildcard in a list wins", func(t *testing.T) {
		w := serve("https://a.example.com, *", http.MethodGet, "https://evil.test")
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight stops at the middleware", func(t *testing.T) {
		w := serve("", http.MethodOptions, "https://editor.example.com")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, called)
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	})
}
