package middleware

import (
	"net/http"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

// TracingMiddleware starts a server span per request. Query strings are left
// out of the span since preview data can carry recipient details.
func TracingMiddleware(next http.Handler) http.Handler {
	annotated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.FromContext(r.Context())
		if span == nil {
			next.ServeHTTP(w, r)
			return
		}

		span.AddAttributes(
			trace.StringAttribute("http.host", r.Host),
			trace.StringAttribute("http.user_agent", r.UserAgent()),
		)
		if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
			span.AddAttributes(trace.StringAttribute("http.request_id", requestID))
		}
		if contentType := r.Header.Get("Content-Type"); contentType != "" {
			span.AddAttributes(trace.StringAttribute("http.content_type", contentType))
		}

		next.ServeHTTP(&traceResponseWriter{ResponseWriter: w, span: span}, r)
	})

	return &ochttp.Handler{
		Handler: annotated,
		FormatSpanName: func(r *http.Request) string {
			return r.Method + " " + r.URL.Path
		},
		IsPublicEndpoint: true,
	}
}

// traceResponseWriter flags throttled responses on the request span
type traceResponseWriter struct {
	http.ResponseWriter
	span *trace.Span
}

func (trw *traceResponseWriter) WriteHeader(code int) {
	if code == http.StatusTooManyRequests {
		trw.span.AddAttributes(
			trace.BoolAttribute("http.throttled", true),
			trace.StringAttribute("http.retry_after", trw.Header().Get("Retry-After")),
		)
	}
	trw.ResponseWriter.WriteHeader(code)
}

func (trw *traceResponseWriter) Flush() {
	if flusher, ok := trw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

var _ http.Flusher = (*traceResponseWriter)(nil)
