package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.status = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Flush keeps SSE streams working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetrics records one request sample per HTTP request served by the
// SSE and streamable HTTP transports. A nil or disabled provider makes it a
// pass-through.
func HTTPMetrics(provider *instrumentation.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !provider.Enabled() {
			return next
		}
		metrics := provider.Metrics()
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			metrics.RecordHTTPRequest(r.Context(), r.Method, normalizePath(r.URL.Path), rec.status, time.Since(start))
		})
	}
}

var (
	uuidPattern      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	sessionIDPattern = regexp.MustCompile(`^/(mcp|message)/[a-zA-Z0-9_-]{8,64}$`)
	numericIDPattern = regexp.MustCompile(`/\d+(/|$)`)
)

// normalizePath bounds the path label: session IDs, UUIDs and numeric
// segments are replaced by placeholders.
func normalizePath(path string) string {
	if m := sessionIDPattern.FindStringSubmatch(path); m != nil {
		return "/" + m[1] + "/:session"
	}
	path = uuidPattern.ReplaceAllString(path, ":uuid")
	return numericIDPattern.ReplaceAllString(path, "/:id$1")
}
