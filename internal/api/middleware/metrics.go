package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LuckyLyon/Vibe-your-mind/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(wrapped.status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, path,
		).Observe(duration)
	})
}

// normalizePath normalizes paths to avoid high cardinality in metrics.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/channels/") && len(path) > len("/channels/") {
		if strings.HasSuffix(path, "/messages") {
			return "/channels/:id/messages"
		}
		if strings.HasSuffix(path, "/online") {
			return "/channels/:id/online"
		}
		return "/channels/:id"
	}
	if strings.HasPrefix(path, "/messages/") && len(path) > len("/messages/") {
		return "/messages/:id"
	}
	if strings.HasPrefix(path, "/ws/") && len(path) > len("/ws/") {
		return "/ws/:id"
	}
	return path
}
