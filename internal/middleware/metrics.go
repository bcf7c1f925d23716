package middleware

import (
	"net/http"
	"strconv"

	"github.com/mlorentedev/quill/internal/metrics"
)

// routes bounds the path label; anything else is recorded as "other".
var routes = map[string]bool{
	"/api/health": true,
	"/api/models": true,
	"/api/revise": true,
	"/api/code":   true,
	"/api/ws":     true,
	"/metrics":    true,
}

func routeLabel(path string) string {
	if routes[path] {
		return path
	}
	return "other"
}

// Metrics records request count by method, route, and status code, and keeps
// the in-flight gauge current for the lifetime of each request.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.InFlightRequests.Inc()
		defer metrics.InFlightRequests.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.RequestsTotal.WithLabelValues(r.Method, routeLabel(r.URL.Path), strconv.Itoa(sw.status)).Inc()
	})
}
