package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mlorentedev/quill/internal/metrics"
)

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		status    int
		wantRoute string
	}{
		{"health ok", http.MethodGet, "/api/health", http.StatusOK, "/api/health"},
		{"revise bad request", http.MethodPost, "/api/revise", http.StatusBadRequest, "/api/revise"},
		{"unknown path collapses", http.MethodGet, "/wp-login.php", http.StatusNotFound, "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			handler := Metrics(inner)

			counter := metrics.RequestsTotal.WithLabelValues(tt.method, tt.wantRoute, strconv.Itoa(tt.status))
			before := testutil.ToFloat64(counter)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if after := testutil.ToFloat64(counter); after != before+1 {
				t.Errorf("counter: got %f, want %f", after, before+1)
			}
		})
	}
}

func TestMetricsInFlight(t *testing.T) {
	base := testutil.ToFloat64(metrics.InFlightRequests)

	var during float64
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.InFlightRequests)
	})

	Metrics(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if during != base+1 {
		t.Errorf("in flight during request: got %f, want %f", during, base+1)
	}
	if after := testutil.ToFloat64(metrics.InFlightRequests); after != base {
		t.Errorf("in flight after request: got %f, want %f", after, base)
	}
}
