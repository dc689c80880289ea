package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func TestInit_RegistersWithoutPanic(t *testing.T) {
	Init(prometheus.NewRegistry())
}

func TestInit_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on double registration, but Init did not panic")
		}
	}()
	Init(reg)
}

// counterValue reads a counter from the default registry by name and labels.
func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	labels := map[string]string{"method": "GET", "route": "/api/tasks/{id}", "status": "418"}
	before := counterValue(t, "minihub_http_requests_total", labels)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/abc-123", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	if got := counterValue(t, "minihub_http_requests_total", labels); got != before+1 {
		t.Errorf("counter = %v; want %v", got, before+1)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	ActivitiesRecorded.WithLabelValues("TASK").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "minihub_activities_recorded_total") {
		t.Error("expected activities counter in /metrics output")
	}
}
