// Package metrics provides Prometheus instrumentation for the server.
//
// Exposed at GET /metrics:
//
//	minihub_http_requests_total          counter: requests by method, route and status
//	minihub_http_request_duration_seconds histogram: latency by method and route
//	minihub_activities_recorded_total    counter: activity records by category
//	minihub_auth_events_total            counter: auth events by event and result
//	minihub_table_rows                   gauge: row count per table
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPRequests counts HTTP requests by method, route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(httpRequestsOpts, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(httpDurationOpts, []string{"method", "route"})

// ActivitiesRecorded counts appended activity records by category.
var ActivitiesRecorded = promauto.NewCounterVec(activitiesOpts, []string{"category"})

// AuthEvents counts auth events (register, login, admin_login) by result.
var AuthEvents = promauto.NewCounterVec(authEventsOpts, []string{"event", "result"})

// TableRows is the last observed row count per table.
var TableRows = promauto.NewGaugeVec(tableRowsOpts, []string{"table"})

var (
	httpRequestsOpts = prometheus.CounterOpts{
		Name: "minihub_http_requests_total",
		Help: "Total HTTP requests handled.",
	}
	httpDurationOpts = prometheus.HistogramOpts{
		Name:    "minihub_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}
	activitiesOpts = prometheus.CounterOpts{
		Name: "minihub_activities_recorded_total",
		Help: "Activity records appended, by category.",
	}
	authEventsOpts = prometheus.CounterOpts{
		Name: "minihub_auth_events_total",
		Help: "Auth events by type and result.",
	}
	tableRowsOpts = prometheus.GaugeOpts{
		Name: "minihub_table_rows",
		Help: "Row count per table, refreshed periodically.",
	}
)

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. Routes are labelled with
// the chi route pattern so ids do not blow up label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Init registers a fresh copy of every metric with reg. Intended for tests
// that need an isolated registry; production uses the promauto globals.
func Init(reg prometheus.Registerer) {
	reg.MustRegister(
		prometheus.NewCounterVec(httpRequestsOpts, []string{"method", "route", "status"}),
		prometheus.NewHistogramVec(httpDurationOpts, []string{"method", "route"}),
		prometheus.NewCounterVec(activitiesOpts, []string{"category"}),
		prometheus.NewCounterVec(authEventsOpts, []string{"event", "result"}),
		prometheus.NewGaugeVec(tableRowsOpts, []string{"table"}),
	)
}
