package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restops_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restops_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ReservationOutcomes counts workflow results by operation and result
	// ("ok" or an error kind).
	ReservationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restops_reservation_outcomes_total",
			Help: "Reservation workflow outcomes",
		},
		[]string{"operation", "result"},
	)

	AvailabilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restops_availability_checks_total",
			Help: "Availability checks by result",
		},
		[]string{"available"},
	)

	SlotLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "restops_slot_lock_wait_seconds",
			Help:    "Time spent waiting for a slot lock",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
		},
	)

	ReorderItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restops_menu_reorder_items_total",
			Help: "Menu reorder item writes by result",
		},
		[]string{"result"},
	)

	// ClientBreakerState is 0 closed, 1 open, 2 half-open.
	ClientBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restops_client_breaker_state",
			Help: "API client circuit breaker state",
		},
		[]string{"name"},
	)

	SweptReservations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restops_swept_reservations_total",
			Help: "Reservations auto-completed by the outcome sweeper",
		},
	)
)

// Middleware records request counts and latency labelled by the chi route
// pattern, so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
