// Package metrics provides Prometheus instrumentation for settlement, intake and the admin API.
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

var (
	// CyclesTotal counts settlement attempts by outcome.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zhigul_settlement_cycles_total",
		Help: "Settlement cycles by outcome",
	}, []string{"outcome"})

	// CycleDuration tracks how long the settlement transaction is held.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zhigul_settlement_cycle_duration_seconds",
		Help:    "Settlement cycle duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// WagersResolved counts resolved wagers by result.
	WagersResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zhigul_wagers_resolved_total",
		Help: "Resolved wagers by result",
	}, []string{"result"})

	// WagersDiscarded counts pending wagers cleared without resolution.
	WagersDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zhigul_wagers_discarded_total",
		Help: "Pending wagers cleared without being resolved",
	})

	// WagerIntake counts intake attempts by outcome.
	WagerIntake = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zhigul_wager_intake_total",
		Help: "Wager intake attempts by outcome",
	}, []string{"outcome"})

	// ForecastFailures counts cycles that kept a stale forecast.
	ForecastFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zhigul_forecast_failures_total",
		Help: "Forecast calls that failed or timed out",
	})

	// ChartFailures counts failed chart refreshes.
	ChartFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zhigul_chart_failures_total",
		Help: "Chart refreshes that failed",
	})

	// QueueRemaining tracks unconsumed future prices.
	QueueRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zhigul_future_queue_remaining",
		Help: "Future prices left in the queue",
	})

	// CurrentPrice tracks the price after the last cycle.
	CurrentPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zhigul_current_price",
		Help: "Current price of the signal",
	})

	// HTTPRequestsTotal counts admin HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zhigul_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zhigul_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "route"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
