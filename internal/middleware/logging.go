package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "edupost",
	Subsystem: "devserver",
	Name:      "http_requests_total",
	Help:      "HTTP requests by route pattern, method and status.",
}, []string{"route", "method", "status"})

var requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "edupost",
	Subsystem: "devserver",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency by route pattern and method.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs one line per request and records request metrics.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, elapsed.Truncate(time.Microsecond))
	})
}
