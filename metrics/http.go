package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dannycoates/elevatorsim/internal/constants"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by internal/http.Server.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "http_errors_total",
		Help:      "HTTP requests that completed with a 4xx/5xx status, labeled by class.",
	}, []string{"class"})
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsInFlight, httpErrorsTotal)
}

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, path, status string, seconds float64) {
	httpRequestDuration.With(prometheus.Labels{"method": method, "path": path, "status": status}).Observe(seconds)
}

// IncHTTPRequestsInFlight increments the in-flight gauge; pair with a
// deferred DecHTTPRequestsInFlight.
func IncHTTPRequestsInFlight() { httpRequestsInFlight.Inc() }

// DecHTTPRequestsInFlight decrements the in-flight gauge.
func DecHTTPRequestsInFlight() { httpRequestsInFlight.Dec() }

// IncHTTPError records one 4xx ("client_error") or 5xx ("server_error") response.
func IncHTTPError(class string) {
	httpErrorsTotal.With(prometheus.Labels{"class": class}).Inc()
}
