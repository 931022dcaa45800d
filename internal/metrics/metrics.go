package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	// SLI metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	JobsScheduled   prometheus.Counter
	JobFirings      *prometheus.CounterVec
	EmailFailures   *prometheus.CounterVec
	WeatherFailures prometheus.Counter
}

// New builds the metric set and registers it on reg. Tests pass a fresh
// prometheus.NewRegistry to avoid cross-test registration conflicts.
func New(serviceName string, reg prometheus.Registerer) *Metrics {
	httpLabels := []string{"method", "endpoint", "status_class"}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			httpLabels,
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    serviceName + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			httpLabels,
		),
		JobsScheduled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: serviceName + "_jobs_scheduled_total",
				Help: "Total number of notification jobs registered",
			},
		),
		JobFirings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_job_firings_total",
				Help: "Total number of notification job firings by outcome",
			},
			[]string{"outcome"},
		),
		EmailFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_email_failures_total",
				Help: "Total number of failed email dispatches by kind",
			},
			[]string{"kind"},
		),
		WeatherFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: serviceName + "_weather_failures_total",
				Help: "Total number of failed weather lookups",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.JobsScheduled,
		m.JobFirings,
		m.EmailFailures,
		m.WeatherFailures,
	)

	return m
}

// Middleware instruments gin requests with the SLI metrics.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		labels := prometheus.Labels{
			"method":       c.Request.Method,
			"endpoint":     c.FullPath(),
			"status_class": statusClass(c.Writer.Status()),
		}
		m.HTTPRequestsTotal.With(labels).Inc()
		m.HTTPRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= http.StatusInternalServerError:
		return "5xx"
	default:
		return "unknown"
	}
}
