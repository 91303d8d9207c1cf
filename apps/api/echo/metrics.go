package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsPath = "/metrics"

type metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	studentsExports prometheus.Counter
	insights        *prometheus.CounterVec
}

// newMetrics uses its own registry so that several servers (tests) can coexist in one process.
func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shikkhaloy",
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, by route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shikkhaloy",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		studentsExports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shikkhaloy",
			Name:      "student_exports_total",
			Help:      "Student roster CSV exports served.",
		}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shikkhaloy",
			Name:      "student_insights_total",
			Help:      "Student insights requested, by language.",
		}, []string{"lang"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.studentsExports, m.insights,
	)
	return m
}

func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if ctx.Path() == metricsPath {
			return next(ctx)
		}
		start := time.Now()
		if err := next(ctx); err != nil {
			// render the error now so that its status code gets recorded
			ctx.Error(err)
		}

		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		m.duration.WithLabelValues(ctx.Request().Method, route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(ctx.Request().Method, route, strconv.Itoa(ctx.Response().Status)).Inc()
		return nil
	}
}

func (m *metrics) handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
