package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "pantrychef"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Workflow metrics
	workflowStepsTotal   *prometheus.CounterVec
	workflowStepDuration *prometheus.HistogramVec
	workflowRunsTotal    *prometheus.CounterVec
	workflowRunDuration  *prometheus.HistogramVec
	workflowIterations   prometheus.Histogram
	workflowExtrasAdded  prometheus.Histogram

	// AI metrics
	llmCallsTotal   *prometheus.CounterVec
	llmCallDuration *prometheus.HistogramVec
}

// NewMetricsCollector creates a collector on its own registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	m := &MetricsCollector{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		httpResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		workflowStepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_steps_total",
				Help:      "Workflow steps executed by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		workflowStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_step_duration_seconds",
				Help:      "Workflow step duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"step"},
		),
		workflowRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_runs_total",
				Help:      "Completed workflow runs by status and recipe source",
			},
			[]string{"status", "source"},
		),
		workflowRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_run_duration_seconds",
				Help:      "End to end workflow duration in seconds",
				Buckets:   []float64{.05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		workflowIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_iterations",
				Help:      "Generate and review iterations per run",
				Buckets:   prometheus.LinearBuckets(0, 1, 6),
			},
		),
		workflowExtrasAdded: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_extra_ingredients",
				Help:      "Extra ingredients added by the reviewer per run",
				Buckets:   prometheus.LinearBuckets(0, 1, 5),
			},
		),

		llmCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_calls_total",
				Help:      "Language model calls by provider, purpose and status",
			},
			[]string{"provider", "purpose", "status"},
		),
		llmCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_call_duration_seconds",
				Help:      "Language model call duration in seconds",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "purpose"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpResponseSize,
		m.workflowStepsTotal,
		m.workflowStepDuration,
		m.workflowRunsTotal,
		m.workflowRunDuration,
		m.workflowIterations,
		m.workflowExtrasAdded,
		m.llmCallsTotal,
		m.llmCallDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPMiddleware creates a Gin middleware for HTTP metrics collection
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		statusCode := strconv.Itoa(c.Writer.Status())

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			m.httpResponseSize.WithLabelValues(c.Request.Method, path).Observe(float64(size))
		}
	}
}

// ObserveStep records a single workflow step
func (m *MetricsCollector) ObserveStep(step string, outcome string, duration time.Duration) {
	m.workflowStepsTotal.WithLabelValues(step, outcome).Inc()
	m.workflowStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// ObserveRun records a finished workflow run
func (m *MetricsCollector) ObserveRun(status string, source string, iterations int, extras int, duration time.Duration) {
	if source == "" {
		source = "none"
	}
	m.workflowRunsTotal.WithLabelValues(status, source).Inc()
	m.workflowRunDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.workflowIterations.Observe(float64(iterations))
	m.workflowExtrasAdded.Observe(float64(extras))
}

// ObserveLLMCall records a language model round trip
func (m *MetricsCollector) ObserveLLMCall(provider, purpose, status string, duration time.Duration) {
	m.llmCallsTotal.WithLabelValues(provider, purpose, status).Inc()
	m.llmCallDuration.WithLabelValues(provider, purpose).Observe(duration.Seconds())
}

// RegisterCacheStats exposes hit and miss counters read from stats on scrape
func (m *MetricsCollector) RegisterCacheStats(backend string, stats func() (hits, misses int64)) {
	labels := prometheus.Labels{"backend": backend}
	err := m.registry.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "cache_hits_total",
		Help:        "Cache hits",
		ConstLabels: labels,
	}, func() float64 {
		hits, _ := stats()
		return float64(hits)
	}))
	if err == nil {
		err = m.registry.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_misses_total",
			Help:        "Cache misses",
			ConstLabels: labels,
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}))
	}
	if err != nil {
		m.logger.Warn("Failed to register cache metrics", zap.String("backend", backend), zap.Error(err))
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
