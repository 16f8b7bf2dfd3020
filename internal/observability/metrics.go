// Package observability provides Prometheus metrics for napwatch.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace is the namespace for all napwatch metrics.
const MetricsNamespace = "napwatch"

// Run outcome labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal         *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	RunsInFlight      prometheus.Gauge
	TriggersCoalesced prometheus.Counter
	LastSuccess       prometheus.Gauge

	LinksDiscovered   prometheus.Gauge
	ArticlesExtracted prometheus.Counter
	FieldFallbacks    *prometheus.CounterVec
	DatasetRecords    prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates a private registry and registers every collector on it.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.RunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total number of harvest runs by trigger and outcome",
	}, []string{"trigger", "status"})

	m.RunDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Duration of harvest runs in seconds",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
	}, []string{"trigger"})

	m.RunsInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: "scheduler",
		Name:      "runs_in_flight",
		Help:      "1 while a harvest run is active",
	})

	m.TriggersCoalesced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "scheduler",
		Name:      "triggers_coalesced_total",
		Help:      "Triggers that joined an already running harvest",
	})

	m.LastSuccess = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: "pipeline",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})

	m.LinksDiscovered = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: "pipeline",
		Name:      "links_discovered",
		Help:      "Distinct article links found by the last run",
	})

	m.ArticlesExtracted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "pipeline",
		Name:      "articles_extracted_total",
		Help:      "Article pages extracted",
	})

	m.FieldFallbacks = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "extractor",
		Name:      "field_fallbacks_total",
		Help:      "Fields that fell back to their default value",
	}, []string{"field"})

	m.DatasetRecords = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: "storage",
		Name:      "dataset_records",
		Help:      "Records in the current snapshot",
	})

	m.HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})

	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunStarted marks a run as active.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsInFlight.Set(1)
}

// RunFinished records the outcome of a run.
func (m *Metrics) RunFinished(trigger string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RunsInFlight.Set(0)
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	} else {
		m.LastSuccess.SetToCurrentTime()
	}
	m.RunsTotal.WithLabelValues(trigger, status).Inc()
	m.RunDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

// TriggerCoalesced counts a trigger that joined a running harvest.
func (m *Metrics) TriggerCoalesced() {
	if m == nil {
		return
	}
	m.TriggersCoalesced.Inc()
}

// LinksFound records the link count of the current run.
func (m *Metrics) LinksFound(n int) {
	if m == nil {
		return
	}
	m.LinksDiscovered.Set(float64(n))
}

// ArticleExtracted counts one extracted article page.
func (m *Metrics) ArticleExtracted() {
	if m == nil {
		return
	}
	m.ArticlesExtracted.Inc()
}

// FieldFallback counts a field that used its default value.
func (m *Metrics) FieldFallback(field string) {
	if m == nil {
		return
	}
	m.FieldFallbacks.WithLabelValues(field).Inc()
}

// DatasetReplaced records the size of the new snapshot.
func (m *Metrics) DatasetReplaced(n int) {
	if m == nil {
		return
	}
	m.DatasetRecords.Set(float64(n))
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, httpCode(code)).Inc()
}

func httpCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
