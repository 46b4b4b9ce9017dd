// Package metrics exposes scan, probe and enrichment metrics for
// Prometheus scraping.
//
// All methods are safe on a nil *Metrics, so components can take an
// optional collector without checking for it.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siteintel"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec

	scansTotal    *prometheus.CounterVec
	scanDuration  prometheus.Histogram
	scansInFlight prometheus.Gauge
	scanErrors    prometheus.Histogram

	enrichTotal *prometheus.CounterVec

	requestsTotal *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Probe runs by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	m.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Wall time of a probe run",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		},
		[]string{"tool"},
	)

	m.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed scans by result",
		},
		[]string{"result"},
	)

	m.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall time of a full scan",
		Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90, 120, 150},
	})

	m.scansInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scans_in_flight",
		Help:      "Scans currently running",
	})

	m.scanErrors = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_report_errors",
		Help:      "Number of entries in a report's error list",
		Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
	})

	m.enrichTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_lookups_total",
			Help:      "IP ownership lookups by source and result",
		},
		[]string{"source", "result"},
	)

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Front end requests by route and status code",
		},
		[]string{"route", "code"},
	)

	collectors := []prometheus.Collector{
		m.probesTotal,
		m.probeDuration,
		m.scansTotal,
		m.scanDuration,
		m.scansInFlight,
		m.scanErrors,
		m.enrichTotal,
		m.requestsTotal,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveProbe records one probe run. outcome is the runner's outcome tag.
func (m *Metrics) ObserveProbe(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(tool, outcome).Inc()
	m.probeDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ScanStarted marks a scan as in flight.
func (m *Metrics) ScanStarted() {
	if m == nil {
		return
	}
	m.scansInFlight.Inc()
}

// ScanFinished records a finished scan. deadlineHit reports whether the
// global deadline cut the batch short.
func (m *Metrics) ScanFinished(elapsed time.Duration, errCount int, deadlineHit bool) {
	if m == nil {
		return
	}
	m.scansInFlight.Dec()

	result := "complete"
	switch {
	case deadlineHit:
		result = "deadline"
	case errCount > 0:
		result = "partial"
	}
	m.scansTotal.WithLabelValues(result).Inc()
	m.scanDuration.Observe(elapsed.Seconds())
	m.scanErrors.Observe(float64(errCount))
}

// ObserveEnrich records one enrichment source lookup.
func (m *Metrics) ObserveEnrich(source string, err error, _ time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.enrichTotal.WithLabelValues(source, result).Inc()
}

// ObserveRequest records one front end response.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, fmt.Sprintf("%d", code)).Inc()
}
